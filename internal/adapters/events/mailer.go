package events

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMailer stands in for a real delivery provider. It logs that a link
// was issued without ever logging the link itself.
type LoggingMailer struct{}

func NewLoggingMailer() *LoggingMailer { return &LoggingMailer{} }

func (m *LoggingMailer) SendMagicLink(ctx context.Context, email, link string, expiresAt time.Time) error {
	_ = link
	slog.Default().InfoContext(ctx, "magic link issued",
		"module", "mailer",
		"layer", "adapter",
		"operation", "send_magic_link",
		"outcome", "success",
		"recipient", email,
		"expires_at", expiresAt,
	)
	return nil
}

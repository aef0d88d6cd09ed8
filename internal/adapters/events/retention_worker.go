package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/venuescout/auth-service/internal/ports"
)

// RetentionWorker prunes expired magic links, expired sessions, and aged
// rate-limit records on a fixed interval.
type RetentionWorker struct {
	logger           *slog.Logger
	magicLinks       ports.MagicLinkRepository
	sessions         ports.SessionRepository
	rateLimitRecords ports.RateLimitRecordRepository
	interval         time.Duration
	sessionGrace     time.Duration
	rateRecordTTL    time.Duration
}

// NewRetentionWorker constructs the pruning loop with sane defaults.
func NewRetentionWorker(
	logger *slog.Logger,
	magicLinks ports.MagicLinkRepository,
	sessions ports.SessionRepository,
	rateLimitRecords ports.RateLimitRecordRepository,
	interval time.Duration,
) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionWorker{
		logger:           logger,
		magicLinks:       magicLinks,
		sessions:         sessions,
		rateLimitRecords: rateLimitRecords,
		interval:         interval,
		sessionGrace:     24 * time.Hour,
		rateRecordTTL:    30 * 24 * time.Hour,
	}
}

// Run executes the periodic prune loop until context cancellation.
func (w *RetentionWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.pruneOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "retention iteration failed",
				"module", "events.retention_worker",
				"layer", "adapter",
				"operation", "prune_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *RetentionWorker) pruneOnce(ctx context.Context) error {
	now := time.Now().UTC()

	links, err := w.magicLinks.DeleteExpiredBefore(ctx, now)
	if err != nil {
		return err
	}

	// Expired sessions stay queryable for a day so late revocation audits
	// can still resolve the row.
	sessions, err := w.sessions.DeleteExpiredBefore(ctx, now.Add(-w.sessionGrace))
	if err != nil {
		return err
	}

	rateRecords, err := w.rateLimitRecords.DeleteOlderThan(ctx, now.Add(-w.rateRecordTTL))
	if err != nil {
		return err
	}

	if links > 0 || sessions > 0 || rateRecords > 0 {
		w.logger.InfoContext(ctx, "retention prune completed",
			"module", "events.retention_worker",
			"layer", "adapter",
			"operation", "prune_once",
			"outcome", "success",
			"magic_links_deleted", links,
			"sessions_deleted", sessions,
			"rate_records_deleted", rateRecords,
		)
	}
	return nil
}

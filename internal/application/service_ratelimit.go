package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

func rateKey(class, subject string) string {
	return class + ":" + strings.ToLower(strings.TrimSpace(subject))
}

// consumeRateLimit spends one attempt from the class budget for subject.
// Returns a RateLimitError carrying retry-after once the budget is exhausted.
// A counter-store outage fails open: availability of sign-in outranks strict
// limiting when Redis is down, and the outage is logged.
func (s *Service) consumeRateLimit(ctx context.Context, class, subject string, meta RequestMeta) error {
	policy, ok := s.cfg.RateLimits[class]
	if !ok || policy.Limit <= 0 || policy.Window <= 0 {
		return nil
	}
	if strings.TrimSpace(subject) == "" {
		return nil
	}

	count, remaining, err := s.counters.Incr(ctx, rateKey(class, subject), policy.Window)
	if err != nil {
		slog.Default().WarnContext(ctx, "rate counter unavailable",
			"module", "application",
			"layer", "application",
			"operation", "rate_limit",
			"outcome", "warning",
			"endpoint_class", class,
			"error", err,
		)
		return nil
	}
	if count <= policy.Limit {
		return nil
	}

	now := s.nowFn()
	if err := s.rateRecords.Insert(ctx, domain.RateLimitRecord{
		Key:           subject,
		EndpointClass: class,
		WindowStart:   now.Add(remaining - policy.Window),
		BlockedUntil:  now.Add(remaining),
		CreatedAt:     now,
	}); err != nil {
		slog.Default().WarnContext(ctx, "rate limit record insert failed",
			"module", "application",
			"layer", "application",
			"operation", "rate_limit",
			"outcome", "warning",
			"endpoint_class", class,
			"error", err,
		)
	}
	s.audit.Record(ports.AuditEntry{
		Action:     "rate_limit.blocked",
		TargetType: "rate_limit",
		TargetID:   subject,
		Meta: map[string]any{
			"endpoint_class": class,
			"retry_after_ms": remaining.Milliseconds(),
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return &domain.RateLimitError{RetryAfter: remaining}
}

// resetRateLimit clears the class counter for subject after a successful
// sensitive verification so legitimate users are not penalized for earlier
// typos in the same window.
func (s *Service) resetRateLimit(ctx context.Context, class, subject string) {
	if strings.TrimSpace(subject) == "" {
		return
	}
	if err := s.counters.Reset(ctx, rateKey(class, subject)); err != nil {
		slog.Default().WarnContext(ctx, "rate counter reset failed",
			"module", "application",
			"layer", "application",
			"operation", "rate_limit_reset",
			"outcome", "warning",
			"endpoint_class", class,
			"error", err,
		)
	}
}

// RemainingAttempts reports how much of the class budget subject has left.
func (s *Service) RemainingAttempts(ctx context.Context, class, subject string) (int64, error) {
	policy, ok := s.cfg.RateLimits[class]
	if !ok {
		return 0, nil
	}
	count, err := s.counters.Count(ctx, rateKey(class, subject))
	if err != nil {
		return 0, err
	}
	left := policy.Limit - count
	if left < 0 {
		left = 0
	}
	return left, nil
}

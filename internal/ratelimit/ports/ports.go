// Package ports defines the interfaces the usage limiter depends on.
package ports

import (
	"context"
	"log/slog"
	"time"

	"aigateway/internal/ratelimit/models"
	"aigateway/pkg/platform/audit"
	"aigateway/pkg/requestcontext"
)

// AuditPublisher emits audit events for limiter rejections.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CounterStore manages sliding-window admission counters.
type CounterStore interface {
	// Admit atomically records one admission for key if fewer than limit admissions
	// fall inside the trailing window, and reports the outcome either way.
	Admit(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)

	// Count returns the number of admissions inside the trailing window.
	Count(ctx context.Context, key string, window time.Duration) (int, error)

	// Reset clears all admissions recorded for key.
	Reset(ctx context.Context, key string) error
}

// LogAudit logs an audit event and forwards it to the publisher if one is set.
// Publisher failures are logged and otherwise ignored.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if logger != nil {
		logger.InfoContext(ctx, string(event.Action),
			"event", string(event.Action),
			"log_type", "audit",
			"subject", event.Subject,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event.Action), "error", err)
	}
}

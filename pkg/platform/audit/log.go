package audit

import (
	"context"
	"log/slog"
	"time"
)

// LogPublisher writes audit events to the structured logger.
type LogPublisher struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLogPublisher creates a publisher that logs every event at info level.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger, now: time.Now}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	event = event.Normalize(p.now())
	attrs := []any{
		"log_type", "audit",
		"event", string(event.Action),
		"category", string(event.Category),
		"severity", string(event.Severity),
	}
	for _, kv := range [][2]string{
		{"subject", event.Subject},
		{"user_id", event.UserID},
		{"school_id", event.SchoolID},
		{"ip", event.IP},
		{"request_id", event.RequestID},
		{"generator", event.Generator},
		{"reason", event.Reason},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	if event.DurationMS > 0 {
		attrs = append(attrs, "duration_ms", event.DurationMS)
	}
	p.logger.InfoContext(ctx, string(event.Action), attrs...)
	return nil
}

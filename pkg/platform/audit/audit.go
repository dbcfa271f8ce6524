// Package audit carries security and operational events out of the request path.
// Emission is best-effort: publishers log their own failures and callers never
// fail a request because an audit event could not be delivered.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategorySecurity covers events relevant to abuse monitoring and alerting.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity useful for cost and usage reporting.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventRateLimitExceeded   AuditEvent = "rate_limit_exceeded"
	EventRateLimitReset      AuditEvent = "rate_limit_reset"
	EventGenerationCompleted AuditEvent = "generation_completed"
	EventGenerationFailed    AuditEvent = "generation_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRateLimitExceeded:   CategorySecurity,
	EventRateLimitReset:      CategorySecurity,
	EventGenerationFailed:    CategoryOperations,
	EventGenerationCompleted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Severity levels for routing.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event is a transport-agnostic audit record.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	Category  EventCategory `json:"category"`
	Action    AuditEvent    `json:"action"`
	Severity  Severity      `json:"severity,omitempty"`
	// Subject is the limiter subject or caller the event is about.
	Subject   string `json:"subject,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SchoolID  string `json:"school_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Generator names the generation endpoint (quiz, lesson, ...).
	Generator  string `json:"generator,omitempty"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Normalize fills the timestamp and category when unset.
func (e Event) Normalize(now time.Time) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.Category == "" {
		e.Category = e.Action.Category()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
		if e.Category == CategorySecurity {
			e.Severity = SeverityWarning
		}
	}
	return e
}

// Publisher emits audit events.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Fanout emits each event to every publisher and returns the first error.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

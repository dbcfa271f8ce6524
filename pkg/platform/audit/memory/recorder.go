// Package memory provides an in-process audit publisher for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	audit "aigateway/pkg/platform/audit"
)

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Normalize(time.Now()))
	return nil
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []audit.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]audit.Event{}, r.events...)
}

// ByAction returns the recorded events with the given action.
func (r *Recorder) ByAction(action audit.AuditEvent) []audit.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []audit.Event
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

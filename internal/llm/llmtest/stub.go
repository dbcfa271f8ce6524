// Package llmtest provides a scripted llm.Model for tests.
package llmtest

import (
	"context"
	"sync"
	"time"

	"aigateway/internal/llm"
)

// StubModel is a thread-safe llm.Model that returns scripted replies in order and
// records every prompt it receives. When Replies is exhausted the last reply is
// repeated. Err takes precedence over Replies. A positive Delay makes each call wait
// for it or for context cancellation, whichever comes first.
type StubModel struct {
	ModelName string
	Replies   []string
	Err       error
	Delay     time.Duration

	mu      sync.Mutex
	prompts []llm.Prompt
}

// NewStubModel returns a stub that answers with replies in sequence.
func NewStubModel(replies ...string) *StubModel {
	return &StubModel{ModelName: "stub-model", Replies: replies}
}

func (s *StubModel) Name() string {
	if s.ModelName == "" {
		return "stub-model"
	}
	return s.ModelName
}

func (s *StubModel) GenerateContent(ctx context.Context, prompt llm.Prompt) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	call := len(s.prompts) - 1
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Replies) == 0 {
		return "", nil
	}
	if call >= len(s.Replies) {
		call = len(s.Replies) - 1
	}
	return s.Replies[call], nil
}

// Calls returns how many times GenerateContent was invoked.
func (s *StubModel) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// LastPrompt returns the most recent prompt, or the zero Prompt.
func (s *StubModel) LastPrompt() llm.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return llm.Prompt{}
	}
	return s.prompts[len(s.prompts)-1]
}

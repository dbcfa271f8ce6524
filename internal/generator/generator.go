// Package generator turns validated generation requests into prompts, asks the
// provider for JSON and normalizes what comes back into typed payloads.
package generator

import (
	"context"
	"log/slog"
	"time"

	"aigateway/internal/generator/models"
	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/requestcontext"
)

// JSONGenerator makes one provider call and decodes the JSON reply into out.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error
}

// Service runs the generator catalog against one provider client.
type Service struct {
	llm     JSONGenerator
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(llm JSONGenerator, opts ...Option) *Service {
	s := &Service{
		llm:    llm,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// generate renders the prompts for kind from data, decodes the provider reply into
// a raw R and hands it to normalize.
func generate[R, T any](ctx context.Context, s *Service, kind models.Kind, data any, normalize func(R) (T, error)) (T, error) {
	var zero T
	start := time.Now()

	system, user, err := renderPrompts(kind, data)
	if err != nil {
		s.metrics.observe(kind, "error", time.Since(start))
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, kind.FailureMessage())
	}

	var raw R
	if err := s.llm.GenerateJSON(ctx, system, user, &raw); err != nil {
		s.metrics.observe(kind, "error", time.Since(start))
		return zero, err
	}

	out, err := normalize(raw)
	if err != nil {
		s.metrics.observe(kind, "invalid", time.Since(start))
		s.logger.WarnContext(ctx, "generated payload failed validation",
			"generator", kind.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return zero, dErrors.Wrap(err, dErrors.CodeGeneration, kind.FailureMessage())
	}

	s.metrics.observe(kind, "ok", time.Since(start))
	return out, nil
}

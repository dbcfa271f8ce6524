// Package llm wraps the text generation provider behind a small client that owns
// the call timeout, tracing, metrics, and recovery of JSON from free-text replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/requestcontext"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

const tracerName = "aigateway/internal/llm"

// Client calls the configured model. It is immutable after construction and safe
// for concurrent use.
type Client struct {
	model   Model
	timeout time.Duration
	params  Params
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewClient creates a client for model. A nil model yields a client that is not
// ready and fails every call with ErrNotConfigured.
func NewClient(model Model, opts ...ClientOption) *Client {
	c := &Client{
		model:   model,
		timeout: DefaultTimeout,
		params:  DefaultParams,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsReady reports whether a provider credential was configured at startup.
func (c *Client) IsReady() bool {
	return c != nil && c.model != nil
}

// ModelName returns the configured model name, or "" when not ready.
func (c *Client) ModelName() string {
	if !c.IsReady() {
		return ""
	}
	return c.model.Name()
}

// Generate makes exactly one provider call and returns its text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.IsReady() {
		return "", ErrNotConfigured
	}

	modelName := c.model.Name()
	ctx, span := c.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.model", modelName),
		attribute.Int("llm.prompt.system_chars", len(systemPrompt)),
		attribute.Int("llm.prompt.user_chars", len(userPrompt)),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.model.GenerateContent(callCtx, Prompt{
		System: systemPrompt,
		User:   userPrompt,
		Params: c.params,
	})
	elapsed := time.Since(start)

	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		err = c.classify(callCtx, err)
		outcome := outcomeFor(err)
		c.metrics.observeCall(modelName, outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.WarnContext(ctx, "llm call failed",
			"model", modelName,
			"outcome", outcome,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return "", err
	}

	c.metrics.observeCall(modelName, "ok", elapsed)
	span.SetAttributes(attribute.Int("llm.response.chars", len(text)))
	c.logger.DebugContext(ctx, "llm call completed",
		"model", modelName,
		"duration_ms", elapsed.Milliseconds(),
		"response_chars", len(text),
		"request_id", requestcontext.RequestID(ctx),
	)
	return text, nil
}

// GenerateJSON makes one provider call and decodes the JSON value in the reply
// into out. There is no retry: an unparsable reply fails the request.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	text, err := c.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}

	raw, method, err := extractJSON(text)
	c.metrics.observeRecovery(method)
	if err == nil {
		err = decodeInto(raw, out)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "llm reply is not valid JSON",
			"model", c.model.Name(),
			"response_chars", len(text),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeGeneration, "AI response could not be parsed")
	}
	return nil
}

func (c *Client) classify(callCtx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return dErrors.Wrap(fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, err), dErrors.CodeTimeout, "AI generation timed out")
	case errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeGeneration, "AI generation was cancelled")
	case errors.Is(err, ErrBlocked):
		return dErrors.Wrap(err, dErrors.CodeGeneration, "AI response was blocked by the safety policy")
	default:
		return dErrors.Wrap(err, dErrors.CodeGeneration, "AI generation failed")
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

// Package service implements the two-gate usage limiter for generation requests.
package service

import (
	"context"
	"errors"
	"log/slog"

	"aigateway/internal/ratelimit/metrics"
	"aigateway/internal/ratelimit/models"
	"aigateway/internal/ratelimit/ports"
	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/audit"
	"aigateway/pkg/requestcontext"
)

// Type aliases for interfaces from ports package.
type (
	CounterStore   = ports.CounterStore
	AuditPublisher = ports.AuditPublisher
)

// Service evaluates the burst gate, then the quota gate, for one caller subject.
// A burst rejection stops evaluation, so it never consumes quota.
type Service struct {
	store          CounterStore
	burst          models.Limit
	quota          models.Limit
	quotaBypass    bool
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLimits overrides the default burst and quota windows.
func WithLimits(burst, quota models.Limit) Option {
	return func(s *Service) {
		s.burst = burst
		s.quota = quota
	}
}

// WithQuotaBypass skips the quota gate. Configuration refuses to enable it in
// production; the burst gate is always enforced.
func WithQuotaBypass(bypass bool) Option {
	return func(s *Service) {
		s.quotaBypass = bypass
	}
}

func New(store CounterStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}

	svc := &Service{
		store:  store,
		burst:  models.DefaultBurst,
		quota:  models.DefaultQuota,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}

	if err := svc.burst.Validate(); err != nil {
		return nil, err
	}
	if err := svc.quota.Validate(); err != nil {
		return nil, err
	}
	return svc, nil
}

// Check admits one request for subject or reports which gate rejected it.
func (s *Service) Check(ctx context.Context, subject string) (*models.Decision, error) {
	burst, err := s.admit(ctx, models.GateBurst, subject, s.burst)
	if err != nil {
		return nil, err
	}
	if !burst.Allowed {
		s.reject(ctx, models.GateBurst, subject, s.burst)
		return &models.Decision{Allowed: false, Gate: models.GateBurst, Result: burst}, nil
	}

	if s.quotaBypass {
		s.metrics.IncrementQuotaBypassed()
		return &models.Decision{Allowed: true, Gate: models.GateBurst, Result: burst, QuotaBypassed: true}, nil
	}

	quota, err := s.admit(ctx, models.GateQuota, subject, s.quota)
	if err != nil {
		return nil, err
	}
	quota.Degraded = quota.Degraded || burst.Degraded
	if !quota.Allowed {
		s.reject(ctx, models.GateQuota, subject, s.quota)
		return &models.Decision{Allowed: false, Gate: models.GateQuota, Result: quota}, nil
	}
	return &models.Decision{Allowed: true, Gate: models.GateQuota, Result: quota}, nil
}

// GateUsage describes one gate's consumption for a subject.
type GateUsage struct {
	Limit         int   `json:"limit"`
	Used          int   `json:"used"`
	Remaining     int   `json:"remaining"`
	WindowSeconds int64 `json:"windowSeconds"`
}

// Usage is a read-only view of both gates for a subject.
type Usage struct {
	Burst         GateUsage `json:"burst"`
	Quota         GateUsage `json:"quota"`
	QuotaBypassed bool      `json:"quotaBypassed"`
}

// Usage reports how much of each window subject has consumed without admitting.
func (s *Service) Usage(ctx context.Context, subject string) (*Usage, error) {
	burst, err := s.usage(ctx, models.GateBurst, subject, s.burst)
	if err != nil {
		return nil, err
	}
	quota, err := s.usage(ctx, models.GateQuota, subject, s.quota)
	if err != nil {
		return nil, err
	}
	return &Usage{Burst: burst, Quota: quota, QuotaBypassed: s.quotaBypass}, nil
}

// Reset clears both gates for subject.
func (s *Service) Reset(ctx context.Context, subject string) error {
	for _, gate := range []models.Gate{models.GateBurst, models.GateQuota} {
		if err := s.store.Reset(ctx, models.NewCounterKey(gate, subject)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset rate limit")
		}
	}
	return nil
}

func (s *Service) admit(ctx context.Context, gate models.Gate, subject string, limit models.Limit) (*models.RateLimitResult, error) {
	result, err := s.store.Admit(ctx, models.NewCounterKey(gate, subject), limit.Requests, limit.Window)
	if err != nil {
		s.metrics.IncrementStoreErrors()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}
	if result.Degraded {
		s.metrics.IncrementDegraded()
	}
	s.metrics.ObserveDecision(gate.String(), result.Allowed)
	return result, nil
}

func (s *Service) usage(ctx context.Context, gate models.Gate, subject string, limit models.Limit) (GateUsage, error) {
	used, err := s.store.Count(ctx, models.NewCounterKey(gate, subject), limit.Window)
	if err != nil {
		return GateUsage{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read rate limit usage")
	}
	return GateUsage{
		Limit:         limit.Requests,
		Used:          used,
		Remaining:     max(limit.Requests-used, 0),
		WindowSeconds: int64(limit.Window.Seconds()),
	}, nil
}

func (s *Service) reject(ctx context.Context, gate models.Gate, subject string, limit models.Limit) {
	identity := requestcontext.CallerIdentity(ctx)
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:   audit.EventRateLimitExceeded,
		Subject:  subject,
		UserID:   identity.UserID,
		SchoolID: identity.SchoolID,
		IP:       requestcontext.ClientIP(ctx),
		Reason:   gate.String(),
	})
	s.logger.DebugContext(ctx, "rate limit window exhausted",
		"gate", gate.String(),
		"limit", limit.Requests,
		"window_seconds", int(limit.Window.Seconds()),
	)
}

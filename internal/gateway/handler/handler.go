// Package handler exposes the generator catalog over HTTP under /ai.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"aigateway/internal/generator/models"
	rlModels "aigateway/internal/ratelimit/models"
	"aigateway/internal/ratelimit/service"
	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/audit"
	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
)

const (
	providerNotConfiguredMessage = "AI service is not configured (missing GEMINI_API_KEY)"
	geminiConnected              = "connected"
	geminiUnconfigured           = "unconfigured (missing GEMINI_API_KEY)"

	// maxLoggedInput bounds how much of a request body is echoed into logs.
	maxLoggedInput = 200
)

// Generator is the catalog of content generators.
type Generator interface {
	GenerateQuiz(ctx context.Context, req *models.QuizRequest) ([]models.QuizQuestion, error)
	GenerateLesson(ctx context.Context, req *models.LessonRequest) (*models.Lesson, error)
	GeneratePollOptions(ctx context.Context, req *models.PollOptionsRequest) (*models.PollOptions, error)
	GenerateCourseOutline(ctx context.Context, req *models.CourseRequest) (*models.CourseOutline, error)
	EnhanceContent(ctx context.Context, req *models.EnhanceRequest) (*models.EnhancedContent, error)
	GenerateAnnouncement(ctx context.Context, req *models.AnnouncementRequest) (*models.Announcement, error)
	GenerateMilestones(ctx context.Context, req *models.MilestonesRequest) (*models.Milestones, error)
	SuggestTags(ctx context.Context, req *models.TagsRequest) (*models.TagSuggestions, error)
}

// Provider reports whether a provider credential was configured at startup.
type Provider interface {
	IsReady() bool
}

// UsageReporter reports a caller's current limiter usage.
type UsageReporter interface {
	Usage(ctx context.Context, subject string) (*service.Usage, error)
}

// Handler serves the generation routes, /usage and /health.
type Handler struct {
	generator Generator
	provider  Provider
	usage     UsageReporter
	audit     audit.Publisher
	logger    *slog.Logger
	startedAt time.Time
}

type Option func(*Handler)

func WithUsageReporter(usage UsageReporter) Option {
	return func(h *Handler) {
		h.usage = usage
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(h *Handler) {
		h.audit = publisher
	}
}

// WithStartTime sets the process start used for the health uptime.
func WithStartTime(t time.Time) Option {
	return func(h *Handler) {
		h.startedAt = t
	}
}

func New(generator Generator, provider Provider, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		generator: generator,
		provider:  provider,
		logger:    logger,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes. Every /ai route runs requireAuth, then rateLimit,
// then the provider readiness gate, in that order.
func (h *Handler) Register(r chi.Router, requireAuth, rateLimit func(http.Handler) http.Handler) {
	r.Get("/health", h.handleHealth)

	if h.usage != nil {
		r.With(requireAuth).Get("/usage", h.handleUsage)
	}

	r.Route("/ai", func(ai chi.Router) {
		ai.Use(requireAuth)
		ai.Use(rateLimit)
		ai.Use(h.requireProvider)

		ai.Post("/generate/quiz", handle(h, models.KindQuiz, h.generator.GenerateQuiz))
		ai.Post("/generate/lesson", handle(h, models.KindLesson, h.generator.GenerateLesson))
		ai.Post("/generate/poll-options", handle(h, models.KindPollOptions, h.generator.GeneratePollOptions))
		ai.Post("/generate/course", handle(h, models.KindCourse, h.generator.GenerateCourseOutline))
		ai.Post("/enhance/content", handle(h, models.KindEnhance, h.generator.EnhanceContent))
		ai.Post("/generate/announcement", handle(h, models.KindAnnouncement, h.generator.GenerateAnnouncement))
		ai.Post("/generate/milestones", handle(h, models.KindMilestones, h.generator.GenerateMilestones))
		ai.Post("/suggest/tags", handle(h, models.KindTags, h.generator.SuggestTags))
	})
}

func (h *Handler) requireProvider(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.provider.IsReady() {
			h.logger.WarnContext(r.Context(), "generation requested without provider credential",
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(r.Context()),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, providerNotConfiguredMessage))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handle decodes and validates a T, runs the generator and writes the envelope.
// Invalid input never reaches the generator.
func handle[T any, PT interface {
	*T
	httputil.Validatable
}, R any](h *Handler, kind models.Kind, run func(context.Context, PT) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[T, PT](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}

		start := time.Now()
		out, err := run(ctx, req)
		elapsed := time.Since(start)
		if err != nil {
			h.writeGenerationError(ctx, w, kind, req, err, elapsed)
			return
		}

		h.logger.InfoContext(ctx, "generation completed",
			"generator", kind.String(),
			"user_id", requestcontext.UserID(ctx),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", requestID,
		)
		h.emitAudit(ctx, audit.EventGenerationCompleted, kind, "", elapsed)
		httputil.WriteSuccess(w, out)
	}
}

func (h *Handler) writeGenerationError(ctx context.Context, w http.ResponseWriter, kind models.Kind, req any, err error, elapsed time.Duration) {
	code := dErrors.CodeOf(err)
	h.logger.ErrorContext(ctx, "generation failed",
		"generator", kind.String(),
		"user_id", requestcontext.UserID(ctx),
		"input", summarize(req),
		"code", string(code),
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	h.emitAudit(ctx, audit.EventGenerationFailed, kind, string(code), elapsed)
	httputil.WriteError(w, dErrors.Wrap(err, code, kind.FailureMessage()))
}

func (h *Handler) emitAudit(ctx context.Context, action audit.AuditEvent, kind models.Kind, reason string, elapsed time.Duration) {
	if h.audit == nil {
		return
	}
	identity := requestcontext.CallerIdentity(ctx)
	event := audit.Event{
		Action:     action,
		Subject:    rlModels.NewSubject(identity.UserID, requestcontext.ClientIP(ctx)),
		UserID:     identity.UserID,
		SchoolID:   identity.SchoolID,
		IP:         requestcontext.ClientIP(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		Generator:  kind.String(),
		Reason:     reason,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := h.audit.Emit(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(action),
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

type healthResponse struct {
	Status string  `json:"status"`
	Gemini string  `json:"gemini"`
	Uptime float64 `json:"uptime"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	gemini := geminiUnconfigured
	if h.provider.IsReady() {
		gemini = geminiConnected
	}
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		Gemini: gemini,
		Uptime: time.Since(h.startedAt).Seconds(),
	})
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := rlModels.NewSubject(requestcontext.UserID(ctx), requestcontext.ClientIP(ctx))

	usage, err := h.usage.Usage(ctx, subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read usage",
			"user_id", requestcontext.UserID(ctx),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, usage)
}

// summarize renders req as compact JSON cut to maxLoggedInput runes.
func summarize(req any) string {
	b, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	s := string(b)
	if utf8.RuneCountInString(s) <= maxLoggedInput {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLoggedInput]) + "…"
}

// Package handler exposes operator endpoints for the usage limiter.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"aigateway/internal/ratelimit/models"
	"aigateway/internal/ratelimit/service"
	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/audit"
	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
)

// Service is the subset of the limiter the admin endpoints use.
type Service interface {
	Usage(ctx context.Context, subject string) (*service.Usage, error)
	Reset(ctx context.Context, subject string) error
}

// SubjectRequest names one caller by user id or, for anonymous callers, by IP.
type SubjectRequest struct {
	UserID string `json:"userId"`
	IP     string `json:"ip"`
}

func (r *SubjectRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.IP = strings.TrimSpace(r.IP)
	if r.UserID == "" && r.IP == "" {
		return dErrors.New(dErrors.CodeValidation, "userId or ip is required")
	}
	return nil
}

func (r *SubjectRequest) Subject() string {
	return models.NewSubject(r.UserID, r.IP)
}

type resetResponse struct {
	Subject string         `json:"subject"`
	Usage   *service.Usage `json:"usage"`
}

type Handler struct {
	service Service
	audit   audit.Publisher
	logger  *slog.Logger
}

func New(svc Service, publisher audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{service: svc, audit: publisher, logger: logger}
}

// Register mounts the admin routes behind guard.
func (h *Handler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/admin/ratelimit", func(admin chi.Router) {
		admin.Use(guard)
		admin.Post("/reset", h.handleReset)
		admin.Post("/usage", h.handleUsage)
	})
}

// handleReset clears both gates for one caller and returns the fresh usage.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	subject := req.Subject()

	if err := h.service.Reset(ctx, subject); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset rate limit",
			"subject", subject,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "rate limit reset",
		"subject", subject,
		"request_id", requestID,
	)
	if h.audit != nil {
		if err := h.audit.Emit(ctx, audit.Event{
			Action:    audit.EventRateLimitReset,
			Subject:   subject,
			UserID:    req.UserID,
			IP:        req.IP,
			RequestID: requestID,
			Reason:    "admin_reset",
		}); err != nil {
			h.logger.WarnContext(ctx, "failed to emit audit event", "event", string(audit.EventRateLimitReset), "error", err)
		}
	}

	h.writeUsage(ctx, w, subject)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SubjectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.writeUsage(ctx, w, req.Subject())
}

func (h *Handler) writeUsage(ctx context.Context, w http.ResponseWriter, subject string) {
	usage, err := h.service.Usage(ctx, subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read usage",
			"subject", subject,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, resetResponse{Subject: subject, Usage: usage})
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"aigateway/internal/ratelimit/models"
	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
)

// Response headers set on every limited request.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
	HeaderStatus     = "X-RateLimit-Status"
)

const (
	burstLimitMessage = "Too many AI requests. Please wait a minute before trying again."
	dailyLimitMessage = "Daily AI generation limit reached. Please try again tomorrow."
)

type RateLimiter interface {
	Check(ctx context.Context, subject string) (*models.Decision, error)
}

type Middleware struct {
	limiter RateLimiter
	logger  *slog.Logger
}

func New(limiter RateLimiter, logger *slog.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger,
	}
}

// RateLimit applies the burst and quota gates to the caller in the request context.
// Callers are keyed by user id, falling back to client IP when unauthenticated.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := requestcontext.UserID(ctx)
			subject := models.NewSubject(userID, requestcontext.ClientIP(ctx))

			decision, err := m.limiter.Check(ctx, subject)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"user_id", userID,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			// Add headers regardless of outcome
			addRateLimitHeaders(w, decision)

			if !decision.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"gate", decision.Gate.String(),
					"user_id", userID,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRateLimitExceeded(w, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, decision *models.Decision) {
	if decision == nil || decision.Result == nil {
		return
	}
	result := decision.Result
	w.Header().Set(HeaderLimit, strconv.Itoa(result.Limit))
	w.Header().Set(HeaderRemaining, strconv.Itoa(result.Remaining))
	w.Header().Set(HeaderReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
	if decision.Degraded() {
		w.Header().Set(HeaderStatus, "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, decision *models.Decision) {
	w.Header().Set(HeaderRetryAfter, strconv.Itoa(decision.Result.RetryAfter))
	message := burstLimitMessage
	if decision.Gate == models.GateQuota {
		message = dailyLimitMessage
	}
	httputil.WriteFailure(w, http.StatusTooManyRequests, message, decision.Gate.Code())
}

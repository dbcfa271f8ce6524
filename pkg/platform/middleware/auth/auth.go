package auth

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
)

// Stable envelope codes for authentication failures.
const (
	CodeAuthRequired      = "AUTH_REQUIRED"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeAuthMisconfigured = "AUTH_MISCONFIGURED"
)

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	VerifyToken(tokenString string) (requestcontext.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and attaches the caller
// identity to the request context. A verifier without a secret fails every request
// with 500; it never lets traffic through.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteFailure(w, http.StatusUnauthorized, "Authentication required", CodeAuthRequired)
				return
			}

			identity, err := verifier.VerifyToken(token)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeMisconfigured) {
					logger.ErrorContext(ctx, "token verification is not configured",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteFailure(w, http.StatusInternalServerError, "Server authentication is not configured", CodeAuthMisconfigured)
					return
				}
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteFailure(w, http.StatusUnauthorized, "Invalid or expired token", CodeInvalidToken)
				return
			}

			ctx = requestcontext.WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

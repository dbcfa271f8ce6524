// Package admin guards operator endpoints with a shared static token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
)

const (
	HeaderAdminToken = "X-Admin-Token"
	CodeAdminToken   = "ADMIN_TOKEN_REQUIRED"
)

// RequireAdminToken rejects requests whose X-Admin-Token does not match
// expectedToken. An empty expectedToken rejects everything.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			// Use constant-time comparison to prevent timing attacks
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteFailure(w, http.StatusUnauthorized, "Admin token required", CodeAdminToken)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

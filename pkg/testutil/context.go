package testutil

import (
	"net/http"

	"aigateway/pkg/requestcontext"
)

// WithIdentity adds a caller identity to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithIdentity(req *http.Request, userID, role string) *http.Request {
	ctx := requestcontext.WithIdentity(req.Context(), requestcontext.Identity{
		UserID: userID,
		Role:   role,
	})
	return req.WithContext(ctx)
}

// WithClientIP adds the resolved client IP to the request context, as the metadata
// middleware would.
func WithClientIP(req *http.Request, ip string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, req.UserAgent(), "")
	return req.WithContext(ctx)
}

// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and generators read them without importing
// net/http. Tests inject them directly:
//
//	ctx = requestcontext.WithIdentity(ctx, requestcontext.Identity{UserID: "u-1"})
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Identity is the caller identity derived from a verified token. It is immutable for
// the lifetime of the request and never persisted.
type Identity struct {
	UserID   string
	Role     string
	SchoolID string
}

// IsZero reports whether no caller has been resolved.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

type (
	identityKey       struct{}
	clientIPKey       struct{}
	userAgentKey      struct{}
	clientPlatformKey struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
)

// -----------------------------------------------------------------------------
// Caller identity
// -----------------------------------------------------------------------------

// CallerIdentity retrieves the verified caller identity from the context.
func CallerIdentity(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}

// UserID retrieves the authenticated user ID, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	return CallerIdentity(ctx).UserID
}

// WithIdentity injects a caller identity into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent, platform)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// ClientPlatform retrieves the coarse client platform ("mobile", "web", "bot", "unknown").
func ClientPlatform(ctx context.Context) string {
	if p, ok := ctx.Value(clientPlatformKey{}).(string); ok {
		return p
	}
	return ""
}

// WithClientMetadata injects client IP, User-Agent and platform into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, platform string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	ctx = context.WithValue(ctx, clientPlatformKey{}, platform)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

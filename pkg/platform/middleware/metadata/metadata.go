package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"aigateway/pkg/requestcontext"
)

// HeaderClientPlatform lets first-party apps declare their platform explicitly.
const HeaderClientPlatform = "X-Client-Platform"

// Coarse client platforms recorded for logs and metrics.
const (
	PlatformMobile  = "mobile"
	PlatformWeb     = "web"
	PlatformBot     = "bot"
	PlatformUnknown = "unknown"
)

// ClientMetadata extracts client IP address, User-Agent and platform from the
// request and adds them to the context. Forwarding headers are honoured only when
// trustProxy is set, i.e. when the gateway runs behind a known load balancer.
// This middleware should be applied early in the chain.
func ClientMetadata(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFromRequest(r, trustProxy)
			userAgent := r.Header.Get("User-Agent")
			platform := ClientPlatform(r.Header.Get(HeaderClientPlatform), userAgent)

			ctx := requestcontext.WithClientMetadata(r.Context(), ip, userAgent, platform)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientPlatform resolves the platform from an explicit hint or the User-Agent.
func ClientPlatform(hint, userAgent string) string {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "ios", "android", PlatformMobile:
		return PlatformMobile
	case PlatformWeb:
		return PlatformWeb
	}
	if userAgent == "" {
		return PlatformUnknown
	}

	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		return PlatformBot
	case ua.Mobile():
		return PlatformMobile
	}
	if name, _ := ua.Browser(); name != "" && ua.OS() != "" {
		return PlatformWeb
	}
	// React Native's networking stacks identify as okhttp (Android) or CFNetwork (iOS).
	lower := strings.ToLower(userAgent)
	if strings.HasPrefix(lower, "okhttp") || strings.Contains(lower, "cfnetwork") || strings.Contains(lower, "expo") {
		return PlatformMobile
	}
	return PlatformUnknown
}

// ClientIPFromRequest extracts the client IP, handling proxies when trusted.
func ClientIPFromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

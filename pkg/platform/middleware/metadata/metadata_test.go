package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"aigateway/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "10.0.0.7", ClientIPFromRequest(req, false), "forwarding headers ignored when untrusted")
	assert.Equal(t, "203.0.113.9", ClientIPFromRequest(req, true))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIPFromRequest(req, true))

	v6 := httptest.NewRequest(http.MethodGet, "/", nil)
	v6.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", ClientIPFromRequest(v6, false))
}

func TestClientPlatform(t *testing.T) {
	cases := []struct {
		name string
		hint string
		ua   string
		want string
	}{
		{name: "explicit hint wins", hint: "android", ua: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", want: PlatformMobile},
		{name: "desktop browser", ua: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", want: PlatformWeb},
		{name: "mobile safari", ua: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", want: PlatformMobile},
		{name: "react native android", ua: "okhttp/4.9.2", want: PlatformMobile},
		{name: "crawler", ua: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", want: PlatformBot},
		{name: "empty", want: PlatformUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClientPlatform(tc.hint, tc.ua))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var ip, platform string
	h := ClientMetadata(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		platform = requestcontext.ClientPlatform(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:443"
	req.Header.Set(HeaderClientPlatform, "web")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.10", ip)
	assert.Equal(t, PlatformWeb, platform)
}

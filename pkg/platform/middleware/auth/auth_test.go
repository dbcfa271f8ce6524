package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aigateway/internal/jwttoken"
	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
	"aigateway/pkg/testutil"
)

const secret = "middleware-secret"

func newProtected(t *testing.T, verifier TokenVerifier) (http.Handler, *requestcontext.Identity) {
	t.Helper()
	var seen requestcontext.Identity
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.CallerIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return RequireAuth(verifier, logger)(next), &seen
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) httputil.FailureEnvelope {
	t.Helper()
	var body httputil.FailureEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	return body
}

func TestRequireAuth(t *testing.T) {
	verifier := jwttoken.NewVerifier(secret)

	t.Run("missing header returns 401 authentication required", func(t *testing.T) {
		h, _ := newProtected(t, verifier)
		rec := testutil.DoRequest(h, httptest.NewRequest(http.MethodPost, "/ai/generate/quiz", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeFailure(t, rec)
		assert.Equal(t, "Authentication required", body.Error)
		assert.Equal(t, CodeAuthRequired, body.Code)
	})

	t.Run("non-bearer scheme returns 401", func(t *testing.T) {
		h, _ := newProtected(t, verifier)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, CodeAuthRequired, decodeFailure(t, rec).Code)
	})

	t.Run("expired token returns 401 invalid or expired", func(t *testing.T) {
		h, _ := newProtected(t, verifier)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", testutil.BearerHeader(testutil.SignToken(t, secret, "u-1", -time.Minute, nil)))
		rec := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeFailure(t, rec)
		assert.Equal(t, "Invalid or expired token", body.Error)
		assert.Equal(t, CodeInvalidToken, body.Code)
	})

	t.Run("missing server secret returns 500 and never passes through", func(t *testing.T) {
		h, seen := newProtected(t, jwttoken.NewVerifier(""))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", testutil.BearerHeader(testutil.SignToken(t, secret, "u-1", time.Hour, nil)))
		rec := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, CodeAuthMisconfigured, decodeFailure(t, rec).Code)
		assert.True(t, seen.IsZero())
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		h, seen := newProtected(t, verifier)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", testutil.BearerHeader(testutil.SignToken(t, secret, "u-42", time.Hour, map[string]any{"role": "STUDENT"})))
		rec := testutil.DoRequest(h, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "u-42", seen.UserID)
		assert.Equal(t, "STUDENT", seen.Role)
	})
}

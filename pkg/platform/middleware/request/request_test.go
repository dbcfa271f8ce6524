package request

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/httputil"
	"aigateway/pkg/requestcontext"
	"aigateway/pkg/testutil"
)

type probe struct {
	Topic string `json:"topic"`
}

func (p *probe) Validate() error { return nil }

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("keeps well-formed inbound id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "req-12345678")
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, "req-12345678", seen)
		assert.Equal(t, "req-12345678", rr.Header().Get(HeaderRequestID))
	})

	t.Run("replaces forged id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "bad id\nlevel=ERROR")
		rr := testutil.DoRequest(h, req)
		assert.NotContains(t, seen, "\n")
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rr.Header().Get(HeaderRequestID))
	})
}

func TestRequestTime(t *testing.T) {
	var at time.Time
	h := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		at = requestcontext.Now(r.Context())
	}))
	before := time.Now()
	testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, at.Before(before))
}

func TestBodyLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	decode := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := httputil.DecodeAndPrepare[probe](w, r, logger, r.Context(), "")
		if !ok {
			return
		}
		httputil.WriteSuccess(w, req)
	})
	h := BodyLimit(64)(decode)

	t.Run("small body passes", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewRequestWithBody(t, http.MethodPost, "/", `{"topic":"cells"}`))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("declared oversize body rejected up front", func(t *testing.T) {
		body := `{"topic":"` + strings.Repeat("x", 100) + `"}`
		rr := testutil.DoRequest(h, testutil.NewRequestWithBody(t, http.MethodPost, "/", body))
		testutil.AssertFailure(t, rr, http.StatusRequestEntityTooLarge, string(dErrors.CodePayloadTooLarge))
	})

	t.Run("streamed oversize body rejected while decoding", func(t *testing.T) {
		body := `{"topic":"` + strings.Repeat("x", 100) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(body)))
		req.ContentLength = -1
		rr := testutil.DoRequest(h, req)
		testutil.AssertFailure(t, rr, http.StatusRequestEntityTooLarge, string(dErrors.CodePayloadTooLarge))
	})
}

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))

	testutil.AssertFailure(t, rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestAccessLog(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	h := RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	line := logs.String()
	require.NotEmpty(t, line)
	assert.Contains(t, line, `"status":418`)
	assert.Contains(t, line, `"path":"/health"`)
	assert.Contains(t, line, `"request_id"`)
}

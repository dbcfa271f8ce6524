package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "aigateway/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error hides cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("db password is hunter2"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["success"] != false {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if strings.Contains(body["error"].(string), "hunter2") {
			t.Fatalf("expected cause to be hidden, got %q", body["error"])
		}
		if _, ok := body["data"]; ok {
			t.Fatalf("expected data to be absent on failure")
		}
	})

	t.Run("validation error includes message and code", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "Topic is required"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body FailureEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "Topic is required" {
			t.Fatalf("expected error message to be returned, got %q", body.Error)
		}
		if body.Code != string(dErrors.CodeValidation) {
			t.Fatalf("expected code %s, got %q", dErrors.CodeValidation, body.Code)
		}
	})

	t.Run("wrapped generation error keeps safe message only", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("upstream 500: quota project xyz"), dErrors.CodeGeneration, "Failed to generate quiz"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		var body FailureEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "Failed to generate quiz" {
			t.Fatalf("unexpected message %q", body.Error)
		}
	})
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, []string{})

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true")
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data to be present even when empty")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("expected error to be absent on success")
	}
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func (r *topicRequest) Validate() error {
	if r.Topic == "" {
		return dErrors.New(dErrors.CodeValidation, "Topic is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("empty body reports missing field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)

		req, ok := DecodeAndPrepare[topicRequest](w, r, logger, context.Background(), "req-1")
		if ok || req != nil {
			t.Fatalf("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Topic is required") {
			t.Fatalf("expected field message, got %s", w.Body.String())
		}
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))

		_, ok := DecodeAndPrepare[topicRequest](w, r, logger, context.Background(), "req-2")
		if ok {
			t.Fatalf("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("oversized body is rejected with 413", func(t *testing.T) {
		w := httptest.NewRecorder()
		payload := `{"topic":"` + strings.Repeat("a", 64) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(payload))
		r.Body = http.MaxBytesReader(w, r.Body, 16)

		_, ok := DecodeAndPrepare[topicRequest](w, r, logger, context.Background(), "req-3")
		if ok {
			t.Fatalf("expected decode to fail")
		}
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})

	t.Run("valid body decodes", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"topic":"Photosynthesis"}`))

		req, ok := DecodeAndPrepare[topicRequest](w, r, logger, context.Background(), "req-4")
		if !ok {
			t.Fatalf("expected decode to succeed, body: %s", w.Body.String())
		}
		if req.Topic != "Photosynthesis" {
			t.Fatalf("unexpected topic %q", req.Topic)
		}
	})
}

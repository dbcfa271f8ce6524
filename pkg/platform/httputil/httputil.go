// Package httputil writes the gateway's uniform response envelope and decodes
// validated request bodies. Every response, success or failure, goes through here so
// clients have a single parsing path.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "aigateway/pkg/domain-errors"
)

const internalErrorMessage = "Internal server error"

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// FailureEnvelope is the body of every non-2xx response.
type FailureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {success:true, data} with 200.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data})
}

// WriteFailure writes {success:false, error, code} with the given status.
func WriteFailure(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, FailureEnvelope{Success: false, Error: message, Code: code})
}

// WriteError translates err into the failure envelope. Domain errors expose their
// client-safe message; anything else becomes a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteFailure(w, http.StatusInternalServerError, internalErrorMessage, string(dErrors.CodeInternal))
		return
	}
	message := de.Message
	if message == "" {
		message = internalErrorMessage
	}
	WriteFailure(w, de.Code.HTTPStatus(), message, string(de.Code))
}

// Validatable is implemented by request bodies that normalize and check themselves.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON body into a new T and validates it. On failure it
// writes the error envelope and returns false. An empty body decodes as an empty
// object so that Validate reports the missing field.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))

	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.WarnContext(ctx, "request body too large",
				"request_id", requestID,
				"limit_bytes", maxErr.Limit,
			)
			WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, "Request body too large"))
			return nil, false
		}
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON body"))
		return nil, false
	}

	if err := req.Validate(); err != nil {
		logger.InfoContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}

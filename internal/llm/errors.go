package llm

import (
	"errors"
	"fmt"

	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/sentinel"
)

var (
	// ErrNotConfigured is returned when no provider credential was configured at startup.
	ErrNotConfigured = dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeMisconfigured, "AI provider is not configured")

	// ErrTimeout marks a provider call that exceeded the generation timeout.
	ErrTimeout = fmt.Errorf("llm: generation %w", sentinel.ErrTimeout)

	// ErrEmptyResponse marks a provider reply with no text.
	ErrEmptyResponse = errors.New("llm: provider returned an empty response")

	// ErrBlocked marks a reply withheld by the provider's safety policy.
	ErrBlocked = errors.New("llm: response blocked by safety policy")

	// ErrUnparsableOutput marks a reply that contains no recoverable JSON value.
	ErrUnparsableOutput = fmt.Errorf("llm: response is not valid JSON: %w", sentinel.ErrInvalidState)
)

// IsTimeout reports whether err came from a timed-out provider call.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsUnparsable reports whether err came from JSON recovery giving up.
func IsUnparsable(err error) bool {
	return errors.Is(err, ErrUnparsableOutput)
}

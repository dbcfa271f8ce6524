package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrUnavailable: a backing service (counter store, LLM provider) cannot be reached
//     or was never configured
//   - ErrTimeout: a bounded call ran out of time
//   - ErrInvalidState: a value returned by a collaborator violates its contract
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrUnavailable  = errors.New("unavailable")
	ErrTimeout      = errors.New("timeout")
	ErrInvalidState = errors.New("invalid state")
)

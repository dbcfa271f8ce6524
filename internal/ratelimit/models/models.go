package models

import (
	"math"
	"time"

	dErrors "aigateway/pkg/domain-errors"
)

// Gate identifies one of the two admission windows applied to generation requests.
type Gate string

const (
	// GateBurst protects against short spikes (5 req / 60s by default).
	GateBurst Gate = "burst"
	// GateQuota protects the long-run cost budget (20 req / 24h by default).
	GateQuota Gate = "quota"
)

// IsValid checks if the gate is one of the supported enum values.
func (g Gate) IsValid() bool {
	return g == GateBurst || g == GateQuota
}

func (g Gate) String() string {
	return string(g)
}

// Stable envelope codes for limiter rejections.
const (
	CodeBurstLimit = "AI_BURST_LIMIT"
	CodeDailyLimit = "AI_DAILY_LIMIT"
)

// Code returns the envelope code used when this gate rejects a request.
func (g Gate) Code() string {
	if g == GateQuota {
		return CodeDailyLimit
	}
	return CodeBurstLimit
}

// Limit is a request budget over a rolling window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Validate rejects non-positive budgets.
func (l Limit) Validate() error {
	if l.Requests <= 0 {
		return dErrors.New(dErrors.CodeMisconfigured, "limit requests must be positive")
	}
	if l.Window <= 0 {
		return dErrors.New(dErrors.CodeMisconfigured, "limit window must be positive")
	}
	return nil
}

// DefaultBurst and DefaultQuota are the production admission windows.
var (
	DefaultBurst = Limit{Requests: 5, Window: time.Minute}
	DefaultQuota = Limit{Requests: 20, Window: 24 * time.Hour}
)

// RateLimitResult represents the outcome of a single window check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
	// Degraded is set when the result came from the local fallback store.
	Degraded bool `json:"-"`
}

// NewAllowed builds the result of an admitted request. count includes the admission.
func NewAllowed(limit, count int, resetAt time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
}

// NewRejected builds the result of a rejected request; resetAt is when the oldest
// admission leaves the window.
func NewRejected(limit int, resetAt, now time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: RetryAfterSeconds(resetAt, now),
	}
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below one.
func RetryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Decision is the combined outcome of the burst and quota gates for one request.
type Decision struct {
	Allowed bool
	// Gate is the gate that rejected the request, or the last gate evaluated.
	Gate Gate
	// Result carries the header values for the response.
	Result *RateLimitResult
	// QuotaBypassed is set when the quota gate was skipped by configuration.
	QuotaBypassed bool
}

// Degraded reports whether any gate was evaluated against the fallback store.
func (d *Decision) Degraded() bool {
	return d != nil && d.Result != nil && d.Result.Degraded
}

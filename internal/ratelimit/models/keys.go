package models

import "strings"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers containing
// ':' could manipulate adjacent rate limit buckets.
//
// Example: An identifier "user:admin" would become "user_admin", preventing
// it from being interpreted as a separate key segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Subject kinds used in counter keys.
const (
	SubjectUser = "user"
	SubjectIP   = "ip"
)

// NewSubject builds the caller segment of a counter key. Callers are identified by
// user id; the client IP is only used when no identity is present.
func NewSubject(userID, clientIP string) string {
	if userID != "" {
		return SubjectUser + ":" + SanitizeKeySegment(userID)
	}
	if clientIP == "" {
		clientIP = "unknown"
	}
	return SubjectIP + ":" + SanitizeKeySegment(clientIP)
}

// NewCounterKey builds the store key for a caller subject and gate.
func NewCounterKey(gate Gate, subject string) string {
	return "ai:ratelimit:" + string(gate) + ":" + subject
}

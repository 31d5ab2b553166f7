package core

import "time"

// RateLimitState captures per-endpoint rate limiting state for registry
// lookups (WHOIS servers, RDAP bases, web registries).
type RateLimitState struct {
	RequestCount int
	WindowStart  time.Time
	BackoffUntil *time.Time
	Last429At    *time.Time
}

// Package ratelimit implements a Layer (§4.1) that enforces per-key
// request and cost budgets ahead of the wrapped Service, combining a
// token bucket, a sliding window, and a concurrency semaphore the way
// the teacher's rate limiter combines them across several dimensions
// at once.
package ratelimit

import "time"

// Config configures every rate-limiting dimension for a single key.
// A zero field disables that dimension.
type Config struct {
	// RequestsPerSecond limits requests per second using a token bucket.
	RequestsPerSecond int

	// RequestsPerMinute limits requests per minute using a token bucket.
	RequestsPerMinute int

	// RequestsPerHour limits requests per hour using a token bucket.
	RequestsPerHour int

	// CostPerMinute limits an abstract per-request cost unit (e.g.
	// response bytes) accumulated per minute, tracked with a sliding
	// window.
	CostPerMinute int

	// CostPerHour limits the same cost unit accumulated per hour.
	CostPerHour int

	// MaxConcurrent limits simultaneous in-flight requests for the key.
	MaxConcurrent int
}

// CheckResult is the outcome of a single limit check.
type CheckResult struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Reason explains why the request was rejected, when !Allowed.
	Reason string

	// Limit is the configured limit that was evaluated.
	Limit int64

	// Remaining is how much of Limit remains in the current window.
	Remaining int64

	// Reset is when the limit window resets.
	Reset time.Time

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

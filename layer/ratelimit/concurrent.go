package ratelimit

import "sync/atomic"

// ConcurrentLimiter is a lock-free counting semaphore bounding the
// number of simultaneous in-flight requests.
type ConcurrentLimiter struct {
	limit   int64
	current int64
}

// NewConcurrentLimiter returns a limiter allowing up to limit
// concurrent acquisitions.
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire attempts to take a slot. On true, the caller must call
// Release when done, typically via defer immediately after the check.
func (cl *ConcurrentLimiter) Acquire() bool {
	current := atomic.AddInt64(&cl.current, 1)
	if current > cl.limit {
		atomic.AddInt64(&cl.current, -1)
		return false
	}
	return true
}

// Release gives back a slot acquired by Acquire.
func (cl *ConcurrentLimiter) Release() {
	atomic.AddInt64(&cl.current, -1)
}

// Current returns the number of in-flight requests.
func (cl *ConcurrentLimiter) Current() int64 {
	return atomic.LoadInt64(&cl.current)
}

// Limit returns the configured concurrency ceiling.
func (cl *ConcurrentLimiter) Limit() int64 {
	return atomic.LoadInt64(&cl.limit)
}

// Remaining returns the number of free slots.
func (cl *ConcurrentLimiter) Remaining() int64 {
	current := atomic.LoadInt64(&cl.current)
	limit := atomic.LoadInt64(&cl.limit)
	if remaining := limit - current; remaining > 0 {
		return remaining
	}
	return 0
}

// Reset zeroes the in-flight count. Intended for tests.
func (cl *ConcurrentLimiter) Reset() {
	atomic.StoreInt64(&cl.current, 0)
}

package ratelimit

import "time"

// Limiter coordinates every configured rate-limiting dimension for a
// single key: request-rate token buckets, a cost-accumulation sliding
// window, and a concurrency semaphore. All limits are independent; a
// request is rejected the moment any configured dimension is
// exceeded.
type Limiter struct {
	reqPerSecond *TokenBucket
	reqPerMinute *TokenBucket
	reqPerHour   *TokenBucket

	costPerMinute *SlidingWindow
	costPerHour   *SlidingWindow

	concurrent *ConcurrentLimiter

	config Config
}

// NewLimiter builds a Limiter from config. Only non-zero fields are
// enforced.
func NewLimiter(config Config) *Limiter {
	l := &Limiter{config: config}

	if config.RequestsPerSecond > 0 {
		// Burst up to 2x the per-second rate.
		l.reqPerSecond = NewTokenBucket(int64(config.RequestsPerSecond*2), float64(config.RequestsPerSecond))
	}
	if config.RequestsPerMinute > 0 {
		l.reqPerMinute = NewTokenBucket(int64(config.RequestsPerMinute), float64(config.RequestsPerMinute)/60.0)
	}
	if config.RequestsPerHour > 0 {
		// Burst up to 5 minutes worth.
		l.reqPerHour = NewTokenBucket(int64(config.RequestsPerHour/12), float64(config.RequestsPerHour)/3600.0)
	}

	if config.CostPerMinute > 0 {
		l.costPerMinute = NewSlidingWindow(time.Minute, time.Second)
	}
	if config.CostPerHour > 0 {
		l.costPerHour = NewSlidingWindow(time.Hour, time.Minute)
	}

	if config.MaxConcurrent > 0 {
		l.concurrent = NewConcurrentLimiter(config.MaxConcurrent)
	}

	return l
}

// CheckRequest evaluates the request-rate dimensions. Call before
// dispatching the request.
func (l *Limiter) CheckRequest() *CheckResult {
	if l.reqPerSecond != nil {
		if !l.reqPerSecond.Take(1) {
			return &CheckResult{
				Allowed:    false,
				Reason:     "requests per second limit exceeded",
				Limit:      l.reqPerSecond.Capacity(),
				Remaining:  l.reqPerSecond.Remaining(),
				Reset:      time.Now().Add(time.Second),
				RetryAfter: l.reqPerSecond.TimeUntilAvailable(1),
			}
		}
	}
	if l.reqPerMinute != nil {
		if !l.reqPerMinute.Take(1) {
			return &CheckResult{
				Allowed:    false,
				Reason:     "requests per minute limit exceeded",
				Limit:      l.reqPerMinute.Capacity(),
				Remaining:  l.reqPerMinute.Remaining(),
				Reset:      time.Now().Add(time.Minute),
				RetryAfter: l.reqPerMinute.TimeUntilAvailable(1),
			}
		}
	}
	if l.reqPerHour != nil {
		if !l.reqPerHour.Take(1) {
			return &CheckResult{
				Allowed:    false,
				Reason:     "requests per hour limit exceeded",
				Limit:      l.reqPerHour.Capacity(),
				Remaining:  l.reqPerHour.Remaining(),
				Reset:      time.Now().Add(time.Hour),
				RetryAfter: l.reqPerHour.TimeUntilAvailable(1),
			}
		}
	}
	return &CheckResult{Allowed: true}
}

// CheckCost evaluates whether adding estimatedCost would exceed the
// configured cost budgets, without recording it. Call before doing
// cost-incurring work when the cost can be estimated ahead of time.
func (l *Limiter) CheckCost(estimatedCost int) *CheckResult {
	if l.costPerMinute != nil {
		used := l.costPerMinute.Sum()
		if used+int64(estimatedCost) > int64(l.config.CostPerMinute) {
			return &CheckResult{
				Allowed:    false,
				Reason:     "cost per minute limit exceeded",
				Limit:      int64(l.config.CostPerMinute),
				Remaining:  int64(l.config.CostPerMinute) - used,
				Reset:      time.Now().Add(time.Minute),
				RetryAfter: time.Minute,
			}
		}
	}
	if l.costPerHour != nil {
		used := l.costPerHour.Sum()
		if used+int64(estimatedCost) > int64(l.config.CostPerHour) {
			return &CheckResult{
				Allowed:    false,
				Reason:     "cost per hour limit exceeded",
				Limit:      int64(l.config.CostPerHour),
				Remaining:  int64(l.config.CostPerHour) - used,
				Reset:      time.Now().Add(time.Hour),
				RetryAfter: time.Hour,
			}
		}
	}
	return &CheckResult{Allowed: true}
}

// RecordCost adds actualCost to the cost-accumulation windows, once
// the cost of a completed request is known.
func (l *Limiter) RecordCost(actualCost int) {
	if l.costPerMinute != nil {
		l.costPerMinute.Add(int64(actualCost))
	}
	if l.costPerHour != nil {
		l.costPerHour.Add(int64(actualCost))
	}
}

// AcquireConcurrent takes a concurrency slot, reporting false if the
// limit configured would be exceeded. Always true when no concurrency
// limit is configured.
func (l *Limiter) AcquireConcurrent() bool {
	if l.concurrent == nil {
		return true
	}
	return l.concurrent.Acquire()
}

// ReleaseConcurrent returns a slot acquired by AcquireConcurrent.
func (l *Limiter) ReleaseConcurrent() {
	if l.concurrent != nil {
		l.concurrent.Release()
	}
}

// Reset clears every configured dimension. Intended for tests.
func (l *Limiter) Reset() {
	if l.reqPerSecond != nil {
		l.reqPerSecond.Reset()
	}
	if l.reqPerMinute != nil {
		l.reqPerMinute.Reset()
	}
	if l.reqPerHour != nil {
		l.reqPerHour.Reset()
	}
	if l.costPerMinute != nil {
		l.costPerMinute.Reset()
	}
	if l.costPerHour != nil {
		l.costPerHour.Reset()
	}
	if l.concurrent != nil {
		l.concurrent.Reset()
	}
}

package retry

import (
	"math/rand"
	"time"
)

// Config controls retry attempts and backoff timing.
type Config struct {
	// MaxRetries is the number of additional attempts after the first.
	// Zero disables retrying entirely.
	MaxRetries int

	// BaseDelay is the backoff delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Multiplier scales the delay for each subsequent attempt. A value
	// <= 1 is treated as 2 (the teacher's doubling backoff).
	Multiplier float64
}

// DefaultConfig matches the teacher's HTTPProvider.DoRequest backoff:
// a 1-second base delay doubling on every attempt, capped at 30s.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2,
	}
}

// delay returns the backoff duration before retry attempt n (1-indexed).
func (c Config) delay(attempt int) time.Duration {
	mult := c.Multiplier
	if mult <= 1 {
		mult = 2
	}
	d := float64(c.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	delay := time.Duration(d)
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if delay <= 0 {
		return 0
	}
	// Equal jitter: half the deterministic delay, plus up to the other
	// half at random, so concurrent failures against the same upstream
	// don't all retry in lockstep (spec.md §7's "exponential backoff +
	// jitter").
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

package retry

import "time"

// MaxBackoff caps every delay returned by ExponentialBackoff.
const MaxBackoff = 30 * time.Second

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt, capped at MaxBackoff.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return MaxBackoff
	}
	d := base * (1 << attempt)
	if d > MaxBackoff || d <= 0 {
		return MaxBackoff
	}
	return d
}

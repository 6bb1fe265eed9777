package infra

import "time"

const (
	BackoffBase = 200 * time.Millisecond
	BackoffMax  = 10 * time.Second
)

// CalculateBackoff returns the delay before reconnect attempt n (0-based):
// BackoffBase doubled per attempt, capped at BackoffMax.
func CalculateBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 2^6 * 200ms already exceeds the cap
	if attempt > 6 {
		return BackoffMax
	}
	d := BackoffBase << uint(attempt)
	if d > BackoffMax {
		return BackoffMax
	}
	return d
}

package classifier

import "time"

const maxBackoff = 30 * time.Second

// Backoff returns the delay before retry attempt number attempt+1,
// given the configured base delay. attempt is 1-based (the attempt
// that just failed). Matches min(base * 2^(attempt-1), 30s), with no
// jitter.
func Backoff(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

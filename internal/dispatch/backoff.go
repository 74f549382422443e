package dispatch

import (
	"math/rand"
	"time"
)

// backoffWithJitter returns the sleep before retry attempt n (1-based).
// The base doubles each attempt up to max, then up to half of it is
// shaved off at random so retries from concurrent producers spread out.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := min
	for i := 1; i < attempt; i++ {
		exp *= 2
		if exp >= max {
			exp = max
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp - jitter
}

package dispatch

import (
	"testing"
	"time"
)

func TestBackoffStaysWithinBounds(t *testing.T) {
	min := 100 * time.Millisecond
	max := 5 * time.Second
	for attempt := 1; attempt <= 12; attempt++ {
		for i := 0; i < 50; i++ {
			got := backoffWithJitter(min, max, attempt)
			if got <= 0 || got > max {
				t.Fatalf("attempt %d: backoff %v out of (0, %v]", attempt, got, max)
			}
		}
	}
}

func TestBackoffGrowsUntilCap(t *testing.T) {
	min := 100 * time.Millisecond
	max := 10 * time.Second
	// jitter shaves at most half the base, so the floor of attempt n is the
	// ceiling of attempt n-1 while the base is still doubling
	prevCeil := time.Duration(0)
	for attempt := 1; attempt <= 6; attempt++ {
		base := min << uint(attempt-1)
		for i := 0; i < 50; i++ {
			got := backoffWithJitter(min, max, attempt)
			if got < prevCeil/2 {
				t.Fatalf("attempt %d: backoff %v below half of previous base %v", attempt, got, prevCeil)
			}
		}
		prevCeil = base
	}
}

func TestBackoffDefaultsBadInput(t *testing.T) {
	if got := backoffWithJitter(0, 0, 0); got <= 0 {
		t.Fatalf("expected positive backoff for zero config, got %v", got)
	}
	if got := backoffWithJitter(time.Second, time.Millisecond, 3); got > time.Second {
		t.Fatalf("max below min should clamp to min, got %v", got)
	}
}

package clock

import (
	"testing"
	"time"
)

func TestStandardClock_Now(t *testing.T) {
	c := NewStandardClock()

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestStandardClock_Since(t *testing.T) {
	c := NewStandardClock()
	start := time.Now().Add(-50 * time.Millisecond)

	if elapsed := c.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Since() = %v, want at least 50ms", elapsed)
	}
}

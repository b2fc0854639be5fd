package timex

import (
	"testing"
	"time"
)

func TestManualClock(t *testing.T) {
	var c Manual
	c.Set(100)
	c.Advance(250 * time.Millisecond)
	if got := c.Millis(); got != 350 {
		t.Fatalf("Millis = %d, want 350", got)
	}
}

func TestMonotonicAdvances(t *testing.T) {
	m := NewMonotonic()
	a := m.Millis()
	time.Sleep(3 * time.Millisecond)
	if b := m.Millis(); b < a+2 {
		t.Fatalf("monotonic clock did not advance: %d -> %d", a, b)
	}
}

func TestElapsedClamps(t *testing.T) {
	if Elapsed(10, 20) != 0 || Elapsed(20, 10) != 10 {
		t.Fatal("Elapsed wrong")
	}
}

func TestPeriodFromFPS(t *testing.T) {
	if PeriodFromFPS(10) != 100*time.Millisecond {
		t.Fatal("10fps should be 100ms")
	}
	if PeriodFromFPS(0) != time.Second {
		t.Fatal("0fps should coerce to 1s")
	}
}

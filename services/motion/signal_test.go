package motion

import (
	"sync"
	"testing"
	"time"
)

func TestCooldownScenario(t *testing.T) {
	s := NewSignal(5 * time.Second)

	if !s.Trigger(0) {
		t.Fatal("first trigger at t=0 must be accepted")
	}
	if !s.TakePending() {
		t.Fatal("pending after accepted trigger")
	}
	if s.Trigger(2000) {
		t.Fatal("trigger inside cooldown accepted")
	}
	if s.Pending() {
		t.Fatal("rejected trigger set the flag")
	}
	if s.Trigger(5000) {
		t.Fatal("trigger at exactly the cooldown must be rejected")
	}
	if !s.Trigger(5001) {
		t.Fatal("trigger after cooldown rejected")
	}
	if last, ok := s.LastTrigger(); !ok || last != 5001 {
		t.Fatalf("last = %d ok=%v", last, ok)
	}
	if s.Accepted() != 2 || s.Suppressed() != 2 {
		t.Fatalf("accepted=%d suppressed=%d", s.Accepted(), s.Suppressed())
	}
}

func TestTakePendingClears(t *testing.T) {
	s := NewSignal(0)
	if s.TakePending() {
		t.Fatal("fresh signal pending")
	}
	s.Trigger(10)
	if !s.TakePending() || s.TakePending() {
		t.Fatal("TakePending must return true exactly once")
	}
}

func TestRepeatedTriggersCollapse(t *testing.T) {
	s := NewSignal(100 * time.Millisecond)
	s.Trigger(0)
	s.Trigger(200)
	s.Trigger(400)
	if !s.TakePending() || s.TakePending() {
		t.Fatal("several accepted triggers before a take collapse into one")
	}
}

func TestState(t *testing.T) {
	s := NewSignal(time.Second)
	if s.State(0) != Armed {
		t.Fatal("fresh signal should be armed")
	}
	s.Trigger(100)
	if s.State(1100) != Cooling || s.State(1101) != Armed {
		t.Fatalf("state at 1100=%v 1101=%v", s.State(1100), s.State(1101))
	}
	if Cooling.String() != "cooling" || Armed.String() != "armed" {
		t.Fatal("state names")
	}
}

func TestConcurrentTriggersAcceptOne(t *testing.T) {
	s := NewSignal(time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Trigger(500)
		}()
	}
	wg.Wait()
	if s.Accepted() != 1 {
		t.Fatalf("accepted = %d, want 1", s.Accepted())
	}
}

func TestAcceptedSpacingExceedsCooldown(t *testing.T) {
	const cooldown = 300
	s := NewSignal(cooldown * time.Millisecond)
	var accepted []int64
	for now := int64(0); now < 5000; now += 37 {
		if s.Trigger(now) {
			accepted = append(accepted, now)
		}
	}
	if len(accepted) < 2 {
		t.Fatalf("too few accepted: %v", accepted)
	}
	for i := 1; i < len(accepted); i++ {
		if d := accepted[i] - accepted[i-1]; d <= cooldown {
			t.Fatalf("accepted %d and %d only %dms apart", accepted[i-1], accepted[i], d)
		}
	}
}

// services/motion/signal.go
package motion

import (
	"math"
	"sync/atomic"
	"time"
)

// DefaultCooldown is the minimum spacing between accepted triggers.
const DefaultCooldown = 5 * time.Second

const never = math.MinInt64

// State is the cooldown phase at a given instant.
type State uint8

const (
	Armed State = iota
	Cooling
)

func (s State) String() string {
	if s == Cooling {
		return "cooling"
	}
	return "armed"
}

// Signal is the interrupt-to-loop handoff. Trigger is called from interrupt
// context and only touches atomics; TakePending is called by the loop.
//
// A trigger is accepted when no trigger has been accepted yet, or when
// strictly more than the cooldown has elapsed since the last accepted one.
// Rejected triggers do not move the cooldown window.
type Signal struct {
	cooldownMs int64
	last       atomic.Int64
	pending    atomic.Bool
	accepted   atomic.Uint32
	suppressed atomic.Uint32
}

func NewSignal(cooldown time.Duration) *Signal {
	if cooldown < 0 {
		cooldown = 0
	}
	s := &Signal{cooldownMs: cooldown.Milliseconds()}
	s.last.Store(never)
	return s
}

// Trigger records an edge observed at nowMs and reports whether it was accepted.
func (s *Signal) Trigger(nowMs int64) bool {
	for {
		last := s.last.Load()
		if last != never && nowMs-last <= s.cooldownMs {
			s.suppressed.Add(1)
			return false
		}
		if s.last.CompareAndSwap(last, nowMs) {
			s.pending.Store(true)
			s.accepted.Add(1)
			return true
		}
	}
}

// TakePending atomically reads and clears the motion flag.
func (s *Signal) TakePending() bool { return s.pending.Swap(false) }

// Pending reports the flag without clearing it.
func (s *Signal) Pending() bool { return s.pending.Load() }

// LastTrigger returns the time of the last accepted trigger, or false if none.
func (s *Signal) LastTrigger() (int64, bool) {
	last := s.last.Load()
	return last, last != never
}

func (s *Signal) Accepted() uint32   { return s.accepted.Load() }
func (s *Signal) Suppressed() uint32 { return s.suppressed.Load() }

// State reports whether a trigger at nowMs would be accepted.
func (s *Signal) State(nowMs int64) State {
	last := s.last.Load()
	if last != never && nowMs-last <= s.cooldownMs {
		return Cooling
	}
	return Armed
}

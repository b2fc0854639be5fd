package timex

import (
	"sync/atomic"
	"time"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Clock yields monotonic milliseconds from an arbitrary origin.
// Millis must be safe to call from interrupt handlers: no allocation, no locks.
type Clock interface {
	Millis() int64
}

// Monotonic counts milliseconds since construction, like a board's millis().
type Monotonic struct{ origin time.Time }

func NewMonotonic() *Monotonic { return &Monotonic{origin: time.Now()} }

func (m *Monotonic) Millis() int64 { return time.Since(m.origin).Milliseconds() }

// Manual is a settable clock for simulations and tests.
type Manual struct{ ms atomic.Int64 }

func (m *Manual) Millis() int64           { return m.ms.Load() }
func (m *Manual) Set(ms int64)            { m.ms.Store(ms) }
func (m *Manual) Advance(d time.Duration) { m.ms.Add(d.Milliseconds()) }

// Elapsed returns now-since, clamped at zero.
func Elapsed(now, since int64) int64 {
	if now < since {
		return 0
	}
	return now - since
}

// PeriodFromFPS returns the frame period for a rate; fps<=0 is coerced to 1.
func PeriodFromFPS(fps int) time.Duration {
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

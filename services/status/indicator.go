// services/status/indicator.go
package status

import (
	"time"

	"motioncam-go/services/platform"
)

const (
	DefaultBlinkCount  = 3
	DefaultBlinkPeriod = 100 * time.Millisecond
)

// Indicator drives a single on/off LED. A nil pin makes every call a no-op,
// so boards without an LED need no special casing.
type Indicator struct {
	pin       platform.GPIOPin
	activeLow bool
	on        bool
	sleep     func(time.Duration)
}

// New configures pin as an output in the off state.
func New(pin platform.GPIOPin, activeLow bool) (*Indicator, error) {
	ind := &Indicator{pin: pin, activeLow: activeLow, sleep: time.Sleep}
	if pin == nil {
		return ind, nil
	}
	if err := pin.ConfigureOutput(ind.level(false)); err != nil {
		return nil, err
	}
	return ind, nil
}

func (i *Indicator) level(on bool) bool { return on != i.activeLow }

func (i *Indicator) set(on bool) {
	if i == nil || i.pin == nil {
		return
	}
	i.on = on
	i.pin.Set(i.level(on))
}

func (i *Indicator) On()  { i.set(true) }
func (i *Indicator) Off() { i.set(false) }

// Lit reports the logical state last written.
func (i *Indicator) Lit() bool { return i != nil && i.on }

// Blink flashes n times with the given on/off half-period and leaves the LED off.
// It blocks for n*2*period.
func (i *Indicator) Blink(n int, period time.Duration) {
	if i == nil || i.pin == nil || n <= 0 {
		return
	}
	if period <= 0 {
		period = DefaultBlinkPeriod
	}
	for k := 0; k < n; k++ {
		i.set(true)
		i.sleep(period)
		i.set(false)
		i.sleep(period)
	}
}

// services/platform/benchpin.go
//go:build !windows

package platform

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// BenchPin is an IRQ source for workstations: each SIGUSR1 delivered to the
// process counts as one rising edge.
type BenchPin struct {
	mu    sync.Mutex
	level bool
	ch    chan os.Signal
	done  chan struct{}
}

// NewBenchPin returns a SIGUSR1-driven pin.
func NewBenchPin() (IRQPin, bool) { return &BenchPin{}, true }

func (p *BenchPin) ConfigureInput(Pull) error  { return nil }
func (p *BenchPin) ConfigureOutput(bool) error { return ErrUnsupported }
func (p *BenchPin) Set(level bool)             { p.mu.Lock(); p.level = level; p.mu.Unlock() }
func (p *BenchPin) Get() bool                  { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *BenchPin) Toggle()                    { p.mu.Lock(); p.level = !p.level; p.mu.Unlock() }
func (p *BenchPin) Number() int                { return -1 }

func (p *BenchPin) SetIRQ(_ Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		return ErrIRQBusy
	}
	p.ch = make(chan os.Signal, 1)
	p.done = make(chan struct{})
	signal.Notify(p.ch, syscall.SIGUSR1)
	go func(ch chan os.Signal, done chan struct{}) {
		for {
			select {
			case <-done:
				return
			case <-ch:
				handler()
			}
		}
	}(p.ch, p.done)
	return nil
}

func (p *BenchPin) ClearIRQ() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	signal.Stop(p.ch)
	close(p.done)
	p.ch, p.done = nil, nil
	return nil
}

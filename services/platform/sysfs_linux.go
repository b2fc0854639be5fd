// services/platform/sysfs_linux.go
//go:build linux

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	DefaultSysfsRoot = "/sys/class"
	irqPollMs        = 100
)

// SysfsFactory hands out GPIO lines and LEDs under a sysfs class root.
type SysfsFactory struct {
	Root string
}

func (f *SysfsFactory) ByNumber(n int) (GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	p := &sysfsPin{n: n, dir: filepath.Join(f.Root, "gpio", "gpio"+strconv.Itoa(n))}
	if _, err := os.Stat(p.dir); err != nil {
		if err := os.WriteFile(filepath.Join(f.Root, "gpio", "export"), []byte(strconv.Itoa(n)), 0o200); err != nil {
			return nil, false
		}
		if _, err := os.Stat(p.dir); err != nil {
			return nil, false
		}
	}
	return p, true
}

// LED returns a brightness-driven pin for /sys/class/leds/<name>.
func (f *SysfsFactory) LED(name string) (GPIOPin, bool) {
	if name == "" {
		return nil, false
	}
	dir := filepath.Join(f.Root, "leds", name)
	if _, err := os.Stat(filepath.Join(dir, "brightness")); err != nil {
		return nil, false
	}
	return &sysfsLED{dir: dir}, true
}

// ---- GPIO line ----

type sysfsPin struct {
	n   int
	dir string

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (p *sysfsPin) attr(name string) string { return filepath.Join(p.dir, name) }

func (p *sysfsPin) ConfigureInput(_ Pull) error {
	// Pull resistors are a device-tree concern on Linux.
	return os.WriteFile(p.attr("direction"), []byte("in"), 0o644)
}

func (p *sysfsPin) ConfigureOutput(initial bool) error {
	dir := "low"
	if initial {
		dir = "high"
	}
	return os.WriteFile(p.attr("direction"), []byte(dir), 0o644)
}

func (p *sysfsPin) Set(level bool) { _ = os.WriteFile(p.attr("value"), levelBytes(level), 0o644) }

func (p *sysfsPin) Get() bool { return readLevel(p.attr("value")) }

func (p *sysfsPin) Toggle() { p.Set(!p.Get()) }

func (p *sysfsPin) Number() int { return p.n }

// SetIRQ arms the kernel edge detector and waits for POLLPRI on the value
// file. The watcher goroutine plays the interrupt context: handler is the
// only thing it runs.
func (p *sysfsPin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return ErrIRQBusy
	}
	if err := os.WriteFile(p.attr("edge"), []byte(EdgeToString(edge)), 0o644); err != nil {
		return err
	}
	f, err := os.Open(p.attr("value"))
	if err != nil {
		return err
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.watch(f, handler, p.stop, p.done)
	return nil
}

func (p *sysfsPin) ClearIRQ() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return os.WriteFile(p.attr("edge"), []byte("none"), 0o644)
}

func (p *sysfsPin) watch(f *os.File, handler func(), stop, done chan struct{}) {
	defer close(done)
	defer f.Close()

	var buf [2]byte
	_, _ = f.ReadAt(buf[:], 0) // consume the initial state
	fds := []unix.PollFd{{Fd: int32(f.Fd()), Events: unix.POLLPRI | unix.POLLERR}}
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := unix.Poll(fds, irqPollMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return
		}
		if n > 0 && fds[0].Revents&unix.POLLPRI != 0 {
			_, _ = f.ReadAt(buf[:], 0)
			handler()
		}
	}
}

// ---- LED ----

type sysfsLED struct{ dir string }

func (l *sysfsLED) ConfigureInput(Pull) error { return ErrUnsupported }

func (l *sysfsLED) ConfigureOutput(initial bool) error {
	// Detach kernel triggers (mmc0, heartbeat) so brightness sticks.
	_ = os.WriteFile(filepath.Join(l.dir, "trigger"), []byte("none"), 0o644)
	l.Set(initial)
	return nil
}

func (l *sysfsLED) Set(level bool) {
	_ = os.WriteFile(filepath.Join(l.dir, "brightness"), levelBytes(level), 0o644)
}
func (l *sysfsLED) Get() bool   { return readLevel(filepath.Join(l.dir, "brightness")) }
func (l *sysfsLED) Toggle()     { l.Set(!l.Get()) }
func (l *sysfsLED) Number() int { return -1 }

func levelBytes(level bool) []byte {
	if level {
		return []byte("1")
	}
	return []byte("0")
}

func readLevel(path string) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	v := strings.TrimSpace(string(b))
	return v != "" && v != "0"
}

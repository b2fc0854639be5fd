//go:build !windows

package platform

import (
	"syscall"
	"testing"
	"time"
)

func TestBenchPinFiresOnSIGUSR1(t *testing.T) {
	pin, ok := NewBenchPin()
	if !ok {
		t.Fatal("bench pin unavailable")
	}
	fired := make(chan struct{}, 1)
	if err := pin.SetIRQ(EdgeRising, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("SetIRQ: %v", err)
	}
	defer pin.ClearIRQ()

	if err := pin.SetIRQ(EdgeRising, func() {}); err != ErrIRQBusy {
		t.Fatalf("second SetIRQ err = %v, want ErrIRQBusy", err)
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}
}

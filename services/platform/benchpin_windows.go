// services/platform/benchpin_windows.go
//go:build windows

package platform

// NewBenchPin is unavailable without SIGUSR1.
func NewBenchPin() (IRQPin, bool) { return nil, false }

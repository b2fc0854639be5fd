// services/platform/factories_linux.go
//go:build linux

package platform

// DefaultPinFactory exposes kernel GPIO lines through sysfs.
func DefaultPinFactory() PinFactory { return &SysfsFactory{Root: DefaultSysfsRoot} }

// DefaultLED resolves a named board LED (e.g. "ACT" on Raspberry Pi).
func DefaultLED(name string) (GPIOPin, bool) {
	return (&SysfsFactory{Root: DefaultSysfsRoot}).LED(name)
}

// services/platform/factories_host.go
//go:build !linux

package platform

// On non-Linux builds there is no GPIO; the bench pin and injected fakes are the only inputs.
func DefaultPinFactory() PinFactory     { return noPinFactory{} }
func DefaultLED(string) (GPIOPin, bool) { return nil, false }

type noPinFactory struct{}

func (noPinFactory) ByNumber(int) (GPIOPin, bool) { return nil, false }

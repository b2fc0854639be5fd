// services/motion/attach.go
package motion

import (
	"motioncam-go/errcode"
	"motioncam-go/services/platform"
	"motioncam-go/x/timex"
)

// Attach configures pin as an input and routes its edges into sig.
// The returned func detaches the handler.
func Attach(pin platform.IRQPin, edge platform.Edge, pull platform.Pull, clk timex.Clock, sig *Signal) (func(), error) {
	if pin == nil || sig == nil {
		return nil, errcode.New(errcode.InitFailed, "motion.attach", "nil pin or signal")
	}
	if edge == platform.EdgeNone {
		edge = platform.EdgeRising
	}
	if err := pin.ConfigureInput(pull); err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, "motion.attach", err)
	}
	if err := pin.SetIRQ(edge, func() { sig.Trigger(clk.Millis()) }); err != nil {
		code := errcode.InitFailed
		if err == platform.ErrIRQBusy {
			code = errcode.Busy
		}
		return nil, errcode.Wrap(code, "motion.attach", err)
	}
	return func() { _ = pin.ClearIRQ() }, nil
}

package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidConfig Code = "invalid_config"
	Timeout       Code = "timeout"

	// Steady-state codes; absorbed by the scheduler.
	CaptureFailed Code = "capture_failed"
	LinkDown      Code = "link_down"
	RequestFailed Code = "request_failed"
	FrameTooLarge Code = "frame_too_large"

	// Startup codes; the node safe-stops on these.
	InitFailed    Code = "init_failed"
	NoCredentials Code = "no_credentials"
	UnknownPin    Code = "unknown_pin"
	UnknownDriver Code = "unknown_driver"

	Error Code = "error" // generic fallback
)

// E keeps a code together with context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap builds an *E; a nil cause is allowed.
func Wrap(c Code, op string, err error) *E { return &E{C: c, Op: op, Err: err} }

// New builds an *E with a message and no cause.
func New(c Code, op, msg string) *E { return &E{C: c, Op: op, Msg: msg} }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}

// Is reports whether err carries code c.
func Is(err error, c Code) bool { return Of(err) == c }

// Fatal reports whether a code belongs to the startup safe-stop class.
func Fatal(c Code) bool {
	switch c {
	case InitFailed, NoCredentials, InvalidConfig, UnknownPin, UnknownDriver:
		return true
	}
	return false
}

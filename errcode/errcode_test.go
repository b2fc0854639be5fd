package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"capture_failed": CaptureFailed,
		"link_down":      LinkDown,
		"request_failed": RequestFailed,
		"init_failed":    InitFailed,
		"no_credentials": NoCredentials,
		"invalid_config": InvalidConfig,
		"timeout":        Timeout,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	cause := errors.New("sensor gone")
	e := Wrap(CaptureFailed, "camera.capture", cause)
	if Of(e) != CaptureFailed {
		t.Fatalf("Of(*E) = %q", Of(e))
	}
	if !errors.Is(e, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	wrapped := fmt.Errorf("outer: %w", e)
	if Of(wrapped) != CaptureFailed {
		t.Fatalf("Of(wrapped) = %q", Of(wrapped))
	}
	if Of(nil) != OK || Of(LinkDown) != LinkDown || Of(cause) != Error {
		t.Fatal("Of basic cases failed")
	}
	if got := e.Error(); got != "camera.capture: capture_failed: sensor gone" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestFatalClass(t *testing.T) {
	if !Fatal(InitFailed) || !Fatal(NoCredentials) || Fatal(CaptureFailed) || Fatal(RequestFailed) || Fatal(FrameTooLarge) {
		t.Fatal("fatal classification wrong")
	}
}

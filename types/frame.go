package types

// Frame is one captured JPEG held by exactly one caller between the camera's
// Capture and Release. Buf aliases a camera-owned buffer; it is invalid once
// the frame has been released.
type Frame struct {
	Buf    []byte
	Len    int
	Width  int
	Height int
	Seq    uint32 // per-boot capture counter
	TSms   int64  // monotonic capture time (ms)
}

// Bytes returns the encoded JPEG payload.
func (f *Frame) Bytes() []byte {
	if f == nil || f.Len <= 0 || f.Len > len(f.Buf) {
		return nil
	}
	return f.Buf[:f.Len]
}

// Empty reports whether the frame carries no payload.
func (f *Frame) Empty() bool { return len(f.Bytes()) == 0 }

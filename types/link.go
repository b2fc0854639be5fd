package types

// LinkState is the last polled association status of the station link.
type LinkState uint8

const (
	LinkDisconnected LinkState = iota
	LinkConnected
)

func (s LinkState) String() string {
	if s == LinkConnected {
		return "connected"
	}
	return "disconnected"
}

func (s LinkState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *LinkState) UnmarshalText(b []byte) error {
	if string(b) == "connected" {
		*s = LinkConnected
	} else {
		*s = LinkDisconnected
	}
	return nil
}

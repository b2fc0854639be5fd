package types

import "strconv"

// Identity is fixed for the process lifetime.
type Identity struct {
	DeviceID      string
	AuthToken     string
	CollectorHost string
	CollectorPort int
}

// BaseURL is the plaintext collector root, e.g. "http://10.0.0.2:5000".
func (id Identity) BaseURL() string {
	return "http://" + id.CollectorHost + ":" + strconv.Itoa(id.CollectorPort)
}

package types

import (
	"encoding/json"
	"testing"
)

func TestFrameBytes(t *testing.T) {
	var nilFrame *Frame
	if !nilFrame.Empty() {
		t.Fatal("nil frame should be empty")
	}
	f := &Frame{Buf: make([]byte, 8), Len: 3}
	if len(f.Bytes()) != 3 || f.Empty() {
		t.Fatalf("bytes = %v", f.Bytes())
	}
	f.Len = 9
	if !f.Empty() {
		t.Fatal("length beyond buffer must read as empty")
	}
}

func TestLinkStateJSON(t *testing.T) {
	b, err := json.Marshal(LinkStatus{State: LinkConnected, TSms: 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"state":"connected","ts_ms":1}` {
		t.Fatalf("json = %s", b)
	}
	var ls LinkStatus
	if err := json.Unmarshal(b, &ls); err != nil || ls.State != LinkConnected {
		t.Fatalf("decoded %+v err=%v", ls, err)
	}
}

func TestBaseURL(t *testing.T) {
	id := Identity{CollectorHost: "10.0.0.2", CollectorPort: 5000}
	if got := id.BaseURL(); got != "http://10.0.0.2:5000" {
		t.Fatalf("BaseURL = %q", got)
	}
}

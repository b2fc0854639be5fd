package transport

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"motioncam-go/types"
)

type fixedLink types.LinkState

func (l fixedLink) CurrentState() types.LinkState { return types.LinkState(l) }

type countingDoer struct {
	calls atomic.Int32
	err   error
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func frameOf(b []byte) *types.Frame { return &types.Frame{Buf: b, Len: len(b)} }

func identityFor(t *testing.T, srv *httptest.Server) types.Identity {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return types.Identity{DeviceID: "cam1", AuthToken: "secret", CollectorHost: u.Hostname(), CollectorPort: port}
}

func TestUploadImageSendsMultipart(t *testing.T) {
	img := []byte{0xFF, 0xD8, 1, 2, 3, 4, 5, 6, 0xFF, 0xD9}
	var gotToken, gotDevice, gotFile, gotType string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathUpload || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotToken = r.Header.Get(HeaderAuth)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotDevice = r.FormValue("device_id")
		f, hdr, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotFile = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		gotImage, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"success","filename":"cam1_1.jpg","faces_detected":2,"faces":[]}`)
	}))
	defer srv.Close()

	c := New(Config{Identity: identityFor(t, srv)}, fixedLink(types.LinkConnected), srv.Client(), nil)
	if !c.UploadImage(frameOf(img)) {
		t.Fatal("upload reported failure")
	}
	if gotToken != "secret" {
		t.Fatalf("token = %q", gotToken)
	}
	if gotDevice != "cam1" || gotFile != "capture.jpg" || gotType != "image/jpeg" {
		t.Fatalf("device=%q file=%q type=%q", gotDevice, gotFile, gotType)
	}
	if string(gotImage) != string(img) {
		t.Fatalf("image mismatch: %x", gotImage)
	}
}

func TestSendStreamFrameRawBody(t *testing.T) {
	img := []byte{0xFF, 0xD8, 9, 9, 0xFF, 0xD9}
	var gotBody []byte
	var gotType, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathStreamFrame {
			http.NotFound(w, r)
			return
		}
		gotType = r.Header.Get("Content-Type")
		gotToken = r.Header.Get(HeaderAuth)
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	c := New(Config{Identity: identityFor(t, srv)}, fixedLink(types.LinkConnected), srv.Client(), nil)
	if !c.SendStreamFrame(frameOf(img)) {
		t.Fatal("stream frame reported failure")
	}
	if gotType != "image/jpeg" || gotToken != "secret" {
		t.Fatalf("type=%q token=%q", gotType, gotToken)
	}
	if string(gotBody) != string(img) {
		t.Fatalf("body mismatch: %x", gotBody)
	}
}

func TestNon200IsFailure(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusInternalServerError, http.StatusCreated} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := New(Config{Identity: identityFor(t, srv)}, fixedLink(types.LinkConnected), srv.Client(), nil)
		if c.UploadImage(frameOf([]byte{1, 2, 3})) {
			t.Errorf("upload with status %d reported success", code)
		}
		if c.SendStreamFrame(frameOf([]byte{1, 2, 3})) {
			t.Errorf("stream with status %d reported success", code)
		}
		srv.Close()
	}
}

func TestLinkDownSkipsNetwork(t *testing.T) {
	d := &countingDoer{}
	c := New(Config{Identity: types.Identity{CollectorHost: "127.0.0.1", CollectorPort: 1}}, fixedLink(types.LinkDisconnected), d, nil)
	if c.UploadImage(frameOf([]byte{1})) || c.SendStreamFrame(frameOf([]byte{1})) {
		t.Fatal("expected failure with link down")
	}
	if n := d.calls.Load(); n != 0 {
		t.Fatalf("network called %d times", n)
	}
}

func TestEmptyFrameSkipsNetwork(t *testing.T) {
	d := &countingDoer{}
	c := New(Config{}, fixedLink(types.LinkConnected), d, nil)
	if c.UploadImage(nil) || c.SendStreamFrame(&types.Frame{}) {
		t.Fatal("expected failure for empty frame")
	}
	if n := d.calls.Load(); n != 0 {
		t.Fatalf("network called %d times", n)
	}
}

func TestTransportErrorIsFailure(t *testing.T) {
	d := &countingDoer{err: errors.New("connection refused")}
	c := New(Config{}, fixedLink(types.LinkConnected), d, nil)
	if c.UploadImage(frameOf([]byte{1})) {
		t.Fatal("expected failure")
	}
	if d.calls.Load() != 1 {
		t.Fatal("expected exactly one attempt")
	}
}

func TestStreamTimeoutBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{Identity: identityFor(t, srv), StreamTimeout: 50 * time.Millisecond}, fixedLink(types.LinkConnected), srv.Client(), nil)
	start := time.Now()
	if c.SendStreamFrame(frameOf([]byte{1})) {
		t.Fatal("expected timeout failure")
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("call took %v", took)
	}
}

func TestParseUploadReply(t *testing.T) {
	r, ok := parseUploadReply([]byte(`{"status":"success","filename":"a.jpg","timestamp":"x","faces_detected":1}`))
	if !ok || r.Filename != "a.jpg" || r.FacesDetected != 1 {
		t.Fatalf("got %+v ok=%v", r, ok)
	}
	if _, ok := parseUploadReply([]byte("not json")); ok {
		t.Fatal("expected parse failure")
	}
}

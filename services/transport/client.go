// services/transport/client.go
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"motioncam-go/errcode"
	"motioncam-go/types"
)

const (
	PathUpload      = "/upload"
	PathStreamFrame = "/stream_frame"
	HeaderAuth      = "X-Auth-Token"

	DefaultUploadTimeout = 10 * time.Second
	DefaultStreamTimeout = 5 * time.Second

	replyLimit = 4 << 10
	drainLimit = 64 << 10
)

// LinkStater reports the current link state without blocking.
type LinkStater interface {
	CurrentState() types.LinkState
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	Identity      types.Identity
	UploadTimeout time.Duration
	StreamTimeout time.Duration
	Boundary      string
}

// Client posts frames to the collector. Every call is fire-once: it reports
// success as a bool and never retries.
type Client struct {
	id       types.Identity
	base     string
	link     LinkStater
	http     Doer
	upTO     time.Duration
	streamTO time.Duration
	boundary string
	log      *zap.Logger
}

func New(cfg Config, link LinkStater, doer Doer, log *zap.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = DefaultStreamTimeout
	}
	if cfg.Boundary == "" {
		cfg.Boundary = DefaultBoundary
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		id:       cfg.Identity,
		base:     cfg.Identity.BaseURL(),
		link:     link,
		http:     doer,
		upTO:     cfg.UploadTimeout,
		streamTO: cfg.StreamTimeout,
		boundary: cfg.Boundary,
		log:      log,
	}
}

func (c *Client) linkUp() bool {
	return c.link == nil || c.link.CurrentState() == types.LinkConnected
}

// UploadImage posts a motion capture as multipart/form-data to /upload.
func (c *Client) UploadImage(f *types.Frame) bool {
	if f.Empty() || !c.linkUp() {
		return false
	}
	body, ctype, err := UploadBody(c.id.DeviceID, f.Bytes(), c.boundary)
	if err != nil {
		c.log.Error("upload body", zap.Error(err))
		return false
	}
	c.log.Info("uploading image", zap.String("url", c.base+PathUpload), zap.Int("bytes", f.Len))
	start := time.Now()
	status, reply, err := c.post(PathUpload, ctype, body, c.upTO, true)
	if err != nil {
		c.log.Error("upload failed", zap.Error(err))
		return false
	}
	if status != http.StatusOK {
		c.log.Error("upload failed", zap.Int("status", status))
		return false
	}
	fields := []zap.Field{zap.Int("status", status), zap.Duration("took", time.Since(start))}
	if r, ok := parseUploadReply(reply); ok {
		fields = append(fields,
			zap.String("reply_status", r.Status),
			zap.String("filename", r.Filename),
			zap.Int("faces_detected", r.FacesDetected))
	}
	c.log.Info("upload ok", fields...)
	return true
}

// SendStreamFrame posts a preview frame as a raw JPEG body to /stream_frame.
// Failures are reported at debug level only; the caller drops the frame.
func (c *Client) SendStreamFrame(f *types.Frame) bool {
	if f.Empty() || !c.linkUp() {
		return false
	}
	status, _, err := c.post(PathStreamFrame, contentJPEG, f.Bytes(), c.streamTO, false)
	if err != nil {
		c.log.Debug("stream frame failed", zap.Error(err))
		return false
	}
	if status != http.StatusOK {
		c.log.Debug("stream frame failed", zap.Int("status", status))
		return false
	}
	return true
}

func (c *Client) post(path, ctype string, body []byte, timeout time.Duration, keepReply bool) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, errcode.Wrap(errcode.RequestFailed, "transport.request", err)
	}
	req.Header.Set(HeaderAuth, c.id.AuthToken)
	req.Header.Set("Content-Type", ctype)
	req.ContentLength = int64(len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		code := errcode.RequestFailed
		if ctx.Err() == context.DeadlineExceeded {
			code = errcode.Timeout
		}
		return 0, nil, errcode.Wrap(code, "transport.post", err)
	}
	defer resp.Body.Close()

	var reply []byte
	if keepReply && resp.StatusCode == http.StatusOK {
		reply, _ = io.ReadAll(io.LimitReader(resp.Body, replyLimit))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	return resp.StatusCode, reply, nil
}

// uploadReply is the collector's acknowledgement document.
type uploadReply struct {
	Status        string `json:"status"`
	Filename      string `json:"filename"`
	FacesDetected int    `json:"faces_detected"`
}

func parseUploadReply(b []byte) (uploadReply, bool) {
	var r uploadReply
	if len(b) == 0 || json.Unmarshal(b, &r) != nil {
		return uploadReply{}, false
	}
	return r, true
}

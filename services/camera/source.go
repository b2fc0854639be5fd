// services/camera/source.go
package camera

import (
	"bytes"
	"context"
	"image/jpeg"
	"sync"
	"time"

	"go.uber.org/zap"

	"motioncam-go/errcode"
	"motioncam-go/types"
	"motioncam-go/x/timex"
)

const (
	MaxBuffers          = 2
	DefaultMaxFrameSize = 512 * 1024
	DefaultGrabTimeout  = 5 * time.Second
)

// Sensor abstracts a concrete imager. Grab writes one encoded JPEG into buf
// and reports its length and, when known, its dimensions (0 when unknown).
type Sensor interface {
	Name() string
	Init(ctx context.Context) error
	Grab(ctx context.Context, buf []byte) (n, width, height int, err error)
	Close() error
}

type Config struct {
	Buffers      int           // frame buffers shared by all callers (1..2)
	MaxFrameSize int           // bytes per buffer
	GrabTimeout  time.Duration // bound on one sensor grab
}

// Stats counts buffer traffic; Acquired-Released is the number of live frames.
type Stats struct {
	Acquired      uint32
	Released      uint32
	Failures      uint32
	StrayReleases uint32
}

type slot struct {
	buf  []byte
	held bool
	out  *types.Frame // current acquisition; nil when free
}

// Source owns the camera and its fixed buffer pool.
type Source struct {
	sensor Sensor
	cfg    Config
	clock  timex.Clock
	log    *zap.Logger

	mu    sync.Mutex
	slots []*slot
	ready bool
	seq   uint32
	stats Stats
}

func New(s Sensor, cfg Config, clock timex.Clock, log *zap.Logger) *Source {
	if cfg.Buffers <= 0 {
		cfg.Buffers = 1
	}
	if cfg.Buffers > MaxBuffers {
		cfg.Buffers = MaxBuffers
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	if cfg.GrabTimeout <= 0 {
		cfg.GrabTimeout = DefaultGrabTimeout
	}
	if clock == nil {
		clock = timex.NewMonotonic()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{sensor: s, cfg: cfg, clock: clock, log: log}
}

// Init brings the sensor up and allocates the pool. A failure here is fatal
// for the node.
func (s *Source) Init(ctx context.Context) error {
	if s.sensor == nil {
		return errcode.New(errcode.InitFailed, "camera.init", "no sensor")
	}
	if err := s.sensor.Init(ctx); err != nil {
		return errcode.Wrap(errcode.InitFailed, "camera.init", err)
	}
	s.mu.Lock()
	s.slots = make([]*slot, s.cfg.Buffers)
	for i := range s.slots {
		s.slots[i] = &slot{buf: make([]byte, s.cfg.MaxFrameSize)}
	}
	s.ready = true
	s.mu.Unlock()
	s.log.Info("camera ready",
		zap.String("sensor", s.sensor.Name()),
		zap.Int("buffers", s.cfg.Buffers),
		zap.Int("max_frame_bytes", s.cfg.MaxFrameSize))
	return nil
}

// Capture grabs one frame into a free buffer. It fails with capture_failed
// when the source is not initialised, every buffer is held, or the sensor
// returns nothing.
func (s *Source) Capture() (*types.Frame, error) {
	s.mu.Lock()
	if !s.ready {
		s.stats.Failures++
		s.mu.Unlock()
		return nil, errcode.New(errcode.CaptureFailed, "camera.capture", "not initialised")
	}
	var sl *slot
	for _, c := range s.slots {
		if !c.held {
			sl = c
			break
		}
	}
	if sl == nil {
		s.stats.Failures++
		s.mu.Unlock()
		return nil, errcode.New(errcode.CaptureFailed, "camera.capture", "no buffer available")
	}
	sl.held = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GrabTimeout)
	n, w, h, err := s.sensor.Grab(ctx, sl.buf)
	cancel()
	if err == nil && n <= 0 {
		err = errcode.New(errcode.CaptureFailed, "camera.grab", "empty frame")
	}
	if err != nil {
		s.mu.Lock()
		sl.held = false
		s.stats.Failures++
		s.mu.Unlock()
		if errcode.Of(err) == errcode.CaptureFailed {
			return nil, err
		}
		return nil, errcode.Wrap(errcode.CaptureFailed, "camera.grab", err)
	}
	if w == 0 || h == 0 {
		w, h = dimensions(sl.buf[:n])
	}

	s.mu.Lock()
	s.seq++
	s.stats.Acquired++
	sl.out = &types.Frame{
		Buf:    sl.buf[:n],
		Len:    n,
		Width:  w,
		Height: h,
		Seq:    s.seq,
		TSms:   s.clock.Millis(),
	}
	s.mu.Unlock()
	return sl.out, nil
}

// Release returns a frame's buffer to the pool. nil is a no-op. Each Capture
// hands out a distinct *Frame, so a frame from an earlier acquisition of the
// same buffer is counted as stray and never frees the current holder.
func (s *Source) Release(f *types.Frame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.held && sl.out == f {
			sl.held = false
			sl.out = nil
			*f = types.Frame{}
			s.stats.Released++
			return
		}
	}
	s.stats.StrayReleases++
}

// Held reports the number of frames currently out.
func (s *Source) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range s.slots {
		if sl.held {
			n++
		}
	}
	return n
}

func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close shuts the sensor down; later captures fail.
func (s *Source) Close() error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return nil
	}
	s.ready = false
	s.mu.Unlock()
	return s.sensor.Close()
}

func dimensions(b []byte) (int, int) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

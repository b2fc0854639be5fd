// services/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"motioncam-go/bus"
	"motioncam-go/services/metrics"
	"motioncam-go/types"
	"motioncam-go/x/timex"
)

const (
	DefaultStreamInterval = 100 * time.Millisecond
	DefaultConnectTimeout = 10 * time.Second
	DefaultYield          = 10 * time.Millisecond
	DefaultBlinkCount     = 3
	DefaultBlinkPeriod    = 100 * time.Millisecond
)

var (
	TopicState       = bus.T("node", "state")
	TopicLink        = bus.T("node", "link")
	TopicMotionEvent = bus.T("node", "event", "motion")
	TopicEvents      = bus.T("node", "event", "#")
)

// ---- component contracts ----

type FrameSource interface {
	Capture() (*types.Frame, error)
	Release(f *types.Frame)
	Held() int
}

type NetworkLink interface {
	CurrentState() types.LinkState
	Connect(timeout time.Duration) types.LinkState
}

type TransportClient interface {
	UploadImage(f *types.Frame) bool
	SendStreamFrame(f *types.Frame) bool
}

type MotionFlag interface {
	TakePending() bool
}

type Indicator interface {
	On()
	Off()
	Blink(n int, period time.Duration)
}

// suppressedCounter is optionally implemented by a MotionFlag.
type suppressedCounter interface {
	Suppressed() uint32
}

// Node bundles the collaborators the loop drives. Status, Bus, Metrics and Log
// may be nil.
type Node struct {
	Camera    FrameSource
	Link      NetworkLink
	Transport TransportClient
	Motion    MotionFlag
	Status    Indicator
	Clock     timex.Clock
	Bus       *bus.Connection
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

type Options struct {
	StreamEnabled  bool
	StreamInterval time.Duration
	ConnectTimeout time.Duration
	Yield          time.Duration
	BlinkCount     int // blinks on each link-up; <0 disables
	BlinkPeriod    time.Duration
}

// Report describes what one iteration did.
type Report struct {
	Link             types.LinkState
	ConnectAttempted bool
	Motion           *types.MotionEvent
	StreamAttempted  bool
	StreamSent       bool
}

// Scheduler is the single cooperative control loop. It is not safe for
// concurrent use; only Step/Run touch its state.
type Scheduler struct {
	n    Node
	opts Options
	log  *zap.Logger

	lastStream int64
	streamed   bool

	link      types.LinkState
	linkKnown bool

	state     types.NodeState
	published types.NodeState
	havePub   bool
}

func New(n Node, opts Options) *Scheduler {
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = DefaultStreamInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Yield <= 0 {
		opts.Yield = DefaultYield
	}
	if opts.BlinkCount == 0 {
		opts.BlinkCount = DefaultBlinkCount
	}
	if opts.BlinkPeriod <= 0 {
		opts.BlinkPeriod = DefaultBlinkPeriod
	}
	if n.Clock == nil {
		n.Clock = timex.NewMonotonic()
	}
	log := n.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		n:     n,
		opts:  opts,
		log:   log,
		state: types.NodeState{StreamEnabled: opts.StreamEnabled},
	}
}

// State returns the loop's current node snapshot.
func (s *Scheduler) State() types.NodeState { return s.state }

// Run iterates until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTimer(s.opts.Yield)
	defer t.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		s.Step(ctx)
		t.Reset(s.opts.Yield)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Step performs exactly one loop iteration: link maintenance, then motion,
// then streaming. A link that is still down after one reconnect attempt
// skips the rest of the iteration and leaves any pending motion in place.
func (s *Scheduler) Step(ctx context.Context) Report {
	var r Report
	defer s.finish()

	r.Link = s.maintainLink(&r)
	if r.Link != types.LinkConnected {
		return r
	}
	if ctx.Err() != nil {
		return r
	}

	if s.n.Motion.TakePending() {
		ev := s.handleMotion()
		r.Motion = &ev
	}

	if s.opts.StreamEnabled && ctx.Err() == nil {
		now := s.n.Clock.Millis()
		if !s.streamed || timex.Elapsed(now, s.lastStream) >= s.opts.StreamInterval.Milliseconds() {
			s.lastStream, s.streamed = now, true
			r.StreamAttempted = true
			r.StreamSent = s.handleStream()
		}
	}
	return r
}

func (s *Scheduler) maintainLink(r *Report) types.LinkState {
	st := s.n.Link.CurrentState()
	if st != types.LinkConnected {
		if s.linkKnown && s.link == types.LinkConnected {
			s.log.Warn("connection lost, reconnecting")
			s.setLink(types.LinkDisconnected)
		}
		r.ConnectAttempted = true
		s.state.Reconnects++
		st = s.n.Link.Connect(s.opts.ConnectTimeout)
		s.n.Metrics.RecordReconnect(st == types.LinkConnected)
	}
	if !s.linkKnown || st != s.link {
		s.setLink(st)
		if st == types.LinkConnected && s.n.Status != nil && s.opts.BlinkCount > 0 {
			s.n.Status.Blink(s.opts.BlinkCount, s.opts.BlinkPeriod)
		}
	}
	return st
}

func (s *Scheduler) setLink(st types.LinkState) {
	s.link, s.linkKnown = st, true
	s.state.Link = st
	s.n.Metrics.SetLink(st)
	s.publish(TopicLink, types.LinkStatus{State: st, TSms: s.n.Clock.Millis()}, true)
}

func (s *Scheduler) handleMotion() types.MotionEvent {
	s.log.Info("motion detected")
	if s.n.Status != nil {
		s.n.Status.On()
		defer s.n.Status.Off()
	}
	s.state.MotionHandled++

	ev := types.MotionEvent{TSms: s.n.Clock.Millis()}
	s.state.LastMotionMs = ev.TSms

	f, err := s.n.Camera.Capture()
	if err != nil || f == nil {
		s.n.Camera.Release(f)
		ev.Outcome = types.MotionCaptureFailed
		s.state.CaptureFailures++
		s.log.Warn("motion capture failed", zap.Error(err))
		s.n.Metrics.RecordMotion(ev, 0)
		s.publish(TopicMotionEvent, ev, false)
		return ev
	}
	ev.Bytes, ev.Width, ev.Height = f.Len, f.Width, f.Height
	s.log.Info("frame captured", zap.Int("bytes", f.Len), zap.Int("width", f.Width), zap.Int("height", f.Height))

	start := time.Now()
	ok := s.upload(f)
	took := time.Since(start)

	if ok {
		ev.Outcome = types.MotionUploaded
		s.state.UploadsOK++
	} else {
		ev.Outcome = types.MotionUploadFailed
		s.state.UploadsFailed++
	}
	s.n.Metrics.RecordMotion(ev, took.Seconds())
	s.publish(TopicMotionEvent, ev, false)
	return ev
}

// upload releases f exactly once, even if the transport panics.
func (s *Scheduler) upload(f *types.Frame) bool {
	defer s.n.Camera.Release(f)
	return s.n.Transport.UploadImage(f)
}

func (s *Scheduler) handleStream() bool {
	f, err := s.n.Camera.Capture()
	if err != nil || f == nil {
		s.n.Camera.Release(f)
		s.state.CaptureFailures++
		s.state.StreamDropped++
		s.log.Debug("stream capture failed", zap.Error(err))
		s.n.Metrics.RecordStream(false, false, 0)
		return false
	}
	size := f.Len
	sent := s.sendStream(f)
	if sent {
		s.state.StreamSent++
	} else {
		s.state.StreamDropped++
	}
	s.n.Metrics.RecordStream(sent, true, size)
	return sent
}

func (s *Scheduler) sendStream(f *types.Frame) bool {
	defer s.n.Camera.Release(f)
	return s.n.Transport.SendStreamFrame(f)
}

// finish runs after every iteration.
func (s *Scheduler) finish() {
	m := s.n.Metrics
	m.RecordIteration()
	m.SetHeld(s.n.Camera.Held())
	if sc, ok := s.n.Motion.(suppressedCounter); ok {
		m.SetSuppressed(sc.Suppressed())
	}
	if !s.havePub || s.state != s.published {
		s.published, s.havePub = s.state, true
		s.publish(TopicState, s.state, true)
	}
}

func (s *Scheduler) publish(topic bus.Topic, payload any, retained bool) {
	if s.n.Bus == nil {
		return
	}
	s.n.Bus.Publish(s.n.Bus.NewMessage(topic, payload, retained))
}

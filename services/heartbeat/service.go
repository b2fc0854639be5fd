package heartbeat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"motioncam-go/bus"
	"motioncam-go/services/scheduler"
	"motioncam-go/types"
)

const DefaultInterval = time.Minute

// Service logs a periodic summary of the latest retained node state.
type Service struct {
	Interval time.Duration
	Log      *zap.Logger

	tick <-chan time.Time // tests
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	stateSub := conn.Subscribe(scheduler.TopicState)
	defer conn.Unsubscribe(stateSub)

	tick := s.tick
	if tick == nil {
		t := time.NewTicker(s.Interval)
		defer t.Stop()
		tick = t.C
	}

	var (
		last types.NodeState
		have bool
	)
	// loop until context is cancelled, respond to tick and state changes
	for {
		select {
		case <-ctx.Done():
			s.Log.Debug("heartbeat service stopping")
			return
		case msg, ok := <-stateSub.Channel():
			if !ok {
				return
			}
			if st, ok := msg.Payload.(types.NodeState); ok {
				last, have = st, true
			}
		case <-tick:
			if !have {
				s.Log.Info("heartbeat", zap.String("state", "waiting for loop"))
				continue
			}
			s.Log.Info("heartbeat",
				zap.Stringer("link", last.Link),
				zap.Uint32("motion", last.MotionHandled),
				zap.Uint32("uploads_ok", last.UploadsOK),
				zap.Uint32("uploads_failed", last.UploadsFailed),
				zap.Uint32("stream_sent", last.StreamSent),
				zap.Uint32("stream_dropped", last.StreamDropped),
				zap.Uint32("capture_failures", last.CaptureFailures))
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	go s.serviceLoop(ctx, conn)
	return nil
}

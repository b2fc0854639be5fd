package heartbeat

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"motioncam-go/bus"
	"motioncam-go/services/scheduler"
	"motioncam-go/types"
)

func TestHeartbeatLogsLatestState(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	b := bus.NewBus(4)
	pub := b.NewConnection("loop")
	pub.Publish(pub.NewMessage(scheduler.TopicState, types.NodeState{Link: types.LinkConnected, UploadsOK: 7}, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tick := make(chan time.Time)
	s := &Service{Log: zap.New(core), tick: tick}
	if err := s.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case tick <- time.Now():
		case <-deadline:
			t.Fatal("no heartbeat with state logged")
		}
		for _, e := range logs.FilterMessage("heartbeat").All() {
			if e.ContextMap()["uploads_ok"] == uint32(7) {
				return
			}
		}
	}
}

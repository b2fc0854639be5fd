package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"motioncam-go/types"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func counterWith(mf *dto.MetricFamily, label, value string) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRecordMotionAndStream(t *testing.T) {
	m := New()
	m.RecordMotion(types.MotionEvent{Outcome: types.MotionUploaded, Bytes: 20000}, 0.3)
	m.RecordMotion(types.MotionEvent{Outcome: types.MotionCaptureFailed}, 0)
	m.RecordStream(true, true, 8000)
	m.RecordStream(false, false, 0)
	m.RecordStream(false, true, 8000)

	fams := gather(t, m)
	if v := counterWith(fams["motioncam_motion_events_total"], "outcome", "uploaded"); v != 1 {
		t.Fatalf("uploaded = %v", v)
	}
	if v := counterWith(fams["motioncam_capture_failures_total"], "path", PathMotion); v != 1 {
		t.Fatalf("motion capture failures = %v", v)
	}
	if v := counterWith(fams["motioncam_capture_failures_total"], "path", PathStream); v != 1 {
		t.Fatalf("stream capture failures = %v", v)
	}
	if v := counterWith(fams["motioncam_stream_frames_total"], "result", "dropped"); v != 2 {
		t.Fatalf("dropped = %v", v)
	}
	if v := counterWith(fams["motioncam_stream_frames_total"], "result", "sent"); v != 1 {
		t.Fatalf("sent = %v", v)
	}
}

func TestGaugesAndHandler(t *testing.T) {
	m := New()
	m.SetLink(types.LinkConnected)
	m.SetHeld(1)
	m.RecordReconnect(false)
	m.RecordIteration()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"motioncam_link_up 1",
		"motioncam_frames_held 1",
		`motioncam_link_reconnects_total{result="failed"} 1`,
		"motioncam_loop_iterations_total 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordIteration()
	m.RecordMotion(types.MotionEvent{Outcome: types.MotionUploaded}, 1)
	m.RecordStream(true, true, 1)
	m.RecordReconnect(true)
	m.SetLink(types.LinkDisconnected)
	m.SetHeld(0)
	m.SetSuppressed(3)
}

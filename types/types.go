package types

// ---- Node state (retained on "node/state") ----

type NodeState struct {
	Link            LinkState `json:"link"`
	StreamEnabled   bool      `json:"stream_enabled"`
	MotionHandled   uint32    `json:"motion_handled"`
	LastMotionMs    int64     `json:"last_motion_ms"`
	UploadsOK       uint32    `json:"uploads_ok"`
	UploadsFailed   uint32    `json:"uploads_failed"`
	StreamSent      uint32    `json:"stream_sent"`
	StreamDropped   uint32    `json:"stream_dropped"`
	CaptureFailures uint32    `json:"capture_failures"`
	Reconnects      uint32    `json:"reconnects"`
}

// ---- Link status (retained on "node/link") ----

type LinkStatus struct {
	State LinkState `json:"state"`
	TSms  int64     `json:"ts_ms"`
}

// ---- Motion events (non-retained on "node/event/motion") ----

// MotionOutcome describes how one handled motion event ended.
type MotionOutcome string

const (
	MotionUploaded      MotionOutcome = "uploaded"
	MotionUploadFailed  MotionOutcome = "upload_failed"
	MotionCaptureFailed MotionOutcome = "capture_failed"
)

type MotionEvent struct {
	Outcome MotionOutcome `json:"outcome"`
	Bytes   int           `json:"bytes,omitempty"`
	Width   int           `json:"width,omitempty"`
	Height  int           `json:"height,omitempty"`
	TSms    int64         `json:"ts_ms"`
}

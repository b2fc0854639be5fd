// services/camera/sensor_gocv.go
//go:build gocv

package camera

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"motioncam-go/errcode"
)

// WebcamAvailable reports whether this build carries the OpenCV sensor.
const WebcamAvailable = true

// WebcamSensor reads a USB webcam through OpenCV and JPEG-encodes each frame.
type WebcamSensor struct {
	Index   int
	Width   int
	Height  int
	Quality int

	vc  *gocv.VideoCapture
	img gocv.Mat
}

func NewWebcamSensor(index, width, height, quality int) Sensor {
	return &WebcamSensor{Index: index, Width: width, Height: height, Quality: quality}
}

func (w *WebcamSensor) Name() string { return "gocv" }

func (w *WebcamSensor) Init(context.Context) error {
	vc, err := gocv.OpenVideoCapture(w.Index)
	if err != nil {
		return err
	}
	if !vc.IsOpened() {
		vc.Close()
		return errors.New("webcam did not open")
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(w.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(w.Height))
	w.vc = vc
	w.img = gocv.NewMat()
	// Let auto-exposure settle.
	for i := 0; i < 5; i++ {
		w.vc.Read(&w.img)
	}
	return nil
}

func (w *WebcamSensor) Grab(_ context.Context, buf []byte) (int, int, int, error) {
	if w.vc == nil {
		return 0, 0, 0, errors.New("sensor not initialised")
	}
	if ok := w.vc.Read(&w.img); !ok || w.img.Empty() {
		return 0, 0, 0, errors.New("webcam read failed")
	}
	enc, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.img, []int{gocv.IMWriteJpegQuality, w.Quality})
	if err != nil {
		return 0, 0, 0, err
	}
	defer enc.Close()
	b := enc.GetBytes()
	if len(b) > len(buf) {
		return 0, 0, 0, errcode.New(errcode.FrameTooLarge, "camera.grab", "webcam frame")
	}
	return copy(buf, b), w.img.Cols(), w.img.Rows(), nil
}

func (w *WebcamSensor) Close() error {
	if w.vc == nil {
		return nil
	}
	w.img.Close()
	err := w.vc.Close()
	w.vc = nil
	return err
}

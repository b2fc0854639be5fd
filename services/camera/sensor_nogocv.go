// services/camera/sensor_nogocv.go
//go:build !gocv

package camera

// WebcamAvailable reports whether this build carries the OpenCV sensor.
const WebcamAvailable = false

// NewWebcamSensor is nil without the gocv build tag.
func NewWebcamSensor(index, width, height, quality int) Sensor { return nil }

// services/camera/sensors.go
package camera

import "motioncam-go/errcode"

// SensorParams carries the sensor fields of the node configuration.
type SensorParams struct {
	Driver      string // "command" | "dir" | "webcam"
	Width       int
	Height      int
	Quality     int
	Dir         string
	DeviceIndex int
}

// NewSensor selects a sensor implementation by driver name.
func NewSensor(p SensorParams) (Sensor, error) {
	switch p.Driver {
	case "", "command":
		return NewCommandSensor(p.Width, p.Height, p.Quality), nil
	case "dir":
		if p.Dir == "" {
			return nil, errcode.New(errcode.InvalidConfig, "camera.sensor", "dir driver needs camera.dir")
		}
		return NewDirSensor(p.Dir), nil
	case "webcam":
		if !WebcamAvailable {
			return nil, errcode.New(errcode.UnknownDriver, "camera.sensor", "webcam driver needs the gocv build tag")
		}
		return NewWebcamSensor(p.DeviceIndex, p.Width, p.Height, p.Quality), nil
	default:
		return nil, errcode.New(errcode.UnknownDriver, "camera.sensor", p.Driver)
	}
}

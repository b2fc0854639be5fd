// services/transport/multipart.go
package transport

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
)

// DefaultBoundary is fixed for the device lifetime. Only one part layout is
// ever produced and no field value is user-controlled, so it cannot collide.
const DefaultBoundary = "----ESP32CAMBoundary"

const (
	fieldDeviceID = "device_id"
	fieldImage    = "image"
	imageFilename = "capture.jpg"
	contentJPEG   = "image/jpeg"
)

// UploadBody encodes the two-part upload form: device_id then image.
// It returns the body and the matching Content-Type header value.
func UploadBody(deviceID string, jpeg []byte, boundary string) ([]byte, string, error) {
	var buf bytes.Buffer
	buf.Grow(len(jpeg) + 256)
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(fieldDeviceID, deviceID); err != nil {
		return nil, "", err
	}
	h := make(textproto.MIMEHeader, 2)
	h.Set("Content-Disposition", `form-data; name="`+fieldImage+`"; filename="`+imageFilename+`"`)
	h.Set("Content-Type", contentJPEG)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// services/camera/sensor_dir.go
package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"motioncam-go/errcode"
)

// DirSensor replays the JPEG files of a directory in lexical order, wrapping
// around. It stands in for a camera on a bench.
type DirSensor struct {
	Dir string

	files []string
	next  int
}

func NewDirSensor(dir string) *DirSensor { return &DirSensor{Dir: dir} }

func (d *DirSensor) Name() string { return "dir:" + d.Dir }

func (d *DirSensor) Init(context.Context) error {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return err
	}
	d.files = d.files[:0]
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			d.files = append(d.files, filepath.Join(d.Dir, e.Name()))
		}
	}
	if len(d.files) == 0 {
		return errors.New("no .jpg files in " + d.Dir)
	}
	sort.Strings(d.files)
	d.next = 0
	return nil
}

func (d *DirSensor) Grab(_ context.Context, buf []byte) (int, int, int, error) {
	if len(d.files) == 0 {
		return 0, 0, 0, errors.New("sensor not initialised")
	}
	path := d.files[d.next]
	d.next = (d.next + 1) % len(d.files)
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(b) > len(buf) {
		return 0, 0, 0, errcode.New(errcode.FrameTooLarge, "camera.grab", path)
	}
	return copy(buf, b), 0, 0, nil
}

func (d *DirSensor) Close() error { return nil }

// services/camera/sensor_command.go
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"motioncam-go/errcode"
)

// DefaultStillCommands are tried in order; Bookworm ships rpicam-*, older
// images libcamera-*.
var DefaultStillCommands = []string{"rpicam-jpeg", "libcamera-jpeg"}

// CommandSensor captures one still per Grab by running a camera app that
// writes a JPEG to stdout.
type CommandSensor struct {
	Commands []string
	Width    int
	Height   int
	Quality  int

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
	path     string
}

func NewCommandSensor(width, height, quality int) *CommandSensor {
	return &CommandSensor{
		Commands: DefaultStillCommands,
		Width:    width,
		Height:   height,
		Quality:  quality,
	}
}

func (c *CommandSensor) Name() string {
	if c.path != "" {
		return c.path
	}
	return "command"
}

func (c *CommandSensor) Init(ctx context.Context) error {
	look := c.lookPath
	if look == nil {
		look = exec.LookPath
	}
	for _, name := range c.Commands {
		if p, err := look(name); err == nil {
			c.path = p
			return nil
		}
	}
	return fmt.Errorf("none of %v found; install rpicam-apps (or libcamera-apps)", c.Commands)
}

func (c *CommandSensor) args() []string {
	return []string{
		"--width", strconv.Itoa(c.Width),
		"--height", strconv.Itoa(c.Height),
		"--quality", strconv.Itoa(c.Quality),
		"--timeout", "1",
		"--nopreview",
		"--output", "-",
	}
}

func (c *CommandSensor) Grab(ctx context.Context, buf []byte) (int, int, int, error) {
	if c.path == "" {
		return 0, 0, 0, errors.New("sensor not initialised")
	}
	mk := c.command
	if mk == nil {
		mk = exec.CommandContext
	}
	cmd := mk(ctx, c.path, c.args()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w (stderr: %s)", c.path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() > len(buf) {
		return 0, 0, 0, errcode.New(errcode.FrameTooLarge, "camera.grab", strconv.Itoa(stdout.Len())+" bytes")
	}
	n := copy(buf, stdout.Bytes())
	return n, c.Width, c.Height, nil
}

func (c *CommandSensor) Close() error { return nil }

package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"motioncam-go/x/timex"
)

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Capture one frame to a file and exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "snapshot.jpg",
				Usage:   "output JPEG path",
			},
		},
		Action: snapshotAction,
	}
}

func snapshotAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, _, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	cam, err := newCamera(cfg, timex.NewMonotonic(), log)
	if err != nil {
		return err
	}
	if err := cam.Init(c.Context); err != nil {
		return err
	}
	defer cam.Close()

	f, err := cam.Capture()
	if err != nil {
		return err
	}
	defer cam.Release(f)

	out := c.String("out")
	if err := os.WriteFile(out, f.Bytes(), 0o644); err != nil {
		return err
	}
	log.Info("snapshot written",
		zap.String("path", out),
		zap.Int("bytes", f.Len),
		zap.Int("width", f.Width),
		zap.Int("height", f.Height))
	return nil
}

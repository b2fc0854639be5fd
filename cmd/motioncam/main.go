package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "motioncam:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "motioncam",
		Usage:   "motion-triggered camera node",
		Version: Version,
		Flags:   commonFlags(),
		Commands: []*cli.Command{
			runCommand(),
			snapshotCommand(),
			versionCommand(),
		},
		Action: runAction,
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file (default ./config.yaml when present)",
			EnvVars: []string{"MOTIONCAM_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "embedded board profile applied before the file (esp32cam, rpi, bench)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "device-id",
			Usage: "override device.id",
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "motioncam\n")
			fmt.Fprintf(c.App.Writer, "Version:    %s\n", Version)
			fmt.Fprintf(c.App.Writer, "Commit:     %s\n", Commit)
			fmt.Fprintf(c.App.Writer, "Build Date: %s\n", BuildDate)
			return nil
		},
	}
}

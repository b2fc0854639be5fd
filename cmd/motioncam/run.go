package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"motioncam-go/bus"
	"motioncam-go/services/diag"
	"motioncam-go/services/heartbeat"
	"motioncam-go/services/metrics"
	"motioncam-go/services/platform"
	"motioncam-go/services/scheduler"
	"motioncam-go/x/timex"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the camera node (default)",
		Description: `Attach the PIR line, bring up the camera and link, and loop forever.

Examples:
  motioncam run --profile rpi --config /etc/motioncam.yaml
  motioncam --profile bench run --no-stream`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-stream",
				Usage: "disable preview streaming",
			},
			&cli.StringFlag{
				Name:  "diag",
				Usage: "diagnostics listen address, overrides diag.listen",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := loadConfig(c)
	log, bootID, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfgErr != nil {
		return safeStop(ctx, log, cfgErr)
	}
	if err := cfg.Validate(); err != nil {
		return safeStop(ctx, log, err)
	}
	log.Info("config", zap.Any("effective", cfg.Redacted()))

	clk := timex.NewMonotonic()
	pins := platform.DefaultPinFactory()
	b := bus.NewBus(16)

	cam, err := newCamera(cfg, clk, log)
	if err != nil {
		return fatalOrReturn(ctx, log, err)
	}
	if err := cam.Init(ctx); err != nil {
		return fatalOrReturn(ctx, log, err)
	}
	defer cam.Close()

	lnk, err := newLink(cfg, log)
	if err != nil {
		return fatalOrReturn(ctx, log, err)
	}
	defer lnk.Disconnect()

	sig, detach, err := newMotion(cfg.PIR, pins, clk)
	if err != nil {
		return fatalOrReturn(ctx, log, err)
	}
	defer detach()
	log.Info("pir interrupt attached",
		zap.Int("gpio", cfg.PIR.GPIO),
		zap.String("edge", cfg.PIR.Edge))

	m := metrics.New()
	ind := newIndicator(cfg.Status, pins, log)
	id := cfg.Identity()

	log.Info("system ready",
		zap.String("server", id.BaseURL()),
		zap.Duration("motion_cooldown", cfg.PIR.Cooldown),
		zap.Bool("streaming", cfg.Streaming.Enabled),
		zap.Duration("stream_interval", cfg.StreamInterval()),
		zap.String("version", Version))

	bootCapture(cam, log)

	cfg.Publish(b.NewConnection("config"))

	if cfg.Diag.Listen != "" {
		if cfg.Logging.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := diag.New(diag.Config{
			Listen:   cfg.Diag.Listen,
			DeviceID: id.DeviceID,
			BootID:   bootID,
			Version:  Version,
		}, b.NewConnection("diag"), m, log.Named("diag"))
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Error("diagnostics server", zap.Error(err))
			}
		}()
	}
	if cfg.Heartbeat.Interval > 0 {
		hb := &heartbeat.Service{Interval: cfg.Heartbeat.Interval, Log: log.Named("heartbeat")}
		_ = hb.Start(ctx, b.NewConnection("heartbeat"))
	}

	sched := scheduler.New(scheduler.Node{
		Camera:    cam,
		Link:      lnk,
		Transport: newTransport(cfg, lnk, log),
		Motion:    sig,
		Status:    ind,
		Clock:     clk,
		Bus:       b.NewConnection("loop"),
		Metrics:   m,
		Log:       log.Named("loop"),
	}, scheduler.Options{
		StreamEnabled:  cfg.Streaming.Enabled,
		StreamInterval: cfg.StreamInterval(),
		ConnectTimeout: cfg.WiFi.ConnectTimeout,
		Yield:          cfg.Loop.Yield,
	})
	sched.Run(ctx)

	st := sched.State()
	log.Info("shutting down",
		zap.Uint32("motion", st.MotionHandled),
		zap.Uint32("uploads_ok", st.UploadsOK),
		zap.Uint32("stream_sent", st.StreamSent))
	return nil
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"motioncam-go/errcode"
	"motioncam-go/services/camera"
	"motioncam-go/services/config"
	"motioncam-go/services/link"
	"motioncam-go/services/motion"
	"motioncam-go/services/platform"
	"motioncam-go/services/status"
	"motioncam-go/services/transport"
	"motioncam-go/x/logx"
	"motioncam-go/x/timex"
)

// loadConfig resolves defaults, profile, file and flag overrides. Flags are
// looked up through the lineage so they work before or after the subcommand.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("profile"))
	if err != nil {
		return cfg, err
	}
	if v := c.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := c.String("device-id"); v != "" {
		cfg.Device.ID = v
	}
	if c.Bool("no-stream") {
		cfg.Streaming.Enabled = false
	}
	if v := c.String("diag"); v != "" {
		cfg.Diag.Listen = v
	}
	return cfg, nil
}

// newLogger tags every line with a per-boot id.
func newLogger(cfg config.Config) (*zap.Logger, string, func(), error) {
	log, _, closeFn, err := logx.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, "", nil, err
	}
	bootID := uuid.NewString()
	log = log.With(
		zap.String("boot_id", bootID),
		zap.String("device_id", cfg.Device.ID),
	)
	return log, bootID, closeFn, nil
}

func newCamera(cfg config.Config, clk timex.Clock, log *zap.Logger) (*camera.Source, error) {
	sensor, err := camera.NewSensor(camera.SensorParams{
		Driver:      cfg.Camera.Driver,
		Width:       cfg.Camera.Width,
		Height:      cfg.Camera.Height,
		Quality:     cfg.Camera.JPEGQuality,
		Dir:         cfg.Camera.Dir,
		DeviceIndex: cfg.Camera.DeviceIndex,
	})
	if err != nil {
		return nil, err
	}
	return camera.New(sensor, camera.Config{
		Buffers:      cfg.Camera.FBCount,
		MaxFrameSize: cfg.Camera.MaxFrameBytes,
		GrabTimeout:  cfg.Camera.GrabTimeout,
	}, clk, log.Named("camera")), nil
}

func newLink(cfg config.Config, log *zap.Logger) (*link.Link, error) {
	return link.New(link.NewIfaceLink(cfg.WiFi.Interface), link.Config{
		SSID:               cfg.WiFi.SSID,
		Passphrase:         cfg.WiFi.Passphrase,
		RequireCredentials: cfg.WiFi.RequireCredentials,
	}, log.Named("link"))
}

func newTransport(cfg config.Config, l *link.Link, log *zap.Logger) *transport.Client {
	return transport.New(transport.Config{
		Identity:      cfg.Identity(),
		UploadTimeout: cfg.Collector.UploadTimeout,
		StreamTimeout: cfg.Collector.StreamTimeout,
	}, l, &http.Client{}, log.Named("transport"))
}

var newBenchPin = platform.NewBenchPin

// pirPin resolves the motion input; gpio -1 is the signal-driven bench pin.
func pirPin(cfg config.PIRConfig, pins platform.PinFactory) (platform.IRQPin, error) {
	if cfg.GPIO < 0 {
		p, ok := newBenchPin()
		if !ok {
			return nil, errcode.New(errcode.UnknownPin, "pir.pin", "bench pin not available on this platform")
		}
		return p, nil
	}
	p, ok := pins.ByNumber(cfg.GPIO)
	if !ok {
		return nil, errcode.New(errcode.UnknownPin, "pir.pin", "gpio not available")
	}
	irq, ok := p.(platform.IRQPin)
	if !ok {
		return nil, errcode.New(errcode.UnknownPin, "pir.pin", "gpio has no interrupt support")
	}
	return irq, nil
}

// newMotion attaches the PIR line to a fresh signal.
func newMotion(cfg config.PIRConfig, pins platform.PinFactory, clk timex.Clock) (*motion.Signal, func(), error) {
	pin, err := pirPin(cfg, pins)
	if err != nil {
		return nil, nil, err
	}
	sig := motion.NewSignal(cfg.Cooldown)
	detach, err := motion.Attach(pin, platform.ParseEdge(cfg.Edge), platform.ParsePull(cfg.Pull), clk, sig)
	if err != nil {
		return nil, nil, err
	}
	return sig, detach, nil
}

// newIndicator never fails the boot: a missing LED just disables it.
func newIndicator(cfg config.StatusConfig, pins platform.PinFactory, log *zap.Logger) *status.Indicator {
	var (
		pin platform.GPIOPin
		ok  bool
	)
	switch {
	case cfg.LED != "":
		pin, ok = platform.DefaultLED(cfg.LED)
	case cfg.GPIO >= 0:
		pin, ok = pins.ByNumber(cfg.GPIO)
	}
	if !ok {
		pin = nil
	}
	ind, err := status.New(pin, cfg.ActiveLow)
	if err != nil {
		log.Warn("status led unavailable", zap.Error(err))
		ind, _ = status.New(nil, false)
	}
	return ind
}

// safeStop parks the process after a fatal init failure without touching
// hardware, until a signal arrives.
func safeStop(ctx context.Context, log *zap.Logger, err error) error {
	log.Error("fatal init failure, halting",
		zap.String("code", string(errcode.Of(err))),
		zap.Error(err))
	<-ctx.Done()
	log.Info("shutdown from safe stop")
	return nil
}

// fatalOrReturn routes fatal errors to safeStop and returns others.
func fatalOrReturn(ctx context.Context, log *zap.Logger, err error) error {
	if errcode.Fatal(errcode.Of(err)) {
		return safeStop(ctx, log, err)
	}
	return err
}

func bootCapture(cam *camera.Source, log *zap.Logger) {
	start := time.Now()
	f, err := cam.Capture()
	if err != nil {
		log.Warn("test capture failed", zap.Error(err))
		return
	}
	defer cam.Release(f)
	log.Info("test frame",
		zap.Int("bytes", f.Len),
		zap.Int("width", f.Width),
		zap.Int("height", f.Height),
		zap.Duration("took", time.Since(start)))
}

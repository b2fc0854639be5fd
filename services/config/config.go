package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"motioncam-go/bus"
	"motioncam-go/errcode"
	"motioncam-go/services/platform"
	"motioncam-go/types"
	"motioncam-go/x/strx"
	"motioncam-go/x/timex"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const (
	configPrefix    = "config"
	DefaultFile     = "config.yaml"
	maxFrameBuffers = 2
)

// EmbeddedConfigLookup allows overriding how board profiles are resolved.
var EmbeddedConfigLookup = func(profile string) ([]byte, bool) {
	b, ok := embeddedConfigs[profile]
	return b, ok
}

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Collector CollectorConfig `yaml:"collector"`
	WiFi      WiFiConfig      `yaml:"wifi"`
	PIR       PIRConfig       `yaml:"pir"`
	Camera    CameraConfig    `yaml:"camera"`
	Streaming StreamingConfig `yaml:"streaming"`
	Status    StatusConfig    `yaml:"status"`
	Loop      LoopConfig      `yaml:"loop"`
	Logging   LoggingConfig   `yaml:"logging"`
	Diag      DiagConfig      `yaml:"diag"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

type DeviceConfig struct {
	ID        string `yaml:"id"`
	AuthToken string `yaml:"auth_token"`
}

type CollectorConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	UploadTimeout time.Duration `yaml:"upload_timeout"`
	StreamTimeout time.Duration `yaml:"stream_timeout"`
}

type WiFiConfig struct {
	Interface          string        `yaml:"interface"`
	SSID               string        `yaml:"ssid"`
	Passphrase         string        `yaml:"passphrase"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	RequireCredentials bool          `yaml:"require_credentials"`
}

type PIRConfig struct {
	GPIO     int           `yaml:"gpio"` // -1 selects the SIGUSR1 bench pin
	Edge     string        `yaml:"edge"`
	Pull     string        `yaml:"pull"`
	Cooldown time.Duration `yaml:"cooldown"`
}

type CameraConfig struct {
	Driver        string        `yaml:"driver"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	JPEGQuality   int           `yaml:"jpeg_quality"`
	FBCount       int           `yaml:"fb_count"`
	MaxFrameBytes int           `yaml:"max_frame_bytes"`
	GrabTimeout   time.Duration `yaml:"grab_timeout"`
	Dir           string        `yaml:"dir"`
	DeviceIndex   int           `yaml:"device_index"`
}

type StreamingConfig struct {
	Enabled  bool          `yaml:"enabled"`
	FPS      int           `yaml:"fps"`
	Interval time.Duration `yaml:"interval"` // wins over fps when set
}

type StatusConfig struct {
	LED       string `yaml:"led"`  // sysfs LED name, e.g. "ACT"
	GPIO      int    `yaml:"gpio"` // used when led is empty; -1 disables
	ActiveLow bool   `yaml:"active_low"`
}

type LoopConfig struct {
	Yield time.Duration `yaml:"yield"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type DiagConfig struct {
	Listen string `yaml:"listen"` // empty disables
}

type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables
}

// Default returns the firmware-parity configuration.
func Default() Config {
	return Config{
		Device:    DeviceConfig{ID: "esp32cam-001"},
		Collector: CollectorConfig{Host: "127.0.0.1", Port: 5000, UploadTimeout: 10 * time.Second, StreamTimeout: 5 * time.Second},
		WiFi:      WiFiConfig{ConnectTimeout: 10 * time.Second},
		PIR:       PIRConfig{GPIO: -1, Edge: "rising", Pull: "none", Cooldown: 5 * time.Second},
		Camera: CameraConfig{
			Driver:        "command",
			Width:         800,
			Height:        600,
			JPEGQuality:   85,
			FBCount:       1,
			MaxFrameBytes: 512 << 10,
			GrabTimeout:   5 * time.Second,
		},
		Streaming: StreamingConfig{Enabled: true, FPS: 10},
		Status:    StatusConfig{GPIO: -1},
		Loop:      LoopConfig{Yield: 10 * time.Millisecond},
		Logging:   LoggingConfig{Level: "info"},
		Heartbeat: HeartbeatConfig{Interval: time.Minute},
	}
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Parse overlays YAML onto base. Unknown keys are rejected.
func Parse(base Config, raw []byte) (Config, error) {
	cfg := base
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, errcode.Wrap(errcode.InvalidConfig, "config.parse", err)
	}
	return cfg, nil
}

// LoadProfile overlays an embedded board profile onto base.
func LoadProfile(base Config, profile string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(profile)
	if !ok || len(raw) == 0 {
		return base, errcode.New(errcode.InvalidConfig, "config.profile", "no embedded profile: "+profile)
	}
	return Parse(base, raw)
}

// Load builds the effective configuration: defaults, then the optional
// profile, then the file. A missing file is only an error when it was named
// explicitly.
func Load(path, profile string) (Config, error) {
	cfg := Default()
	var err error
	if profile != "" {
		if cfg, err = LoadProfile(cfg, profile); err != nil {
			return cfg, err
		}
	}
	explicit := path != ""
	path = strx.Coalesce(path, DefaultFile)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		return Parse(cfg, raw)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return cfg, nil
	default:
		return cfg, errcode.Wrap(errcode.InvalidConfig, "config.load", err)
	}
}

// Profiles lists the embedded board profile names.
func Profiles() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	return out
}

// -----------------------------------------------------------------------------
// Validation and derived values
// -----------------------------------------------------------------------------

func invalid(msg string) error { return errcode.New(errcode.InvalidConfig, "config.validate", msg) }

// Validate reports the first problem found as an invalid_config error.
func (c Config) Validate() error {
	switch {
	case strx.Blank(c.Device.ID):
		return invalid("device.id is required")
	case strx.Blank(c.Collector.Host):
		return invalid("collector.host is required")
	case c.Collector.Port <= 0 || c.Collector.Port > 65535:
		return invalid("collector.port out of range")
	case c.Collector.UploadTimeout <= 0 || c.Collector.StreamTimeout <= 0:
		return invalid("collector timeouts must be positive")
	case c.WiFi.ConnectTimeout <= 0:
		return invalid("wifi.connect_timeout must be positive")
	case c.PIR.Cooldown < 0:
		return invalid("pir.cooldown must not be negative")
	case platform.ParseEdge(c.PIR.Edge) == platform.EdgeNone:
		return invalid("pir.edge must be rising, falling or both")
	case c.Camera.FBCount < 1 || c.Camera.FBCount > maxFrameBuffers:
		return invalid("camera.fb_count must be 1 or 2")
	case c.Camera.MaxFrameBytes <= 0:
		return invalid("camera.max_frame_bytes must be positive")
	case c.Camera.Width < 0 || c.Camera.Height < 0:
		return invalid("camera dimensions must not be negative")
	case c.Streaming.FPS < 0 || c.Streaming.Interval < 0:
		return invalid("streaming rate must not be negative")
	case c.Loop.Yield < 0:
		return invalid("loop.yield must not be negative")
	}
	return nil
}

// Identity returns the immutable device identity.
func (c Config) Identity() types.Identity {
	return types.Identity{
		DeviceID:      c.Device.ID,
		AuthToken:     c.Device.AuthToken,
		CollectorHost: c.Collector.Host,
		CollectorPort: c.Collector.Port,
	}
}

// StreamInterval resolves the preview period: interval, else 1/fps.
func (c Config) StreamInterval() time.Duration {
	if c.Streaming.Interval > 0 {
		return c.Streaming.Interval
	}
	if c.Streaming.FPS > 0 {
		return timex.PeriodFromFPS(c.Streaming.FPS)
	}
	return 100 * time.Millisecond
}

// Redacted returns a copy safe to log or publish.
func (c Config) Redacted() Config {
	c.Device.AuthToken = strx.Redact(c.Device.AuthToken)
	c.WiFi.Passphrase = strx.Redact(c.WiFi.Passphrase)
	return c
}

// -----------------------------------------------------------------------------
// Bus publication
// -----------------------------------------------------------------------------

// Publish places each section, redacted, as a retained message on config/<section>.
func (c Config) Publish(conn *bus.Connection) {
	r := c.Redacted()
	sections := map[string]any{
		"device":    r.Device,
		"collector": r.Collector,
		"wifi":      r.WiFi,
		"pir":       r.PIR,
		"camera":    r.Camera,
		"streaming": r.Streaming,
		"status":    r.Status,
		"loop":      r.Loop,
		"logging":   r.Logging,
		"diag":      r.Diag,
		"heartbeat": r.Heartbeat,
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
}

package config

// -----------------------------------------------------------------------------
// Embedded board profiles
//
// Each profile is a YAML overlay applied on top of Default() before the
// config file. Key: profile name passed with --profile.
// -----------------------------------------------------------------------------

const cfgESP32Cam = `
# AI-Thinker ESP32-CAM timing and pin numbering, with PSRAM.
pir:
  gpio: 13
  edge: rising
  cooldown: 5s
camera:
  width: 800
  height: 600
  fb_count: 2
streaming:
  enabled: true
  interval: 100ms
status:
  gpio: 33
wifi:
  require_credentials: true
`

const cfgRPi = `
# Raspberry Pi with a CSI camera, PIR on BCM 17 and the ACT LED.
pir:
  gpio: 17
  edge: rising
  pull: down
  cooldown: 5s
camera:
  driver: command
  width: 1280
  height: 720
  jpeg_quality: 85
  fb_count: 1
  max_frame_bytes: 1048576
streaming:
  enabled: true
  fps: 5
status:
  led: ACT
wifi:
  interface: wlan0
`

const cfgBench = `
# Workstation bench: replayed frames, SIGUSR1 as the PIR line.
pir:
  gpio: -1
camera:
  driver: dir
  dir: ./frames
collector:
  host: 127.0.0.1
diag:
  listen: 127.0.0.1:8090
logging:
  level: debug
`

var embeddedConfigs = map[string][]byte{
	"esp32cam": []byte(cfgESP32Cam),
	"rpi":      []byte(cfgRPi),
	"bench":    []byte(cfgBench),
}

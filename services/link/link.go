// services/link/link.go
package link

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/drivers/netlink"

	"motioncam-go/errcode"
	"motioncam-go/types"
)

// StatusPoller is implemented by radios whose association can be read on
// demand without blocking.
type StatusPoller interface {
	Poll() bool
}

type Config struct {
	SSID       string
	Passphrase string
	// RequireCredentials is set for radios that associate themselves
	// (station mode on a co-processor); OS-managed links leave it false.
	RequireCredentials bool
}

// Link tracks station-mode association over a netlink.Netlinker.
type Link struct {
	nl     netlink.Netlinker
	params netlink.ConnectParams
	log    *zap.Logger

	up       atomic.Bool
	attempts atomic.Uint32
}

func New(nl netlink.Netlinker, cfg Config, log *zap.Logger) (*Link, error) {
	if nl == nil {
		return nil, errcode.New(errcode.InitFailed, "link.new", "no radio")
	}
	if cfg.RequireCredentials && cfg.SSID == "" {
		return nil, errcode.Wrap(errcode.NoCredentials, "link.new", netlink.ErrMissingSSID)
	}
	if log == nil {
		log = zap.NewNop()
	}
	l := &Link{
		nl:  nl,
		log: log,
		params: netlink.ConnectParams{
			ConnectMode: netlink.ConnectModeSTA,
			Ssid:        cfg.SSID,
			Passphrase:  cfg.Passphrase,
		},
	}
	nl.NetNotify(l.onEvent)
	return l, nil
}

func (l *Link) onEvent(ev netlink.Event) {
	switch ev {
	case netlink.EventNetUp:
		l.up.Store(true)
	case netlink.EventNetDown:
		l.up.Store(false)
	}
}

// CurrentState returns the last known radio status without blocking.
func (l *Link) CurrentState() types.LinkState {
	if p, ok := l.nl.(StatusPoller); ok {
		l.up.Store(p.Poll())
	}
	if l.up.Load() {
		return types.LinkConnected
	}
	return types.LinkDisconnected
}

// Connect attempts association, blocking for at most timeout.
func (l *Link) Connect(timeout time.Duration) types.LinkState {
	l.attempts.Add(1)
	p := l.params
	p.ConnectTimeout = timeout
	start := time.Now()
	err := l.nl.NetConnect(&p)
	switch {
	case err == nil, errors.Is(err, netlink.ErrConnected):
		l.up.Store(true)
		fields := []zap.Field{zap.Duration("took", time.Since(start))}
		if mac, err := l.nl.GetHardwareAddr(); err == nil && len(mac) > 0 {
			fields = append(fields, zap.String("mac", mac.String()))
		}
		l.log.Info("link connected", fields...)
		return types.LinkConnected
	default:
		l.up.Store(false)
		l.log.Warn("link connect failed", zap.Duration("timeout", timeout), zap.Error(err))
		return types.LinkDisconnected
	}
}

// Disconnect drops the association.
func (l *Link) Disconnect() {
	l.nl.NetDisconnect()
	l.up.Store(false)
}

// Attempts counts Connect calls since start.
func (l *Link) Attempts() uint32 { return l.attempts.Load() }

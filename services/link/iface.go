// services/link/iface.go
package link

import (
	"errors"
	"net"
	"sync"
	"time"

	"tinygo.org/x/drivers/netlink"
)

const (
	DefaultPollEvery      = 500 * time.Millisecond
	defaultConnectTimeout = 10 * time.Second
)

var errNoHardwareAddr = errors.New("no hardware address")

// IfaceLink is a netlink.Netlinker for hosts where the OS (wpa_supplicant,
// NetworkManager) owns association. The link counts as up while the named
// interface is up with a non-loopback unicast address; an empty name accepts
// any such interface.
type IfaceLink struct {
	Name      string
	PollEvery time.Duration

	// interfaces is swapped in tests.
	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
	sleep      func(time.Duration)
	now        func() time.Time

	mu     sync.Mutex
	notify func(netlink.Event)
	up     bool
	mac    net.HardwareAddr
}

func NewIfaceLink(name string) *IfaceLink {
	return &IfaceLink{Name: name, PollEvery: DefaultPollEvery}
}

func (l *IfaceLink) NetConnect(params *netlink.ConnectParams) error {
	timeout := defaultConnectTimeout
	if params != nil && params.ConnectTimeout > 0 {
		timeout = params.ConnectTimeout
	}
	every := l.PollEvery
	if every <= 0 {
		every = DefaultPollEvery
	}
	now, sleep := l.clock()
	deadline := now().Add(timeout)
	for {
		if l.Poll() {
			return nil
		}
		if !now().Before(deadline) {
			return netlink.ErrConnectTimeout
		}
		sleep(every)
	}
}

func (l *IfaceLink) NetDisconnect() { l.set(false, nil) }

func (l *IfaceLink) NetNotify(cb func(netlink.Event)) {
	l.mu.Lock()
	l.notify = cb
	l.mu.Unlock()
}

func (l *IfaceLink) GetHardwareAddr() (net.HardwareAddr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mac == nil {
		return nil, errNoHardwareAddr
	}
	return l.mac, nil
}

// Poll reads interface status and raises netlink events on transitions.
func (l *IfaceLink) Poll() bool {
	up, mac := l.associated()
	l.set(up, mac)
	return up
}

func (l *IfaceLink) set(up bool, mac net.HardwareAddr) {
	l.mu.Lock()
	changed := up != l.up
	l.up = up
	if mac != nil {
		l.mac = mac
	}
	cb := l.notify
	l.mu.Unlock()
	if !changed || cb == nil {
		return
	}
	if up {
		cb(netlink.EventNetUp)
	} else {
		cb(netlink.EventNetDown)
	}
}

func (l *IfaceLink) associated() (bool, net.HardwareAddr) {
	list := l.interfaces
	if list == nil {
		list = net.Interfaces
	}
	addrsOf := l.addrs
	if addrsOf == nil {
		addrsOf = func(i net.Interface) ([]net.Addr, error) { return i.Addrs() }
	}
	ifs, err := list()
	if err != nil {
		return false, nil
	}
	for _, i := range ifs {
		if l.Name != "" && i.Name != l.Name {
			continue
		}
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := addrsOf(i)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipn, ok := a.(*net.IPNet)
			if ok && ipn.IP.IsGlobalUnicast() {
				return true, i.HardwareAddr
			}
		}
	}
	return false, nil
}

func (l *IfaceLink) clock() (func() time.Time, func(time.Duration)) {
	now, sleep := l.now, l.sleep
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return now, sleep
}

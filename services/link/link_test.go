package link

import (
	"errors"
	"net"
	"testing"
	"time"

	"tinygo.org/x/drivers/netlink"

	"motioncam-go/errcode"
	"motioncam-go/types"
)

// fakeRadio implements netlink.Netlinker with scripted connect results.
type fakeRadio struct {
	results  []error
	calls    int
	lastArgs netlink.ConnectParams
	notify   func(netlink.Event)
}

func (r *fakeRadio) NetConnect(p *netlink.ConnectParams) error {
	r.lastArgs = *p
	var err error
	if r.calls < len(r.results) {
		err = r.results[r.calls]
	}
	r.calls++
	if err == nil && r.notify != nil {
		r.notify(netlink.EventNetUp)
	}
	return err
}
func (r *fakeRadio) NetDisconnect()                             {}
func (r *fakeRadio) NetNotify(cb func(netlink.Event))           { r.notify = cb }
func (r *fakeRadio) GetHardwareAddr() (net.HardwareAddr, error) { return net.HardwareAddr{1, 2, 3, 4, 5, 6}, nil }

func TestConnectPassesStationParams(t *testing.T) {
	r := &fakeRadio{}
	l, err := New(r, Config{SSID: "home", Passphrase: "secret123", RequireCredentials: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Connect(3 * time.Second); got != types.LinkConnected {
		t.Fatalf("Connect = %v", got)
	}
	if r.lastArgs.Ssid != "home" || r.lastArgs.Passphrase != "secret123" ||
		r.lastArgs.ConnectTimeout != 3*time.Second || r.lastArgs.ConnectMode != netlink.ConnectModeSTA {
		t.Fatalf("params = %+v", r.lastArgs)
	}
	if l.CurrentState() != types.LinkConnected {
		t.Fatal("CurrentState not connected after Connect")
	}
}

func TestConnectFailureAndFlap(t *testing.T) {
	r := &fakeRadio{results: []error{netlink.ErrConnectTimeout, nil}}
	l, _ := New(r, Config{}, nil)

	if l.Connect(time.Millisecond) != types.LinkDisconnected {
		t.Fatal("expected failure on first attempt")
	}
	if l.CurrentState() != types.LinkDisconnected {
		t.Fatal("state should be disconnected")
	}
	if l.Connect(time.Millisecond) != types.LinkConnected {
		t.Fatal("expected success on second attempt")
	}
	r.notify(netlink.EventNetDown)
	if l.CurrentState() != types.LinkDisconnected {
		t.Fatal("EventNetDown not reflected")
	}
	if l.Attempts() != 2 {
		t.Fatalf("Attempts = %d", l.Attempts())
	}
}

func TestAlreadyConnectedCountsAsUp(t *testing.T) {
	r := &fakeRadio{results: []error{netlink.ErrConnected}}
	l, _ := New(r, Config{}, nil)
	if l.Connect(time.Second) != types.LinkConnected {
		t.Fatal("ErrConnected should count as connected")
	}
}

func TestMissingCredentialsIsFatal(t *testing.T) {
	_, err := New(&fakeRadio{}, Config{RequireCredentials: true}, nil)
	if !errcode.Is(err, errcode.NoCredentials) || !errors.Is(err, netlink.ErrMissingSSID) {
		t.Fatalf("err = %v", err)
	}
}

// ---- IfaceLink ----

type ifaceFixture struct {
	up   bool
	addr net.Addr
}

func (f *ifaceFixture) link(name string) *IfaceLink {
	l := NewIfaceLink(name)
	l.interfaces = func() ([]net.Interface, error) {
		flags := net.Flags(0)
		if f.up {
			flags = net.FlagUp
		}
		return []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "wlan0", Flags: flags, HardwareAddr: net.HardwareAddr{0xb8, 0x27, 0xeb, 0, 0, 1}},
		}, nil
	}
	l.addrs = func(i net.Interface) ([]net.Addr, error) {
		if i.Name == "lo" {
			return []net.Addr{&net.IPNet{IP: net.IPv4(127, 0, 0, 1), Mask: net.CIDRMask(8, 32)}}, nil
		}
		return []net.Addr{f.addr}, nil
	}
	return l
}

func TestIfaceLinkPollAndEvents(t *testing.T) {
	f := &ifaceFixture{addr: &net.IPNet{IP: net.IPv4(192, 168, 1, 20), Mask: net.CIDRMask(24, 32)}}
	il := f.link("wlan0")
	var events []netlink.Event
	il.NetNotify(func(e netlink.Event) { events = append(events, e) })

	if il.Poll() {
		t.Fatal("down interface reported up")
	}
	f.up = true
	if !il.Poll() || !il.Poll() {
		t.Fatal("up interface reported down")
	}
	f.up = false
	il.Poll()
	if len(events) != 2 || events[0] != netlink.EventNetUp || events[1] != netlink.EventNetDown {
		t.Fatalf("events = %v", events)
	}
	if mac, err := il.GetHardwareAddr(); err != nil || mac[0] != 0xb8 {
		t.Fatalf("mac = %v err = %v", mac, err)
	}
}

func TestIfaceLinkConnectTimesOut(t *testing.T) {
	f := &ifaceFixture{addr: &net.IPNet{IP: net.IPv4(10, 0, 0, 2), Mask: net.CIDRMask(8, 32)}}
	il := f.link("wlan0")
	clock := time.Unix(0, 0)
	il.now = func() time.Time { return clock }
	sleeps := 0
	il.sleep = func(d time.Duration) { sleeps++; clock = clock.Add(d) }

	err := il.NetConnect(&netlink.ConnectParams{ConnectTimeout: 2 * time.Second})
	if !errors.Is(err, netlink.ErrConnectTimeout) {
		t.Fatalf("err = %v", err)
	}
	if sleeps != 4 {
		t.Fatalf("polled %d times, want 4 sleeps at 500ms", sleeps)
	}

	f.up = true
	if err := il.NetConnect(&netlink.ConnectParams{ConnectTimeout: time.Second}); err != nil {
		t.Fatalf("connect with interface up: %v", err)
	}
}

func TestLinkOverIfaceReadsStatusOnDemand(t *testing.T) {
	f := &ifaceFixture{up: true, addr: &net.IPNet{IP: net.IPv4(10, 0, 0, 2), Mask: net.CIDRMask(8, 32)}}
	il := f.link("")
	l, err := New(il, Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if l.CurrentState() != types.LinkConnected {
		t.Fatal("expected connected")
	}
	f.up = false
	if l.CurrentState() != types.LinkDisconnected {
		t.Fatal("expected disconnected after interface down")
	}
}

package ar

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/loop"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeView struct {
	can       bool
	err       error
	activated int
}

func (v *fakeView) CanActivate() bool { return v.can }

func (v *fakeView) Activate() error {
	v.activated++
	return v.err
}

func newTestController(view *fakeView) (*Controller, *loop.Loop) {
	lp := loop.New(t0)
	factory := func(SessionRequest, DeviceProfile) (NativeView, error) { return view, nil }
	return NewController(config.Default().AR, lp, factory, nil), lp
}

var (
	chair  = SessionRequest{ModelURL: "https://cdn.example.com/beanbag.glb", ColorHex: "#1a1a1a", ColorName: "Midnight Black"}
	iphone = Classify(uaIPhone)
)

func TestOpenRequiresModel(t *testing.T) {
	c, _ := newTestController(&fakeView{can: true})
	if err := c.Open(SessionRequest{}, iphone, ""); !errors.Is(err, ErrNoModel) {
		t.Errorf("Open() error = %v, want ErrNoModel", err)
	}
	if c.State() != Closed {
		t.Errorf("state = %v, want closed", c.State())
	}
}

func TestAutoActivateOncePerOpen(t *testing.T) {
	view := &fakeView{can: true}
	c, lp := newTestController(view)

	var states []State
	c.OnChange = func(s State) { states = append(states, s) }

	if err := c.Open(chair, iphone, ""); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if c.State() != NativeARReady {
		t.Fatalf("state = %v, want ready", c.State())
	}

	// Re-renders must not schedule a second attempt.
	c.Refresh()
	c.Refresh()
	if lp.Pending() != 1 {
		t.Errorf("pending = %d, want 1", lp.Pending())
	}

	lp.Tick(t0.Add(499 * time.Millisecond))
	if view.activated != 0 {
		t.Fatalf("activated early")
	}
	lp.Tick(t0.Add(500 * time.Millisecond))
	if view.activated != 1 {
		t.Fatalf("activated = %d, want 1", view.activated)
	}
	if c.State() != NativeARActivated {
		t.Errorf("state = %v, want activated", c.State())
	}

	c.Refresh()
	lp.Tick(t0.Add(2 * time.Second))
	if view.activated != 1 {
		t.Errorf("activated = %d after refresh, want 1", view.activated)
	}

	want := []State{DetectingDevice, NativeARReady, NativeARActivated}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestDeviceSetBeforeStateChange(t *testing.T) {
	c, _ := newTestController(&fakeView{can: true})

	var seen []DeviceProfile
	c.OnChange = func(State) { seen = append(seen, c.Device()) }
	if err := c.Open(chair, iphone, ""); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if len(seen) == 0 {
		t.Fatal("OnChange not called")
	}
	for i, d := range seen {
		if d != iphone {
			t.Errorf("Device() in change %d = %v, want %v", i, d, iphone)
		}
	}
}

func TestCloseResetsLatch(t *testing.T) {
	view := &fakeView{can: true}
	c, lp := newTestController(view)

	if err := c.Open(chair, iphone, ""); err != nil {
		t.Fatal(err)
	}
	// Closed before the delay: the attempt is cancelled.
	c.Close()
	if lp.Pending() != 0 {
		t.Errorf("pending after close = %d, want 0", lp.Pending())
	}
	lp.Tick(t0.Add(time.Second))
	if view.activated != 0 {
		t.Fatalf("activated after close")
	}

	if err := c.Open(chair, iphone, ""); err != nil {
		t.Fatal(err)
	}
	lp.Tick(t0.Add(1500 * time.Millisecond))
	if view.activated != 1 {
		t.Errorf("activated = %d after reopen, want 1", view.activated)
	}
}

func TestActivationFailureIsSwallowed(t *testing.T) {
	view := &fakeView{can: true, err: errors.New("session refused")}
	c, lp := newTestController(view)

	if err := c.Open(chair, Classify(uaAndroid), ""); err != nil {
		t.Fatal(err)
	}
	lp.Tick(t0.Add(time.Second))
	if view.activated != 1 {
		t.Fatalf("activated = %d, want 1", view.activated)
	}
	if c.State() != NativeARReady {
		t.Errorf("state = %v, want ready", c.State())
	}

	// Manual restarts have no limit.
	for i := 0; i < 5; i++ {
		if err := c.Reactivate(); err != nil {
			t.Fatalf("Reactivate() error: %v", err)
		}
	}
	if view.activated != 6 {
		t.Errorf("activated = %d, want 6", view.activated)
	}
}

func TestNoActivationWithoutCapability(t *testing.T) {
	view := &fakeView{can: false}
	c, lp := newTestController(view)

	if err := c.Open(chair, iphone, ""); err != nil {
		t.Fatal(err)
	}
	lp.Tick(t0.Add(time.Second))
	if view.activated != 0 {
		t.Errorf("activate called without capability")
	}
	if c.State() != NativeARReady {
		t.Errorf("state = %v, want ready", c.State())
	}
}

func TestReactivateAfterActivation(t *testing.T) {
	view := &fakeView{can: true}
	c, lp := newTestController(view)

	if err := c.Open(chair, iphone, ""); err != nil {
		t.Fatal(err)
	}
	lp.Tick(t0.Add(time.Second))
	if err := c.Reactivate(); err != nil {
		t.Fatalf("Reactivate() error: %v", err)
	}
	if view.activated != 2 {
		t.Errorf("activated = %d, want 2", view.activated)
	}
}

func TestUnsupportedDevice(t *testing.T) {
	c, lp := newTestController(&fakeView{can: true})

	if err := c.Open(chair, Classify(uaBB), "http://host/ar/1"); err != nil {
		t.Fatal(err)
	}
	if c.State() != Unsupported {
		t.Fatalf("state = %v, want unsupported", c.State())
	}
	if lp.Pending() != 0 {
		t.Errorf("pending = %d, want 0", lp.Pending())
	}
	if _, err := c.ShowQR(); !errors.Is(err, ErrQRUnavailable) {
		t.Errorf("ShowQR() error = %v, want ErrQRUnavailable", err)
	}
	if err := c.Reactivate(); !errors.Is(err, ErrNoNativeView) {
		t.Errorf("Reactivate() error = %v, want ErrNoNativeView", err)
	}
}

func TestDesktopQRFallback(t *testing.T) {
	c, lp := newTestController(&fakeView{can: true})
	page := "http://192.168.1.20:8090/ar/5b2e?x=1"

	if err := c.Open(chair, Classify(uaDesktop), page); err != nil {
		t.Fatal(err)
	}
	if c.State() != Desktop {
		t.Fatalf("state = %v, want desktop", c.State())
	}
	if lp.Pending() != 0 {
		t.Errorf("desktop open scheduled work")
	}

	qr, err := c.ShowQR()
	if err != nil {
		t.Fatalf("ShowQR() error: %v", err)
	}
	if c.State() != QRFallback {
		t.Errorf("state = %v, want qr", c.State())
	}
	u, err := url.Parse(qr)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("data"); got != page {
		t.Errorf("qr data = %q, want %q", got, page)
	}
	if got := u.Query().Get("size"); got != "200x200" {
		t.Errorf("qr size = %q", got)
	}
	if c.QRURL() != qr {
		t.Errorf("QRURL() = %s", c.QRURL())
	}

	c.Close()
	if c.State() != Closed || c.QRURL() != "" {
		t.Errorf("close left state %v, qr %q", c.State(), c.QRURL())
	}
	if _, err := c.ShowQR(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("ShowQR() after close = %v, want ErrNotOpen", err)
	}
}

func TestNativeRouteWithoutFactory(t *testing.T) {
	lp := loop.New(t0)
	c := NewController(config.Default().AR, lp, nil, nil)

	if err := c.Open(chair, iphone, ""); !errors.Is(err, ErrNoNativeView) {
		t.Errorf("Open() error = %v, want ErrNoNativeView", err)
	}
	if c.State() != Unsupported {
		t.Errorf("state = %v, want unsupported", c.State())
	}
}

package app

import (
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/loop"
	"github.com/Faultbox/beanbag/internal/handoff"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var blackChair = ar.SessionRequest{
	ModelURL:  "https://cdn.example.com/beanbag.glb",
	ColorHex:  "#1a1a1a",
	ColorName: "Midnight Black",
}

type countingView struct{ activations int }

func (v *countingView) CanActivate() bool { return true }
func (v *countingView) Activate() error {
	v.activations++
	return nil
}

func TestARBridgeDesktopRegistersSession(t *testing.T) {
	cfg := config.Default()
	cfg.Handoff.PublicURL = "http://10.0.0.5:8090"
	store := handoff.NewStore(4)
	server, err := handoff.NewServer(cfg.Handoff, cfg.AR, store, nil)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	l := loop.New(t0)
	panel := ar.NewController(cfg.AR, l, nil, nil)
	bridge := NewARBridge(panel, server, ar.HostProfile("linux"), nil)

	bridge.Request(blackChair)

	if panel.State() != ar.Desktop {
		t.Fatalf("state = %v, want %v", panel.State(), ar.Desktop)
	}
	sess, ok := store.Latest()
	if !ok {
		t.Fatal("no session registered")
	}
	if sess.Request != blackChair {
		t.Errorf("session request = %+v, want %+v", sess.Request, blackChair)
	}

	qr, err := panel.ShowQR()
	if err != nil {
		t.Fatalf("ShowQR() error: %v", err)
	}
	want := "data=http%3A%2F%2F10.0.0.5%3A8090%2Far%2F" + sess.ID
	if !strings.Contains(qr, want) {
		t.Errorf("qr = %q, want it to contain %q", qr, want)
	}
}

func TestARBridgeNativeAutoActivatesOnce(t *testing.T) {
	cfg := config.Default()
	l := loop.New(t0)
	view := &countingView{}
	panel := ar.NewController(cfg.AR, l, func(ar.SessionRequest, ar.DeviceProfile) (ar.NativeView, error) {
		return view, nil
	}, nil)
	bridge := NewARBridge(panel, nil, ar.HostProfile("ios"), nil)

	bridge.Request(blackChair)
	if panel.State() != ar.NativeARReady {
		t.Fatalf("state = %v, want %v", panel.State(), ar.NativeARReady)
	}

	l.Tick(t0.Add(499 * time.Millisecond))
	if view.activations != 0 {
		t.Fatalf("activated early: %d", view.activations)
	}
	l.Tick(t0.Add(500 * time.Millisecond))
	panel.Refresh()
	l.Tick(t0.Add(2 * time.Second))
	if view.activations != 1 {
		t.Errorf("activations = %d, want 1", view.activations)
	}
}

func TestARBridgeWithoutServerUsesRemoteModel(t *testing.T) {
	cfg := config.Default()
	panel := ar.NewController(cfg.AR, loop.New(t0), nil, nil)
	bridge := NewARBridge(panel, nil, ar.HostProfile("linux"), nil)

	bridge.Request(blackChair)
	qr, err := panel.ShowQR()
	if err != nil {
		t.Fatalf("ShowQR() error: %v", err)
	}
	if !strings.Contains(qr, "data=https%3A%2F%2Fcdn.example.com%2Fbeanbag.glb") {
		t.Errorf("qr = %q, want the model URL as payload", qr)
	}
}

func TestARBridgeNoModel(t *testing.T) {
	cfg := config.Default()
	panel := ar.NewController(cfg.AR, loop.New(t0), nil, nil)
	bridge := NewARBridge(panel, nil, ar.HostProfile("linux"), nil)

	bridge.Request(ar.SessionRequest{ColorHex: "#1a1a1a"})
	if panel.State() != ar.Closed {
		t.Errorf("state = %v, want %v", panel.State(), ar.Closed)
	}
}

package app

import (
	"testing"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/veandco/go-sdl2/sdl"
)

type fakeViewer struct {
	selected appearance.Option
	arCalls  int
	reloads  int
}

func (v *fakeViewer) Select(id string) error {
	opt, err := appearance.Lookup(id)
	if err != nil {
		return err
	}
	v.SelectOption(opt)
	return nil
}

func (v *fakeViewer) SelectOption(opt appearance.Option) { v.selected = opt }
func (v *fakeViewer) Selected() appearance.Option { return v.selected }
func (v *fakeViewer) RequestAR() { v.arCalls++ }
func (v *fakeViewer) Reload() { v.reloads++ }

type fakePanel struct {
	state       ar.State
	qrURL       string
	qrErr       error
	reactivated int
	closed      int
}

func (p *fakePanel) State() ar.State { return p.state }

func (p *fakePanel) ShowQR() (string, error) {
	if p.qrErr != nil {
		return "", p.qrErr
	}
	p.state = ar.QRFallback
	return p.qrURL, nil
}

func (p *fakePanel) Reactivate() error {
	p.reactivated++
	return nil
}

func (p *fakePanel) Close() {
	p.closed++
	p.state = ar.Closed
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		key  sdl.Scancode
		want Action
		ok   bool
	}{
		{sdl.SCANCODE_1, ActionSelect1, true},
		{sdl.SCANCODE_KP_3, ActionSelect3, true},
		{sdl.SCANCODE_RIGHT, ActionNext, true},
		{sdl.SCANCODE_V, ActionAR, true},
		{sdl.SCANCODE_Q, ActionShowQR, true},
		{sdl.SCANCODE_R, ActionRestartAR, true},
		{sdl.SCANCODE_F5, ActionReload, true},
		{sdl.SCANCODE_ESCAPE, ActionBack, true},
		{sdl.SCANCODE_F12, ActionScreenshot, true},
		{sdl.SCANCODE_Z, ActionNone, false},
	}
	for _, tt := range tests {
		got, ok := ActionFor(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ActionFor(%d) = %v, %v, want %v, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestControlsSelection(t *testing.T) {
	opts := appearance.Options()
	v := &fakeViewer{selected: opts[0]}
	c := NewControls(v, &fakePanel{}, nil)

	c.Handle(ActionSelect2)
	if v.selected.ID != opts[1].ID {
		t.Errorf("after select 2: %s, want %s", v.selected.ID, opts[1].ID)
	}
	c.Handle(ActionNext)
	if v.selected.ID != opts[2].ID {
		t.Errorf("after next: %s, want %s", v.selected.ID, opts[2].ID)
	}
	c.Handle(ActionNext)
	if v.selected.ID != opts[0].ID {
		t.Errorf("next did not wrap: %s, want %s", v.selected.ID, opts[0].ID)
	}
	c.Handle(ActionPrev)
	if v.selected.ID != opts[2].ID {
		t.Errorf("prev did not wrap: %s, want %s", v.selected.ID, opts[2].ID)
	}
}

func TestControlsAR(t *testing.T) {
	v := &fakeViewer{selected: appearance.Default()}
	p := &fakePanel{state: ar.Desktop, qrURL: "https://qr.example/?data=x"}
	c := NewControls(v, p, nil)

	var shown string
	c.OnQR = func(url string) { shown = url }

	c.Handle(ActionAR)
	if v.arCalls != 1 {
		t.Errorf("ar calls = %d, want 1", v.arCalls)
	}
	c.Handle(ActionShowQR)
	if shown != p.qrURL {
		t.Errorf("shown qr = %q, want %q", shown, p.qrURL)
	}
	c.Handle(ActionRestartAR)
	if p.reactivated != 1 {
		t.Errorf("reactivated = %d, want 1", p.reactivated)
	}
	c.Handle(ActionReload)
	if v.reloads != 1 {
		t.Errorf("reloads = %d, want 1", v.reloads)
	}

	shots := 0
	c.OnScreenshot = func() { shots++ }
	c.Handle(ActionScreenshot)
	if shots != 1 {
		t.Errorf("screenshots = %d, want 1", shots)
	}
}

func TestControlsQRUnavailable(t *testing.T) {
	p := &fakePanel{state: ar.NativeARReady, qrErr: ar.ErrQRUnavailable}
	c := NewControls(&fakeViewer{}, p, nil)
	called := false
	c.OnQR = func(string) { called = true }

	if c.Handle(ActionShowQR) {
		t.Error("ShowQR asked to quit")
	}
	if called {
		t.Error("OnQR called although QR is unavailable")
	}
}

func TestControlsBackClosesPanelFirst(t *testing.T) {
	p := &fakePanel{state: ar.QRFallback}
	c := NewControls(&fakeViewer{}, p, nil)

	if c.Handle(ActionBack) {
		t.Error("first Esc quit with the panel open")
	}
	if p.closed != 1 {
		t.Errorf("closed = %d, want 1", p.closed)
	}
	if !c.Handle(ActionBack) {
		t.Error("second Esc did not quit")
	}
}

package app

import (
	"errors"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
)

// Action is a user command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionSelect1
	ActionSelect2
	ActionSelect3
	ActionNext
	ActionPrev
	ActionAR
	ActionShowQR
	ActionRestartAR
	ActionReload
	ActionBack
	ActionScreenshot
)

var bindings = map[sdl.Scancode]Action{
	sdl.SCANCODE_1:      ActionSelect1,
	sdl.SCANCODE_2:      ActionSelect2,
	sdl.SCANCODE_3:      ActionSelect3,
	sdl.SCANCODE_KP_1:   ActionSelect1,
	sdl.SCANCODE_KP_2:   ActionSelect2,
	sdl.SCANCODE_KP_3:   ActionSelect3,
	sdl.SCANCODE_RIGHT:  ActionNext,
	sdl.SCANCODE_LEFT:   ActionPrev,
	sdl.SCANCODE_V:      ActionAR,
	sdl.SCANCODE_Q:      ActionShowQR,
	sdl.SCANCODE_R:      ActionRestartAR,
	sdl.SCANCODE_F5:     ActionReload,
	sdl.SCANCODE_ESCAPE: ActionBack,
	sdl.SCANCODE_F12:    ActionScreenshot,
}

// ActionFor returns the action bound to key.
func ActionFor(key sdl.Scancode) (Action, bool) {
	a, ok := bindings[key]
	return a, ok
}

// viewer is the part of configurator.Viewer the controls drive.
type viewer interface {
	Select(id string) error
	SelectOption(opt appearance.Option)
	Selected() appearance.Option
	RequestAR()
	Reload()
}

// panel is the part of ar.Controller the controls drive.
type panel interface {
	State() ar.State
	ShowQR() (string, error)
	Reactivate() error
	Close()
}

// Controls maps actions onto the viewer and the AR panel.
type Controls struct {
	viewer viewer
	panel  panel
	log    *zap.Logger

	// OnQR receives the QR image URL whenever the QR hand-off is shown.
	OnQR func(url string)
	// OnScreenshot saves the current frame.
	OnScreenshot func()
}

// NewControls creates the action dispatcher.
func NewControls(v viewer, p panel, log *zap.Logger) *Controls {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controls{viewer: v, panel: p, log: log}
}

// Handle runs a. It returns true when the viewer should quit.
func (c *Controls) Handle(a Action) bool {
	switch a {
	case ActionSelect1, ActionSelect2, ActionSelect3:
		opts := appearance.Options()
		i := int(a - ActionSelect1)
		if i < len(opts) {
			c.selectID(opts[i].ID)
		}
	case ActionNext:
		c.viewer.SelectOption(appearance.Next(c.viewer.Selected().ID))
	case ActionPrev:
		c.viewer.SelectOption(appearance.Prev(c.viewer.Selected().ID))
	case ActionAR:
		c.viewer.RequestAR()
	case ActionShowQR:
		url, err := c.panel.ShowQR()
		if err != nil {
			c.log.Info("qr not available", zap.Stringer("state", c.panel.State()), zap.Error(err))
			return false
		}
		c.log.Info("scan to continue on a phone", zap.String("qr", url))
		if c.OnQR != nil {
			c.OnQR(url)
		}
	case ActionRestartAR:
		if err := c.panel.Reactivate(); err != nil {
			c.log.Info("cannot restart ar", zap.Stringer("state", c.panel.State()), zap.Error(err))
		}
	case ActionReload:
		c.viewer.Reload()
	case ActionScreenshot:
		if c.OnScreenshot != nil {
			c.OnScreenshot()
		}
	case ActionBack:
		if c.panel.State() != ar.Closed {
			c.panel.Close()
			return false
		}
		return true
	}
	return false
}

func (c *Controls) selectID(id string) {
	if err := c.viewer.Select(id); err != nil {
		if errors.Is(err, appearance.ErrUnknownOption) {
			c.log.Warn("unknown option", zap.String("id", id))
			return
		}
		c.log.Error("select failed", zap.Error(err))
	}
}

package app

import (
	"errors"

	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/assets"
	"github.com/Faultbox/beanbag/internal/handoff"
	"go.uber.org/zap"
)

// registrar publishes a session so a phone can pick it up.
type registrar interface {
	Register(req ar.SessionRequest) (*handoff.Session, string)
}

// ARBridge is the viewer's AR callback. It registers the request with the
// hand-off server and opens the AR panel for this machine.
type ARBridge struct {
	panel  *ar.Controller
	server registrar
	device ar.DeviceProfile
	log    *zap.Logger
}

// NewARBridge creates the bridge. server may be nil when the hand-off server
// is disabled.
func NewARBridge(panel *ar.Controller, server registrar, device ar.DeviceProfile, log *zap.Logger) *ARBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &ARBridge{panel: panel, server: server, device: device, log: log}
}

// Request opens the panel for req.
func (b *ARBridge) Request(req ar.SessionRequest) {
	pageURL := ""
	switch {
	case b.server != nil:
		_, pageURL = b.server.Register(req)
	case assets.IsRemote(req.ModelURL):
		pageURL = req.ModelURL
	}

	err := b.panel.Open(req, b.device, pageURL)
	switch {
	case err == nil:
	case errors.Is(err, ar.ErrNoModel):
		b.log.Warn("ar requested before a model is configured")
	default:
		b.log.Warn("ar panel degraded", zap.Stringer("state", b.panel.State()), zap.Error(err))
	}
}

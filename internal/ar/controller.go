package ar

import (
	"errors"
	"fmt"

	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/loop"
	"go.uber.org/zap"
)

var (
	// ErrNoModel is returned by Open when the request has no model URL.
	ErrNoModel = errors.New("ar: no model url")
	// ErrNotOpen is returned when an action needs an open viewer.
	ErrNotOpen = errors.New("ar: viewer is not open")
	// ErrQRUnavailable is returned by ShowQR outside the desktop route.
	ErrQRUnavailable = errors.New("ar: qr hand-off is only offered on desktop")
	// ErrNoNativeView is returned when there is no native AR viewer to activate.
	ErrNoNativeView = errors.New("ar: no native viewer")
)

// SessionRequest is everything the viewer hands over when AR is requested.
type SessionRequest struct {
	ModelURL  string
	ColorHex  string
	ColorName string
}

// State is the hand-off state.
type State int

const (
	Closed State = iota
	DetectingDevice
	NativeARReady
	NativeARActivated
	Unsupported
	Desktop
	QRFallback
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case DetectingDevice:
		return "detecting"
	case NativeARReady:
		return "ready"
	case NativeARActivated:
		return "activated"
	case Unsupported:
		return "unsupported"
	case Desktop:
		return "desktop"
	case QRFallback:
		return "qr"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller runs one AR panel. It is driven by a loop.Scheduler and must only
// be used from the goroutine that ticks it.
type Controller struct {
	cfg     config.ARConfig
	sched   loop.Scheduler
	newView ViewFactory
	log     *zap.Logger

	state   State
	device  DeviceProfile
	request SessionRequest
	pageURL string
	view    NativeView
	qrURL   string

	autoTimer loop.Handle
	// autoScheduled latches the automatic activation to once per open.
	autoScheduled bool

	// OnChange is called after every state change.
	OnChange func(State)
}

// NewController creates a closed controller. newView may be nil when the host
// has no native viewer.
func NewController(cfg config.ARConfig, sched loop.Scheduler, newView ViewFactory, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{cfg: cfg, sched: sched, newView: newView, log: log}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Device returns the profile the panel was opened with.
func (c *Controller) Device() DeviceProfile { return c.device }

// Request returns the open session request.
func (c *Controller) Request() SessionRequest { return c.request }

// QRURL returns the QR image URL shown in QRFallback.
func (c *Controller) QRURL() string { return c.qrURL }

// Open shows the panel for req on device. pageURL is the address a second
// device can open to continue the session.
func (c *Controller) Open(req SessionRequest, device DeviceProfile, pageURL string) error {
	if req.ModelURL == "" {
		return ErrNoModel
	}
	if c.state != Closed {
		c.Close()
	}

	c.request = req
	c.pageURL = pageURL
	c.device = device
	c.setState(DetectingDevice)

	route := RouteFor(device)
	c.log.Info("ar requested",
		zap.String("model", req.ModelURL),
		zap.String("color", req.ColorHex),
		zap.Stringer("device", device),
		zap.Stringer("route", route))

	switch route {
	case RouteNative:
		if c.newView == nil {
			c.setState(Unsupported)
			return ErrNoNativeView
		}
		view, err := c.newView(req, device)
		if err != nil {
			c.setState(Unsupported)
			return fmt.Errorf("native view: %w", err)
		}
		c.view = view
		c.setState(NativeARReady)
		c.scheduleAutoActivate()
	case RouteUnsupported:
		c.setState(Unsupported)
	case RouteDesktop:
		c.setState(Desktop)
	}
	return nil
}

// Refresh re-renders the open panel. The automatic activation is never
// scheduled twice for one open.
func (c *Controller) Refresh() {
	if c.state == NativeARReady {
		c.scheduleAutoActivate()
	}
}

func (c *Controller) scheduleAutoActivate() {
	if c.autoScheduled {
		return
	}
	c.autoScheduled = true
	c.autoTimer = c.sched.SetTimeout(c.cfg.AutoActivateDelay, func() {
		c.autoTimer = 0
		if c.state == NativeARReady {
			c.activate("auto")
		}
	})
}

// Reactivate is the manual "restart AR" action. It ignores the once-per-open
// latch and may be repeated without limit.
func (c *Controller) Reactivate() error {
	switch c.state {
	case NativeARReady, NativeARActivated:
		c.activate("manual")
		return nil
	case Closed:
		return ErrNotOpen
	default:
		return ErrNoNativeView
	}
}

// activate tries to launch AR. Failures are logged and leave the state as is.
func (c *Controller) activate(trigger string) {
	if c.view == nil || !c.view.CanActivate() {
		c.log.Debug("ar activation not available", zap.String("trigger", trigger))
		return
	}
	if err := c.view.Activate(); err != nil {
		c.log.Warn("ar activation failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	c.log.Info("ar activated", zap.String("trigger", trigger))
	c.setState(NativeARActivated)
}

// ShowQR switches a desktop panel to the QR hand-off and returns the QR image
// URL, which encodes the page URL given to Open.
func (c *Controller) ShowQR() (string, error) {
	switch c.state {
	case Closed:
		return "", ErrNotOpen
	case Desktop, QRFallback:
	default:
		return "", ErrQRUnavailable
	}
	c.qrURL = QRCodeURL(c.cfg.QRServiceURL, c.cfg.QRSize, c.pageURL)
	c.setState(QRFallback)
	return c.qrURL, nil
}

// Close hides the panel, cancels a pending automatic activation and resets the
// once-per-open latch.
func (c *Controller) Close() {
	c.sched.Cancel(c.autoTimer)
	c.autoTimer = 0
	c.autoScheduled = false
	c.view = nil
	c.request = SessionRequest{}
	c.pageURL = ""
	c.qrURL = ""
	c.device = DeviceProfile{}
	if c.state != Closed {
		c.setState(Closed)
	}
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("ar state", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
	if c.OnChange != nil {
		c.OnChange(s)
	}
}

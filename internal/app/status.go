package app

import (
	"fmt"
	"strings"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/configurator"
)

// Status is everything the window title reports.
type Status struct {
	Base     string
	Selected appearance.Option
	Load     configurator.LoadState
	AR       ar.State
	FPS      int // 0 hides the counter
}

// Title renders s as a window title.
func (s Status) Title() string {
	parts := []string{s.Base, s.Selected.Name}

	switch {
	case s.Load.Failed:
		parts = append(parts, s.Load.Error+" (F5)")
	case s.Load.Error != "":
		parts = append(parts, s.Load.Error)
	case !s.Load.Loaded:
		parts = append(parts, fmt.Sprintf("Loading %d%%", s.Load.Progress))
	}

	switch s.AR {
	case ar.Closed:
	case ar.NativeARReady:
		parts = append(parts, "AR ready (R to launch)")
	case ar.NativeARActivated:
		parts = append(parts, "AR launched")
	case ar.Unsupported:
		parts = append(parts, "AR not supported on this device")
	case ar.Desktop:
		parts = append(parts, "AR needs a phone (Q for QR)")
	case ar.QRFallback:
		parts = append(parts, "Scan the QR code with your phone")
	default:
		parts = append(parts, "AR "+s.AR.String())
	}

	if s.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%d fps", s.FPS))
	}
	return strings.Join(parts, " | ")
}

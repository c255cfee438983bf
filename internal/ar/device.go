// Package ar routes a model to an augmented-reality viewer. Phones get the
// platform's native viewer; desktops get a QR code that continues the session
// on a phone.
package ar

import (
	"regexp"
)

// Platform is the operating-system family relevant to AR viewers.
type Platform int

const (
	PlatformOther Platform = iota
	PlatformIOS
	PlatformAndroid
)

func (p Platform) String() string {
	switch p {
	case PlatformIOS:
		return "ios"
	case PlatformAndroid:
		return "android"
	default:
		return "other"
	}
}

// DeviceProfile is the result of classifying a device once.
type DeviceProfile struct {
	Mobile   bool
	Platform Platform
}

func (d DeviceProfile) String() string {
	if d.Mobile {
		return d.Platform.String() + "/mobile"
	}
	return d.Platform.String() + "/desktop"
}

var (
	iosAgent     = regexp.MustCompile(`iPad|iPhone|iPod`)
	androidAgent = regexp.MustCompile(`(?i)android`)
	mobileAgent  = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)
)

// Classify derives a device profile from a User-Agent header.
func Classify(userAgent string) DeviceProfile {
	d := DeviceProfile{Mobile: mobileAgent.MatchString(userAgent)}
	switch {
	case iosAgent.MatchString(userAgent):
		d.Platform = PlatformIOS
	case androidAgent.MatchString(userAgent):
		d.Platform = PlatformAndroid
	}
	return d
}

// HostProfile classifies the machine the viewer itself runs on, given
// runtime.GOOS.
func HostProfile(goos string) DeviceProfile {
	switch goos {
	case "ios":
		return DeviceProfile{Mobile: true, Platform: PlatformIOS}
	case "android":
		return DeviceProfile{Mobile: true, Platform: PlatformAndroid}
	default:
		return DeviceProfile{}
	}
}

// Route is the hand-off path chosen for a device.
type Route int

const (
	RouteNative      Route = iota // phone with a native AR viewer
	RouteUnsupported              // phone without one
	RouteDesktop                  // not a phone, QR hand-off available
)

func (r Route) String() string {
	switch r {
	case RouteNative:
		return "native"
	case RouteUnsupported:
		return "unsupported"
	default:
		return "desktop"
	}
}

// RouteFor picks the hand-off path for a device.
func RouteFor(d DeviceProfile) Route {
	switch {
	case !d.Mobile:
		return RouteDesktop
	case d.Platform == PlatformIOS, d.Platform == PlatformAndroid:
		return RouteNative
	default:
		return RouteUnsupported
	}
}

package ar

import (
	"fmt"
	"net/url"
	"os/exec"
)

// NativeView is the platform AR viewer for one model.
type NativeView interface {
	// CanActivate reports whether Activate can launch a session right now.
	CanActivate() bool
	// Activate launches the AR session.
	Activate() error
}

// ViewFactory creates the native view for a request on a given device.
type ViewFactory func(req SessionRequest, device DeviceProfile) (NativeView, error)

// QuickLookURL returns the AR Quick Look link for a model on iOS.
func QuickLookURL(modelURL string) string {
	return modelURL + "#allowsContentScaling=0"
}

// SceneViewerURL returns the Scene Viewer intent for a model on Android.
// Browsers without ARCore fall back to the model URL itself.
func SceneViewerURL(modelURL, title string) string {
	q := url.Values{}
	q.Set("file", modelURL)
	q.Set("mode", "ar_preferred")
	if title != "" {
		q.Set("title", title)
	}
	return "intent://arvr.google.com/scene-viewer/1.0?" + q.Encode() +
		"#Intent;scheme=https;package=com.google.ar.core;action=android.intent.action.VIEW;" +
		"S.browser_fallback_url=" + url.QueryEscape(modelURL) + ";end;"
}

// LaunchURL returns the native viewer link for a request, or an empty string
// if the platform has none.
func LaunchURL(req SessionRequest, p Platform) string {
	switch p {
	case PlatformIOS:
		return QuickLookURL(req.ModelURL)
	case PlatformAndroid:
		return SceneViewerURL(req.ModelURL, req.ColorName+" bean bag")
	default:
		return ""
	}
}

// Opener hands a URL to the operating system.
type Opener func(target string) error

// LaunchView activates AR by opening the platform's viewer link.
type LaunchView struct {
	URL  string
	open Opener
}

// NewLaunchView creates a view that opens target with open.
func NewLaunchView(target string, open Opener) *LaunchView {
	return &LaunchView{URL: target, open: open}
}

// CanActivate implements NativeView.
func (v *LaunchView) CanActivate() bool {
	return v.URL != "" && v.open != nil
}

// Activate implements NativeView.
func (v *LaunchView) Activate() error {
	if !v.CanActivate() {
		return ErrNoNativeView
	}
	if err := v.open(v.URL); err != nil {
		return fmt.Errorf("open %s: %w", v.URL, err)
	}
	return nil
}

// LaunchViews returns a ViewFactory that builds LaunchViews using open.
func LaunchViews(open Opener) ViewFactory {
	return func(req SessionRequest, device DeviceProfile) (NativeView, error) {
		target := LaunchURL(req, device.Platform)
		if target == "" {
			return nil, fmt.Errorf("%w for %s", ErrNoNativeView, device)
		}
		return NewLaunchView(target, open), nil
	}
}

// SystemOpener returns the Opener for an operating system, given
// runtime.GOOS.
func SystemOpener(goos string) Opener {
	return func(target string) error {
		var cmd *exec.Cmd
		switch goos {
		case "darwin", "ios":
			cmd = exec.Command("open", target)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
		case "android":
			cmd = exec.Command("am", "start", "-a", "android.intent.action.VIEW", "-d", target)
		default:
			cmd = exec.Command("xdg-open", target)
		}
		if err := cmd.Start(); err != nil {
			return err
		}
		// The viewer keeps running on its own.
		go cmd.Wait() //nolint:errcheck
		return nil
	}
}

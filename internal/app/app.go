// Package app runs the desktop viewer: window, input, rendering and the
// scheduler every viewer component is driven by.
package app

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/assets"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/configurator"
	"github.com/Faultbox/beanbag/internal/engine/camera"
	"github.com/Faultbox/beanbag/internal/engine/capture"
	"github.com/Faultbox/beanbag/internal/engine/input"
	"github.com/Faultbox/beanbag/internal/engine/loop"
	"github.com/Faultbox/beanbag/internal/engine/renderer"
	"github.com/Faultbox/beanbag/internal/engine/scene"
	"github.com/Faultbox/beanbag/internal/engine/window"
	"github.com/Faultbox/beanbag/internal/handoff"
	"github.com/Faultbox/beanbag/internal/settings"
)

// App is the running viewer.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	capture  *capture.Capture

	loop     *loop.Loop
	viewer   *configurator.Viewer
	panel    *ar.Controller
	controls *Controls
	store    settings.Store

	status      Status
	statusDirty bool
	shotPending bool
}

// New creates the window and wires the viewer. server may be nil when the
// hand-off server is disabled.
func New(cfg *config.Config, server *handoff.Server, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("initializing viewer",
		zap.String("title", cfg.Viewer.Title),
		zap.Int("width", cfg.Viewer.Width),
		zap.Int("height", cfg.Viewer.Height),
		zap.String("model", cfg.Model.URL))

	a := &App{
		cfg:     cfg,
		log:     log,
		input:   input.New(),
		camera:  camera.NewOrbitCamera(),
		capture: capture.New(cfg.Viewer.ScreenshotDir, "beanbag"),
		loop:    loop.New(time.Now()),
		status:  Status{Base: cfg.Viewer.Title},
	}
	a.camera.AutoRotate = cfg.Viewer.AutoRotate

	store, err := settings.OpenFile(cfg.SelectionStorePath())
	if err != nil {
		log.Warn("selection store unavailable, using memory", zap.Error(err))
		a.store = settings.NewMemoryStore()
	} else {
		a.store = store
	}

	// Create window (this also creates OpenGL context)
	a.window, err = window.New(cfg.Viewer, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	w, h := a.window.DrawableSize()
	a.renderer, err = renderer.New(w, h, log.Named("renderer"))
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	device := ar.HostProfile(runtime.GOOS)
	a.panel = ar.NewController(cfg.AR, a.loop, ar.LaunchViews(ar.SystemOpener(runtime.GOOS)), log.Named("ar"))
	a.panel.OnChange = func(s ar.State) {
		a.status.AR = s
		a.statusDirty = true
	}

	var reg registrar
	if server != nil {
		reg = server
	}
	bridge := NewARBridge(a.panel, reg, device, log.Named("handoff"))

	fetcher := assets.NewGLTFFetcher(&http.Client{Timeout: 60 * time.Second}, log.Named("assets"))
	key := cfg.Selection.Key
	a.viewer = configurator.NewViewer(cfg, a.loop, fetcher, configurator.Settings{
		Initial: settings.LoadSelection(a.store, key),
		OnChange: func(opt appearance.Option) {
			a.status.Selected = opt
			a.statusDirty = true
			if err := settings.SaveSelection(a.store, key, opt); err != nil {
				log.Warn("failed to save selection", zap.Error(err))
			}
		},
	}, bridge.Request, log.Named("viewer"))
	a.viewer.OnScene = a.showScene
	a.viewer.OnLoadState = func(s configurator.LoadState) {
		a.status.Load = s
		a.statusDirty = true
	}
	a.status.Selected = a.viewer.Selected()
	a.statusDirty = true

	a.controls = NewControls(a.viewer, a.panel, log.Named("controls"))
	a.controls.OnQR = func(url string) {
		if err := ar.SystemOpener(runtime.GOOS)(url); err != nil {
			log.Warn("failed to open qr code", zap.Error(err))
		}
	}
	a.controls.OnScreenshot = func() { a.shotPending = true }

	log.Info("viewer initialized", zap.Stringer("device", device), zap.Stringer("cover", a.status.Selected))
	return a, nil
}

func (a *App) showScene(sc *scene.Scene) {
	a.renderer.SetScene(sc)
	a.camera.FitToBounds(sc.Bounds())
	a.log.Info("model ready", zap.String("scene", sc.Name), zap.Int("meshes", len(sc.Meshes())))
}

func (a *App) screenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.capture.SavePixels(pixels, w, h, a.viewer.Selected().ID)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Run runs the frame loop until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.viewer.Mount(ctx); err != nil {
		return fmt.Errorf("mount viewer: %w", err)
	}
	defer a.viewer.Unmount()
	defer a.panel.Close()

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	a.log.Info("starting frame loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if a.input.Update() {
			return nil
		}
		if a.handleEvents() {
			return nil
		}

		// 2. Run timers, frame callbacks and posted results
		a.loop.Tick(now)
		a.camera.Update(float32(dt))

		// 3. Render and present
		a.renderer.Render(a.camera)
		if a.shotPending {
			a.shotPending = false
			a.screenshot()
		}
		a.window.SwapBuffers()

		frameCount++
		if since := time.Since(fpsTimer); since >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			if a.cfg.Viewer.ShowFPS {
				a.status.FPS = frameCount
				a.statusDirty = true
			}
			frameCount = 0
			fpsTimer = time.Now()
		}

		if a.statusDirty {
			a.window.SetTitle(a.status.Title())
			a.statusDirty = false
		}
	}
}

// handleEvents applies this frame's input. It returns true to quit.
func (a *App) handleEvents() bool {
	for _, ev := range a.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			a.renderer.Resize(a.window.DrawableSize())
		case input.EventKeyDown:
			if ev.Repeat && ev.Key != sdl.SCANCODE_LEFT && ev.Key != sdl.SCANCODE_RIGHT {
				continue
			}
			if action, ok := ActionFor(ev.Key); ok && a.controls.Handle(action) {
				return true
			}
		case input.EventMouseDown:
			if ev.Button == sdl.BUTTON_LEFT {
				a.camera.BeginDrag()
			}
		case input.EventMouseUp:
			if ev.Button == sdl.BUTTON_LEFT {
				a.camera.EndDrag()
			}
		case input.EventMouseMove:
			if a.camera.Dragging() {
				a.camera.HandleDrag(float32(ev.DeltaX), float32(ev.DeltaY))
			}
		case input.EventMouseWheel:
			a.camera.HandleZoom(ev.Wheel)
		}
	}
	return false
}

// Close releases the renderer and window.
func (a *App) Close() {
	a.log.Info("closing viewer")
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

package configurator

import (
	"context"
	"fmt"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/assets"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/loop"
	"github.com/Faultbox/beanbag/internal/engine/scene"
	"go.uber.org/zap"
)

// Settings carries the persisted selection in and out of the viewer. The
// viewer never touches storage itself.
type Settings struct {
	Initial  appearance.Option
	OnChange func(appearance.Option)
}

// invalidator is implemented by fetchers that cache remote downloads.
type invalidator interface {
	Invalidate()
}

// Viewer is the chair viewer: it loads the model, owns its materials and
// forwards AR requests.
type Viewer struct {
	cfg      *config.Config
	sched    loop.Scheduler
	log      *zap.Logger
	settings Settings
	onAR     func(ar.SessionRequest)
	fetcher  assets.Fetcher

	loader   *LoadController
	animator *Animator
	watcher  *assets.Watcher

	selected appearance.Option
	scene    *scene.Scene
	mounted  bool

	// OnScene is called with each newly loaded and initialized scene.
	OnScene func(*scene.Scene)
	// OnLoadState mirrors LoadController.OnChange.
	OnLoadState func(LoadState)
}

// NewViewer creates a viewer. onAR is the single callback invoked when the
// user asks for AR.
func NewViewer(cfg *config.Config, sched loop.Scheduler, fetcher assets.Fetcher, settings Settings, onAR func(ar.SessionRequest), log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	selected := settings.Initial
	if selected.ID == "" {
		selected = appearance.Default()
	}
	v := &Viewer{
		cfg:      cfg,
		sched:    sched,
		log:      log,
		settings: settings,
		onAR:     onAR,
		fetcher:  fetcher,
		loader:   NewLoadController(cfg.Model, sched, fetcher, log.Named("loader")),
		animator: NewAnimator(cfg.Animation, cfg.Model.TargetSize, sched, log.Named("animator")),
		selected: selected,
	}
	v.loader.OnLoaded = v.handleLoaded
	v.loader.OnChange = func(s LoadState) {
		if v.OnLoadState != nil {
			v.OnLoadState(s)
		}
	}
	return v
}

// Mount starts loading the model and, for local files with watching enabled,
// reloads it whenever the file changes.
func (v *Viewer) Mount(ctx context.Context) error {
	if v.mounted {
		return nil
	}

	if v.cfg.Model.Watch && !assets.IsRemote(v.cfg.Model.URL) {
		w, err := assets.NewWatcher(v.cfg.Model.URL, v.cfg.Model.WatchDebounce, func() {
			v.sched.Post(v.Reload)
		}, v.log.Named("watcher"))
		if err != nil {
			return fmt.Errorf("watching model: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			w.Stop()
			return fmt.Errorf("watching model: %w", err)
		}
		v.watcher = w
	}

	v.mounted = true
	v.loader.StartLoad()
	return nil
}

// Unmount stops the watcher, loads and animations. Nothing scheduled by the
// viewer runs afterwards.
func (v *Viewer) Unmount() {
	if !v.mounted {
		return
	}
	v.mounted = false
	if v.watcher != nil {
		v.watcher.Stop()
		v.watcher = nil
	}
	v.loader.Close()
	v.animator.Close()
}

func (v *Viewer) handleLoaded(sc *scene.Scene) {
	if !v.mounted {
		return
	}
	v.scene = sc
	v.animator.InitializeSurfaces(sc, v.selected)
	if v.OnScene != nil {
		v.OnScene(sc)
	}
}

// Select switches the cover to the option with the given id.
func (v *Viewer) Select(id string) error {
	opt, err := appearance.Lookup(id)
	if err != nil {
		return err
	}
	v.SelectOption(opt)
	return nil
}

// SelectOption switches the cover to opt, animating if the model is shown.
func (v *Viewer) SelectOption(opt appearance.Option) {
	if opt.ID == v.selected.ID {
		return
	}
	v.selected = opt
	v.log.Info("cover selected", zap.String("option", opt.ID), zap.String("color", opt.Hex()))
	if v.settings.OnChange != nil {
		v.settings.OnChange(opt)
	}
	v.animator.TransitionTo(opt)
}

// RequestAR passes the model and the selected cover to the AR callback.
func (v *Viewer) RequestAR() {
	if v.onAR == nil {
		return
	}
	v.onAR(ar.SessionRequest{
		ModelURL:  v.cfg.Model.URL,
		ColorHex:  v.selected.Hex(),
		ColorName: v.selected.Name,
	})
}

// Reload is the manual reload action. Remote models are downloaded again
// rather than served from the fetcher's cache.
func (v *Viewer) Reload() {
	if !v.mounted {
		return
	}
	v.log.Info("reloading model", zap.String("url", v.cfg.Model.URL))
	if inv, ok := v.fetcher.(invalidator); ok && assets.IsRemote(v.cfg.Model.URL) {
		inv.Invalidate()
	}
	v.loader.Reload()
}

// Selected returns the selected option.
func (v *Viewer) Selected() appearance.Option { return v.selected }

// LoadState returns the loading state.
func (v *Viewer) LoadState() LoadState { return v.loader.State() }

// Scene returns the displayed scene, nil until the first load completes.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Surfaces returns the displayed material values.
func (v *Viewer) Surfaces() []Surface { return v.animator.Snapshot() }

// Animating reports whether a cover transition is running.
func (v *Viewer) Animating() bool { return v.animator.Active() }

package configurator

import (
	"math"
	"time"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/loop"
	"github.com/Faultbox/beanbag/internal/engine/scene"
	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// Surface is a read-only copy of one mesh's displayed material.
type Surface struct {
	Mesh      string
	Color     colorful.Color
	Roughness float64
	Metalness float64
}

// Hex returns the displayed color as "#rrggbb".
func (s Surface) Hex() string {
	return s.Color.Hex()
}

// surface is the animator's handle on a mesh it owns the material of.
type surface struct {
	mesh *scene.Mesh
	from finish
	to   finish
}

func (s *surface) current() finish {
	m := s.mesh.Material
	return finish{Color: m.Color, Roughness: m.Roughness, Metalness: m.Metalness}
}

func (s *surface) apply(f finish) {
	m := s.mesh.Material
	m.Color = f.Color
	m.Roughness = f.Roughness
	m.Metalness = f.Metalness
	m.MarkDirty()
}

func finishOf(opt appearance.Option) finish {
	return finish{Color: opt.Color, Roughness: opt.Roughness, Metalness: opt.Metalness}
}

// Animator is the only writer of the loaded meshes' materials. It runs at most
// one color transition at a time.
type Animator struct {
	sched         loop.Scheduler
	duration      time.Duration
	frameInterval time.Duration
	targetSize    float32
	log           *zap.Logger

	surfaces []*surface
	option   appearance.Option

	// active is the pending frame of the running transition, zero when idle.
	active     loop.Handle
	startedAt  time.Time
	lastUpdate time.Time

	// normalized is the scene that has already been centered and scaled.
	normalized *scene.Scene
}

// NewAnimator creates an animator. targetSize is the length of the model's
// longest side after normalization.
func NewAnimator(cfg config.AnimationConfig, targetSize float32, sched loop.Scheduler, log *zap.Logger) *Animator {
	if log == nil {
		log = zap.NewNop()
	}
	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = 30
	}
	return &Animator{
		sched:         sched,
		duration:      cfg.Duration,
		frameInterval: time.Second / time.Duration(fps),
		targetSize:    targetSize,
		log:           log,
		option:        appearance.Default(),
	}
}

// InitializeSurfaces takes ownership of every mesh in sc. Each mesh gets a new
// material built from opt and has shadows disabled. The first call for a scene
// also centers it and scales its longest side to the target size.
func (a *Animator) InitializeSurfaces(sc *scene.Scene, opt appearance.Option) {
	a.cancel()
	a.option = opt
	a.surfaces = a.surfaces[:0]

	f := finishOf(opt)
	for _, n := range sc.Meshes() {
		n.Mesh.Material = &scene.Material{}
		n.Mesh.CastShadow = false
		n.Mesh.ReceiveShadow = false
		s := &surface{mesh: n.Mesh, from: f, to: f}
		s.apply(f)
		a.surfaces = append(a.surfaces, s)
	}

	if a.normalized != sc {
		a.normalize(sc)
		a.normalized = sc
	}

	a.log.Debug("surfaces initialized",
		zap.String("scene", sc.Name),
		zap.Int("meshes", len(a.surfaces)),
		zap.String("option", opt.ID))
}

// normalize moves the scene's center to the origin and scales it uniformly.
func (a *Animator) normalize(sc *scene.Scene) {
	box := sc.Bounds()
	if box.Empty() {
		return
	}
	size := box.MaxDimension()
	if size <= 0 || math.IsInf(float64(size), 0) {
		return
	}
	s := a.targetSize / size
	root := sc.Root
	root.Position = root.Position.Sub(box.Center()).Mul(s)
	root.Scale = root.Scale.Mul(s)
}

// TransitionTo animates every surface from its currently displayed values to
// opt. A running transition is cancelled first, so a change mid-transition
// continues from wherever the colors are now.
func (a *Animator) TransitionTo(opt appearance.Option) {
	a.option = opt
	if len(a.surfaces) == 0 {
		return
	}
	a.cancel()

	to := finishOf(opt)
	for _, s := range a.surfaces {
		s.from = s.current()
		s.to = to
	}
	a.startedAt = a.sched.Now()
	a.lastUpdate = a.startedAt
	a.active = a.sched.RequestFrame(a.step)

	a.log.Debug("transition started", zap.String("option", opt.ID))
}

// step is the frame callback of a transition.
func (a *Animator) step(now time.Time) {
	a.active = 0

	progress := 1.0
	if a.duration > 0 {
		progress = min(float64(now.Sub(a.startedAt))/float64(a.duration), 1)
	}

	// Throttle to the target frame rate regardless of the display refresh.
	// The final frame is never held back.
	since := now.Sub(a.lastUpdate)
	if progress < 1 && since < a.frameInterval {
		a.active = a.sched.RequestFrame(a.step)
		return
	}
	// Carry the overshoot so display frames a hair shorter than the
	// interval do not cut updates to every third frame.
	if a.frameInterval > 0 {
		since %= a.frameInterval
	} else {
		since = 0
	}
	a.lastUpdate = now.Add(-since)

	if progress >= 1 {
		for _, s := range a.surfaces {
			s.apply(s.to)
		}
		a.log.Debug("transition finished", zap.String("option", a.option.ID))
		return
	}

	eased := easeOutCubic(progress)
	for _, s := range a.surfaces {
		s.apply(s.from.blend(s.to, eased))
	}
	a.active = a.sched.RequestFrame(a.step)
}

// Active reports whether a transition is running.
func (a *Animator) Active() bool {
	return a.active != 0
}

// Option returns the option the surfaces are showing or heading to.
func (a *Animator) Option() appearance.Option {
	return a.option
}

// Snapshot returns the displayed values of every surface.
func (a *Animator) Snapshot() []Surface {
	out := make([]Surface, 0, len(a.surfaces))
	for _, s := range a.surfaces {
		f := s.current()
		out = append(out, Surface{
			Mesh:      s.mesh.Name,
			Color:     f.Color,
			Roughness: f.Roughness,
			Metalness: f.Metalness,
		})
	}
	return out
}

// Close cancels the running transition. The animator never writes to the
// scene afterwards.
func (a *Animator) Close() {
	a.cancel()
	a.surfaces = nil
	a.normalized = nil
}

func (a *Animator) cancel() {
	a.sched.Cancel(a.active)
	a.active = 0
}

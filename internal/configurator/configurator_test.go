package configurator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/beanbag/internal/engine/loop"
	"github.com/Faultbox/beanbag/internal/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// testLoop signals every Post so tests can wait for fetch goroutines.
type testLoop struct {
	*loop.Loop
	posted chan struct{}
}

func newTestLoop() *testLoop {
	return &testLoop{Loop: loop.New(t0), posted: make(chan struct{}, 64)}
}

func (l *testLoop) Post(fn func()) {
	l.Loop.Post(fn)
	l.posted <- struct{}{}
}

// settle waits for a fetch result and runs it without advancing the clock.
func (l *testLoop) settle(t *testing.T) {
	t.Helper()
	select {
	case <-l.posted:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch result was never posted")
	}
	l.Tick(l.Now())
}

// scriptedFetcher fails the first failures calls, then returns a fresh scene.
type scriptedFetcher struct {
	failures int32
	calls    atomic.Int32
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) (*scene.Scene, error) {
	if n := f.calls.Add(1); n <= f.failures {
		return nil, errors.New("connection reset")
	}
	return testScene(), nil
}

// blockingFetcher never completes until its context is cancelled.
type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, url string) (*scene.Scene, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// testScene is a 4x2x1 seat offset from the origin plus a small cushion.
func testScene() *scene.Scene {
	sc := scene.New("chair")

	seat := scene.NewNode("seat")
	seat.Position = mgl32.Vec3{3, 1, 0}
	seat.Mesh = &scene.Mesh{
		Name: "seat",
		Geometry: scene.NewGeometry([]mgl32.Vec3{
			{-2, -1, -0.5}, {2, -1, -0.5}, {2, 1, 0.5}, {-2, 1, 0.5},
		}, nil, []uint32{0, 1, 2, 0, 2, 3}),
		Material:      &scene.Material{},
		CastShadow:    true,
		ReceiveShadow: true,
	}

	cushion := scene.NewNode("cushion")
	cushion.Position = mgl32.Vec3{3, 1, 0}
	cushion.Mesh = &scene.Mesh{
		Name: "cushion",
		Geometry: scene.NewGeometry([]mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		}, nil, []uint32{0, 1, 2}),
		Material:   &scene.Material{},
		CastShadow: true,
	}

	sc.Root.Add(seat)
	sc.Root.Add(cushion)
	return sc
}

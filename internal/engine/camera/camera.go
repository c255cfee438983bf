// Package camera provides the orbit camera used to inspect the model.
package camera

import (
	"math"

	"github.com/Faultbox/beanbag/internal/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around the Y axis

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// AutoRotate spins the camera in radians per second while the user is
	// not dragging. Zero disables it.
	AutoRotate float32

	FOV       float32 // vertical, radians
	Near, Far float32

	dragging bool
}

// NewOrbitCamera creates an orbit camera framing a model of size ~2 at the
// origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        4.5,
		Pitch:           0.35,
		MinDistance:     1.5,
		MaxDistance:     20,
		MinPitch:        -0.2,
		MaxPitch:        1.4,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FOV:             mgl32.DegToRad(45),
		Near:            0.05,
		Far:             100,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection for a viewport aspect
// ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// Update advances auto-rotation by dt seconds.
func (c *OrbitCamera) Update(dt float32) {
	if c.AutoRotate != 0 && !c.dragging {
		c.Yaw += c.AutoRotate * dt
		if c.Yaw > 2*math.Pi {
			c.Yaw -= 2 * math.Pi
		}
	}
}

// BeginDrag pauses auto-rotation until EndDrag.
func (c *OrbitCamera) BeginDrag() { c.dragging = true }

// EndDrag resumes auto-rotation.
func (c *OrbitCamera) EndDrag() { c.dragging = false }

// Dragging reports whether a drag is in progress.
func (c *OrbitCamera) Dragging() bool { return c.dragging }

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on box and backs off far enough for the
// whole box to fit the vertical field of view.
func (c *OrbitCamera) FitToBounds(box scene.Box) {
	if box.Empty() {
		return
	}
	c.Center = box.Center()
	radius := box.Size().Len() / 2
	dist := radius / float32(math.Sin(float64(c.FOV/2)))
	c.MinDistance = radius * 1.1
	c.MaxDistance = dist * 5
	c.Distance = mgl32.Clamp(dist, c.MinDistance, c.MaxDistance)
	c.Far = max(c.Far, c.MaxDistance+radius*2)
}

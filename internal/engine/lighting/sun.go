// Package lighting provides the light rig the model is shown under.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Rig is one directional key light plus flat ambient fill. Colors are in
// linear space.
type Rig struct {
	Direction mgl32.Vec3 // towards the light, normalized
	Color     mgl32.Vec3
	Ambient   mgl32.Vec3
}

// SunDirection converts azimuth (degrees around Y) and elevation (degrees
// above the horizon) to a normalized direction pointing towards the light.
func SunDirection(azimuth, elevation float64) mgl32.Vec3 {
	azRad := azimuth * math.Pi / 180.0
	elRad := elevation * math.Pi / 180.0

	x := float32(math.Cos(elRad) * math.Sin(azRad))
	y := float32(math.Sin(elRad))
	z := float32(math.Cos(elRad) * math.Cos(azRad))

	return mgl32.Vec3{x, y, z}
}

// Studio returns a soft warm key light at the given angles with a cool
// ambient fill.
func Studio(azimuth, elevation float64) Rig {
	return Rig{
		Direction: SunDirection(azimuth, elevation),
		Color:     Linear(colorful.Color{R: 1, G: 0.97, B: 0.92}),
		Ambient:   Linear(colorful.Color{R: 0.5, G: 0.52, B: 0.56}),
	}
}

// Linear converts an sRGB color to linear RGB.
func Linear(c colorful.Color) mgl32.Vec3 {
	r, g, b := c.LinearRgb()
	return mgl32.Vec3{float32(r), float32(g), float32(b)}
}

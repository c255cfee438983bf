package configurator

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// easeOutCubic decelerates towards the end: 1 - (1-t)^3.
func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// finish is one set of interpolated surface values.
type finish struct {
	Color     colorful.Color
	Roughness float64
	Metalness float64
}

// blend interpolates every component linearly. Color is blended in RGB.
func (f finish) blend(to finish, t float64) finish {
	return finish{
		Color:     f.Color.BlendRgb(to.Color, t),
		Roughness: lerp(f.Roughness, to.Roughness, t),
		Metalness: lerp(f.Metalness, to.Metalness, t),
	}
}

package render

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// infernoStop is one anchor point of the heat-map gradient.
type infernoStop struct {
	pos float64
	col colorful.Color
}

// infernoStops approximates the perceptually-uniform "inferno" colormap:
// near-black through purple and orange to pale yellow. Intermediate values
// are blended in Luv space so lightness rises monotonically with intensity.
var infernoStops = []infernoStop{
	{0.00, colorful.Color{R: 0.001462, G: 0.000466, B: 0.013866}},
	{0.25, colorful.Color{R: 0.337060, G: 0.062415, B: 0.429425}},
	{0.50, colorful.Color{R: 0.735683, G: 0.215906, B: 0.330245}},
	{0.75, colorful.Color{R: 0.978806, G: 0.556287, B: 0.034723}},
	{1.00, colorful.Color{R: 0.988362, G: 0.998364, B: 0.644924}},
}

// heatColor maps a normalized saliency intensity in [0, 1] to a colormap
// color. Values outside the range clamp to the nearest endpoint.
func heatColor(v float64) color.NRGBA {
	if v <= 0 {
		return toNRGBA(infernoStops[0].col)
	}
	if v >= 1 {
		return toNRGBA(infernoStops[len(infernoStops)-1].col)
	}
	for i := 0; i < len(infernoStops)-1; i++ {
		lo, hi := infernoStops[i], infernoStops[i+1]
		if v <= hi.pos {
			t := (v - lo.pos) / (hi.pos - lo.pos)
			return toNRGBA(lo.col.BlendLuv(hi.col, t).Clamped())
		}
	}
	return toNRGBA(infernoStops[len(infernoStops)-1].col)
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

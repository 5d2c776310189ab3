package raster

import colorful "github.com/lucasb-eyer/go-colorful"

// RGBToHSL converts channels in [0,1] to hue, saturation and lightness, all
// in [0,1].
func RGBToHSL(r, g, b float64) (h, s, l float64) {
	h, s, l = colorful.Color{R: r, G: g, B: b}.Hsl()
	return h / 360, s, l
}

// HSLToRGB is the inverse of RGBToHSL.
func HSLToRGB(h, s, l float64) (r, g, b float64) {
	c := colorful.Hsl(h*360, s, l)
	return c.R, c.G, c.B
}

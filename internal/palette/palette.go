// Package palette provides the indexed color ramps used by colorMap and the
// palette listing endpoints.
package palette

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is a color with channels in 0..255.
type RGB [3]float64

// Palette is an ordered list of at least two control points.
type Palette struct {
	Name  string
	Stops []RGB
}

// Sample interpolates the palette piecewise-linearly at t, clamped to [0,1].
// NaN samples the first stop.
func (p Palette) Sample(t float64) RGB {
	if math.IsNaN(t) || t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	n := len(p.Stops) - 1
	idx := t * float64(n)
	i := min(int(math.Floor(idx)), n-1)
	f := idx - float64(i)

	a, b := p.Stops[i], p.Stops[i+1]
	return RGB{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
	}
}

// Hex returns the stops as #rrggbb strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p.Stops))
	for i, s := range p.Stops {
		out[i] = toColorful(s).Hex()
	}
	return out
}

// BlendLab mixes a and b in CIE L*a*b* space, t in [0,1].
func BlendLab(a, b RGB, t float64) RGB {
	c := toColorful(a).BlendLab(toColorful(b), t).Clamped()
	return RGB{c.R * 255, c.G * 255, c.B * 255}
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: c[0] / 255, G: c[1] / 255, B: c[2] / 255}
}

// Catalog is the fixed, ordered palette list. Index into it with At.
var Catalog = []Palette{
	{"Fire", []RGB{{0, 0, 0}, {128, 17, 0}, {255, 68, 0}, {255, 153, 0}, {255, 221, 68}, {255, 255, 221}}},
	{"Ocean", []RGB{{0, 7, 20}, {0, 41, 97}, {0, 97, 163}, {29, 163, 214}, {119, 209, 240}, {214, 240, 252}}},
	{"Neon", []RGB{{5, 0, 20}, {89, 0, 179}, {204, 0, 153}, {255, 51, 102}, {255, 153, 51}, {255, 255, 51}}},
	{"Forest", []RGB{{10, 15, 5}, {30, 60, 15}, {60, 120, 30}, {120, 170, 60}, {170, 210, 100}, {220, 240, 180}}},
	{"Plasma", []RGB{{68, 1, 84}, {72, 36, 117}, {65, 68, 135}, {53, 95, 141}, {33, 145, 140}, {94, 201, 98}, {253, 231, 37}}},
	{"Mono", []RGB{{0, 0, 0}, {255, 255, 255}}},
	{"Sunset", []RGB{{25, 10, 40}, {80, 20, 90}, {160, 40, 100}, {220, 80, 60}, {250, 160, 50}, {255, 230, 120}}},
	{"Ice", []RGB{{10, 10, 30}, {20, 40, 80}, {40, 80, 140}, {80, 140, 200}, {150, 200, 230}, {220, 240, 255}}},
	{"Magma", []RGB{{20, 0, 0}, {80, 0, 20}, {150, 10, 40}, {200, 60, 20}, {230, 120, 10}, {255, 200, 50}}},
	{"Cyberpunk", []RGB{{0, 0, 0}, {0, 255, 128}, {0, 128, 255}, {128, 0, 255}, {255, 0, 128}, {255, 255, 255}}},
	{"Sepia", []RGB{{30, 20, 10}, {60, 45, 25}, {90, 75, 50}, {140, 120, 80}, {190, 170, 130}, {230, 220, 200}}},
	{"Jade", []RGB{{0, 10, 20}, {0, 40, 50}, {0, 80, 70}, {20, 140, 100}, {80, 200, 140}, {180, 240, 200}}},
}

// At returns the palette at index i, wrapping modulo the catalog size in both
// directions.
func At(i int) Palette {
	n := len(Catalog)
	return Catalog[((i%n)+n)%n]
}

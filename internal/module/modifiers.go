package module

import (
	"image"
	"math"

	"github.com/MeKo-Tech/texsynth/internal/noise"
	"github.com/MeKo-Tech/texsynth/internal/palette"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

func modifier(id, name string, inputs []string, params []ParamDef, fn func(w, h int, p Params, in Inputs) *image.RGBA) *Def {
	return &Def{
		ID:       id,
		Name:     name,
		Category: Modifier,
		Params:   params,
		Inputs:   inputs,
		Outputs:  out,
		Compute:  pure(fn),
	}
}

func modifiers() []*Def {
	return []*Def{
		modifier("colorMap", "Color Map", single, []ParamDef{
			param("palette", "Palette", 0, float64(len(palette.Catalog)-1), 4, 1),
			param("contrast", "Contrast", 0.1, 3, 1, 0.01),
			param("shift", "Shift", 0, 1, 0, 0.01),
		}, colorMap),
		modifier("duotone", "Duotone", single, []ParamDef{
			param("hueA", "Hue A", 0, 360, 230, 1),
			param("hueB", "Hue B", 0, 360, 40, 1),
			param("saturation", "Sat", 0, 1, 0.7, 0.01),
		}, duotone),
		modifier("levels", "Levels", single, []ParamDef{
			param("brightness", "Bright", -1, 1, 0, 0.01),
			param("contrast", "Contrast", 0, 3, 1, 0.01),
			param("gamma", "Gamma", 0.1, 5, 1, 0.01),
		}, levels),
		modifier("invert", "Invert", single, []ParamDef{
			param("mix", "Mix", 0, 1, 1, 0.01),
		}, invert),
		modifier("blend", "Blend", []string{"a", "b"}, []ParamDef{
			param("mode", "Mode", 0, 4, 0, 1),
			param("opacity", "Mix", 0, 1, 0.5, 0.01),
		}, blend),
		modifier("twirl", "Twirl", single, []ParamDef{
			param("strength", "Strength", -10, 10, 3, 0.1),
			param("radius", "Radius", 0.1, 1, 0.5, 0.01),
		}, twirl),
		modifier("kaleidoscope", "Kaleidoscope", single, []ParamDef{
			param("segments", "Segments", 2, 16, 6, 1),
			param("rotation", "Rotate", 0, 6.28, 0, 0.01),
		}, kaleidoscope),
		modifier("pixelate", "Pixelate", single, []ParamDef{
			param("size", "Size", 2, 64, 8, 1),
		}, pixelate),
		modifier("posterize", "Posterize", single, []ParamDef{
			param("levels", "Levels", 2, 16, 4, 1),
		}, posterize),
		modifier("threshold", "Threshold", single, []ParamDef{
			param("threshold", "Thresh", 0, 1, 0.5, 0.01),
			param("softness", "Soft", 0, 0.3, 0, 0.01),
		}, threshold),
		modifier("domainWarp", "Domain Warp", single, []ParamDef{
			param("strength", "Strength", 0, 0.5, 0.1, 0.005),
			param("frequency", "Freq", 1, 10, 3, 0.1),
			param("seed", "Seed", 0, 999, 0, 1),
		}, domainWarp),
		modifier("mirror", "Mirror / Tile", single, []ParamDef{
			param("tilesX", "TilesX", 1, 8, 2, 1),
			param("tilesY", "TilesY", 1, 8, 2, 1),
			param("mirror", "Mirror", 0, 1, 1, 1),
		}, mirror),
		modifier("polarCoords", "Polar Coords", single, []ParamDef{
			param("mode", "Mode", 0, 1, 0, 1),
		}, polarCoords),
	}
}

// colorMap maps input red through a palette. A shift wraps the ramp around;
// without one, full intensity stays on the last stop.
func colorMap(w, h int, p Params, in Inputs) *image.RGBA {
	pal := palette.At(p.Int("palette"))
	contrast, shift := p.Float("contrast"), p.Float("shift")
	return raster.Transform(in["in"], w, h, func(r, _, _, _, _ float64) (float64, float64, float64) {
		val := math.Pow(r/255, contrast) + shift
		if val > 1 {
			val -= math.Floor(val)
		}
		c := pal.Sample(val)
		return c[0], c[1], c[2]
	})
}

// duotone maps luminance onto a ramp between a dark and a light color,
// interpolated in Lab space through a 256-entry lookup table.
func duotone(w, h int, p Params, in Inputs) *image.RGBA {
	sat := raster.Clamp01(p.Float("saturation"))
	ar, ag, ab := raster.HSLToRGB(wrapUnit(p.Float("hueA")/360), sat, 0.15)
	br, bg, bb := raster.HSLToRGB(wrapUnit(p.Float("hueB")/360), sat, 0.85)
	dark := palette.RGB{ar * 255, ag * 255, ab * 255}
	light := palette.RGB{br * 255, bg * 255, bb * 255}

	var lut [256]palette.RGB
	for i := range lut {
		lut[i] = palette.BlendLab(dark, light, float64(i)/255)
	}
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		c := lut[raster.Byte(raster.Luma(r, g, b))]
		return c[0], c[1], c[2]
	})
}

func wrapUnit(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v++
	}
	return v
}

func levels(w, h int, p Params, in Inputs) *image.RGBA {
	br, co, inv := p.Float("brightness"), p.Float("contrast"), 1/p.Float("gamma")
	adj := func(v float64) float64 {
		return math.Pow(raster.Clamp01((v/255-0.5)*co+0.5+br), inv) * 255
	}
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		return adj(r), adj(g), adj(b)
	})
}

func invert(w, h int, p Params, in Inputs) *image.RGBA {
	mix := p.Float("mix")
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		return r*(1-mix) + (255-r)*mix, g*(1-mix) + (255-g)*mix, b*(1-mix) + (255-b)*mix
	})
}

// blend combines a and b per channel: mix, multiply, add, screen or
// difference. Missing inputs read as black.
func blend(w, h int, p Params, in Inputs) *image.RGBA {
	mode, opacity := p.Int("mode"), p.Float("opacity")
	a, b := in["a"], in["b"]
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	for i := 0; i < len(d); i += 4 {
		for c := 0; c < 3; c++ {
			var va, vb float64
			if a != nil {
				va = float64(a.Pix[i+c]) / 255
			}
			if b != nil {
				vb = float64(b.Pix[i+c]) / 255
			}
			var v float64
			switch mode {
			case 0:
				v = va*(1-opacity) + vb*opacity
			case 1:
				v = va * vb
			case 2:
				v = math.Min(1, va+vb)
			case 3:
				v = 1 - (1-va)*(1-vb)
			default:
				v = math.Abs(va - vb)
			}
			d[i+c] = raster.Byte(v * 255)
		}
		d[i+3] = 255
	}
	return img
}

func twirl(w, h int, p Params, in Inputs) *image.RGBA {
	strength, radius := p.Float("strength"), p.Float("radius")
	return raster.Remap(in["in"], w, h, func(nx, ny float64) (float64, float64) {
		dx, dy := nx-0.5, ny-0.5
		dist := math.Sqrt(dx*dx + dy*dy)
		angle := strength * math.Max(0, 1-dist/radius)
		cos, sin := math.Cos(angle), math.Sin(angle)
		return 0.5 + dx*cos - dy*sin, 0.5 + dx*sin + dy*cos
	})
}

func kaleidoscope(w, h int, p Params, in Inputs) *image.RGBA {
	rot := p.Float("rotation")
	segAngle := 2 * math.Pi / float64(p.Int("segments"))
	return raster.Remap(in["in"], w, h, func(nx, ny float64) (float64, float64) {
		dx, dy := nx-0.5, ny-0.5
		angle := math.Atan2(dy, dx) + rot
		dist := math.Sqrt(dx*dx + dy*dy)
		angle = math.Mod(math.Mod(angle, segAngle)+segAngle, segAngle)
		if angle > segAngle/2 {
			angle = segAngle - angle
		}
		return raster.Clamp01(0.5 + math.Cos(angle)*dist*2), raster.Clamp01(0.5 + math.Sin(angle)*dist*2)
	})
}

func pixelate(w, h int, p Params, in Inputs) *image.RGBA {
	size := float64(max(2, p.Int("size")))
	return raster.Remap(in["in"], w, h, func(nx, ny float64) (float64, float64) {
		return math.Floor(nx*size)/size + 0.5/size, math.Floor(ny*size)/size + 0.5/size
	})
}

func posterize(w, h int, p Params, in Inputs) *image.RGBA {
	steps := float64(max(2, p.Int("levels")) - 1)
	q := func(v float64) float64 { return math.Round(v/255*steps) / steps * 255 }
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		return q(r), q(g), q(b)
	})
}

func threshold(w, h int, p Params, in Inputs) *image.RGBA {
	thresh, soft := p.Float("threshold")*255, p.Float("softness")*255
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		lum := raster.Luma(r, g, b)
		var v float64
		switch {
		case soft > 0:
			v = raster.Smoothstep(thresh-soft, thresh+soft, lum) * 255
		case lum > thresh:
			v = 255
		}
		return v, v, v
	})
}

func domainWarp(w, h int, p Params, in Inputs) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	str, freq := p.Float("strength"), p.Float("frequency")
	return raster.Remap(in["in"], w, h, func(nx, ny float64) (float64, float64) {
		dx := n.Perlin2D(nx*freq, ny*freq) * str
		dy := n.Perlin2D(nx*freq+100, ny*freq+100) * str
		return raster.Clamp01(nx + dx), raster.Clamp01(ny + dy)
	})
}

func mirror(w, h int, p Params, in Inputs) *image.RGBA {
	tx, ty := float64(p.Int("tilesX")), float64(p.Int("tilesY"))
	flip := p.Bool("mirror")
	return raster.Remap(in["in"], w, h, func(nx, ny float64) (float64, float64) {
		x, y := math.Mod(nx*tx, 1), math.Mod(ny*ty, 1)
		if flip {
			if int(math.Floor(nx*tx))%2 == 1 {
				x = 1 - x
			}
			if int(math.Floor(ny*ty))%2 == 1 {
				y = 1 - y
			}
		}
		return x, y
	})
}

// polarCoords converts cartesian to polar (mode 0) or polar to cartesian
// (mode 1).
func polarCoords(w, h int, p Params, in Inputs) *image.RGBA {
	toPolar := p.Int("mode") == 0
	return raster.Remap(in["in"], w, h, func(nx, ny float64) (float64, float64) {
		if toPolar {
			dx, dy := nx-0.5, ny-0.5
			return raster.Clamp01((math.Atan2(dy, dx)/math.Pi + 1) * 0.5), raster.Clamp01(math.Sqrt(dx*dx+dy*dy) * 2)
		}
		angle := nx * 2 * math.Pi
		r := ny * 0.5
		return 0.5 + math.Cos(angle)*r, 0.5 + math.Sin(angle)*r
	})
}

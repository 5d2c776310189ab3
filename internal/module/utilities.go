package module

import (
	"context"
	"image"
	"math"

	"github.com/MeKo-Tech/texsynth/internal/noise"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

// OutputID is the module id of the terminal node in a graph.
const OutputID = "output"

func utilities() []*Def {
	return []*Def{
		{
			ID: "hslAdjust", Name: "HSL Adjust", Category: Utility,
			Inputs: single, Outputs: out,
			Params: []ParamDef{
				param("hue", "Hue", -180, 180, 0, 1),
				param("saturation", "Sat", 0, 3, 1, 0.01),
				param("lightness", "Light", -0.5, 0.5, 0, 0.01),
			},
			Compute: pure(hslAdjust),
		},
		{
			ID: "normalMap", Name: "Normal Map", Category: Utility,
			Inputs: single, Outputs: out,
			Params: []ParamDef{
				param("strength", "Strength", 0.1, 10, 2, 0.1),
			},
			Compute: pure(normalMap),
		},
		{
			ID: "channelMath", Name: "Channel Math", Category: Utility,
			Inputs: []string{"a", "b"}, Outputs: out,
			Params: []ParamDef{
				param("mode", "Mode", 0, 5, 0, 1),
				param("scale", "Scale", 0, 4, 1, 0.01),
			},
			Compute: pure(channelMath),
		},
		{
			ID: "channelSelect", Name: "Channel Select", Category: Utility,
			Inputs: single, Outputs: out,
			Params: []ParamDef{
				param("channel", "Channel", 0, 3, 0, 1),
			},
			Compute: pure(channelSelect),
		},
		{
			ID: OutputID, Name: "Output", Category: Utility,
			Inputs: single, Outputs: []string{},
			Params:  []ParamDef{},
			Compute: pure(output),
		},
	}
}

func simulations() []*Def {
	return []*Def{
		{
			ID: "reactionDiffusion", Name: "Reaction Diffusion", Category: Physics,
			Inputs: noInputs, Outputs: out,
			Params: []ParamDef{
				param("feed", "Feed", 0.01, 0.1, 0.055, 0.001),
				param("kill", "Kill", 0.03, 0.08, 0.062, 0.001),
				param("diffA", "Diff A", 0.05, 0.25, 0.2097, 0.001),
				param("diffB", "Diff B", 0.02, 0.25, 0.105, 0.001),
				param("iterations", "Iter", 100, 10000, 2000, 100),
			},
			Compute: reactionDiffusion,
		},
	}
}

func hslAdjust(w, h int, p Params, in Inputs) *image.RGBA {
	shift, sat, light := p.Float("hue")/360, p.Float("saturation"), p.Float("lightness")
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		hh, ss, ll := raster.RGBToHSL(r/255, g/255, b/255)
		nh := wrapUnit(hh + shift)
		rr, gg, bb := raster.HSLToRGB(nh, raster.Clamp01(ss*sat), raster.Clamp01(ll+light))
		return rr * 255, gg * 255, bb * 255
	})
}

// normalMap derives a tangent-space normal map from the red channel treated
// as a height field.
func normalMap(w, h int, p Params, in Inputs) *image.RGBA {
	src := in["in"]
	if src == nil {
		return raster.New(w, h)
	}
	str := p.Float("strength")
	s := src.Pix
	height := func(x, y int) float64 {
		return float64(s[(clampIndex(y, h)*w+clampIndex(x, w))*4]) / 255
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (height(x+1, y) - height(x-1, y)) * str
			dy := (height(x, y+1) - height(x, y-1)) * str
			i := (y*w + x) * 4
			d[i] = raster.Byte((-dx*0.5 + 0.5) * 255)
			d[i+1] = raster.Byte((-dy*0.5 + 0.5) * 255)
			d[i+2] = 255
			d[i+3] = 255
		}
	}
	return img
}

// channelMath combines a and b per channel: add, subtract, multiply, max,
// min or divide, then scales the result. Missing inputs read as black.
func channelMath(w, h int, p Params, in Inputs) *image.RGBA {
	mode, scale := p.Int("mode"), p.Float("scale")
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
				v = va + vb
			case 1:
				v = va - vb
			case 2:
				v = va * vb
			case 3:
				v = math.Max(va, vb)
			case 4:
				v = math.Min(va, vb)
			default:
				if vb > 0 {
					v = va / vb
				} else if va > 0 {
					v = 1
				}
			}
			d[i+c] = raster.Byte(v * scale * 255)
		}
		d[i+3] = 255
	}
	return img
}

// channelSelect extracts red, green, blue or luminance as gray.
func channelSelect(w, h int, p Params, in Inputs) *image.RGBA {
	ch := p.Int("channel")
	return raster.Transform(in["in"], w, h, func(r, g, b, _, _ float64) (float64, float64, float64) {
		var v float64
		switch ch {
		case 0:
			v = r
		case 1:
			v = g
		case 2:
			v = b
		default:
			v = raster.Luma(r, g, b)
		}
		return v, v, v
	})
}

func output(w, h int, _ Params, in Inputs) *image.RGBA {
	if src := in["in"]; src != nil {
		return raster.Opaque(raster.Clone(src))
	}
	return raster.New(w, h)
}

// reactionDiffusion runs Gray-Scott from a centered seed square and renders
// the B concentration as gray.
func reactionDiffusion(ctx context.Context, w, h int, p Params, _ Inputs) (*image.RGBA, error) {
	gs := noise.NewGrayScott(noise.GrayScottConfig{
		Width:  w,
		Height: h,
		Feed:   p.Float("feed"),
		Kill:   p.Float("kill"),
		DiffA:  p.Float("diffA"),
		DiffB:  p.Float("diffB"),
	})
	if err := gs.Run(ctx, p.Int("iterations")); err != nil {
		return nil, err
	}

	b := gs.B()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	for i, v := range b {
		g := raster.Byte(v * 255)
		d[i*4], d[i*4+1], d[i*4+2], d[i*4+3] = g, g, g, 255
	}
	return img, nil
}

package module

import (
	"image"
	"math"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/texsynth/internal/raster"
)

func effect(id, name string, params []ParamDef, fn func(w, h int, p Params, in Inputs) *image.RGBA) *Def {
	return &Def{
		ID:       id,
		Name:     name,
		Category: FX,
		Params:   params,
		Inputs:   single,
		Outputs:  out,
		Compute:  pure(fn),
	}
}

func effects() []*Def {
	return []*Def{
		effect("blur", "Blur", []ParamDef{
			param("radius", "Radius", 0, raster.MaxBlurRadius, 3, 1),
			param("passes", "Passes", 1, 3, 1, 1),
		}, boxBlur),
		effect("gaussianBlur", "Gaussian Blur", []ParamDef{
			param("sigma", "Sigma", 0, 20, 2, 0.1),
		}, gaussianBlur),
		effect("median", "Median", []ParamDef{
			param("size", "Size", 1, 15, 3, 2),
			param("disk", "Disk", 0, 1, 0, 1),
		}, median),
		effect("sharpen", "Sharpen", []ParamDef{
			param("strength", "Strength", 0, 5, 1, 0.1),
		}, sharpen),
		effect("edgeDetect", "Edge Detect", []ParamDef{
			param("strength", "Strength", 0.1, 5, 1, 0.1),
		}, edgeDetect),
		effect("emboss", "Emboss", []ParamDef{
			param("strength", "Strength", 0.1, 3, 1, 0.1),
		}, emboss),
		effect("filmGrain", "Film Grain", []ParamDef{
			param("intensity", "Intensity", 0, 1, 0.2, 0.01),
			param("seed", "Seed", 0, 999, 0, 1),
		}, filmGrain),
		effect("vignette", "Vignette", []ParamDef{
			param("strength", "Strength", 0, 2, 0.5, 0.01),
			param("radius", "Radius", 0.1, 1.5, 0.8, 0.01),
		}, vignette),
		effect("scanlines", "Scanlines", []ParamDef{
			param("spacing", "Spacing", 2, 16, 4, 1),
			param("intensity", "Intensity", 0, 1, 0.3, 0.01),
		}, scanlines),
		effect("chromaticSplit", "Chromatic Split", []ParamDef{
			param("offset", "Offset", 0, 20, 3, 0.5),
			param("angle", "Angle", 0, 360, 0, 1),
		}, chromaticSplit),
	}
}

func boxBlur(w, h int, p Params, in Inputs) *image.RGBA {
	src := in["in"]
	if src == nil {
		return raster.New(w, h)
	}
	radius, passes := p.Float("radius"), p.Int("passes")
	result := raster.Clone(src)
	for i := 0; i < passes; i++ {
		result = raster.BoxBlur(result, w, h, radius)
	}
	return raster.Opaque(result)
}

func applyFilter(src *image.RGBA, w, h int, filter gift.Filter) *image.RGBA {
	if src == nil {
		return raster.New(w, h)
	}
	g := gift.New(filter)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return raster.Opaque(dst)
}

func gaussianBlur(w, h int, p Params, in Inputs) *image.RGBA {
	sigma := p.Float("sigma")
	if sigma <= 0 {
		if in["in"] == nil {
			return raster.New(w, h)
		}
		return raster.Opaque(raster.Clone(in["in"]))
	}
	return applyFilter(in["in"], w, h, gift.GaussianBlur(float32(sigma)))
}

func median(w, h int, p Params, in Inputs) *image.RGBA {
	size := max(1, p.Int("size"))
	if size%2 == 0 {
		size++
	}
	return applyFilter(in["in"], w, h, gift.Median(size, p.Bool("disk")))
}

func sharpen(w, h int, p Params, in Inputs) *image.RGBA {
	s := p.Float("strength")
	return raster.Convolve3x3(in["in"], w, h, raster.Kernel3{
		{0, -s, 0},
		{-s, 1 + 4*s, -s},
		{0, -s, 0},
	}, 0)
}

// edgeDetect computes the Sobel magnitude of luminance. The one-pixel border
// stays opaque black.
func edgeDetect(w, h int, p Params, in Inputs) *image.RGBA {
	img := raster.New(w, h)
	src := in["in"]
	if src == nil {
		return img
	}
	str := p.Float("strength")
	s, d := src.Pix, img.Pix
	lum := func(x, y int) float64 {
		i := (y*w + x) * 4
		return raster.Luma(float64(s[i]), float64(s[i+1]), float64(s[i+2])) / 255
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -lum(x-1, y-1) + lum(x+1, y-1) - 2*lum(x-1, y) + 2*lum(x+1, y) - lum(x-1, y+1) + lum(x+1, y+1)
			gy := -lum(x-1, y-1) - 2*lum(x, y-1) - lum(x+1, y-1) + lum(x-1, y+1) + 2*lum(x, y+1) + lum(x+1, y+1)
			v := raster.Byte(math.Sqrt(gx*gx+gy*gy) * str * 255)
			i := (y*w + x) * 4
			d[i], d[i+1], d[i+2] = v, v, v
		}
	}
	return img
}

func emboss(w, h int, p Params, in Inputs) *image.RGBA {
	s := p.Float("strength")
	return raster.Convolve3x3(in["in"], w, h, raster.Kernel3{
		{-2 * s, -s, 0},
		{-s, 1, s},
		{0, s, 2 * s},
	}, 128)
}

func filmGrain(w, h int, p Params, in Inputs) *image.RGBA {
	amount, seed := p.Float("intensity")*255, p.Float("seed")
	return raster.Transform(in["in"], w, h, func(r, g, b, nx, ny float64) (float64, float64, float64) {
		grain := (fract(math.Sin(nx*12.9898+ny*78.233+seed)*43758.5453) - 0.5) * amount
		return r + grain, g + grain, b + grain
	})
}

func vignette(w, h int, p Params, in Inputs) *image.RGBA {
	str, rad := p.Float("strength"), p.Float("radius")
	return raster.Transform(in["in"], w, h, func(r, g, b, nx, ny float64) (float64, float64, float64) {
		dx, dy := nx-0.5, ny-0.5
		dist := math.Sqrt(dx*dx+dy*dy) * 2
		edge := math.Max(0, dist-rad+0.5)
		vig := raster.Clamp01(1 - edge*edge*str*2)
		return r * vig, g * vig, b * vig
	})
}

func scanlines(w, h int, p Params, in Inputs) *image.RGBA {
	spacing, intensity := max(2, p.Int("spacing")), p.Float("intensity")
	fh, half := float64(h), float64(spacing)/2
	return raster.Transform(in["in"], w, h, func(r, g, b, _, ny float64) (float64, float64, float64) {
		f := 1.0
		if float64(int(math.Floor(ny*fh))%spacing) >= half {
			f = 1 - intensity
		}
		return r * f, g * f, b * f
	})
}

// chromaticSplit shifts red along the angle and blue against it; green stays.
func chromaticSplit(w, h int, p Params, in Inputs) *image.RGBA {
	src := in["in"]
	if src == nil {
		return raster.New(w, h)
	}
	offset, angle := p.Float("offset"), p.Radians("angle")
	ox := int(math.Round(math.Cos(angle) * offset * float64(w) / 256))
	oy := int(math.Round(math.Sin(angle) * offset * float64(h) / 256))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d, s := img.Pix, src.Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			di := (y*w + x) * 4
			ri := (clampIndex(y+oy, h)*w + clampIndex(x+ox, w)) * 4
			bi := (clampIndex(y-oy, h)*w + clampIndex(x-ox, w)) * 4
			d[di], d[di+1], d[di+2], d[di+3] = s[ri], s[di+1], s[bi+2], 255
		}
	}
	return img
}

func clampIndex(v, n int) int {
	return min(n-1, max(0, v))
}

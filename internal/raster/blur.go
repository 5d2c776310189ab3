package raster

import (
	"image"
	"math"
)

// MaxBlurRadius bounds the box blur kernel half-width.
const MaxBlurRadius = 15

// BoxBlur runs a separable box blur, horizontal pass then vertical pass,
// with edge-clamped sampling. radius is rounded and clamped into
// [0, MaxBlurRadius]; radius 0 returns a copy of src. A nil src yields an
// opaque black image.
func BoxBlur(src *image.RGBA, w, h int, radius float64) *image.RGBA {
	if src == nil {
		return New(w, h)
	}
	r := int(math.Round(radius))
	if math.IsNaN(radius) || r < 0 {
		r = 0
	}
	if r > MaxBlurRadius {
		r = MaxBlurRadius
	}
	if r == 0 {
		return Clone(src)
	}

	count := float64(2*r + 1)
	tmp := make([]uint8, len(src.Pix))
	s := src.Pix
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var rr, gg, bb float64
			for dx := -r; dx <= r; dx++ {
				i := (row + clampInt(x+dx, w)) * 4
				rr += float64(s[i])
				gg += float64(s[i+1])
				bb += float64(s[i+2])
			}
			i := (row + x) * 4
			tmp[i], tmp[i+1], tmp[i+2], tmp[i+3] = mean(rr, count), mean(gg, count), mean(bb, count), 255
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var rr, gg, bb float64
			for dy := -r; dy <= r; dy++ {
				i := (clampInt(y+dy, h)*w + x) * 4
				rr += float64(tmp[i])
				gg += float64(tmp[i+1])
				bb += float64(tmp[i+2])
			}
			i := (y*w + x) * 4
			d[i], d[i+1], d[i+2], d[i+3] = mean(rr, count), mean(gg, count), mean(bb, count), 255
		}
	}
	return img
}

func mean(sum, count float64) uint8 {
	return uint8(math.RoundToEven(sum / count))
}

package raster

import (
	"image"
	"math"
)

// Generate fills a grayscale image from fn, which receives normalized
// coordinates nx = x/w, ny = y/h and returns a value clamped into [0,1].
func Generate(w, h int, fn func(nx, ny float64) float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	fw, fh := float64(w), float64(h)
	for y := 0; y < h; y++ {
		ny := float64(y) / fh
		for x := 0; x < w; x++ {
			v := Byte(Clamp01(fn(float64(x)/fw, ny)) * 255)
			i := (y*w + x) * 4
			d[i], d[i+1], d[i+2], d[i+3] = v, v, v, 255
		}
	}
	return img
}

// GenerateRGB is Generate for color output. fn returns channels in 0..255.
func GenerateRGB(w, h int, fn func(nx, ny float64) (r, g, b float64)) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	fw, fh := float64(w), float64(h)
	for y := 0; y < h; y++ {
		ny := float64(y) / fh
		for x := 0; x < w; x++ {
			r, g, b := fn(float64(x)/fw, ny)
			i := (y*w + x) * 4
			d[i], d[i+1], d[i+2], d[i+3] = Byte(r), Byte(g), Byte(b), 255
		}
	}
	return img
}

// Transform maps every pixel of src through fn. A nil src reads as black.
// Channels are passed and returned in 0..255.
func Transform(src *image.RGBA, w, h int, fn func(r, g, b, nx, ny float64) (float64, float64, float64)) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := img.Pix
	fw, fh := float64(w), float64(h)
	for y := 0; y < h; y++ {
		ny := float64(y) / fh
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			var ir, ig, ib float64
			if src != nil {
				ir, ig, ib = float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2])
			}
			r, g, b := fn(ir, ig, ib, float64(x)/fw, ny)
			d[i], d[i+1], d[i+2], d[i+3] = Byte(r), Byte(g), Byte(b), 255
		}
	}
	return img
}

// Remap samples src at the normalized position returned by fn, nearest
// neighbor, clamped to the image. A nil src yields an opaque black image.
func Remap(src *image.RGBA, w, h int, fn func(nx, ny float64) (sx, sy float64)) *image.RGBA {
	if src == nil {
		return New(w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d, s := img.Pix, src.Pix
	fw, fh := float64(w), float64(h)
	for y := 0; y < h; y++ {
		ny := float64(y) / fh
		for x := 0; x < w; x++ {
			sx, sy := fn(float64(x)/fw, ny)
			si := (sampleIndex(sy, h)*w + sampleIndex(sx, w)) * 4
			di := (y*w + x) * 4
			d[di], d[di+1], d[di+2], d[di+3] = s[si], s[si+1], s[si+2], 255
		}
	}
	return img
}

func sampleIndex(v float64, n int) int {
	f := math.Round(v * float64(n-1))
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > float64(n-1) {
		return n - 1
	}
	return int(f)
}

// Kernel3 is a 3x3 convolution kernel indexed [ky+1][kx+1].
type Kernel3 [3][3]float64

// Convolve3x3 applies k with edge-clamped sampling and adds bias to every
// channel. A nil src yields an opaque black image.
func Convolve3x3(src *image.RGBA, w, h int, k Kernel3, bias float64) *image.RGBA {
	if src == nil {
		return New(w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d, s := img.Pix, src.Pix
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for ky := -1; ky <= 1; ky++ {
				sy := clampInt(y+ky, h)
				for kx := -1; kx <= 1; kx++ {
					si := (sy*w + clampInt(x+kx, w)) * 4
					kv := k[ky+1][kx+1]
					r += float64(s[si]) * kv
					g += float64(s[si+1]) * kv
					b += float64(s[si+2]) * kv
				}
			}
			di := (y*w + x) * 4
			d[di], d[di+1], d[di+2], d[di+3] = Byte(r+bias), Byte(g+bias), Byte(b+bias), 255
		}
	}
	return img
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Package raster holds the RGBA image primitives shared by all texture
// modules: allocation, per-pixel generator/transform/remap loops, 3x3
// convolution, box blur, color conversion and encoding.
package raster

import (
	"image"
	"math"
)

// New allocates an opaque black w x h image.
func New(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// Blank allocates a fully transparent w x h image. The engine stores it for
// nodes whose computation failed.
func Blank(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Clone copies img into a fresh buffer.
func Clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

// Opaque forces every alpha byte of img to 255.
func Opaque(img *image.RGBA) *image.RGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// Byte rounds v to the nearest integer and clamps it into [0,255].
// NaN maps to 0.
func Byte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// Clamp01 clamps v into [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Smoothstep is the cubic Hermite step between edges a and b.
func Smoothstep(a, b, x float64) float64 {
	t := Clamp01((x - a) / (b - a))
	return t * t * (3 - 2*t)
}

// Luma returns the Rec. 601 luminance of an 8-bit RGB triple, in 0..255.
func Luma(r, g, b float64) float64 {
	return r*0.299 + g*0.587 + b*0.114
}

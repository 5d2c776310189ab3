package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Compression names accepted by ParseCompression.
const (
	CompressionDefault = "default"
	CompressionFast    = "fast"
	CompressionBest    = "best"
	CompressionNone    = "none"
)

// ParseCompression maps a compression name to a png level.
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch name {
	case "", CompressionDefault:
		return png.DefaultCompression, nil
	case CompressionFast:
		return png.BestSpeed, nil
	case CompressionBest:
		return png.BestCompression, nil
	case CompressionNone:
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("unknown png compression %q", name)
	}
}

// EncodePNG writes img to w.
func EncodePNG(w io.Writer, img image.Image, level png.CompressionLevel) error {
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PNGBytes encodes img into memory.
func PNGBytes(img image.Image, level png.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, level); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG encodes img into the file at path.
func WritePNG(path string, img image.Image, level png.CompressionLevel) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodePNG(file, img, level); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Thumbnail scales img so its longer side equals size, using Catmull-Rom
// resampling. Images already within size are cloned unchanged.
func Thumbnail(img *image.RGBA, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if size <= 0 || (w <= size && h <= size) {
		return Clone(img)
	}

	tw, th := size, size
	if w > h {
		th = max(1, h*size/w)
	} else {
		tw = max(1, w*size/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

package module

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/texsynth/internal/palette"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

func compute(t *testing.T, id string, w, h int, raw map[string]float64, in Inputs) *image.RGBA {
	t.Helper()
	def, ok := Lookup(id)
	require.True(t, ok, "module %s", id)
	if in == nil {
		in = Inputs{}
	}
	img, err := def.Compute(context.Background(), w, h, def.Resolve(raw), in)
	require.NoError(t, err, "module %s", id)
	require.NotNil(t, img, "module %s", id)
	return img
}

func pixel(img *image.RGBA, x, y int) [4]uint8 {
	i := img.PixOffset(x, y)
	return [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

func gradientInput(w, h int) *image.RGBA {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(x * 255 / max(1, w-1))
			img.Pix[i+1] = uint8(y * 255 / max(1, h-1))
			img.Pix[i+2] = uint8((x + y) * 255 / max(1, w+h-2))
		}
	}
	return img
}

func TestCatalogIDs(t *testing.T) {
	want := map[Category][]string{
		Generator: {"perlin", "simplex", "ridged", "turbulence", "valueNoise", "noise3D", "voronoi", "cells",
			"gabor", "curlNoise", "clouds", "openSimplex", "gradient", "checker", "whiteNoise", "brick",
			"sineWaves", "sdfShapes", "fractal", "dots"},
		Modifier: {"colorMap", "duotone", "levels", "invert", "blend", "twirl", "kaleidoscope", "pixelate",
			"posterize", "threshold", "domainWarp", "mirror", "polarCoords"},
		FX: {"blur", "gaussianBlur", "median", "sharpen", "edgeDetect", "emboss", "filmGrain", "vignette",
			"scanlines", "chromaticSplit"},
		Utility: {"hslAdjust", "normalMap", "channelMath", "channelSelect", "output"},
		Physics: {"reactionDiffusion"},
	}

	listing := Default().Describe()
	require.Len(t, listing, len(Categories))
	total := 0
	for _, l := range listing {
		var ids []string
		for _, d := range l.Modules {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, want[l.Category], ids, "category %s", l.Category)
		total += len(ids)
	}
	assert.Equal(t, total, Default().Len())
}

func TestParamDefsAreConsistent(t *testing.T) {
	for _, d := range Default().All() {
		require.NotNil(t, d.Compute, d.ID)
		require.NotEmpty(t, d.Name, d.ID)
		seen := map[string]bool{}
		for _, pd := range d.Params {
			assert.False(t, seen[pd.ID], "%s: duplicate param %s", d.ID, pd.ID)
			seen[pd.ID] = true
			assert.LessOrEqual(t, pd.Min, pd.Default, "%s.%s", d.ID, pd.ID)
			assert.LessOrEqual(t, pd.Default, pd.Max, "%s.%s", d.ID, pd.ID)
			assert.Positive(t, pd.Step, "%s.%s", d.ID, pd.ID)
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	a := &Def{ID: "x"}
	_, err := NewRegistry(a, &Def{ID: "x"})
	assert.ErrorIs(t, err, ErrDuplicateModule)
}

func TestResolveFillsDefaults(t *testing.T) {
	def, ok := Lookup("perlin")
	require.True(t, ok)

	p := def.Resolve(map[string]float64{"frequency": 9, "bogus": 1})
	assert.Len(t, p, len(def.Params))
	assert.Equal(t, 9.0, p.Float("frequency"))
	assert.Equal(t, 4, p.Int("octaves"))
	assert.Equal(t, int32(42), p.Seed("seed"))
	_, has := p["bogus"]
	assert.False(t, has)
}

func TestResolveClampsToDeclaredRange(t *testing.T) {
	def, ok := Lookup("gabor")
	require.True(t, ok)
	kernels, ok := def.Param("kernels")
	require.True(t, ok)

	p := def.Resolve(map[string]float64{
		"kernels":   200000,
		"frequency": -3,
		"seed":      math.NaN(),
		"spread":    math.Inf(1),
	})
	assert.Equal(t, kernels.Max, p.Float("kernels"))
	freq, _ := def.Param("frequency")
	assert.Equal(t, freq.Min, p.Float("frequency"))
	seed, _ := def.Param("seed")
	assert.Equal(t, seed.Default, p.Float("seed"))
	spread, _ := def.Param("spread")
	assert.Equal(t, spread.Max, p.Float("spread"))
}

func TestEveryModuleProducesOpaqueImages(t *testing.T) {
	const w, h = 12, 9
	src := gradientInput(w, h)
	for _, d := range Default().All() {
		t.Run(d.ID, func(t *testing.T) {
			raw := map[string]float64{}
			if d.ID == "reactionDiffusion" {
				raw["iterations"] = 100
			}

			in := Inputs{}
			for _, slot := range d.Inputs {
				in[slot] = src
			}
			img := compute(t, d.ID, w, h, raw, in)
			assert.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
			for i := 3; i < len(img.Pix); i += 4 {
				require.Equal(t, uint8(255), img.Pix[i])
			}

			again := compute(t, d.ID, w, h, raw, in)
			assert.Equal(t, img.Pix, again.Pix, "deterministic output")

			// unconnected inputs never panic and still yield opaque output
			empty := Inputs{}
			for _, slot := range d.Inputs {
				empty[slot] = nil
			}
			blank := compute(t, d.ID, w, h, raw, empty)
			assert.Equal(t, uint8(255), blank.Pix[3])
		})
	}
}

func TestModulesDoNotMutateInputs(t *testing.T) {
	const w, h = 8, 8
	src := gradientInput(w, h)
	before := append([]uint8(nil), src.Pix...)
	for _, d := range Default().All() {
		if len(d.Inputs) == 0 {
			continue
		}
		in := Inputs{}
		for _, slot := range d.Inputs {
			in[slot] = src
		}
		img := compute(t, d.ID, w, h, nil, in)
		require.Equal(t, before, src.Pix, d.ID)
		if len(img.Pix) > 0 && len(src.Pix) > 0 {
			assert.NotSame(t, &src.Pix[0], &img.Pix[0], d.ID)
		}
	}
}

func TestCheckerEndToEnd(t *testing.T) {
	img := compute(t, "checker", 4, 4, map[string]float64{"scale": 2}, nil)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(0)
			if (x/2+y/2)%2 == 0 {
				want = 255
			}
			assert.Equal(t, [4]uint8{want, want, want, 255}, pixel(img, x, y), "(%d,%d)", x, y)
		}
	}
}

func TestVoronoiZeroJitterCenters(t *testing.T) {
	img := compute(t, "voronoi", 4, 4, map[string]float64{"scale": 2, "jitter": 0}, nil)
	for _, pt := range [][2]int{{1, 1}, {3, 1}, {1, 3}, {3, 3}} {
		assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(img, pt[0], pt[1]))
	}
	// F2-F1 at a center is the full distance to the neighbor center
	edges := compute(t, "voronoi", 4, 4, map[string]float64{"scale": 2, "jitter": 0, "mode": 1}, nil)
	assert.Equal(t, uint8(255), pixel(edges, 1, 1)[0])
}

func TestBlurRadiusZeroIsIdentity(t *testing.T) {
	src := gradientInput(6, 5)
	img := compute(t, "blur", 6, 5, map[string]float64{"radius": 0, "passes": 3}, Inputs{"in": src})
	assert.Equal(t, src.Pix, img.Pix)
}

func TestEdgeDetectBorderIsBlack(t *testing.T) {
	src := gradientInput(6, 6)
	img := compute(t, "edgeDetect", 6, 6, nil, Inputs{"in": src})
	for x := 0; x < 6; x++ {
		assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(img, x, 0))
		assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(img, x, 5))
	}
	assert.NotZero(t, pixel(img, 2, 2)[0])
}

func TestColorMapEndpoints(t *testing.T) {
	src := raster.New(2, 1)
	src.Pix[4] = 255
	// full intensity stays on the last stop; only a shift past 1 wraps back
	// to the start of the ramp
	for i := range palette.Catalog {
		img := compute(t, "colorMap", 2, 1, map[string]float64{"palette": float64(i)}, Inputs{"in": src})
		first, last := palette.Catalog[i].Stops[0], palette.Catalog[i].Stops[len(palette.Catalog[i].Stops)-1]
		assert.Equal(t, [4]uint8{uint8(first[0]), uint8(first[1]), uint8(first[2]), 255}, pixel(img, 0, 0))
		assert.Equal(t, [4]uint8{uint8(last[0]), uint8(last[1]), uint8(last[2]), 255}, pixel(img, 1, 0))
	}

	shifted := compute(t, "colorMap", 2, 1, map[string]float64{"palette": 0, "shift": 0.5}, Inputs{"in": src})
	mid := palette.Catalog[0].Sample(0.5)
	assert.Equal(t, [4]uint8{raster.Byte(mid[0]), raster.Byte(mid[1]), raster.Byte(mid[2]), 255}, pixel(shifted, 0, 0))
	assert.Equal(t, pixel(shifted, 0, 0), pixel(shifted, 1, 0), "1.5 wraps to 0.5")

	// palette indexes past the catalog clamp to the last palette
	a := compute(t, "colorMap", 2, 1, map[string]float64{"palette": float64(len(palette.Catalog) - 1)}, Inputs{"in": src})
	b := compute(t, "colorMap", 2, 1, map[string]float64{"palette": float64(1 + len(palette.Catalog))}, Inputs{"in": src})
	assert.Equal(t, a.Pix, b.Pix)
}

func TestNilInputFallbacks(t *testing.T) {
	black := [4]uint8{0, 0, 0, 255}
	for _, id := range []string{"twirl", "pixelate", "sharpen", "emboss", "blur", "output", "normalMap", "chromaticSplit"} {
		img := compute(t, id, 3, 3, nil, Inputs{"in": nil})
		if id == "emboss" {
			continue
		}
		assert.Equal(t, black, pixel(img, 1, 1), id)
	}
	inv := compute(t, "invert", 2, 2, nil, Inputs{"in": nil})
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, pixel(inv, 0, 0))
}

func TestPassThroughModulesStayOpaque(t *testing.T) {
	// a failed upstream node leaves an all-zero image, alpha included
	failed := raster.Blank(3, 3)
	for _, tt := range []struct {
		id  string
		raw map[string]float64
	}{
		{"output", nil},
		{"blur", map[string]float64{"radius": 0}},
		{"blur", map[string]float64{"radius": 2}},
		{"gaussianBlur", map[string]float64{"sigma": 0}},
	} {
		img := compute(t, tt.id, 3, 3, tt.raw, Inputs{"in": failed})
		for i := 3; i < len(img.Pix); i += 4 {
			require.Equal(t, uint8(255), img.Pix[i], "%s %v", tt.id, tt.raw)
		}
		assert.Equal(t, uint8(0), img.Pix[0], tt.id)
		assert.Equal(t, uint8(0), failed.Pix[3], "%s mutated its input", tt.id)
	}
}

func TestOutputCopiesInput(t *testing.T) {
	src := gradientInput(4, 4)
	img := compute(t, "output", 4, 4, nil, Inputs{"in": src})
	assert.Equal(t, src.Pix, img.Pix)
	img.Pix[0]++
	assert.NotEqual(t, src.Pix[0], img.Pix[0])
}

func TestBlendModes(t *testing.T) {
	a := raster.New(1, 1)
	b := raster.New(1, 1)
	a.Pix[0], b.Pix[0] = 200, 100

	tests := []struct {
		mode float64
		want uint8
	}{
		{0, 150}, // mix at 0.5
		{1, 78},  // multiply: 200*100/255 = 78.43
		{2, 255}, // add, capped
		{3, 222}, // screen: 255 - 55*155/255 = 221.57
		{4, 100}, // difference
	}
	for _, tt := range tests {
		img := compute(t, "blend", 1, 1, map[string]float64{"mode": tt.mode}, Inputs{"a": a, "b": b})
		assert.Equal(t, tt.want, img.Pix[0], "mode %v", tt.mode)
	}
}

func TestReactionDiffusionHonorsCancel(t *testing.T) {
	def, ok := Lookup("reactionDiffusion")
	require.True(t, ok)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := def.Compute(ctx, 8, 8, def.Resolve(nil), Inputs{})
	assert.ErrorIs(t, err, context.Canceled)
}

package noise

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	require.Equal(t, a.perm, b.perm)

	for i := 0; i < 200; i++ {
		x := float64(i)*0.173 - 7.5
		y := float64(i)*0.091 + 3.25
		assert.Equal(t, a.Perlin2D(x, y), b.Perlin2D(x, y))
		assert.Equal(t, a.Simplex2D(x, y), b.Simplex2D(x, y))
		assert.Equal(t, a.Worley2D(x, y, 1), b.Worley2D(x, y, 1))
	}
}

func TestSeed42Reference(t *testing.T) {
	g := New(42)
	want := [16]uint8{171, 89, 160, 239, 69, 236, 146, 9, 13, 183, 140, 197, 21, 15, 232, 83}
	var got [16]uint8
	copy(got[:], g.perm[:16])
	assert.Equal(t, want, got)
	assert.Equal(t, want[0], g.perm[256], "table is doubled")

	assert.InDelta(t, 0.68505336307373577, g.Perlin2D(1.37, 2.71), 1e-15)
}

func TestNewPermutationIsBijective(t *testing.T) {
	for _, seed := range []int32{0, 1, 42, -7, math.MaxInt32, math.MinInt32} {
		g := New(seed)
		seen := make(map[uint8]bool, 256)
		for i := 0; i < 256; i++ {
			seen[g.perm[i]] = true
			assert.Equal(t, g.perm[i], g.perm[i+256], "seed %d index %d", seed, i)
		}
		assert.Len(t, seen, 256, "seed %d", seed)
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	assert.NotEqual(t, New(1).perm, New(2).perm)
}

func TestLCGStaysIn31Bits(t *testing.T) {
	rng := NewLCG(-123456)
	for i := 0; i < 1000; i++ {
		v := rng.Next()
		require.Less(t, v, uint32(0x80000000))
	}
	f := NewLCG(9).Float64()
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 1.0)
}

func TestPerlinVanishesOnLattice(t *testing.T) {
	g := New(7)
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			assert.Zero(t, g.Perlin2D(float64(x), float64(y)))
			assert.Zero(t, g.Perlin3D(float64(x), float64(y), 2))
			assert.Zero(t, g.Perlin4D(float64(x), float64(y), 1, -1))
		}
	}
}

func TestNoiseRanges(t *testing.T) {
	g := New(99)
	for i := 0; i < 2000; i++ {
		x := float64(i%50)*0.37 - 4
		y := float64(i/50)*0.29 - 2
		z := float64(i%7) * 0.41

		assert.InDelta(t, 0, g.Perlin2D(x, y), 1.1)
		assert.InDelta(t, 0, g.Perlin3D(x, y, z), 1.1)
		assert.InDelta(t, 0, g.Perlin4D(x, y, z, 0.3), 2)
		assert.InDelta(t, 0, g.Simplex2D(x, y), 1.1)
		assert.InDelta(t, 0, g.Simplex3D(x, y, z), 1.1)

		v := g.Value2D(x, y)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestFractalSums(t *testing.T) {
	g := New(3)
	o := Octaves{Count: 5, Lacunarity: 2, Persistence: 0.5}
	for i := 0; i < 500; i++ {
		x := float64(i) * 0.057
		y := float64(i) * 0.031

		r := g.Ridged(x, y, o)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)

		tb := g.Turbulence(x, y, o)
		assert.GreaterOrEqual(t, tb, 0.0)
		assert.LessOrEqual(t, tb, 1.0)

		assert.InDelta(t, 0, g.FBM(x, y, o), 1.1)
		assert.InDelta(t, 0, g.SimplexFBM(x, y, o), 1.1)
	}

	// a single octave is the plain noise
	one := Octaves{Count: 1, Lacunarity: 2, Persistence: 0.5}
	assert.Equal(t, g.Perlin2D(1.3, 2.7), g.FBM(1.3, 2.7, one))
	assert.Equal(t, g.FBM(1.3, 2.7, one), g.FBM(1.3, 2.7, Octaves{Count: 0}))
}

func TestWorleyZeroJitterAtCellCenter(t *testing.T) {
	g := New(11)
	c := g.Worley2D(0.5, 0.5, 0)
	assert.Zero(t, c.F1)
	assert.InDelta(t, 1, c.F2, 1e-12)

	c3 := g.Worley3D(2.5, 3.5, 4.5, 0)
	assert.Zero(t, c3.F1)
	assert.InDelta(t, 1, c3.F2, 1e-12)
}

func TestWorleyOrdering(t *testing.T) {
	g := New(5)
	for i := 0; i < 300; i++ {
		x := float64(i) * 0.113
		y := float64(i) * 0.071
		c := g.Worley2D(x, y, 1)
		assert.LessOrEqual(t, c.F1, c.F2)
		assert.Less(t, c.F2, unreached)
	}
}

func TestWorleyTieKeepsFirst(t *testing.T) {
	g := New(5)
	// With zero jitter the point (1, 1) is equidistant from four feature
	// points; the first in scan order is cell (0, 0).
	c := g.Worley2D(1, 1, 0)
	b, h := g.hash2(0, 0)
	assert.Equal(t, int(b)<<8|int(h), c.ID)
	assert.InDelta(t, math.Sqrt(0.5), c.F1, 1e-12)
	assert.InDelta(t, c.F1, c.F2, 1e-12)
}

func TestCurlIsDivergenceFree(t *testing.T) {
	g := New(21)
	const h = 0.01
	for i := 0; i < 50; i++ {
		x := float64(i)*0.19 + 0.05
		y := float64(i)*0.13 + 0.07

		vx1, _ := g.Curl2D(x+h, y)
		vx0, _ := g.Curl2D(x-h, y)
		_, vy1 := g.Curl2D(x, y+h)
		_, vy0 := g.Curl2D(x, y-h)
		div := (vx1-vx0)/(2*h) + (vy1-vy0)/(2*h)
		assert.InDelta(t, 0, div, 0.05)
	}
}

func TestGaborIsDeterministicAndTiles(t *testing.T) {
	cfg := GaborConfig{Seed: 4, Kernels: 64, Frequency: 12, Radius: 0.1, Orientation: 0.7, Spread: 0.3}
	a := NewGabor(cfg)
	b := NewGabor(cfg)
	for i := 0; i < 100; i++ {
		x := float64(i) * 0.0097
		y := float64(i) * 0.0131
		assert.Equal(t, a.At(x, y), b.At(x, y))
		assert.InDelta(t, a.At(x, y), a.At(x+1, y-1), 1e-9)
	}
}

func TestGrayScottSeed(t *testing.T) {
	gs := NewGrayScott(GrayScottConfig{Width: 40, Height: 30})
	b := gs.B()
	assert.Equal(t, 1.0, b[15*40+20])
	assert.Equal(t, 1.0, b[5*40+10])
	assert.Equal(t, 0.0, b[4*40+10])
	assert.Equal(t, 0.0, b[5*40+30])
	for _, v := range gs.A() {
		require.Equal(t, 1.0, v)
	}
}

func TestGrayScottStaysInBounds(t *testing.T) {
	gs := NewGrayScott(GrayScottConfig{
		Width: 32, Height: 32,
		Feed: 0.1, Kill: 0.03, DiffA: 0.25, DiffB: 0.25,
	})
	for it := 0; it < 300; it++ {
		gs.Step()
		for i := range gs.A() {
			require.GreaterOrEqual(t, gs.A()[i], 0.0)
			require.LessOrEqual(t, gs.A()[i], 1.0)
			require.GreaterOrEqual(t, gs.B()[i], 0.0)
			require.LessOrEqual(t, gs.B()[i], 1.0)
		}
	}
}

func TestGrayScottSmallGrid(t *testing.T) {
	gs := NewGrayScott(GrayScottConfig{Width: 4, Height: 4, Feed: 0.055, Kill: 0.062, DiffA: 0.2, DiffB: 0.1})
	for _, v := range gs.B() {
		assert.Equal(t, 1.0, v)
	}
	require.NoError(t, gs.Run(context.Background(), 10))
}

func TestGrayScottRunHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gs := NewGrayScott(GrayScottConfig{Width: 8, Height: 8})
	assert.ErrorIs(t, gs.Run(ctx, 100), context.Canceled)
}

package palette

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleEndpoints(t *testing.T) {
	for _, p := range Catalog {
		require.GreaterOrEqual(t, len(p.Stops), 2, p.Name)
		assert.Equal(t, p.Stops[0], p.Sample(0), p.Name)
		assert.Equal(t, p.Stops[len(p.Stops)-1], p.Sample(1), p.Name)
		assert.Equal(t, p.Stops[0], p.Sample(-4), p.Name)
		assert.Equal(t, p.Stops[len(p.Stops)-1], p.Sample(9), p.Name)
		assert.Equal(t, p.Stops[0], p.Sample(math.NaN()), p.Name)
	}
}

func TestSampleIsConvexCombination(t *testing.T) {
	for _, p := range Catalog {
		n := len(p.Stops) - 1
		for k := 0; k <= 100; k++ {
			tv := float64(k) / 100
			got := p.Sample(tv)

			i := min(int(math.Floor(tv*float64(n))), n-1)
			a, b := p.Stops[i], p.Stops[i+1]
			for c := 0; c < 3; c++ {
				lo, hi := math.Min(a[c], b[c]), math.Max(a[c], b[c])
				assert.GreaterOrEqual(t, got[c], lo-1e-9, "%s t=%v", p.Name, tv)
				assert.LessOrEqual(t, got[c], hi+1e-9, "%s t=%v", p.Name, tv)
			}
		}
	}
}

func TestSampleMidpoint(t *testing.T) {
	mono := At(5)
	require.Equal(t, "Mono", mono.Name)
	assert.Equal(t, RGB{127.5, 127.5, 127.5}, mono.Sample(0.5))
}

func TestAtWraps(t *testing.T) {
	assert.Equal(t, "Fire", At(0).Name)
	assert.Equal(t, "Fire", At(len(Catalog)).Name)
	assert.Equal(t, "Jade", At(-1).Name)
	assert.Equal(t, "Plasma", At(4+3*len(Catalog)).Name)
}

func TestHex(t *testing.T) {
	assert.Equal(t, []string{"#000000", "#ffffff"}, At(5).Hex())
}

func TestBlendLabEndpoints(t *testing.T) {
	a := RGB{255, 0, 0}
	b := RGB{0, 0, 255}
	got := BlendLab(a, b, 0)
	assert.InDelta(t, 255, got[0], 1e-6)
	assert.InDelta(t, 0, got[2], 1e-6)
	got = BlendLab(a, b, 1)
	assert.InDelta(t, 255, got[2], 1e-6)
}

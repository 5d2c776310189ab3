// Package noise implements the seeded noise fields used by the texture modules:
// Perlin, simplex, value, Worley, curl and Gabor noise, fractal sums over them
// and a Gray-Scott reaction-diffusion simulator.
package noise

import "math"

// LCG is the 31-bit linear congruential generator that drives permutation
// shuffles and kernel placement. The same seed always yields the same stream.
type LCG struct {
	state uint32
}

// NewLCG seeds a generator. A seed whose derived state is zero is mapped to 1.
func NewLCG(seed int32) *LCG {
	s := uint32(seed)*16807 + 1
	if s == 0 {
		s = 1
	}
	return &LCG{state: s}
}

// Next advances the generator and returns the new 31-bit state.
func (l *LCG) Next() uint32 {
	l.state = (l.state*48271 + 1) & 0x7fffffff
	return l.state
}

// Float64 returns the next value scaled into [0,1).
func (l *LCG) Float64() float64 {
	return float64(l.Next()) / 0x80000000
}

// Generator holds a seeded permutation table. It is immutable after New and
// safe for concurrent use.
type Generator struct {
	perm [512]uint8
}

// New builds a Generator from seed using a Fisher-Yates shuffle of 0..255.
func New(seed int32) *Generator {
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}

	rng := NewLCG(seed)
	for i := 255; i > 0; i-- {
		j := int(rng.Next() % uint32(i+1))
		p[i], p[j] = p[j], p[i]
	}

	g := &Generator{}
	for i := range g.perm {
		g.perm[i] = p[i&255]
	}
	return g
}

// Perm returns entry i of the doubled permutation table.
func (g *Generator) Perm(i int) int {
	return int(g.perm[i&511])
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

func floor(x float64) (int, float64) {
	f := math.Floor(x)
	return int(f), x - f
}

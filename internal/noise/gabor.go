package noise

import "math"

// GaborConfig parameterizes sparse Gabor convolution noise over the unit
// square. Kernels wrap toroidally so the field tiles.
type GaborConfig struct {
	Seed        int32
	Kernels     int
	Frequency   float64 // cycles per unit
	Radius      float64 // Gaussian envelope radius, in units
	Orientation float64 // radians
	Spread      float64 // 0 keeps every kernel at Orientation, 1 randomizes fully
}

type gaborKernel struct {
	x, y   float64
	weight float64
	cos    float64
	sin    float64
	phase  float64
}

// Gabor is a precomputed kernel set. Evaluate it with At.
type Gabor struct {
	kernels   []gaborKernel
	frequency float64
	invR2     float64
	cutoff    float64
	scale     float64
}

// NewGabor places cfg.Kernels kernels with an LCG seeded from cfg.Seed.
func NewGabor(cfg GaborConfig) *Gabor {
	k := cfg.Kernels
	if k < 1 {
		k = 1
	}
	radius := cfg.Radius
	if radius <= 0 {
		radius = 0.1
	}

	rng := NewLCG(cfg.Seed)
	kernels := make([]gaborKernel, k)
	for i := range kernels {
		theta := cfg.Orientation + (rng.Float64()-0.5)*math.Pi*cfg.Spread
		w := 1.0
		if rng.Float64() < 0.5 {
			w = -1
		}
		kernels[i] = gaborKernel{
			x:      rng.Float64(),
			y:      rng.Float64(),
			weight: w,
			cos:    math.Cos(theta),
			sin:    math.Sin(theta),
			phase:  rng.Float64() * 2 * math.Pi,
		}
	}

	return &Gabor{
		kernels:   kernels,
		frequency: 2 * math.Pi * cfg.Frequency,
		invR2:     math.Pi / (radius * radius),
		cutoff:    3 * radius,
		scale:     1 / math.Sqrt(float64(k)),
	}
}

// At evaluates the field at (x, y) in unit coordinates.
func (g *Gabor) At(x, y float64) float64 {
	sum := 0.0
	for i := range g.kernels {
		kn := &g.kernels[i]
		dx := wrapDelta(x - kn.x)
		dy := wrapDelta(y - kn.y)
		if math.Abs(dx) > g.cutoff || math.Abs(dy) > g.cutoff {
			continue
		}
		envelope := math.Exp(-g.invR2 * (dx*dx + dy*dy))
		sum += kn.weight * envelope * math.Cos(g.frequency*(dx*kn.cos+dy*kn.sin)+kn.phase)
	}
	return sum * g.scale
}

func wrapDelta(d float64) float64 {
	return d - math.Round(d)
}

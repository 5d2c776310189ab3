package noise

import "math"

// Octaves describes a fractal sum: how many layers, and how frequency and
// amplitude change between them.
type Octaves struct {
	Count       int
	Lacunarity  float64
	Persistence float64
}

func (o Octaves) count() int {
	if o.Count < 1 {
		return 1
	}
	return o.Count
}

// FBM sums Perlin octaves, normalized by the total amplitude.
func (g *Generator) FBM(x, y float64, o Octaves) float64 {
	value, amplitude, frequency, maxValue := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < o.count(); i++ {
		value += amplitude * g.Perlin2D(x*frequency, y*frequency)
		maxValue += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}
	return value / maxValue
}

// SimplexFBM is FBM over simplex noise.
func (g *Generator) SimplexFBM(x, y float64, o Octaves) float64 {
	value, amplitude, frequency, maxValue := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < o.count(); i++ {
		value += amplitude * g.Simplex2D(x*frequency, y*frequency)
		maxValue += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}
	return value / maxValue
}

// Ridged sums amp*(1-|n|)^2 over Perlin octaves. The result is in [0,1].
func (g *Generator) Ridged(x, y float64, o Octaves) float64 {
	value, amplitude, frequency, maxValue := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < o.count(); i++ {
		n := 1 - math.Abs(g.Perlin2D(x*frequency, y*frequency))
		value += amplitude * n * n
		maxValue += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}
	return value / maxValue
}

// Turbulence sums amp*|n| over Perlin octaves. The result is in [0,1].
func (g *Generator) Turbulence(x, y float64, o Octaves) float64 {
	value, amplitude, frequency, maxValue := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < o.count(); i++ {
		value += amplitude * math.Abs(g.Perlin2D(x*frequency, y*frequency))
		maxValue += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}
	return value / maxValue
}

// ValueFBM is FBM over value noise. The result is in [0,1].
func (g *Generator) ValueFBM(x, y float64, o Octaves) float64 {
	value, amplitude, frequency, maxValue := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < o.count(); i++ {
		value += amplitude * g.Value2D(x*frequency, y*frequency)
		maxValue += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}
	return value / maxValue
}

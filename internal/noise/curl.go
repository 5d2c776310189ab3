package noise

const curlEpsilon = 0.001

// Curl2D returns the divergence-free field (dn/dy, -dn/dx) of Perlin noise,
// estimated with central differences.
func (g *Generator) Curl2D(x, y float64) (float64, float64) {
	dndx := (g.Perlin2D(x+curlEpsilon, y) - g.Perlin2D(x-curlEpsilon, y)) / (2 * curlEpsilon)
	dndy := (g.Perlin2D(x, y+curlEpsilon) - g.Perlin2D(x, y-curlEpsilon)) / (2 * curlEpsilon)
	return dndy, -dndx
}

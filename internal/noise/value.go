package noise

// Value2D bilinearly interpolates per-lattice scalars. The result is in [0,1].
func (g *Generator) Value2D(x, y float64) float64 {
	xi, xf := floor(x)
	yi, yf := floor(y)

	v00 := g.lattice(xi, yi)
	v10 := g.lattice(xi+1, yi)
	v01 := g.lattice(xi, yi+1)
	v11 := g.lattice(xi+1, yi+1)

	return lerp(lerp(v00, v10, xf), lerp(v01, v11, xf), yf)
}

func (g *Generator) lattice(x, y int) float64 {
	return float64(g.perm[int(g.perm[x&255])+y&255]) / 255
}

package noise

import "math"

var simplexGrad = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

var (
	skew2   = 0.5 * (math.Sqrt(3) - 1)
	unskew2 = (3 - math.Sqrt(3)) / 6
)

const (
	skew3   = 1.0 / 3.0
	unskew3 = 1.0 / 6.0
)

// Simplex2D returns 2D simplex noise at (x, y), roughly in [-1,1].
func (g *Generator) Simplex2D(x, y float64) float64 {
	s := (x + y) * skew2
	i := int(math.Floor(x + s))
	j := int(math.Floor(y + s))

	t := float64(i+j) * unskew2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	x1 := x0 - float64(i1) + unskew2
	y1 := y0 - float64(j1) + unskew2
	x2 := x0 - 1 + 2*unskew2
	y2 := y0 - 1 + 2*unskew2

	ii := i & 255
	jj := j & 255
	p := &g.perm
	gi0 := p[ii+int(p[jj])] % 12
	gi1 := p[ii+i1+int(p[jj+j1])] % 12
	gi2 := p[ii+1+int(p[jj+1])] % 12

	return 70 * (corner2(gi0, x0, y0) + corner2(gi1, x1, y1) + corner2(gi2, x2, y2))
}

func corner2(gi uint8, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	t *= t
	gr := simplexGrad[gi]
	return t * t * (gr[0]*x + gr[1]*y)
}

// Simplex3D returns 3D simplex noise at (x, y, z), roughly in [-1,1].
func (g *Generator) Simplex3D(x, y, z float64) float64 {
	s := (x + y + z) * skew3
	i := int(math.Floor(x + s))
	j := int(math.Floor(y + s))
	k := int(math.Floor(z + s))

	t := float64(i+j+k) * unskew3
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)
	z0 := z - (float64(k) - t)

	var i1, j1, k1, i2, j2, k2 int
	if x0 >= y0 {
		switch {
		case y0 >= z0:
			i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 1, 0
		case x0 >= z0:
			i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 0, 1
		default:
			i1, j1, k1, i2, j2, k2 = 0, 0, 1, 1, 0, 1
		}
	} else {
		switch {
		case y0 < z0:
			i1, j1, k1, i2, j2, k2 = 0, 0, 1, 0, 1, 1
		case x0 < z0:
			i1, j1, k1, i2, j2, k2 = 0, 1, 0, 0, 1, 1
		default:
			i1, j1, k1, i2, j2, k2 = 0, 1, 0, 1, 1, 0
		}
	}

	x1 := x0 - float64(i1) + unskew3
	y1 := y0 - float64(j1) + unskew3
	z1 := z0 - float64(k1) + unskew3
	x2 := x0 - float64(i2) + 2*unskew3
	y2 := y0 - float64(j2) + 2*unskew3
	z2 := z0 - float64(k2) + 2*unskew3
	x3 := x0 - 1 + 3*unskew3
	y3 := y0 - 1 + 3*unskew3
	z3 := z0 - 1 + 3*unskew3

	ii := i & 255
	jj := j & 255
	kk := k & 255
	p := &g.perm
	gi0 := p[ii+int(p[jj+int(p[kk])])] % 12
	gi1 := p[ii+i1+int(p[jj+j1+int(p[kk+k1])])] % 12
	gi2 := p[ii+i2+int(p[jj+j2+int(p[kk+k2])])] % 12
	gi3 := p[ii+1+int(p[jj+1+int(p[kk+1])])] % 12

	return 32 * (corner3(gi0, x0, y0, z0) + corner3(gi1, x1, y1, z1) +
		corner3(gi2, x2, y2, z2) + corner3(gi3, x3, y3, z3))
}

func corner3(gi uint8, x, y, z float64) float64 {
	t := 0.6 - x*x - y*y - z*z
	if t < 0 {
		return 0
	}
	t *= t
	gr := simplexGrad[gi]
	return t * t * (gr[0]*x + gr[1]*y + gr[2]*z)
}

package noise

// Perlin2D returns gradient noise at (x, y), roughly in [-1,1].
func (g *Generator) Perlin2D(x, y float64) float64 {
	xi, xf := floor(x)
	yi, yf := floor(y)
	xi &= 255
	yi &= 255

	u, v := fade(xf), fade(yf)
	p := &g.perm

	aa := p[int(p[xi])+yi]
	ab := p[int(p[xi])+yi+1]
	ba := p[int(p[xi+1])+yi]
	bb := p[int(p[xi+1])+yi+1]

	return lerp(
		lerp(grad2(aa, xf, yf), grad2(ba, xf-1, yf), u),
		lerp(grad2(ab, xf, yf-1), grad2(bb, xf-1, yf-1), u),
		v,
	)
}

func grad2(hash uint8, x, y float64) float64 {
	h := hash & 7
	u, v := y, x
	if h < 4 {
		u, v = x, y
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// Perlin3D returns improved Perlin noise at (x, y, z).
func (g *Generator) Perlin3D(x, y, z float64) float64 {
	xi, xf := floor(x)
	yi, yf := floor(y)
	zi, zf := floor(z)
	xi &= 255
	yi &= 255
	zi &= 255

	u, v, w := fade(xf), fade(yf), fade(zf)
	p := &g.perm

	a := int(p[xi]) + yi
	aa := int(p[a]) + zi
	ab := int(p[a+1]) + zi
	b := int(p[xi+1]) + yi
	ba := int(p[b]) + zi
	bb := int(p[b+1]) + zi

	return lerp(
		lerp(
			lerp(grad3(p[aa], xf, yf, zf), grad3(p[ba], xf-1, yf, zf), u),
			lerp(grad3(p[ab], xf, yf-1, zf), grad3(p[bb], xf-1, yf-1, zf), u),
			v,
		),
		lerp(
			lerp(grad3(p[aa+1], xf, yf, zf-1), grad3(p[ba+1], xf-1, yf, zf-1), u),
			lerp(grad3(p[ab+1], xf, yf-1, zf-1), grad3(p[bb+1], xf-1, yf-1, zf-1), u),
			v,
		),
		w,
	)
}

func grad3(hash uint8, x, y, z float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	v := z
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

var grad4 = [32][4]float64{
	{0, 1, 1, 1}, {0, 1, 1, -1}, {0, 1, -1, 1}, {0, 1, -1, -1},
	{0, -1, 1, 1}, {0, -1, 1, -1}, {0, -1, -1, 1}, {0, -1, -1, -1},
	{1, 0, 1, 1}, {1, 0, 1, -1}, {1, 0, -1, 1}, {1, 0, -1, -1},
	{-1, 0, 1, 1}, {-1, 0, 1, -1}, {-1, 0, -1, 1}, {-1, 0, -1, -1},
	{1, 1, 0, 1}, {1, 1, 0, -1}, {1, -1, 0, 1}, {1, -1, 0, -1},
	{-1, 1, 0, 1}, {-1, 1, 0, -1}, {-1, -1, 0, 1}, {-1, -1, 0, -1},
	{1, 1, 1, 0}, {1, 1, -1, 0}, {1, -1, 1, 0}, {1, -1, -1, 0},
	{-1, 1, 1, 0}, {-1, 1, -1, 0}, {-1, -1, 1, 0}, {-1, -1, -1, 0},
}

// Perlin4D returns gradient noise at (x, y, z, w). Animating w over a 3D
// slice gives a smoothly evolving field.
func (g *Generator) Perlin4D(x, y, z, w float64) float64 {
	xi, xf := floor(x)
	yi, yf := floor(y)
	zi, zf := floor(z)
	wi, wf := floor(w)
	xi &= 255
	yi &= 255
	zi &= 255
	wi &= 255

	p := &g.perm
	offs := [4]float64{xf, yf, zf, wf}

	// corner c has bit 0 for x, bit 1 for y, bit 2 for z, bit 3 for w
	var c [16]float64
	for i := range c {
		dx, dy, dz, dw := i&1, i>>1&1, i>>2&1, i>>3&1
		h := p[int(p[int(p[int(p[xi+dx])+yi+dy])+zi+dz])+wi+dw]
		gr := grad4[h&31]
		c[i] = gr[0]*(offs[0]-float64(dx)) +
			gr[1]*(offs[1]-float64(dy)) +
			gr[2]*(offs[2]-float64(dz)) +
			gr[3]*(offs[3]-float64(dw))
	}

	n := len(c)
	for axis := 0; axis < 4; axis++ {
		t := fade(offs[axis])
		n /= 2
		for i := 0; i < n; i++ {
			c[i] = lerp(c[2*i], c[2*i+1], t)
		}
	}
	return c[0]
}

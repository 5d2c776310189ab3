package noise

import "math"

// Cell is the result of a Worley query: distance to the nearest and second
// nearest feature point, and an identifier of the nearest point's cell.
type Cell struct {
	F1, F2 float64
	ID     int
}

const unreached = 999.0

// Worley2D scans the 3x3 cells around (x, y). jitter in [0,1] scales how far
// feature points move away from cell centers. Ties keep the first minimum in
// scan order (dy, then dx, ascending).
func (g *Generator) Worley2D(x, y, jitter float64) Cell {
	ix := int(math.Floor(x))
	iy := int(math.Floor(y))

	c := Cell{F1: unreached, F2: unreached}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cx, cy := ix+dx, iy+dy
			b, h := g.hash2(cx, cy)
			fx := float64(cx) + 0.5 + (float64(b)/255-0.5)*jitter
			fy := float64(cy) + 0.5 + (float64(h)/255-0.5)*jitter

			ddx, ddy := x-fx, y-fy
			d := math.Sqrt(ddx*ddx + ddy*ddy)
			if d < c.F1 {
				c.F2 = c.F1
				c.F1 = d
				c.ID = int(b)<<8 | int(h)
			} else if d < c.F2 {
				c.F2 = d
			}
		}
	}
	return c
}

func (g *Generator) hash2(x, y int) (uint8, uint8) {
	p := &g.perm
	a := p[x&255]
	b := p[(int(a)+y)&255]
	c := p[(int(b)+x+37)&255]
	return b, c
}

// Worley3D is the 3D analogue of Worley2D, scanning dz, dy, dx ascending.
func (g *Generator) Worley3D(x, y, z, jitter float64) Cell {
	ix := int(math.Floor(x))
	iy := int(math.Floor(y))
	iz := int(math.Floor(z))

	c := Cell{F1: unreached, F2: unreached}
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				cx, cy, cz := ix+dx, iy+dy, iz+dz
				ox, oy, oz := g.hash3(cx, cy, cz)
				fx := float64(cx) + 0.5 + (float64(ox)/255-0.5)*jitter
				fy := float64(cy) + 0.5 + (float64(oy)/255-0.5)*jitter
				fz := float64(cz) + 0.5 + (float64(oz)/255-0.5)*jitter

				ddx, ddy, ddz := x-fx, y-fy, z-fz
				d := math.Sqrt(ddx*ddx + ddy*ddy + ddz*ddz)
				if d < c.F1 {
					c.F2 = c.F1
					c.F1 = d
					c.ID = int(ox)<<16 | int(oy)<<8 | int(oz)
				} else if d < c.F2 {
					c.F2 = d
				}
			}
		}
	}
	return c
}

func (g *Generator) hash3(x, y, z int) (uint8, uint8, uint8) {
	p := &g.perm
	a := p[x&255]
	b := p[(int(a)+y)&255]
	c := p[(int(b)+z)&255]
	ox := p[(int(c)+x+37)&255]
	oy := p[(int(ox)+y+59)&255]
	oz := p[(int(oy)+z+83)&255]
	return ox, oy, oz
}

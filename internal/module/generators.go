package module

import (
	"image"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"github.com/MeKo-Tech/texsynth/internal/noise"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

func fractalParams(freq, octaves, lacunarity, persistence, seed float64) []ParamDef {
	return []ParamDef{
		param("frequency", "Freq", 0.5, 20, freq, 0.1),
		param("octaves", "Oct", 1, 8, octaves, 1),
		param("lacunarity", "Lac", 1, 4, lacunarity, 0.1),
		param("persistence", "Pers", 0, 1, persistence, 0.01),
		param("seed", "Seed", 0, 999, seed, 1),
	}
}

func octaves(p Params) noise.Octaves {
	return noise.Octaves{
		Count:       p.Int("octaves"),
		Lacunarity:  p.Float("lacunarity"),
		Persistence: p.Float("persistence"),
	}
}

func generator(id, name string, params []ParamDef, fn func(w, h int, p Params) *image.RGBA) *Def {
	return &Def{
		ID:       id,
		Name:     name,
		Category: Generator,
		Params:   params,
		Inputs:   noInputs,
		Outputs:  out,
		Compute: pure(func(w, h int, p Params, _ Inputs) *image.RGBA {
			return fn(w, h, p)
		}),
	}
}

func generators() []*Def {
	return []*Def{
		generator("perlin", "Perlin Noise", fractalParams(4, 4, 2, 0.5, 42), perlinNoise),
		generator("simplex", "Simplex Noise", fractalParams(4, 4, 2, 0.5, 17), simplexNoise),
		generator("ridged", "Ridged Noise", fractalParams(3, 5, 2.2, 0.6, 7), ridgedNoise),
		generator("turbulence", "Turbulence",
			append(fractalParams(4, 5, 2, 0.5, 3), param("gain", "Gain", 0.5, 4, 1.5, 0.1)),
			turbulenceNoise),
		generator("valueNoise", "Value Noise", []ParamDef{
			param("frequency", "Freq", 0.5, 40, 8, 0.1),
			param("octaves", "Oct", 1, 8, 3, 1),
			param("lacunarity", "Lac", 1, 4, 2, 0.1),
			param("persistence", "Pers", 0, 1, 0.5, 0.01),
			param("seed", "Seed", 0, 999, 11, 1),
		}, valueNoise),
		generator("noise3D", "Noise Slice", []ParamDef{
			param("frequency", "Freq", 0.5, 20, 4, 0.1),
			param("z", "Z", 0, 10, 0, 0.01),
			param("w", "W", 0, 10, 0, 0.01),
			param("type", "Type", 0, 3, 0, 1),
			param("seed", "Seed", 0, 999, 5, 1),
		}, sliceNoise),
		generator("voronoi", "Voronoi", []ParamDef{
			param("scale", "Scale", 1, 20, 6, 0.1),
			param("jitter", "Jitter", 0, 1, 1, 0.01),
			param("mode", "Mode", 0, 2, 0, 1),
			param("seed", "Seed", 0, 999, 7, 1),
		}, voronoi),
		generator("cells", "Cells", []ParamDef{
			param("scale", "Scale", 1, 20, 6, 0.1),
			param("jitter", "Jitter", 0, 1, 1, 0.01),
			param("mode", "Mode", 0, 2, 0, 1),
			param("border", "Border", 0, 0.3, 0.05, 0.005),
			param("seed", "Seed", 0, 999, 9, 1),
		}, cells),
		generator("gabor", "Gabor Noise", []ParamDef{
			param("kernels", "Kernels", 8, 512, 128, 1),
			param("frequency", "Freq", 1, 64, 16, 0.5),
			param("radius", "Radius", 0.02, 0.3, 0.08, 0.005),
			param("orientation", "Angle", 0, 180, 45, 1),
			param("spread", "Spread", 0, 1, 0.2, 0.01),
			param("gain", "Gain", 0.5, 8, 2, 0.1),
			param("seed", "Seed", 0, 999, 13, 1),
		}, gabor),
		generator("curlNoise", "Curl Noise", []ParamDef{
			param("frequency", "Freq", 0.5, 20, 3, 0.1),
			param("gain", "Gain", 0.05, 1, 0.25, 0.01),
			param("mode", "Mode", 0, 1, 0, 1),
			param("seed", "Seed", 0, 999, 21, 1),
		}, curlNoise),
		generator("clouds", "Clouds", []ParamDef{
			param("frequency", "Freq", 0.5, 20, 4, 0.1),
			param("alpha", "Alpha", 1.1, 4, 2, 0.1),
			param("beta", "Beta", 1.1, 4, 2, 0.1),
			param("octaves", "Oct", 1, 8, 4, 1),
			param("coverage", "Cover", -0.5, 0.5, 0, 0.01),
			param("seed", "Seed", 0, 999, 1, 1),
		}, clouds),
		generator("openSimplex", "OpenSimplex", []ParamDef{
			param("frequency", "Freq", 0.5, 20, 4, 0.1),
			param("octaves", "Oct", 1, 8, 4, 1),
			param("persistence", "Pers", 0, 1, 0.5, 0.01),
			param("seed", "Seed", 0, 999, 23, 1),
		}, openSimplexNoise),
		generator("gradient", "Gradient", []ParamDef{
			param("angle", "Angle", 0, 360, 0, 1),
			param("type", "Type", 0, 2, 0, 1),
			param("repeat", "Repeat", 1, 8, 1, 1),
		}, gradient),
		generator("checker", "Checker", []ParamDef{
			param("scale", "Scale", 1, 32, 8, 1),
			param("softness", "Soft", 0, 0.5, 0, 0.01),
		}, checker),
		generator("whiteNoise", "White Noise", []ParamDef{
			param("seed", "Seed", 0, 999, 0, 1),
			param("scale", "Scale", 1, 256, 1, 1),
		}, whiteNoise),
		generator("brick", "Brick Pattern", []ParamDef{
			param("rows", "Rows", 2, 24, 8, 1),
			param("cols", "Cols", 1, 12, 4, 1),
			param("gap", "Gap", 0.005, 0.1, 0.02, 0.005),
			param("bevel", "Bevel", 0, 0.1, 0, 0.005),
		}, brick),
		generator("sineWaves", "Sine Waves", []ParamDef{
			param("freqX", "FreqX", 0.5, 30, 5, 0.1),
			param("freqY", "FreqY", 0.5, 30, 5, 0.1),
			param("phase", "Phase", 0, 6.28, 0, 0.01),
			param("mode", "Mode", 0, 2, 0, 1),
		}, sineWaves),
		generator("sdfShapes", "SDF Shapes", []ParamDef{
			param("shape", "Shape", 0, 4, 0, 1),
			param("size", "Size", 0.05, 0.8, 0.3, 0.01),
			param("smooth", "Smooth", 0.001, 0.2, 0.02, 0.001),
			param("repeat", "Repeat", 1, 8, 1, 1),
		}, sdfShapes),
		generator("fractal", "Fractal", []ParamDef{
			param("zoom", "Zoom", 0.1, 50, 1, 0.1),
			param("centerX", "Pan X", -2, 2, -0.5, 0.01),
			param("centerY", "Pan Y", -2, 2, 0, 0.01),
			param("iterations", "Iter", 10, 200, 50, 1),
		}, mandelbrot),
		generator("dots", "Dots Grid", []ParamDef{
			param("count", "Count", 2, 30, 10, 1),
			param("size", "Size", 0.05, 0.9, 0.4, 0.01),
			param("softness", "Soft", 0, 0.3, 0.05, 0.01),
		}, dots),
	}
}

func perlinNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, o := p.Float("frequency"), octaves(p)
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return n.FBM(nx*freq, ny*freq, o)*0.5 + 0.5
	})
}

func simplexNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, o := p.Float("frequency"), octaves(p)
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return n.SimplexFBM(nx*freq, ny*freq, o)*0.5 + 0.5
	})
}

func ridgedNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, o := p.Float("frequency"), octaves(p)
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return n.Ridged(nx*freq, ny*freq, o)
	})
}

func turbulenceNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, o, gain := p.Float("frequency"), octaves(p), p.Float("gain")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return n.Turbulence(nx*freq, ny*freq, o) * gain
	})
}

func valueNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, o := p.Float("frequency"), octaves(p)
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return n.ValueFBM(nx*freq, ny*freq, o)
	})
}

// sliceNoise samples a 2D slice of a higher-dimensional field. type selects
// Perlin 3D, Perlin 4D, simplex 3D or Worley 3D distance.
func sliceNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, z, wd := p.Float("frequency"), p.Float("z"), p.Float("w")
	var field func(x, y float64) float64
	switch p.Int("type") {
	case 1:
		field = func(x, y float64) float64 { return n.Perlin4D(x, y, z, wd)*0.5 + 0.5 }
	case 2:
		field = func(x, y float64) float64 { return n.Simplex3D(x, y, z)*0.5 + 0.5 }
	case 3:
		field = func(x, y float64) float64 { return n.Worley3D(x, y, z, 1).F1 }
	default:
		field = func(x, y float64) float64 { return n.Perlin3D(x, y, z)*0.5 + 0.5 }
	}
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return field(nx*freq, ny*freq)
	})
}

func voronoi(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	scale, jitter, mode := p.Float("scale"), p.Float("jitter"), p.Int("mode")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		c := n.Worley2D(nx*scale, ny*scale, jitter)
		switch mode {
		case 0:
			return c.F1
		case 1:
			return c.F2 - c.F1
		default:
			return c.F2
		}
	})
}

// cells fills each Worley cell with a flat color (mode 0), a flat gray
// (mode 1) or a gray darkened towards cell borders (mode 2).
func cells(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	scale, jitter := p.Float("scale"), p.Float("jitter")
	mode, border := p.Int("mode"), p.Float("border")
	return raster.GenerateRGB(w, h, func(nx, ny float64) (float64, float64, float64) {
		c := n.Worley2D(nx*scale, ny*scale, jitter)
		hi, lo := c.ID>>8&255, c.ID&255
		gray := float64(hi ^ lo)
		switch mode {
		case 0:
			return float64(hi), float64(lo), float64((hi + 3*lo) & 255)
		case 1:
			return gray, gray, gray
		default:
			v := gray
			if border > 0 {
				v *= raster.Smoothstep(0, border, c.F2-c.F1)
			}
			return v, v, v
		}
	})
}

func gabor(w, h int, p Params) *image.RGBA {
	g := noise.NewGabor(noise.GaborConfig{
		Seed:        p.Seed("seed"),
		Kernels:     p.Int("kernels"),
		Frequency:   p.Float("frequency"),
		Radius:      p.Float("radius"),
		Orientation: p.Radians("orientation"),
		Spread:      p.Float("spread"),
	})
	gain := p.Float("gain")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return 0.5 + 0.5*gain*g.At(nx, ny)
	})
}

// curlNoise encodes the flow vector in red and green (mode 0) or its
// magnitude as gray (mode 1).
func curlNoise(w, h int, p Params) *image.RGBA {
	n := noise.New(p.Seed("seed"))
	freq, gain, mode := p.Float("frequency"), p.Float("gain"), p.Int("mode")
	return raster.GenerateRGB(w, h, func(nx, ny float64) (float64, float64, float64) {
		vx, vy := n.Curl2D(nx*freq, ny*freq)
		if mode == 1 {
			m := math.Hypot(vx, vy) * gain * 255
			return m, m, m
		}
		return (0.5 + vx*gain) * 255, (0.5 + vy*gain) * 255, 128
	})
}

func clouds(w, h int, p Params) *image.RGBA {
	gen := perlin.NewPerlin(p.Float("alpha"), p.Float("beta"), int32(max(1, p.Int("octaves"))), int64(p.Seed("seed")))
	freq, coverage := p.Float("frequency"), p.Float("coverage")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		return gen.Noise2D(nx*freq, ny*freq)*0.5 + 0.5 + coverage
	})
}

func openSimplexNoise(w, h int, p Params) *image.RGBA {
	n := opensimplex.New(int64(p.Seed("seed")))
	freq, count, pers := p.Float("frequency"), max(1, p.Int("octaves")), p.Float("persistence")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		total, frequency, amplitude, maxValue := 0.0, freq, 1.0, 0.0
		for i := 0; i < count; i++ {
			total += n.Eval2(nx*frequency, ny*frequency) * amplitude
			maxValue += amplitude
			amplitude *= pers
			frequency *= 2
		}
		return total/maxValue*0.5 + 0.5
	})
}

func gradient(w, h int, p Params) *image.RGBA {
	angle, kind, repeat := p.Radians("angle"), p.Int("type"), float64(p.Int("repeat"))
	cos, sin := math.Cos(angle), math.Sin(angle)
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		var t float64
		switch kind {
		case 0:
			t = (nx*cos+ny*sin)*0.5 + 0.5
		case 1:
			dx, dy := nx-0.5, ny-0.5
			t = 1 - math.Min(1, math.Sqrt(dx*dx+dy*dy)*2)
		default:
			t = (math.Atan2(ny-0.5, nx-0.5)/math.Pi + 1) * 0.5
		}
		return math.Mod(t*repeat, 1)
	})
}

func checker(w, h int, p Params) *image.RGBA {
	scale, soft := float64(p.Int("scale")), p.Float("softness")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		if soft > 0 {
			sx := math.Sin(nx*scale*math.Pi)*0.5 + 0.5
			sy := math.Sin(ny*scale*math.Pi)*0.5 + 0.5
			return raster.Smoothstep(0.5-soft, 0.5+soft, sx*sy+(1-sx)*(1-sy))
		}
		cx := int(math.Floor(nx * scale))
		cy := int(math.Floor(ny * scale))
		if (cx+cy)%2 == 0 {
			return 1
		}
		return 0
	})
}

func whiteNoise(w, h int, p Params) *image.RGBA {
	seed, scale := p.Float("seed"), float64(max(1, p.Int("scale")))
	fw, fh := float64(w), float64(h)
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		sx := math.Floor(nx * fw / scale)
		sy := math.Floor(ny * fh / scale)
		return fract(math.Sin(sx*12.9898+sy*78.233+seed*43.12) * 43758.5453)
	})
}

func fract(v float64) float64 { return v - math.Floor(v) }

func brick(w, h int, p Params) *image.RGBA {
	rows, cols := float64(p.Int("rows")), float64(p.Int("cols"))
	gap, bevel := p.Float("gap"), p.Float("bevel")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		row := int(math.Floor(ny * rows))
		offset := 0.0
		if row%2 == 1 {
			offset = 0.5 / cols
		}
		bx := math.Mod((nx+offset)*cols, 1)
		by := math.Mod(ny*rows, 1)
		if bx < gap*cols || by < gap*rows {
			return 0.15
		}
		if bevel > 0 {
			edgeX := math.Min(bx, 1-bx) / (gap*cols + bevel)
			edgeY := math.Min(by, 1-by) / (gap*rows + bevel)
			return math.Min(edgeX, edgeY)
		}
		return 1
	})
}

func sineWaves(w, h int, p Params) *image.RGBA {
	fx, fy, ph, mode := p.Float("freqX"), p.Float("freqY"), p.Float("phase"), p.Int("mode")
	const tau = 2 * math.Pi
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		switch mode {
		case 0:
			return math.Sin(nx*fx*tau+ph)*math.Sin(ny*fy*tau+ph)*0.5 + 0.5
		case 1:
			return (math.Sin(nx*fx*tau+ph)+math.Sin(ny*fy*tau+ph))*0.25 + 0.5
		default:
			return math.Sin((nx*fx+ny*fy)*tau+ph)*0.5 + 0.5
		}
	})
}

// sdfShapes draws circle, box, ring, cross or star signed distance fields,
// optionally repeated on a grid.
func sdfShapes(w, h int, p Params) *image.RGBA {
	shape, size, sm := p.Int("shape"), p.Float("size"), p.Float("smooth")
	rep := float64(p.Int("repeat"))
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		px := math.Mod(nx*rep, 1) - 0.5
		py := math.Mod(ny*rep, 1) - 0.5
		var dist float64
		switch shape {
		case 0:
			dist = math.Hypot(px, py) - size
		case 1:
			dx, dy := math.Abs(px)-size, math.Abs(py)-size
			dist = math.Hypot(math.Max(dx, 0), math.Max(dy, 0)) + math.Min(math.Max(dx, dy), 0)
		case 2:
			dist = math.Abs(math.Hypot(px, py)-size) - size*0.15
		case 3:
			ax, ay := math.Abs(px), math.Abs(py)
			dist = math.Max(math.Min(ax, ay)-size*0.12, math.Max(ax, ay)-size)
		default:
			a := math.Atan2(py, px)
			star := size * (0.5 + 0.5*math.Cos(a*5))
			dist = math.Hypot(px, py) - star
		}
		return 1 - raster.Smoothstep(-sm, sm, dist)
	})
}

func mandelbrot(w, h int, p Params) *image.RGBA {
	zoom, cx, cy := p.Float("zoom"), p.Float("centerX"), p.Float("centerY")
	maxIter := p.Int("iterations")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		cr := (nx-0.5)/zoom + cx
		ci := (ny-0.5)/zoom + cy
		x, y := 0.0, 0.0
		for i := 0; i < maxIter; i++ {
			x, y = x*x-y*y+cr, 2*x*y+ci
			if x*x+y*y > 4 {
				return float64(i) / float64(maxIter)
			}
		}
		return 0
	})
}

func dots(w, h int, p Params) *image.RGBA {
	count, size, soft := float64(p.Int("count")), p.Float("size"), p.Float("softness")
	return raster.Generate(w, h, func(nx, ny float64) float64 {
		cx := math.Mod(nx*count, 1) - 0.5
		cy := math.Mod(ny*count, 1) - 0.5
		return 1 - raster.Smoothstep(size*0.5-soft, size*0.5+soft, math.Hypot(cx, cy))
	})
}

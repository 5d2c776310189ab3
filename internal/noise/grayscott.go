package noise

import "context"

// GrayScottConfig holds the reaction-diffusion rates. DiffA and DiffB above
// 0.25 make the explicit 4-neighbor update unstable.
type GrayScottConfig struct {
	Width, Height int
	Feed, Kill    float64
	DiffA, DiffB  float64
}

// GrayScott is a double-buffered Gray-Scott simulation on a toroidal grid.
type GrayScott struct {
	cfg          GrayScottConfig
	a, b         []float64
	nextA, nextB []float64
}

const seedSquare = 20

// NewGrayScott fills A with 1 and B with 0, except a centered 20x20 square
// where B is 1.
func NewGrayScott(cfg GrayScottConfig) *GrayScott {
	n := cfg.Width * cfg.Height
	gs := &GrayScott{
		cfg:   cfg,
		a:     make([]float64, n),
		b:     make([]float64, n),
		nextA: make([]float64, n),
		nextB: make([]float64, n),
	}
	for i := range gs.a {
		gs.a[i] = 1
	}

	x0 := cfg.Width/2 - seedSquare/2
	y0 := cfg.Height/2 - seedSquare/2
	for y := max(y0, 0); y < min(y0+seedSquare, cfg.Height); y++ {
		for x := max(x0, 0); x < min(x0+seedSquare, cfg.Width); x++ {
			gs.b[y*cfg.Width+x] = 1
		}
	}
	return gs
}

// Step advances the simulation by one iteration.
func (gs *GrayScott) Step() {
	w, h := gs.cfg.Width, gs.cfg.Height
	feed, kill := gs.cfg.Feed, gs.cfg.Kill
	da, db := gs.cfg.DiffA, gs.cfg.DiffB
	a, b := gs.a, gs.b

	for y := 0; y < h; y++ {
		up := ((y - 1 + h) % h) * w
		down := ((y + 1) % h) * w
		row := y * w
		for x := 0; x < w; x++ {
			left := (x - 1 + w) % w
			right := (x + 1) % w
			i := row + x

			av, bv := a[i], b[i]
			lapA := a[up+x] + a[down+x] + a[row+left] + a[row+right] - 4*av
			lapB := b[up+x] + b[down+x] + b[row+left] + b[row+right] - 4*bv
			abb := av * bv * bv

			gs.nextA[i] = clamp01(av + da*lapA - abb + feed*(1-av))
			gs.nextB[i] = clamp01(bv + db*lapB + abb - (kill+feed)*bv)
		}
	}

	gs.a, gs.nextA = gs.nextA, gs.a
	gs.b, gs.nextB = gs.nextB, gs.b
}

// Run performs n iterations, checking ctx between them.
func (gs *GrayScott) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if i%32 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		gs.Step()
	}
	return nil
}

// A returns the current A concentration grid, row-major.
func (gs *GrayScott) A() []float64 { return gs.a }

// B returns the current B concentration grid, row-major.
func (gs *GrayScott) B() []float64 { return gs.b }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package module defines the texture operator contract and the static catalog
// of generators, modifiers, effects, utilities and simulations.
package module

import (
	"context"
	"image"
	"math"
)

// Category groups modules for listings.
type Category string

const (
	Generator Category = "generator"
	Modifier  Category = "modifier"
	FX        Category = "fx"
	Utility   Category = "utility"
	Physics   Category = "physics"
)

// Categories lists every category in display order.
var Categories = []Category{Generator, Modifier, FX, Utility, Physics}

// ParamDef declares one numeric parameter with its range and default.
type ParamDef struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

func param(id, label string, lo, hi, def, step float64) ParamDef {
	return ParamDef{ID: id, Label: label, Min: lo, Max: hi, Default: def, Step: step}
}

// Params holds resolved parameter values, one per declared ParamDef.
type Params map[string]float64

// Float returns the raw value of id.
func (p Params) Float(id string) float64 { return p[id] }

// Int rounds the value of id to the nearest integer.
func (p Params) Int(id string) int { return int(math.Round(p[id])) }

// Bool reports whether the value of id is above one half.
func (p Params) Bool(id string) bool { return p[id] > 0.5 }

// Seed rounds the value of id and truncates it to 32 bits.
func (p Params) Seed(id string) int32 { return int32(int64(math.Round(p[id]))) }

// Radians reads id as degrees.
func (p Params) Radians(id string) float64 { return p[id] * math.Pi / 180 }

// Inputs maps each declared input slot to its upstream image, or nil when the
// slot is unconnected.
type Inputs map[string]*image.RGBA

// ComputeFunc produces a w x h opaque image. It must not retain or mutate
// its inputs.
type ComputeFunc func(ctx context.Context, w, h int, p Params, in Inputs) (*image.RGBA, error)

// Def describes a module: its identity, parameters, slots and computation.
type Def struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Category Category    `json:"category"`
	Params   []ParamDef  `json:"params"`
	Inputs   []string    `json:"inputs"`
	Outputs  []string    `json:"outputs"`
	Compute  ComputeFunc `json:"-"`
}

// Resolve returns one value per declared parameter, taking it from raw when
// present and from the declared default otherwise. Values are clamped into
// [Min, Max] and NaN falls back to the default. Unknown keys in raw are
// ignored.
func (d *Def) Resolve(raw map[string]float64) Params {
	p := make(Params, len(d.Params))
	for _, pd := range d.Params {
		v, ok := raw[pd.ID]
		if !ok || math.IsNaN(v) {
			v = pd.Default
		}
		p[pd.ID] = min(max(v, pd.Min), pd.Max)
	}
	return p
}

// Param looks up a declared parameter by id.
func (d *Def) Param(id string) (ParamDef, bool) {
	for _, pd := range d.Params {
		if pd.ID == id {
			return pd, true
		}
	}
	return ParamDef{}, false
}

func pure(fn func(w, h int, p Params, in Inputs) *image.RGBA) ComputeFunc {
	return func(_ context.Context, w, h int, p Params, in Inputs) (*image.RGBA, error) {
		return fn(w, h, p, in), nil
	}
}

var (
	noInputs = []string{}
	single   = []string{"in"}
	out      = []string{"out"}
)

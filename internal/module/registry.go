package module

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateModule is returned when two definitions share an id.
var ErrDuplicateModule = errors.New("duplicate module id")

// Registry is an immutable catalog of module definitions keyed by id.
type Registry struct {
	defs  map[string]*Def
	order []*Def
}

// NewRegistry indexes defs in the given order.
func NewRegistry(defs ...*Def) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Def, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, d.ID)
		}
		r.defs[d.ID] = d
		r.order = append(r.order, d)
	}
	return r, nil
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every definition in catalog order.
func (r *Registry) All() []*Def {
	return append([]*Def(nil), r.order...)
}

// Len reports the number of definitions.
func (r *Registry) Len() int { return len(r.order) }

// Listing is one category of the catalog description.
type Listing struct {
	Category Category `json:"category"`
	Modules  []*Def   `json:"modules"`
}

// Describe groups the catalog by category for UIs and CLI listings.
func (r *Registry) Describe() []Listing {
	var out []Listing
	for _, c := range Categories {
		l := Listing{Category: c}
		for _, d := range r.order {
			if d.Category == c {
				l.Modules = append(l.Modules, d)
			}
		}
		if len(l.Modules) > 0 {
			out = append(out, l)
		}
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in catalog. It is built once and never mutated.
func Default() *Registry {
	defaultOnce.Do(func() {
		var defs []*Def
		defs = append(defs, generators()...)
		defs = append(defs, modifiers()...)
		defs = append(defs, effects()...)
		defs = append(defs, utilities()...)
		defs = append(defs, simulations()...)

		reg, err := NewRegistry(defs...)
		if err != nil {
			panic(err)
		}
		defaultReg = reg
	})
	return defaultReg
}

// Lookup resolves id in the default catalog.
func Lookup(id string) (*Def, bool) {
	return Default().Lookup(id)
}

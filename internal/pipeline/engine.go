// Package pipeline evaluates texture graphs: it orders nodes topologically,
// feeds each module its upstream images and collects one image per node.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/module"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

var (
	// ErrInvalidSize is returned for non-positive output dimensions.
	ErrInvalidSize = errors.New("width and height must be positive")

	// ErrComputePanic wraps a panic recovered from a module's compute function.
	ErrComputePanic = errors.New("module compute panicked")

	// ErrNilImage is recorded when a module returns no image and no error.
	ErrNilImage = errors.New("module returned no image")

	// ErrBadBounds is recorded when a module returns an image of the wrong size.
	ErrBadBounds = errors.New("module returned an image of the wrong size")
)

// Catalog resolves module ids to definitions. *module.Registry satisfies it.
type Catalog interface {
	Lookup(id string) (*module.Def, bool)
}

// Result is the outcome of one evaluation.
type Result struct {
	// Images holds one image per evaluated node, including failed ones.
	Images map[string]*image.RGBA
	// Order lists node ids in evaluation order.
	Order []string
	// Skipped lists nodes naming an unknown module.
	Skipped []string
	// Cyclic lists nodes that are part of, or downstream of, a cycle.
	Cyclic []string
	// Dropped lists edges whose source or target node does not exist. Their
	// targets are evaluated with the slot unconnected.
	Dropped []graph.Edge
	// Failed maps node ids to the error their compute function produced.
	Failed map[string]error
	// Err is set when the evaluation was aborted. Images are incomplete then.
	Err error
}

// Image returns the image computed for a node.
func (r *Result) Image(id string) (*image.RGBA, bool) {
	img, ok := r.Images[id]
	return img, ok && img != nil
}

// Engine evaluates graphs against a module catalog.
type Engine struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewEngine creates an engine. A nil catalog selects the built-in registry.
func NewEngine(catalog Catalog, logger *slog.Logger) *Engine {
	if catalog == nil {
		catalog = module.Default()
	}
	return &Engine{catalog: catalog, logger: logger}
}

type source struct {
	node   string
	handle string
}

// Evaluate computes every reachable node of g at width x height. It never
// panics; module failures are isolated to their node.
func (e *Engine) Evaluate(ctx context.Context, g graph.Graph, width, height int) *Result {
	res := &Result{
		Images: make(map[string]*image.RGBA, len(g.Nodes)),
		Failed: make(map[string]error),
	}
	if width <= 0 || height <= 0 {
		res.Err = fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
		return res
	}

	nodes, ids := indexNodes(g.Nodes)
	edges, dropped := e.liveEdges(g.Edges, nodes)
	res.Dropped = dropped

	inputs := make(map[string]map[string]source, len(nodes))
	for _, ed := range edges {
		slots, ok := inputs[ed.Target]
		if !ok {
			slots = make(map[string]source)
			inputs[ed.Target] = slots
		}
		slots[ed.TargetSlot()] = source{node: ed.Source, handle: ed.SourceSlot()}
	}

	res.Order, res.Cyclic = sortIDs(ids, edges)
	if len(res.Cyclic) > 0 {
		e.log().Warn("Nodes on or behind a cycle were not evaluated", "nodes", res.Cyclic)
	}

	for _, id := range res.Order {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		node := nodes[id]
		def, ok := e.catalog.Lookup(node.Module)
		if !ok {
			e.log().Warn("Skipping node with unknown module", "node", id, "module", node.Module)
			res.Skipped = append(res.Skipped, id)
			continue
		}

		in := make(module.Inputs, len(def.Inputs))
		for _, slot := range def.Inputs {
			var img *image.RGBA
			if src, ok := inputs[id][slot]; ok {
				img = res.Images[src.node]
			}
			in[slot] = img
		}

		start := time.Now()
		img, err := compute(ctx, def, def.Resolve(node.Params), width, height, in)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.Err = ctxErr
				return res
			}
			e.log().Warn("Module failed; substituting blank image", "node", id, "module", node.Module, "error", err)
			res.Failed[id] = err
			img = raster.Blank(width, height)
		}
		res.Images[id] = img
		e.log().Debug("Evaluated node", "node", id, "module", node.Module, "duration", time.Since(start))
	}

	// a module that ignores ctx can overrun the deadline on the last node
	if err := ctx.Err(); err != nil {
		res.Err = err
	}
	return res
}

func compute(ctx context.Context, def *module.Def, p module.Params, w, h int, in module.Inputs) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("%w: %v", ErrComputePanic, r)
		}
	}()

	img, err = def.Compute(ctx, w, h, p, in)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrNilImage
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrBadBounds, b.Dx(), b.Dy(), w, h)
	}
	return img, nil
}

// indexNodes maps ids to nodes, keeping the first declaration of a duplicated
// id, and returns the ids in declaration order.
func indexNodes(list []graph.Node) (map[string]graph.Node, []string) {
	nodes := make(map[string]graph.Node, len(list))
	ids := make([]string, 0, len(list))
	for _, n := range list {
		if _, dup := nodes[n.ID]; dup {
			continue
		}
		nodes[n.ID] = n
		ids = append(ids, n.ID)
	}
	return nodes, ids
}

func (e *Engine) liveEdges(edges []graph.Edge, nodes map[string]graph.Node) (live, dropped []graph.Edge) {
	live = make([]graph.Edge, 0, len(edges))
	for _, ed := range edges {
		_, srcOK := nodes[ed.Source]
		_, dstOK := nodes[ed.Target]
		if !srcOK || !dstOK {
			e.log().Debug("Dropping dangling edge", "source", ed.Source, "target", ed.Target)
			dropped = append(dropped, ed)
			continue
		}
		live = append(live, ed)
	}
	return live, dropped
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// FindOutput returns the first node of module type "output".
func FindOutput(g graph.Graph) (graph.Node, bool) {
	for _, n := range g.Nodes {
		if n.Module == module.OutputID {
			return n, true
		}
	}
	return graph.Node{}, false
}

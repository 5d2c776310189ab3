// Package graph describes texture graphs: nodes naming a module with its
// parameters, and edges wiring an output slot of one node to an input slot
// of another.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Default slot names used when an edge leaves a handle empty.
const (
	DefaultSourceHandle = "out"
	DefaultTargetHandle = "in"
)

var (
	// ErrEmptyNodeID is reported for nodes without an id.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNode is reported when two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is reported for edges whose source does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is reported for edges whose target does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownModule is reported for nodes naming a module the catalog
	// does not know.
	ErrUnknownModule = errors.New("unknown module")

	// ErrUnsafeName is reported for graph names and node ids that cannot be
	// used as file names: they contain a path separator or "..".
	ErrUnsafeName = errors.New("name is not a plain file name")
)

// Node is one operator instance.
type Node struct {
	ID     string             `json:"id" yaml:"id" toml:"id"`
	Module string             `json:"module" yaml:"module" toml:"module"`
	Label  string             `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Edge connects Source's SourceHandle output to Target's TargetHandle input.
type Edge struct {
	Source       string `json:"source" yaml:"source" toml:"source"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty" toml:"sourceHandle,omitempty"`
	Target       string `json:"target" yaml:"target" toml:"target"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty" toml:"targetHandle,omitempty"`
}

// SourceSlot returns SourceHandle or "out" when empty.
func (e Edge) SourceSlot() string {
	if e.SourceHandle == "" {
		return DefaultSourceHandle
	}
	return e.SourceHandle
}

// TargetSlot returns TargetHandle or "in" when empty.
func (e Edge) TargetSlot() string {
	if e.TargetHandle == "" {
		return DefaultTargetHandle
	}
	return e.TargetHandle
}

// Graph is a texture graph plus optional render defaults. Width and Height
// are hints for tools; evaluation takes its size explicitly.
type Graph struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	Nodes  []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges  []Edge `json:"edges" yaml:"edges" toml:"edges"`
}

// Node returns the first node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate reports structural problems: empty or duplicate node ids, edges
// pointing at missing nodes, and, when known is non-nil, nodes whose module
// known rejects. All problems are joined into one error.
func (g Graph) Validate(known func(module string) bool) error {
	var errs []error
	if err := CheckFileName(g.Name); err != nil {
		errs = append(errs, fmt.Errorf("graph name: %w", err))
	}
	ids := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, fmt.Errorf("node %d: %w", i, ErrEmptyNodeID))
		case ids[n.ID]:
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID))
		}
		if err := CheckFileName(n.ID); err != nil {
			errs = append(errs, fmt.Errorf("node %d: %w", i, err))
		}
		ids[n.ID] = true
		if known != nil && !known(n.Module) {
			errs = append(errs, fmt.Errorf("node %s: %w %q", n.ID, ErrUnknownModule, n.Module))
		}
	}
	for _, e := range g.Edges {
		if !ids[e.Source] {
			errs = append(errs, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, ErrUnknownSourceNode))
		}
		if !ids[e.Target] {
			errs = append(errs, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, ErrUnknownTargetNode))
		}
	}
	return errors.Join(errs...)
}

// CheckFileName reports ErrUnsafeName when name would escape the directory
// it is joined to. Graph names and node ids become file names on render.
func CheckFileName(name string) error {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}

// Hash identifies the graph's nodes and edges. Name and size hints do not
// contribute. Parameter maps are hashed with sorted keys.
func (g Graph) Hash() string {
	data, err := json.Marshal(struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{g.Nodes, g.Edges})
	if err != nil {
		// float64 NaN or Inf params cannot be marshaled
		data = []byte(fmt.Sprintf("%#v", g))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Package assets embeds the example texture graphs shipped with texsynth.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/MeKo-Tech/texsynth/internal/graph"
)

// GraphsFS holds the example graphs.
//
// NOTE: go:embed patterns must not use ".." and must be relative to this file.
//
//go:embed graphs/*.yaml graphs/*.toml
var GraphsFS embed.FS

// ExampleNames lists the embedded graphs by name, sorted.
func ExampleNames() []string {
	entries, err := fs.ReadDir(GraphsFS, "graphs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Example decodes the embedded graph with the given name.
func Example(name string) (graph.Graph, error) {
	entries, err := fs.ReadDir(GraphsFS, "graphs")
	if err != nil {
		return graph.Graph{}, err
	}
	for _, e := range entries {
		if strings.TrimSuffix(e.Name(), path.Ext(e.Name())) != name {
			continue
		}
		format, err := graph.FormatFromPath(e.Name())
		if err != nil {
			return graph.Graph{}, err
		}
		data, err := fs.ReadFile(GraphsFS, path.Join("graphs", e.Name()))
		if err != nil {
			return graph.Graph{}, err
		}
		g, err := graph.Unmarshal(data, format)
		if err != nil {
			return graph.Graph{}, fmt.Errorf("example %s: %w", name, err)
		}
		if g.Name == "" {
			g.Name = name
		}
		return g, nil
	}
	return graph.Graph{}, fmt.Errorf("unknown example graph %q", name)
}

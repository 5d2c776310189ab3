package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFormatsAgree(t *testing.T) {
	yamlGraph, err := Load("testdata/crystal.yaml")
	require.NoError(t, err)
	jsonGraph, err := Load("testdata/crystal.json")
	require.NoError(t, err)
	tomlGraph, err := Load("testdata/crystal.toml")
	require.NoError(t, err)

	assert.Equal(t, yamlGraph, jsonGraph)
	assert.Equal(t, yamlGraph, tomlGraph)

	assert.Equal(t, "crystal", yamlGraph.Name)
	assert.Equal(t, 128, yamlGraph.Width)
	require.Len(t, yamlGraph.Nodes, 5)
	require.Len(t, yamlGraph.Edges, 5)
	assert.Equal(t, 0.9, yamlGraph.Nodes[0].Params["jitter"])
	assert.Nil(t, yamlGraph.Nodes[4].Params)
	assert.NoError(t, yamlGraph.Validate(nil))
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load("testdata/crystal.xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestMarshalRoundTrip(t *testing.T) {
	g, err := Load("testdata/crystal.yaml")
	require.NoError(t, err)
	for _, f := range []Format{FormatYAML, FormatJSON, FormatTOML} {
		data, err := Marshal(g, f)
		require.NoError(t, err, f)
		back, err := Unmarshal(data, f)
		require.NoError(t, err, f)
		assert.Equal(t, g, back, f)
	}
}

func TestEdgeSlotDefaults(t *testing.T) {
	e := Edge{Source: "a", Target: "b"}
	assert.Equal(t, "out", e.SourceSlot())
	assert.Equal(t, "in", e.TargetSlot())

	e.TargetHandle = "b"
	assert.Equal(t, "b", e.TargetSlot())
}

func TestValidate(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "a", Module: "perlin"},
			{ID: "a", Module: "perlin"},
			{ID: "", Module: "invert"},
			{ID: "c", Module: "nope"},
		},
		Edges: []Edge{
			{Source: "a", Target: "ghost"},
			{Source: "ghost", Target: "c"},
		},
	}
	known := func(m string) bool { return m != "nope" }

	err := g.Validate(known)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateNode)
	assert.ErrorIs(t, err, ErrEmptyNodeID)
	assert.ErrorIs(t, err, ErrUnknownModule)
	assert.ErrorIs(t, err, ErrUnknownSourceNode)
	assert.ErrorIs(t, err, ErrUnknownTargetNode)

	assert.NotErrorIs(t, g.Validate(nil), ErrUnknownModule)
}

func TestValidateRejectsPathNames(t *testing.T) {
	for _, name := range []string{"../escaped", "a/b", `a\b`, ".."} {
		g := Graph{Name: name, Nodes: []Node{{ID: "n", Module: "perlin"}}}
		assert.ErrorIs(t, g.Validate(nil), ErrUnsafeName, "graph name %q", name)

		g = Graph{Nodes: []Node{{ID: name, Module: "perlin"}}}
		assert.ErrorIs(t, g.Validate(nil), ErrUnsafeName, "node id %q", name)
	}

	ok := Graph{Name: "marble-v2.final", Nodes: []Node{{ID: "base_1", Module: "perlin"}}}
	assert.NoError(t, ok.Validate(nil))
}

func TestHash(t *testing.T) {
	g, err := Load("testdata/crystal.yaml")
	require.NoError(t, err)
	h := g.Hash()
	assert.Len(t, h, 64)

	renamed := g
	renamed.Name = "other"
	renamed.Width = 7
	assert.Equal(t, h, renamed.Hash())

	changed, err := Load("testdata/crystal.yaml")
	require.NoError(t, err)
	changed.Nodes[0].Params["seed"] = 14
	assert.NotEqual(t, h, changed.Hash())
}

func TestToDOT(t *testing.T) {
	g, err := Load("testdata/crystal.yaml")
	require.NoError(t, err)
	dot := ToDOT(g)

	assert.True(t, strings.HasPrefix(dot, `digraph "crystal" {`))
	assert.Contains(t, dot, `"cells" [label="cells\nvoronoi"];`)
	assert.Contains(t, dot, `"cells" -> "tint";`)
	assert.Contains(t, dot, `"tint" -> "mix" [taillabel="out", headlabel="a"];`)
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz layout in short mode")
	}
	g, err := Load("testdata/crystal.yaml")
	require.NoError(t, err)

	svg, err := RenderSVG(context.Background(), ToDOT(g))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

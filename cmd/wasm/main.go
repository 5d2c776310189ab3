//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/texsynth/assets"
	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/module"
	"github.com/MeKo-Tech/texsynth/internal/pipeline"
)

var engine = pipeline.NewEngine(nil, nil)

func errorValue(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

// evaluate is called from JavaScript as texsynthEvaluate(graphJSON, width, height).
// It returns one RGBA byte array per node plus the evaluation diagnostics.
func evaluate(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return errorValue("expected (graph, width, height)")
	}

	g, err := graph.Unmarshal([]byte(args[0].String()), graph.FormatJSON)
	if err != nil {
		return errorValue("failed to parse graph: %v", err)
	}

	w, h := args[1].Int(), args[2].Int()
	res := engine.Evaluate(context.Background(), g, w, h)
	if res.Err != nil {
		return errorValue("%v", res.Err)
	}

	images := map[string]any{}
	for id, img := range res.Images {
		buf := js.Global().Get("Uint8Array").New(len(img.Pix))
		js.CopyBytesToJS(buf, img.Pix)
		images[id] = buf
	}

	dropped := make([]any, len(res.Dropped))
	for i, ed := range res.Dropped {
		dropped[i] = ed.Source + " -> " + ed.Target
	}

	failed := map[string]any{}
	for id, ferr := range res.Failed {
		failed[id] = ferr.Error()
	}

	return map[string]any{
		"width":   w,
		"height":  h,
		"images":  images,
		"order":   toJSArray(res.Order),
		"skipped": toJSArray(res.Skipped),
		"cyclic":  toJSArray(res.Cyclic),
		"dropped": dropped,
		"failed":  failed,
	}
}

// modules returns the catalog description as a JSON string.
func modules(this js.Value, args []js.Value) any {
	data, err := json.Marshal(module.Default().Describe())
	if err != nil {
		return errorValue("%v", err)
	}
	return string(data)
}

func presets(this js.Value, args []js.Value) any {
	return toJSArray(assets.ExampleNames())
}

// preset returns an embedded example graph as a JSON string.
func preset(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorValue("missing preset name")
	}
	g, err := assets.Example(args[0].String())
	if err != nil {
		return errorValue("%v", err)
	}
	data, err := graph.Marshal(g, graph.FormatJSON)
	if err != nil {
		return errorValue("%v", err)
	}
	return string(data)
}

func toJSArray(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func main() {
	c := make(chan struct{})

	js.Global().Set("texsynthEvaluate", js.FuncOf(evaluate))
	js.Global().Set("texsynthModules", js.FuncOf(modules))
	js.Global().Set("texsynthPresets", js.FuncOf(presets))
	js.Global().Set("texsynthPreset", js.FuncOf(preset))

	fmt.Println("texsynth WASM module loaded")
	<-c
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

// ErrNoOutput is returned when a graph has no evaluated output node.
var ErrNoOutput = errors.New("graph has no evaluated output node")

// Archive receives encoded node images. archive.Writer satisfies it.
type Archive interface {
	Put(graphHash, nodeID string, width, height int, png []byte) error
}

// RenderOptions tunes what a Renderer writes besides the output image.
type RenderOptions struct {
	// KeepNodes writes every evaluated node to <name>_nodes/<id>.png.
	KeepNodes bool
	// Thumbnail is the longer edge of per-node previews; 0 disables them.
	Thumbnail int
	// Compression selects the png compression level.
	Compression png.CompressionLevel
	// Archive, when set, stores the output image (and every node with
	// KeepNodes).
	Archive Archive
}

// Rendered describes one Render call.
type Rendered struct {
	// Path is the output image file.
	Path string
	// NodesDir holds per-node images when KeepNodes is set.
	NodesDir string
	// Nodes counts evaluated nodes, failed ones included.
	Nodes int
	// FailedNodes counts nodes whose module failed and were replaced by a
	// blank image.
	FailedNodes int
	// UpToDate is set when the output existed and nothing was evaluated.
	UpToDate bool
}

// Renderer evaluates graphs and writes their output node as PNG files.
type Renderer struct {
	engine    *Engine
	logger    *slog.Logger
	outputDir string
	opts      RenderOptions
}

// NewRenderer prepares a renderer writing into outputDir.
func NewRenderer(engine *Engine, outputDir string, opts RenderOptions, logger *slog.Logger) (*Renderer, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine must not be nil")
	}
	if outputDir == "" {
		return nil, fmt.Errorf("output dir must not be empty")
	}
	if opts.Thumbnail < 0 {
		return nil, fmt.Errorf("thumbnail size must not be negative")
	}
	return &Renderer{engine: engine, outputDir: outputDir, opts: opts, logger: logger}, nil
}

// OutputPath returns where Render writes the output image of g.
func (r *Renderer) OutputPath(g graph.Graph) string {
	return filepath.Join(r.outputDir, fileName(g)+".png")
}

// Render evaluates g and writes its output node image. Existing files are
// kept unless force is set.
func (r *Renderer) Render(ctx context.Context, g graph.Graph, width, height int, force bool) (Rendered, error) {
	if err := checkFileNames(g); err != nil {
		return Rendered{}, err
	}
	finalPath := r.OutputPath(g)
	if !force {
		if _, err := os.Stat(finalPath); err == nil {
			r.log().Info("Texture already exists; skipping", "graph", g.Name, "path", finalPath)
			return Rendered{Path: finalPath, UpToDate: true}, nil
		}
	}

	out, ok := FindOutput(g)
	if !ok {
		return Rendered{}, fmt.Errorf("%s: %w", g.Name, ErrNoOutput)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return Rendered{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	r.log().Info("Evaluating graph", "graph", g.Name, "nodes", len(g.Nodes), "width", width, "height", height)
	res := r.engine.Evaluate(ctx, g, width, height)
	if res.Err != nil {
		return Rendered{}, fmt.Errorf("failed to evaluate %s: %w", g.Name, res.Err)
	}
	if len(res.Failed) > 0 {
		r.log().Warn("Some nodes failed", "graph", g.Name, "failed", len(res.Failed))
	}

	img, ok := res.Image(out.ID)
	if !ok {
		return Rendered{}, fmt.Errorf("%s: output node %s: %w", g.Name, out.ID, ErrNoOutput)
	}

	done := Rendered{Path: finalPath, Nodes: len(res.Images), FailedNodes: len(res.Failed)}
	hash := g.Hash()
	if r.opts.KeepNodes {
		done.NodesDir = filepath.Join(r.outputDir, fileName(g)+"_nodes")
		if err := r.writeNodes(done.NodesDir, hash, res, width, height); err != nil {
			return Rendered{}, err
		}
	}

	r.log().Info("Writing texture", "graph", g.Name, "path", finalPath)
	data, err := raster.PNGBytes(img, r.opts.Compression)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to encode output: %w", err)
	}
	if err := os.WriteFile(finalPath, data, 0o644); err != nil {
		return Rendered{}, fmt.Errorf("failed to write texture: %w", err)
	}
	if r.opts.Archive != nil && !r.opts.KeepNodes {
		if err := r.opts.Archive.Put(hash, out.ID, width, height, data); err != nil {
			return Rendered{}, fmt.Errorf("failed to archive output: %w", err)
		}
	}

	return done, nil
}

func (r *Renderer) writeNodes(dir, hash string, res *Result, width, height int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create node dir: %w", err)
	}
	for _, id := range res.Order {
		img, ok := res.Image(id)
		if !ok {
			continue
		}
		data, err := raster.PNGBytes(img, r.opts.Compression)
		if err != nil {
			return fmt.Errorf("failed to encode node %s: %w", id, err)
		}
		if err := os.WriteFile(filepath.Join(dir, id+".png"), data, 0o644); err != nil {
			return fmt.Errorf("failed to write node %s: %w", id, err)
		}
		if r.opts.Thumbnail > 0 {
			thumb := raster.Thumbnail(img, r.opts.Thumbnail)
			if err := raster.WritePNG(filepath.Join(dir, id+"_thumb.png"), thumb, r.opts.Compression); err != nil {
				return fmt.Errorf("failed to write thumbnail %s: %w", id, err)
			}
		}
		if r.opts.Archive != nil {
			if err := r.opts.Archive.Put(hash, id, width, height, data); err != nil {
				return fmt.Errorf("failed to archive node %s: %w", id, err)
			}
		}
	}
	r.log().Debug("Wrote node images", "dir", dir, "count", len(res.Images))
	return nil
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// checkFileNames rejects graphs whose name or node ids would write outside
// the output directory.
func checkFileNames(g graph.Graph) error {
	if err := graph.CheckFileName(g.Name); err != nil {
		return fmt.Errorf("graph name: %w", err)
	}
	for _, n := range g.Nodes {
		if err := graph.CheckFileName(n.ID); err != nil {
			return fmt.Errorf("node id: %w", err)
		}
	}
	return nil
}

func fileName(g graph.Graph) string {
	if g.Name == "" {
		return "texture"
	}
	return g.Name
}

// DecodePNG reads a png file back into an RGBA image.
func DecodePNG(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			rgba.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return rgba, nil
}

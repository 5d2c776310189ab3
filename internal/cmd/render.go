package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/texsynth/internal/archive"
	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/module"
	"github.com/MeKo-Tech/texsynth/internal/pipeline"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

const defaultSize = 512

var renderCmd = &cobra.Command{
	Use:   "render <graph-file>",
	Short: "Render a texture graph to PNG",
	Long: `Evaluate every node of a graph file and write the output node as <name>.png
into --output-dir. With --keep-nodes every intermediate node is written as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Int("width", 0, "Output width in pixels (default: graph hint or 512)")
	renderCmd.Flags().Int("height", 0, "Output height in pixels (default: graph hint or 512)")
	renderCmd.Flags().Bool("force", false, "Overwrite existing output")
	renderCmd.Flags().Bool("keep-nodes", false, "Also write every intermediate node image")
	renderCmd.Flags().Int("thumbnail", 0, "Write node thumbnails with this longer edge (requires --keep-nodes)")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, fast, best, none)")
	renderCmd.Flags().String("archive", "", "Also store renders in this SQLite archive")
	renderCmd.Flags().Bool("strict", false, "Fail on unknown modules and dangling edges instead of skipping them")

	bindFlags(renderCmd, map[string]string{
		"render.width":           "width",
		"render.height":          "height",
		"render.force":           "force",
		"render.keep_nodes":      "keep-nodes",
		"render.thumbnail":       "thumbnail",
		"render.png_compression": "png-compression",
		"render.archive":         "archive",
		"render.strict":          "strict",
	})
}

// renderSettings are the options shared by render and batch.
type renderSettings struct {
	outputDir   string
	compression string
	archivePath string
	thumbnail   int
	keepNodes   bool
	force       bool
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	settings := renderSettings{
		outputDir:   viper.GetString("output-dir"),
		compression: viper.GetString("render.png_compression"),
		archivePath: viper.GetString("render.archive"),
		thumbnail:   viper.GetInt("render.thumbnail"),
		keepNodes:   viper.GetBool("render.keep_nodes"),
		force:       viper.GetBool("render.force"),
	}
	if settings.thumbnail > 0 && !settings.keepNodes {
		return fmt.Errorf("--thumbnail requires --keep-nodes")
	}

	g, err := graph.Load(args[0])
	if err != nil {
		return err
	}
	if viper.GetBool("render.strict") {
		if err := g.Validate(knownModule); err != nil {
			return fmt.Errorf("invalid graph %s: %w", args[0], err)
		}
	}

	width, height, err := resolveSize(viper.GetInt("render.width"), viper.GetInt("render.height"), g)
	if err != nil {
		return err
	}

	renderer, closeArchive, err := newRenderer(settings)
	if err != nil {
		return err
	}
	defer closeArchive()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	done, err := renderer.Render(ctx, g, width, height, settings.force)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", args[0], err)
	}
	if done.UpToDate {
		return nil
	}

	logFields := []any{"graph", g.Name, "path", done.Path, "width", width, "height", height,
		"nodes", done.Nodes, "elapsed", time.Since(start).Round(time.Millisecond)}
	if done.NodesDir != "" {
		logFields = append(logFields, "nodes_dir", done.NodesDir)
	}
	if done.FailedNodes > 0 {
		logger.Warn("Texture rendered with failed nodes", append(logFields, "failed_nodes", done.FailedNodes)...)
		return nil
	}
	logger.Info("Texture rendered", logFields...)
	return nil
}

// newRenderer builds a pipeline renderer and, when requested, the archive it
// writes to. The returned func closes the archive.
func newRenderer(s renderSettings) (*pipeline.Renderer, func(), error) {
	level, err := raster.ParseCompression(s.compression)
	if err != nil {
		return nil, nil, err
	}

	opts := pipeline.RenderOptions{
		KeepNodes:   s.keepNodes,
		Thumbnail:   s.thumbnail,
		Compression: level,
	}

	closeArchive := func() {}
	if s.archivePath != "" {
		w, err := archive.New(s.archivePath, archive.Metadata{
			Name:    "texsynth renders",
			Version: "1",
			Created: time.Now(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open archive: %w", err)
		}
		opts.Archive = w
		closeArchive = func() {
			if err := w.Close(); err != nil {
				logger.Error("Failed to close archive", "path", s.archivePath, "error", err)
				return
			}
			logger.Info("Archive written", "path", s.archivePath, "renders", w.Written())
		}
	}

	renderer, err := pipeline.NewRenderer(pipeline.NewEngine(nil, logger), s.outputDir, opts, logger)
	if err != nil {
		closeArchive()
		return nil, nil, fmt.Errorf("failed to init renderer: %w", err)
	}
	return renderer, closeArchive, nil
}

// resolveSize picks explicit flags first, then the graph's size hints, then
// the default.
func resolveSize(width, height int, g graph.Graph) (int, int, error) {
	if width == 0 {
		width = g.Width
	}
	if height == 0 {
		height = g.Height
	}
	if width == 0 {
		width = defaultSize
	}
	if height == 0 {
		height = defaultSize
	}
	if width < 0 || height < 0 {
		return 0, 0, fmt.Errorf("invalid size %dx%d: width and height must be positive", width, height)
	}
	return width, height, nil
}

func knownModule(id string) bool {
	_, ok := module.Lookup(id)
	return ok
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func isGraphFile(name string) bool {
	_, err := graph.FormatFromPath(name)
	return err == nil && !strings.HasPrefix(name, ".")
}

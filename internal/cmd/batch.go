package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-file>...",
	Short: "Render many graph files in parallel",
	Long: `Render every graph file given on the command line. Directories are scanned
(non-recursively) for .yaml, .yml, .json and .toml files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some graphs fail")
	batchCmd.Flags().Int("width", 0, "Output width for every graph (default: graph hint or 512)")
	batchCmd.Flags().Int("height", 0, "Output height for every graph (default: graph hint or 512)")
	batchCmd.Flags().Bool("force", false, "Overwrite existing outputs")
	batchCmd.Flags().Bool("keep-nodes", false, "Also write every intermediate node image")
	batchCmd.Flags().String("png-compression", "default", "PNG compression (default, fast, best, none)")
	batchCmd.Flags().String("archive", "", "Also store renders in this SQLite archive")

	bindFlags(batchCmd, map[string]string{
		"batch.workers":         "workers",
		"batch.progress":        "progress",
		"batch.allow_failures":  "allow-failures",
		"batch.width":           "width",
		"batch.height":          "height",
		"batch.force":           "force",
		"batch.keep_nodes":      "keep-nodes",
		"batch.png_compression": "png-compression",
		"batch.archive":         "archive",
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	workers := viper.GetInt("batch.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")

	files, err := collectGraphFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no graph files found in %v", args)
	}

	jobs := make([]worker.Job, 0, len(files))
	names := make(map[string]string, len(files))
	for _, path := range files {
		g, err := graph.Load(path)
		if err != nil {
			return err
		}
		if prev, dup := names[g.Name]; dup {
			return fmt.Errorf("graphs %s and %s would both write %s.png", prev, path, g.Name)
		}
		names[g.Name] = path

		width, height, err := resolveSize(viper.GetInt("batch.width"), viper.GetInt("batch.height"), g)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		jobs = append(jobs, worker.Job{
			Name:   path,
			Graph:  g,
			Width:  width,
			Height: height,
			Force:  viper.GetBool("batch.force"),
		})
	}

	renderer, closeArchive, err := newRenderer(renderSettings{
		outputDir:   viper.GetString("output-dir"),
		compression: viper.GetString("batch.png_compression"),
		archivePath: viper.GetString("batch.archive"),
		keepNodes:   viper.GetBool("batch.keep_nodes"),
	})
	if err != nil {
		return err
	}
	defer closeArchive()

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("Starting batch render", "graphs", len(jobs), "workers", workers)

	progress := worker.NewProgress(len(jobs), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Renderer:   renderer,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, jobs)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Render failed", "graph", r.Job.Name, "error", r.Err)
			continue
		}
		logger.Debug("Rendered", "graph", r.Job.Name, "path", r.Path, "nodes", r.Nodes, "failed_nodes", r.FailedNodes, "elapsed", r.Elapsed)
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some graphs failed to render, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d graphs failed to render", failedCount)
	}
	return nil
}

// collectGraphFiles expands directories into their graph files and returns a
// sorted, de-duplicated list.
func collectGraphFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !isGraphFile(e.Name()) {
				continue
			}
			add(filepath.Join(arg, e.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

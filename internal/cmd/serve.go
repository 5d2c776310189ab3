package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/texsynth/internal/raster"
	"github.com/MeKo-Tech/texsynth/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph evaluation HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-concurrent", runtime.NumCPU(), "Max concurrent evaluations (default: number of CPUs)")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Timeout per evaluation")
	serveCmd.Flags().Int("default-size", 256, "Size used when neither the request nor the graph gives one")
	serveCmd.Flags().Int("max-size", 2048, "Largest accepted width or height")
	serveCmd.Flags().String("png-compression", "fast", "PNG compression (default, fast, best, none)")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for rendered images")
	serveCmd.Flags().String("archive", "", "Serve stored renders from this SQLite archive")

	bindFlags(serveCmd, map[string]string{
		"serve.addr":            "addr",
		"serve.max_concurrent":  "max-concurrent",
		"serve.timeout":         "timeout",
		"serve.default_size":    "default-size",
		"serve.max_size":        "max-size",
		"serve.png_compression": "png-compression",
		"serve.cache_control":   "cache-control",
		"serve.archive":         "archive",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	maxConc := viper.GetInt("serve.max_concurrent")
	timeout := viper.GetDuration("serve.timeout")
	archivePath := viper.GetString("serve.archive")

	level, err := raster.ParseCompression(viper.GetString("serve.png_compression"))
	if err != nil {
		return err
	}

	var arch *server.ArchiveHandler
	if archivePath != "" {
		arch, err = server.NewArchiveHandler(server.ArchiveConfig{Path: archivePath}, logger)
		if err != nil {
			return err
		}
		defer arch.Close()
	}

	api := server.New(nil, arch, server.Config{
		MaxConcurrent: maxConc,
		Timeout:       timeout,
		DefaultSize:   viper.GetInt("serve.default_size"),
		MaxSize:       viper.GetInt("serve.max_size"),
		Compression:   level,
		CacheControl:  viper.GetString("serve.cache_control"),
	}, logger)

	srv := &http.Server{Addr: addr, Handler: api.Router(), ReadHeaderTimeout: 5 * time.Second}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	logger.Info("API server listening",
		"addr", addr,
		"max_concurrent", maxConc,
		"timeout", timeout,
		"archive", archivePath,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

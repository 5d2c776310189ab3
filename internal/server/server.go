// Package server exposes graph evaluation over HTTP.
package server

import (
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MeKo-Tech/texsynth/assets"
	"github.com/MeKo-Tech/texsynth/internal/module"
	"github.com/MeKo-Tech/texsynth/internal/palette"
	"github.com/MeKo-Tech/texsynth/internal/pipeline"
)

// Config tunes request handling.
type Config struct {
	// MaxConcurrent bounds simultaneous evaluations.
	MaxConcurrent int
	// Timeout bounds a single evaluation.
	Timeout time.Duration
	// DefaultSize is used when a request gives no width or height and the
	// graph carries no size hint.
	DefaultSize int
	// MaxSize caps width and height.
	MaxSize int
	// MaxBodyBytes caps graph uploads.
	MaxBodyBytes int64
	Compression  png.CompressionLevel
	CacheControl string
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.DefaultSize <= 0 {
		c.DefaultSize = 256
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 2048
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.CacheControl == "" {
		c.CacheControl = "no-store"
	}
}

// Server evaluates uploaded graphs with bounded concurrency.
type Server struct {
	engine   *pipeline.Engine
	registry *module.Registry
	archive  *ArchiveHandler
	logger   *slog.Logger
	sem      chan struct{}
	cfg      Config

	activeRenders  atomic.Int32
	queuedRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	currentRenders sync.Map // request id -> start time
}

// Status is the JSON body of GET /api/status.
type Status struct {
	ActiveRenders  int      `json:"active_renders"`
	QueuedRenders  int      `json:"queued_renders"`
	TotalRendered  int64    `json:"total_rendered"`
	TotalFailed    int64    `json:"total_failed"`
	MaxConcurrent  int      `json:"max_concurrent"`
	CurrentRenders []string `json:"current_renders"`
	Modules        int      `json:"modules"`
	Archive        bool     `json:"archive"`
}

// New creates a server. A nil registry selects the built-in catalog; archive
// may be nil.
func New(registry *module.Registry, archive *ArchiveHandler, cfg Config, logger *slog.Logger) *Server {
	cfg.applyDefaults()
	if registry == nil {
		registry = module.Default()
	}
	return &Server{
		engine:   pipeline.NewEngine(registry, logger),
		registry: registry,
		archive:  archive,
		cfg:      cfg,
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/modules", s.handleModules)
		r.Get("/palettes", s.handlePalettes)
		r.Get("/examples", s.handleExamples)
		r.Get("/examples/{name}", s.handleExample)
		r.Get("/status", s.handleStatus)
		r.Post("/render", s.handleRender)
		r.Post("/evaluate", s.handleEvaluate)
		if s.archive != nil {
			r.Get("/archive", s.archive.ServeList)
			r.Get("/archive/{hash}/{node}", s.archive.ServeRender)
		}
	})

	return r
}

// Status reports current and cumulative render counts.
func (s *Server) Status() Status {
	var current []string
	s.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})
	sort.Strings(current)

	return Status{
		ActiveRenders:  int(s.activeRenders.Load()),
		QueuedRenders:  int(s.queuedRenders.Load()),
		TotalRendered:  s.totalRendered.Load(),
		TotalFailed:    s.totalFailed.Load(),
		MaxConcurrent:  s.cfg.MaxConcurrent,
		CurrentRenders: current,
		Modules:        s.registry.Len(),
		Archive:        s.archive != nil,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.Describe())
}

type paletteInfo struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	Stops []string `json:"stops"`
}

func (s *Server) handlePalettes(w http.ResponseWriter, _ *http.Request) {
	out := make([]paletteInfo, len(palette.Catalog))
	for i, p := range palette.Catalog {
		out[i] = paletteInfo{Index: i, Name: p.Name, Stops: p.Hex()}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExamples(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, assets.ExampleNames())
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	g, err := assets.Example(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("failed to encode response", "error", err)
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// cors allows browser playgrounds on other origins to call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

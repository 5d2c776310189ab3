package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MeKo-Tech/texsynth/internal/archive"
)

// ArchiveHandler serves stored renders from an archive database.
type ArchiveHandler struct {
	reader       *archive.Reader
	logger       *slog.Logger
	cacheControl string
}

// ArchiveConfig configures the archive handler.
type ArchiveConfig struct {
	Path         string
	CacheControl string
}

// NewArchiveHandler opens the archive read-only.
func NewArchiveHandler(cfg ArchiveConfig, logger *slog.Logger) (*ArchiveHandler, error) {
	reader, err := archive.OpenReader(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if cfg.CacheControl == "" {
		// renders are addressed by content hash
		cfg.CacheControl = "public, max-age=86400"
	}

	return &ArchiveHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// ServeRender serves GET /api/archive/{hash}/{node}?width=&height=.
func (h *ArchiveHandler) ServeRender(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	node := chi.URLParam(r, "node")
	width, errW := strconv.Atoi(r.URL.Query().Get("width"))
	height, errH := strconv.Atoi(r.URL.Query().Get("height"))
	if errW != nil || errH != nil {
		http.Error(w, "width and height query parameters are required", http.StatusBadRequest)
		return
	}

	data, err := h.reader.Get(hash, node, width, height)
	if errors.Is(err, archive.ErrNotFound) {
		http.Error(w, "render not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read render", "hash", hash, "node", node, "error", err)
		http.Error(w, "failed to read render", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

type archiveEntry struct {
	GraphHash string `json:"graph_hash"`
	NodeID    string `json:"node_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int    `json:"size"`
}

// ServeList serves GET /api/archive?hash= as JSON.
func (h *ArchiveHandler) ServeList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reader.List(r.URL.Query().Get("hash"))
	if err != nil {
		h.log().Error("Failed to list renders", "error", err)
		http.Error(w, "failed to list renders", http.StatusInternalServerError)
		return
	}

	out := make([]archiveEntry, len(entries))
	for i, e := range entries {
		out[i] = archiveEntry{GraphHash: e.GraphHash, NodeID: e.NodeID, Width: e.Width, Height: e.Height, Size: e.Size}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the archive reader.
func (h *ArchiveHandler) Close() error {
	return h.reader.Close()
}

func (h *ArchiveHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

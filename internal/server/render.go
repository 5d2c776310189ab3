package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/pipeline"
	"github.com/MeKo-Tech/texsynth/internal/raster"
)

var errBadRequest = errors.New("bad request")

// EvaluateResponse is the JSON body of POST /api/evaluate.
type EvaluateResponse struct {
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Order   []string          `json:"order"`
	Skipped []string          `json:"skipped,omitempty"`
	Cyclic  []string          `json:"cyclic,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
	Images  map[string]string `json:"images"` // node id -> base64 png
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	g, width, height, err := s.readRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	nodeID := r.URL.Query().Get("node")
	if nodeID == "" {
		out, ok := pipeline.FindOutput(g)
		if !ok {
			http.Error(w, "graph has no output node; pass ?node=", http.StatusBadRequest)
			return
		}
		nodeID = out.ID
	}
	if _, ok := g.Node(nodeID); !ok {
		http.Error(w, fmt.Sprintf("unknown node %q", nodeID), http.StatusBadRequest)
		return
	}

	res, ok := s.evaluate(w, r, g, width, height)
	if !ok {
		return
	}

	img, ok := res.Image(nodeID)
	if !ok {
		http.Error(w, fmt.Sprintf("node %q produced no image", nodeID), http.StatusUnprocessableEntity)
		return
	}
	data, err := raster.PNGBytes(img, s.cfg.Compression)
	if err != nil {
		s.log().Error("failed to encode render", "node", nodeID, "error", err)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	w.Header().Set("X-Graph-Hash", g.Hash())
	if _, err := w.Write(data); err != nil {
		s.log().Error("failed to write response", "error", err)
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	g, width, height, err := s.readRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, ok := s.evaluate(w, r, g, width, height)
	if !ok {
		return
	}

	resp := EvaluateResponse{
		Width:   width,
		Height:  height,
		Order:   res.Order,
		Skipped: res.Skipped,
		Cyclic:  res.Cyclic,
		Images:  make(map[string]string, len(res.Images)),
	}
	if len(res.Failed) > 0 {
		resp.Failed = make(map[string]string, len(res.Failed))
		for id, ferr := range res.Failed {
			resp.Failed[id] = ferr.Error()
		}
	}
	ids := make([]string, 0, len(res.Images))
	for id := range res.Images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		data, err := raster.PNGBytes(res.Images[id], s.cfg.Compression)
		if err != nil {
			s.log().Error("failed to encode node", "node", id, "error", err)
			http.Error(w, "failed to encode image", http.StatusInternalServerError)
			return
		}
		resp.Images[id] = base64.StdEncoding.EncodeToString(data)
	}

	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	s.writeJSON(w, http.StatusOK, resp)
}

// evaluate runs the engine under the concurrency semaphore and the request
// timeout. On failure it has already written the error response.
func (s *Server) evaluate(w http.ResponseWriter, r *http.Request, g graph.Graph, width, height int) (*pipeline.Result, bool) {
	key := middleware.GetReqID(r.Context())
	if key == "" {
		key = strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	s.queuedRenders.Add(1)
	select {
	case s.sem <- struct{}{}:
		s.queuedRenders.Add(-1)
		defer func() { <-s.sem }()
	case <-r.Context().Done():
		s.queuedRenders.Add(-1)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	s.activeRenders.Add(1)
	s.currentRenders.Store(key, time.Now())
	start := time.Now()

	res := s.engine.Evaluate(ctx, g, width, height)

	s.activeRenders.Add(-1)
	s.currentRenders.Delete(key)

	if res.Err != nil {
		s.totalFailed.Add(1)
		status := http.StatusServiceUnavailable
		if errors.Is(res.Err, pipeline.ErrInvalidSize) {
			status = http.StatusBadRequest
		} else if errors.Is(res.Err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.log().Warn("evaluation aborted", "graph", g.Name, "error", res.Err)
		http.Error(w, res.Err.Error(), status)
		return nil, false
	}

	s.totalRendered.Add(1)
	s.log().Info("graph evaluated", "graph", g.Name, "nodes", len(g.Nodes), "width", width, "height", height,
		"failed", len(res.Failed), "ms", time.Since(start).Milliseconds())
	return res, true
}

// readRequest decodes the graph body and resolves the output size from the
// query, the graph's hints, or the configured default.
func (s *Server) readRequest(r *http.Request) (graph.Graph, int, int, error) {
	format, err := formatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return graph.Graph{}, 0, 0, err
	}

	body := http.MaxBytesReader(nil, r.Body, s.cfg.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return graph.Graph{}, 0, 0, fmt.Errorf("%w: failed to read body: %v", errBadRequest, err)
	}
	g, err := graph.Unmarshal(data, format)
	if err != nil {
		return graph.Graph{}, 0, 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := g.Validate(nil); err != nil {
		return graph.Graph{}, 0, 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	width, err := s.dimension(r, "width", g.Width)
	if err != nil {
		return graph.Graph{}, 0, 0, err
	}
	height, err := s.dimension(r, "height", g.Height)
	if err != nil {
		return graph.Graph{}, 0, 0, err
	}
	return g, width, height, nil
}

func (s *Server) dimension(r *http.Request, name string, hint int) (int, error) {
	v := s.cfg.DefaultSize
	if hint > 0 {
		v = hint
	}
	if raw := r.URL.Query().Get(name); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
		}
		v = n
	}
	if v <= 0 || v > s.cfg.MaxSize {
		return 0, fmt.Errorf("%w: %s must be in [1, %d], got %d", errBadRequest, name, s.cfg.MaxSize, v)
	}
	return v, nil
}

func formatFromContentType(ct string) (graph.Format, error) {
	if ct == "" {
		return graph.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: invalid content type %q", errBadRequest, ct)
	}
	switch mt {
	case "application/json", "text/plain":
		return graph.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return graph.FormatYAML, nil
	case "application/toml", "text/toml":
		return graph.FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unsupported content type %q", errBadRequest, mt)
	}
}

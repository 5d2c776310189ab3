package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/texsynth/internal/archive"
	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/module"
	"github.com/MeKo-Tech/texsynth/internal/palette"
)

const checkerJSON = `{
  "name": "checks",
  "nodes": [
    {"id": "c", "module": "checker", "params": {"scale": 2}},
    {"id": "out", "module": "output"}
  ],
  "edges": [{"source": "c", "target": "out"}]
}`

const checkerYAML = `
name: checks
nodes:
  - {id: c, module: checker, params: {scale: 2}}
  - {id: out, module: output}
edges:
  - {source: c, target: out}
`

func newTestServer(t *testing.T, arch *ArchiveHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(nil, arch, Config{MaxConcurrent: 2, MaxSize: 64}, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodePNG(t *testing.T, resp *http.Response) image.Image {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	return img
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestModulesEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/api/modules")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listing []struct {
		Category string `json:"category"`
		Modules  []struct {
			ID     string `json:"id"`
			Inputs []string
		} `json:"modules"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing, len(module.Categories))

	total := 0
	for _, l := range listing {
		total += len(l.Modules)
	}
	assert.Equal(t, module.Default().Len(), total)
	assert.Equal(t, "generator", listing[0].Category)
}

func TestPalettesEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/api/palettes")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []paletteInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, len(palette.Catalog))
	assert.Equal(t, palette.Catalog[0].Name, out[0].Name)
	assert.True(t, strings.HasPrefix(out[0].Stops[0], "#"))
}

func TestExamplesEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/examples")
	require.NoError(t, err)
	defer resp.Body.Close()
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Contains(t, names, "crystal")

	resp, err = http.Get(srv.URL + "/api/examples/crystal")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g graph.Graph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	assert.Equal(t, "crystal", g.Name)
	assert.NotEmpty(t, g.Nodes)

	resp, err = http.Get(srv.URL + "/api/examples/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenderOutputNode(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/render?width=4&height=4", "application/json", checkerJSON)
	img := decodePNG(t, resp)

	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	r, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
	r, _, _, _ = img.At(2, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.NotEmpty(t, resp.Header.Get("X-Graph-Hash"))
}

func TestRenderClampsOutOfRangeParams(t *testing.T) {
	api := New(nil, nil, Config{MaxConcurrent: 1, MaxSize: 64, Timeout: 5 * time.Second}, nil)
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	body := `{
  "nodes": [
    {"id": "g", "module": "gabor", "params": {"kernels": 200000, "frequency": 1e9}},
    {"id": "out", "module": "output"}
  ],
  "edges": [{"source": "g", "target": "out"}]
}`
	start := time.Now()
	resp := post(t, srv.URL+"/api/render?width=32&height=32", "application/json", body)
	img := decodePNG(t, resp)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int64(1), api.Status().TotalRendered)
}

func TestRenderNamedNodeFromYAML(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv.URL+"/api/render?node=c&width=8&height=2", "application/yaml", checkerYAML)
	img := decodePNG(t, resp)
	assert.Equal(t, image.Rect(0, 0, 8, 2), img.Bounds())
}

func TestRenderRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, nil)
	cases := []struct {
		name, query, contentType, body string
	}{
		{"malformed json", "", "application/json", "{"},
		{"unknown node", "?node=nope", "application/json", checkerJSON},
		{"too large", "?width=65", "application/json", checkerJSON},
		{"zero height", "?height=0", "application/json", checkerJSON},
		{"bad width", "?width=abc", "application/json", checkerJSON},
		{"content type", "", "image/png", checkerJSON},
		{"no output", "", "application/json", `{"nodes":[{"id":"p","module":"perlin"}]}`},
		{"duplicate ids", "", "application/json", `{"nodes":[{"id":"p","module":"perlin"},{"id":"p","module":"output"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/render"+tc.query, tc.contentType, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRenderSkippedNode(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"nodes":[{"id":"g","module":"ghost"},{"id":"out","module":"output"}],"edges":[{"source":"g","target":"out"}]}`
	resp := post(t, srv.URL+"/api/render?node=g&width=4&height=4", "application/json", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEvaluateEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{
	  "width": 6, "height": 3,
	  "nodes": [
	    {"id": "a", "module": "gradient"},
	    {"id": "x", "module": "invert"},
	    {"id": "y", "module": "invert"},
	    {"id": "g", "module": "ghost"}
	  ],
	  "edges": [{"source": "x", "target": "y"}, {"source": "y", "target": "x"}]
	}`
	resp := post(t, srv.URL+"/api/evaluate", "application/json", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out EvaluateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 6, out.Width)
	assert.Equal(t, 3, out.Height)
	assert.Equal(t, []string{"a", "g"}, out.Order)
	assert.Equal(t, []string{"g"}, out.Skipped)
	assert.Equal(t, []string{"x", "y"}, out.Cyclic)
	require.Len(t, out.Images, 1)

	data, err := base64.StdEncoding.DecodeString(out.Images["a"])
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 3), img.Bounds())
}

func TestStatusCounts(t *testing.T) {
	srv := newTestServer(t, nil)
	post(t, srv.URL+"/api/render?width=4&height=4", "application/json", checkerJSON)

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(1), st.TotalRendered)
	assert.Equal(t, 0, st.ActiveRenders)
	assert.Equal(t, 2, st.MaxConcurrent)
	assert.False(t, st.Archive)
	assert.Equal(t, module.Default().Len(), st.Modules)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/render", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestArchiveEndpoints(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "renders.db")
	w, err := archive.New(dbPath, archive.Metadata{Name: "test"})
	require.NoError(t, err)
	require.NoError(t, w.Put("abc", "out", 4, 4, []byte("pngbytes")))
	require.NoError(t, w.Close())

	arch, err := NewArchiveHandler(ArchiveConfig{Path: dbPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { arch.Close() })
	srv := newTestServer(t, arch)

	resp, err := http.Get(srv.URL + "/api/archive/abc/out?width=4&height=4")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pngbytes", buf.String())

	missing, err := http.Get(srv.URL + "/api/archive/abc/out?width=8&height=8")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	noSize, err := http.Get(srv.URL + "/api/archive/abc/out")
	require.NoError(t, err)
	defer noSize.Body.Close()
	assert.Equal(t, http.StatusBadRequest, noSize.StatusCode)

	list, err := http.Get(srv.URL + "/api/archive")
	require.NoError(t, err)
	defer list.Body.Close()
	var entries []archiveEntry
	require.NoError(t, json.NewDecoder(list.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "out", entries[0].NodeID)
}

func TestFormatFromContentType(t *testing.T) {
	for ct, want := range map[string]string{
		"":                                "json",
		"application/json; charset=utf-8": "json",
		"text/yaml":                       "yaml",
		"application/toml":                "toml",
	} {
		got, err := formatFromContentType(ct)
		require.NoError(t, err, ct)
		assert.Equal(t, want, string(got), ct)
	}
	_, err := formatFromContentType("image/png")
	assert.ErrorIs(t, err, errBadRequest)
}

package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a graph file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for unsupported file extensions or format names.
var ErrUnknownFormat = errors.New("unknown graph format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads and decodes the graph file at path.
func Load(path string) (Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Graph{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read graph %s: %w", path, err)
	}
	g, err := Unmarshal(data, format)
	if err != nil {
		return Graph{}, fmt.Errorf("%s: %w", path, err)
	}
	if g.Name == "" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return g, nil
}

// Decode reads all of r and decodes it as format.
func Decode(r io.Reader, format Format) (Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read graph: %w", err)
	}
	return Unmarshal(data, format)
}

// Unmarshal decodes data as format.
func Unmarshal(data []byte, format Format) (Graph, error) {
	var g Graph
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &g); err != nil {
			return Graph{}, fmt.Errorf("failed to parse yaml graph: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &g); err != nil {
			return Graph{}, fmt.Errorf("failed to parse json graph: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &g); err != nil {
			return Graph{}, fmt.Errorf("failed to parse toml graph: %w", err)
		}
	default:
		return Graph{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return g, nil
}

// Marshal encodes g as format.
func Marshal(g Graph, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(g)
	case FormatJSON:
		return json.MarshalIndent(g, "", "  ")
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(g); err != nil {
			return nil, fmt.Errorf("failed to encode toml graph: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

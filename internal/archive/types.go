// Package archive stores rendered node images in a SQLite database keyed by
// graph hash, node id and size.
package archive

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNotFound is returned when no render matches a lookup.
var ErrNotFound = errors.New("render not found")

// Metadata describes an archive.
type Metadata struct {
	Name        string
	Description string
	Version     string
	Format      string // image encoding, always "png" for now
	Created     time.Time
}

// Entry identifies one stored render.
type Entry struct {
	GraphHash string
	NodeID    string
	Width     int
	Height    int
	Size      int // compressed blob size in bytes
}

// ToMap converts Metadata to name/value rows.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if !m.Created.IsZero() {
		result["created"] = strconv.FormatInt(m.Created.Unix(), 10)
	}

	return result
}

func metadataFromMap(rows map[string]string) (Metadata, error) {
	meta := Metadata{
		Name:        rows["name"],
		Description: rows["description"],
		Version:     rows["version"],
		Format:      rows["format"],
	}
	if v, ok := rows["created"]; ok {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Metadata{}, fmt.Errorf("invalid created timestamp %q: %w", v, err)
		}
		meta.Created = time.Unix(sec, 0).UTC()
	}
	return meta, nil
}

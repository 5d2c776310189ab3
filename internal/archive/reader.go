package archive

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
)

// Reader looks up renders in an archive opened read-only.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens the archive at path for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='renders'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain renders table")
	}

	return &Reader{db: db, path: path}, nil
}

// Get returns the PNG bytes stored for a node of a graph at the given size.
func (r *Reader) Get(graphHash, nodeID string, width, height int) ([]byte, error) {
	var compressed []byte
	err := r.db.QueryRow(
		"SELECT png FROM renders WHERE graph_hash=? AND node_id=? AND width=? AND height=?",
		graphHash, nodeID, width, height,
	).Scan(&compressed)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s %dx%d", ErrNotFound, graphHash, nodeID, width, height)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query render: %w", err)
	}

	data, err := gzipDecompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress render: %w", err)
	}
	return data, nil
}

// List returns the renders stored for a graph, or for every graph when
// graphHash is empty, ordered by hash, node and size.
func (r *Reader) List(graphHash string) ([]Entry, error) {
	query := "SELECT graph_hash, node_id, width, height, length(png) FROM renders"
	var args []any
	if graphHash != "" {
		query += " WHERE graph_hash=?"
		args = append(args, graphHash)
	}
	query += " ORDER BY graph_hash, node_id, width, height"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.GraphHash, &e.NodeID, &e.Width, &e.Height, &e.Size); err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating renders: %w", err)
	}
	return entries, nil
}

// Metadata reads the archive metadata.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	metaMap := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		metaMap[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return metadataFromMap(metaMap)
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}

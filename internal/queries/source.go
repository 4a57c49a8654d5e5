// Package queries loads named SQL queries from the filesystem.
package queries

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a named query does not exist.
// Callers check with errors.Is(err, queries.ErrNotFound).
var ErrNotFound = errors.New("query not found")

// DirSource resolves query names to SQL text under a directory: the name
// "latest_orders" maps to <dir>/latest_orders.sql. A name beginning with
// "/" or "." is treated as a file path and used verbatim, with no .sql
// suffix appended.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Lookup returns the SQL text for name.
func (s *DirSource) Lookup(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty query name", ErrNotFound)
	}

	path := name
	if !strings.HasPrefix(name, "/") && !strings.HasPrefix(name, ".") {
		path = filepath.Join(s.dir, name+".sql")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q (no file at %s)", ErrNotFound, name, path)
		}
		return "", fmt.Errorf("read query %q: %w", name, err)
	}
	return string(data), nil
}

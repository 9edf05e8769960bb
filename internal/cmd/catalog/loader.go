// Package catalog provides common catalog operations for CLI commands.
package catalog

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentstation/stonemap/internal/store"
	"github.com/agentstation/stonemap/pkg/sites"
)

// IsDatabase reports whether path names a SQLite export.
func IsDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Load reads a catalog from a JSON, YAML or SQLite file.
func Load(ctx context.Context, path string) (*sites.Catalog, error) {
	if IsDatabase(path) {
		return store.Import(ctx, path)
	}
	return sites.Load(path)
}

// Save writes a catalog as JSON, YAML or SQLite depending on the extension.
func Save(ctx context.Context, path string, c *sites.Catalog) error {
	if IsDatabase(path) {
		return store.Export(ctx, path, c)
	}
	return sites.Save(path, c)
}

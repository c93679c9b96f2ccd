// Package catalog loads the interpreter configuration (condition catalog,
// header cues, severity keywords, marker presets) from a YAML file or a SQLite
// database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

// Load picks a source by file extension. An empty path yields the built-in catalog.
func Load(ctx context.Context, path string) (interpret.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return interpret.DefaultConfig(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".db", ".sqlite", ".sqlite3":
		// OpenSQLite would create a missing file.
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return interpret.Config{}, fmt.Errorf("%s: catalog database not found (seed it first)", path)
			}
			return interpret.Config{}, fmt.Errorf("stat catalog %s: %w", path, err)
		}
		store, err := OpenSQLite(path)
		if err != nil {
			return interpret.Config{}, err
		}
		defer store.Close()
		cfg, err := store.Load(ctx)
		if errors.Is(err, ErrEmptyStore) {
			return interpret.Config{}, fmt.Errorf("%s: %w (seed it first)", path, err)
		}
		return cfg, err
	default:
		return interpret.Config{}, fmt.Errorf("unsupported catalog file %q (want .yaml, .yml, .db, .sqlite)", path)
	}
}

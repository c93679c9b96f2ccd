package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(interpret.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("default mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLOverlaysDefaults(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
catalog:
  - name: Fracture
    keywords: [fracture, crack]
  - name: Cavities
    keywords: [cavity, caries]
moderate_confidence_above: 70
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if len(cfg.Catalog) != 2 || cfg.Catalog[0].Name != "Fracture" {
		t.Fatalf("unexpected catalog %+v", cfg.Catalog)
	}
	if cfg.ModerateConfidenceAbove != 70 {
		t.Fatalf("expected threshold 70, got %d", cfg.ModerateConfidenceAbove)
	}
	def := interpret.DefaultConfig()
	if diff := cmp.Diff(def.Positions, cfg.Positions); diff != "" {
		t.Fatalf("positions should keep defaults (-want +got):\n%s", diff)
	}
	if cfg.Fallback.Condition != interpret.FallbackCondition {
		t.Fatalf("fallback should keep default, got %+v", cfg.Fallback)
	}
}

func TestParseYAMLRejectsInvalidCatalog(t *testing.T) {
	_, err := ParseYAML([]byte("catalog:\n  - name: Loud\n    keywords: [UPPER]\n"))
	if err == nil || !strings.Contains(err.Error(), "lower-case") {
		t.Fatalf("expected lower-case validation error, got %v", err)
	}
	if _, err := ParseYAML([]byte("catalog: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestYAMLRoundTripThroughFile(t *testing.T) {
	blob, err := EncodeYAML(interpret.DefaultConfig())
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(interpret.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config changed through yaml (-want +got):\n%s", diff)
	}
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	empty, err := store.Empty(ctx)
	if err != nil || !empty {
		t.Fatalf("new store should be empty, got %v err=%v", empty, err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrEmptyStore) {
		t.Fatalf("expected ErrEmptyStore, got %v", err)
	}

	want := interpret.DefaultConfig()
	want.Catalog = append(want.Catalog, interpret.Condition{Name: "Fracture", Keywords: []string{"fracture", "crack"}})
	want.ModerateConfidenceAbove = 75
	want.Fallback.Confidence = 60
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sqlite round trip mismatch (-want +got):\n%s", diff)
	}

	// Saving again replaces rather than appends.
	if err := store.Save(ctx, interpret.DefaultConfig()); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Catalog) != 5 {
		t.Fatalf("expected 5 conditions after replace, got %d", len(got.Catalog))
	}
}

func TestLoadEmptySQLiteDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	store.Close()

	if _, err := Load(ctx, path); !errors.Is(err, ErrEmptyStore) || !strings.Contains(err.Error(), "seed") {
		t.Fatalf("expected ErrEmptyStore with seed hint, got %v", err)
	}
}

func TestSQLiteKeepsEmptyLists(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	want := interpret.DefaultConfig()
	want.Headers = nil
	want.HighSeverityKeywords = nil
	want.ModerateKeywords = []string{"moderate", "notable"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("empty lists not preserved (-want +got):\n%s", diff)
	}
}

func TestSQLiteSaveRejectsInvalidConfig(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()
	bad := interpret.DefaultConfig()
	bad.Positions = nil
	if err := store.Save(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFromSQLitePath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	if _, err := Load(ctx, path); err == nil || !strings.Contains(err.Error(), "seed") {
		t.Fatalf("expected missing-database error, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load must not create %s, stat err=%v", path, err)
	}
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := store.Save(ctx, interpret.DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	cfg, err := Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog[2].Name != "Gum Disease" {
		t.Fatalf("unexpected catalog order %+v", cfg.Catalog)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load(context.Background(), "catalog.toml"); err == nil {
		t.Fatal("expected unsupported extension error")
	}
}

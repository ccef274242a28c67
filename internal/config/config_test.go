package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != DriverSQLite || cfg.Database.DSN != "farmgeo.db" {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if len(cfg.FieldTypes) != len(DefaultFieldTypes) {
		t.Errorf("expected %d default field types, got %d", len(DefaultFieldTypes), len(cfg.FieldTypes))
	}
	if cfg.Import.DefaultFieldType != "Weide" {
		t.Errorf("expected Weide default type, got %q", cfg.Import.DefaultFieldType)
	}
	if cfg.Tiles.TileSize != 256 {
		t.Errorf("expected tile size 256, got %d", cfg.Tiles.TileSize)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: postgres://farm@localhost/farm
  slow_threshold: 250ms
import:
  max_upload_mb: 8
  default_field_type: Pangola
field_types:
  - name: Weide
    color: "#00ff00"
  - name: Pangola
    color: "#00ffff"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.SlowThreshold != 250*time.Millisecond {
		t.Errorf("expected 250ms threshold, got %v", cfg.Database.SlowThreshold)
	}
	if cfg.Import.MaxUploadMB != 8 {
		t.Errorf("expected 8 MB limit, got %d", cfg.Import.MaxUploadMB)
	}
	if got := cfg.Palette()["Pangola"]; got != "#00ffff" {
		t.Errorf("unexpected Pangola color %q", got)
	}
	if names := strings.Join(cfg.TypeNames(), ","); names != "Weide,Pangola" {
		t.Errorf("unexpected type names %q", names)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"driver": "database:\n  driver: mysql\n  dsn: x\n",
		"dsn":    "database:\n  driver: postgres\n",
		"duplicate": `
field_types:
  - name: Weide
  - name: Weide
`,
		"default": `
import:
  default_field_type: Reis
`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// Package config handles configuration loading and shared settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the root configuration file structure.
type Config struct {
	Database   Database    `yaml:"database" json:"database"`
	Import     Import      `yaml:"import" json:"import"`
	Tiles      Tiles       `yaml:"tiles" json:"tiles"`
	FieldTypes []FieldType `yaml:"field_types" json:"field_types"`
}

// Database selects the field store backend.
type Database struct {
	Driver        string        `yaml:"driver" json:"driver"`
	DSN           string        `yaml:"dsn" json:"-"`
	SlowThreshold time.Duration `yaml:"slow_threshold,omitempty" json:"slow_threshold,omitempty"`
}

// Import limits uploads and sets review defaults.
type Import struct {
	MaxUploadMB      int64  `yaml:"max_upload_mb,omitempty" json:"max_upload_mb"`
	DefaultFieldType string `yaml:"default_field_type,omitempty" json:"default_field_type"`
}

// Tiles configures raster overlay rendering.
type Tiles struct {
	TileSize  int     `yaml:"tile_size,omitempty" json:"tile_size"`
	ZoomLimit int     `yaml:"zoom,omitempty" json:"zoom"`
	Quality   float32 `yaml:"quality,omitempty" json:"quality"`
}

// FieldType is a selectable field classification and its map color.
type FieldType struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
}

// DefaultFieldTypes is used when the configuration file lists none.
var DefaultFieldTypes = []FieldType{
	{Name: "Weide", Color: "#4ade80"},
	{Name: "Pangola", Color: "#22d3ee"},
	{Name: "Wald", Color: "#15803d"},
	{Name: "Infrastruktur", Color: "#a1a1aa"},
	{Name: "Wasserquelle", Color: "#3b82f6"},
	{Name: "Brache", Color: "#facc15"},
}

// Load reads and parses the YAML configuration file from the specified path.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// Defaults fills unset values.
func (c *Config) Defaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = "farmgeo.db"
	}
	if c.Database.SlowThreshold <= 0 {
		c.Database.SlowThreshold = 100 * time.Millisecond
	}

	if c.Import.MaxUploadMB <= 0 {
		c.Import.MaxUploadMB = 32
	}
	if len(c.FieldTypes) == 0 {
		c.FieldTypes = append([]FieldType(nil), DefaultFieldTypes...)
	}
	if c.Import.DefaultFieldType == "" {
		c.Import.DefaultFieldType = c.FieldTypes[0].Name
	}

	if c.Tiles.TileSize <= 0 {
		c.Tiles.TileSize = 256
	}
	if c.Tiles.ZoomLimit <= 0 {
		c.Tiles.ZoomLimit = 20
	}
	if c.Tiles.Quality <= 0 {
		c.Tiles.Quality = 85
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for driver %q", c.Database.Driver)
	}

	seen := make(map[string]bool, len(c.FieldTypes))
	for _, ft := range c.FieldTypes {
		if ft.Name == "" {
			return fmt.Errorf("field type without name")
		}
		if seen[ft.Name] {
			return fmt.Errorf("duplicate field type %q", ft.Name)
		}
		seen[ft.Name] = true
	}
	if !seen[c.Import.DefaultFieldType] {
		return fmt.Errorf("default field type %q is not configured", c.Import.DefaultFieldType)
	}

	return nil
}

// TypeNames returns the configured field type names in order.
func (c *Config) TypeNames() []string {
	names := make([]string, 0, len(c.FieldTypes))
	for _, ft := range c.FieldTypes {
		names = append(names, ft.Name)
	}
	return names
}

// Palette returns the field type to color mapping.
func (c *Config) Palette() map[string]string {
	p := make(map[string]string, len(c.FieldTypes))
	for _, ft := range c.FieldTypes {
		p[ft.Name] = ft.Color
	}
	return p
}

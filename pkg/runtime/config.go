package runtime

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loamdb/loam/pkg/dialect"
)

// Config holds connection and behavior options. It is yaml-tagged so the
// CLI can load it from a loam.yaml, but constructing it in code works the
// same way.
type Config struct {
	// Driver selects the dialect: "postgres", "mysql" or "sqlite".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name.
	DSN string `yaml:"dsn"`

	// Locale enables locale-suffixed field fallback ("title" resolving to
	// "title_en") when non-empty.
	Locale string `yaml:"locale"`

	// Pool settings, passed straight to database/sql.
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`

	// DeleteLimit / UpdateLimit override the dialect's defaults for
	// LIMIT/OFFSET on DELETE and UPDATE when set.
	DeleteLimit *bool `yaml:"delete_limit"`
	UpdateLimit *bool `yaml:"update_limit"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loam: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loam: parse config: %w", err)
	}
	return &cfg, nil
}

// Dialect resolves the configured dialect with any toggle overrides applied.
func (c *Config) Dialect() (dialect.Dialect, error) {
	d, err := dialect.ByName(c.Driver)
	if err != nil {
		return dialect.Dialect{}, err
	}
	if c.DeleteLimit != nil {
		d.DeleteLimit = *c.DeleteLimit
	}
	if c.UpdateLimit != nil {
		d.UpdateLimit = *c.UpdateLimit
	}
	return d, nil
}

package notegraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dan-solli/notegraph/pkg/chunker"
	"github.com/dan-solli/notegraph/pkg/store"
)

// Environment variables that override values read from a config file.
const (
	EnvDBPath    = "NOTEGRAPH_DB_PATH"
	EnvTracePath = "NOTEGRAPH_TRACE_PATH"
)

// Config holds configuration for a NoteGraph instance
type Config struct {
	// Path to the SQLite database file (default: "notegraph.db").
	// ":memory:" keeps everything in memory.
	DBPath string `yaml:"db_path"`

	// Registered database/sql driver name (default: "sqlite")
	Driver string `yaml:"driver"`

	// Largest segment a posted text is split into (default and maximum: 1024)
	MaxSegmentBytes int `yaml:"max_segment_bytes"`

	// Record Prometheus metrics for every operation
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// JSON Lines file receiving write operation traces (empty: no export)
	TracePath string `yaml:"trace_path"`
}

// withDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.DBPath == "" {
		c.DBPath = "notegraph.db"
	}
	if c.Driver == "" {
		c.Driver = store.DefaultDriver
	}
	if c.MaxSegmentBytes <= 0 || c.MaxSegmentBytes > store.MaxNoteValueBytes {
		c.MaxSegmentBytes = chunker.DefaultMaxBytes
	}
	return c
}

// LoadConfig reads a YAML config file and applies environment overrides.
// An empty path skips the file and only reads the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvTracePath); v != "" {
		cfg.TracePath = v
	}
	return cfg, nil
}

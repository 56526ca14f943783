package pipeline

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the pipeline tuning knobs.
type Config struct {
	// Concurrency is the worker pool size; must be positive.
	Concurrency int
	// PerFileTimeout bounds every file's read-and-process sequence.
	PerFileTimeout time.Duration
	// LanguageExtensions extends or overrides the built-in
	// extension-to-language table.
	LanguageExtensions map[string]string
	// SkipGlobs are walker skip patterns for directories and files.
	SkipGlobs []string
	// DBPath is the SQLite dataset location.
	DBPath string
	// BatchSize is how many unprocessed files are claimed per round.
	BatchSize int
}

// DefaultConfig returns the default configuration: a small multiple of the
// available hardware threads, the original corpus batch size, and the usual
// vendored-tree skips.
func DefaultConfig() Config {
	return Config{
		Concurrency:    2 * runtime.NumCPU(),
		PerFileTimeout: 30 * time.Second,
		SkipGlobs:      []string{".git", "node_modules", "dist", "build", ".next"},
		DBPath:         "./secdex.db",
		BatchSize:      100,
	}
}

// fileConfig is the YAML shape of an overlay config file.
type fileConfig struct {
	Concurrency        *int              `yaml:"concurrency"`
	PerFileTimeout     string            `yaml:"per_file_timeout"`
	LanguageExtensions map[string]string `yaml:"language_extensions"`
	SkipGlobs          []string          `yaml:"skip_globs"`
	DBPath             string            `yaml:"db_path"`
	BatchSize          *int              `yaml:"batch_size"`
}

// LoadConfig overlays a YAML file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Concurrency != nil {
		cfg.Concurrency = *fc.Concurrency
	}
	if fc.PerFileTimeout != "" {
		d, err := time.ParseDuration(fc.PerFileTimeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid per_file_timeout: %w", err)
		}
		cfg.PerFileTimeout = d
	}
	if fc.LanguageExtensions != nil {
		cfg.LanguageExtensions = fc.LanguageExtensions
	}
	if fc.SkipGlobs != nil {
		cfg.SkipGlobs = fc.SkipGlobs
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.BatchSize != nil {
		cfg.BatchSize = *fc.BatchSize
	}
	return cfg, nil
}

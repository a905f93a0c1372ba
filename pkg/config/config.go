package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/esmdeps/pkg/dependency"
)

// Config holds all configuration options for esmdeps.
type Config struct {
	// Parser behaviour for JavaScript and TypeScript modules
	JavaScript JavaScriptConfig `koanf:"javascript" toml:"javascript"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Number of parallel workers; zero picks a default from the CPU count.
	Workers int `koanf:"workers" toml:"workers"`
}

// JavaScriptConfig mirrors the bundler's javascript parser options.
type JavaScriptConfig struct {
	ExportsPresence         string `koanf:"exports_presence" toml:"exports_presence"`
	ReexportExportsPresence string `koanf:"reexport_exports_presence" toml:"reexport_exports_presence"`
	StrictExportPresence    bool   `koanf:"strict_export_presence" toml:"strict_export_presence"`
	InnerGraph              bool   `koanf:"inner_graph" toml:"inner_graph"`
	MaxFileSize             int64  `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = unlimited
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, yaml, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		JavaScript: JavaScriptConfig{
			InnerGraph:  true,
			MaxFileSize: 2 << 20,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.d.ts",
				"*.bundle.js",
			},
			Extensions: []string{
				".map",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".esmdeps",
				"dist",
				"build",
				"coverage",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".esmdeps/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched, in order, by FindConfigFile.
var configNames = []string{
	"esmdeps.toml",
	"esmdeps.yaml",
	"esmdeps.yml",
	"esmdeps.json",
	".esmdeps.toml",
	".esmdeps.yaml",
	".esmdeps.yml",
	".esmdeps.json",
}

// FindConfigFile returns the first config file found under dir or
// dir/.esmdeps, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, d := range []string{dir, filepath.Join(dir, ".esmdeps")} {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := FindConfigFile("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult reports where a configuration came from.
type LoadResult struct {
	Config *Config
	Source string // path of the file loaded, empty for defaults
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit file; a missing file is an error.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDir searches dir instead of the working directory.
func WithSearchDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads and validates configuration.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = FindConfigFile(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks option values that the decoder accepts but the engine cannot use.
func (c *Config) Validate() error {
	var errs []error
	for name, value := range map[string]string{
		"javascript.exports_presence":          c.JavaScript.ExportsPresence,
		"javascript.reexport_exports_presence": c.JavaScript.ReexportExportsPresence,
	} {
		if _, err := dependency.ParseExportPresenceType(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	switch c.Output.Format {
	case "", "text", "json", "markdown", "yaml", "toon":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers: must not be negative, got %d", c.Workers))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must not be negative, got %d", c.Cache.TTL))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// PresenceOptions returns the export presence settings in engine form.
// Values are assumed validated.
func (j JavaScriptConfig) PresenceOptions() dependency.PresenceOptions {
	return dependency.PresenceOptions{
		ExportsPresence:         dependency.ExportPresenceType(j.ExportsPresence),
		ReexportExportsPresence: dependency.ExportPresenceType(j.ReexportExportsPresence),
		StrictExportPresence:    j.StrictExportPresence,
	}
}

// ShouldExclude checks if a path should be excluded from extraction.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	// Check extension exclusions
	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

// Package config loads cdensity settings from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/docblock"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

// Config holds all configuration options for cdensity.
type Config struct {
	// Directories analyzed when no paths are given.
	Directories []string `koanf:"directories" toml:"directories" yaml:"directories"`

	// Only restricts reporting to these categories; empty reports all.
	Only []string `koanf:"only" toml:"only" yaml:"only"`

	// Thresholds maps a category name, "CDS" or "Com/LoC" to its limit.
	Thresholds map[string]float64 `koanf:"thresholds" toml:"thresholds" yaml:"thresholds"`

	MissingDocblock docblock.Config `koanf:"missing_docblock" toml:"missing_docblock" yaml:"missing_docblock"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	Cache  CacheConfig  `koanf:"cache" toml:"cache" yaml:"cache"`
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`

	// Baseline is the path of a baseline file; findings recorded in it are
	// not reported.
	Baseline string `koanf:"baseline" toml:"baseline" yaml:"baseline"`

	// Workers bounds concurrent file processing; 0 picks a default.
	Workers int `koanf:"workers" toml:"workers" yaml:"workers"`

	// MaxFileSize skips larger files, in bytes; 0 disables the limit.
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" yaml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon, html
	File   string `koanf:"file" toml:"file" yaml:"file"`
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Directories:     []string{"."},
		Thresholds:      map[string]float64{},
		MissingDocblock: docblock.DefaultConfig(),
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.blade.php",
				"*Test.php",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".cdensity",
				"var",
				"storage",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".cdensity/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// FileNames are the config file names searched for, in order.
var FileNames = []string{
	"cdensity.toml",
	"cdensity.yaml",
	"cdensity.yml",
	"cdensity.json",
	".cdensity.toml",
	".cdensity.yaml",
	".cdensity.yml",
	".cdensity.json",
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

func read(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, err
	}
	return k, nil
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k, err := read(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first config file in dir or its .cdensity directory, or
// "" when there is none.
func Find(dir string) string {
	for _, d := range []string{dir, filepath.Join(dir, ".cdensity")} {
		for _, name := range FileNames {
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
	if path := Find("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is empty when no file was found and defaults apply.
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching for one.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches dir instead of the working directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig finds, validates and loads a config file. Unlike LoadOrDefault
// it reports every problem of the file it picked.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = Find(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	if err := Validate(path); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// AllowedCategories returns the categories of Only. Names that are not
// categories are ignored; Validate reports them.
func (c *Config) AllowedCategories() []comments.Category {
	var out []comments.Category
	for _, name := range c.Only {
		if _, ok := comments.Lookup(comments.Category(name)); ok {
			out = append(out, comments.Category(name))
		}
	}
	return out
}

// StatsThresholds returns the configured thresholds.
func (c *Config) StatsThresholds() stats.Thresholds {
	return stats.Thresholds(c.Thresholds)
}

// CacheTTL returns the cache expiry; 0 means entries never expire.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL <= 0 {
		return 0
	}
	return time.Duration(c.Cache.TTL) * time.Hour
}

// ErrNoDirectories is returned when there is nothing to analyze.
var ErrNoDirectories = errors.New("no directories configured")

// Paths returns args, or the configured directories when args is empty.
func (c *Config) Paths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(c.Directories) == 0 {
		return nil, ErrNoDirectories
	}
	return c.Directories, nil
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.ToSlash(path)

	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, _ := filepath.Match(pattern, path); matched {
				return true
			}
		}
	}

	return false
}

// Package config provides configuration loading and structs for kagami.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kagami/internal/embedding"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// StoreConfig holds the gallery locations on disk.
type StoreConfig struct {
	FeatureDir      string   `yaml:"feature_dir"`
	ImageDir        string   `yaml:"image_dir"`
	CatalogPath     string   `yaml:"catalog_path"`
	ImageExtensions []string `yaml:"image_extensions"`
}

// EmbeddingConfig selects the extractor backend and fixes the model's preprocessing contract.
type EmbeddingConfig struct {
	Backend      string    `yaml:"backend"`
	ModelPath    string    `yaml:"model_path"`
	LibraryPath  string    `yaml:"library_path"`
	InputName    string    `yaml:"input_name"`
	OutputName   string    `yaml:"output_name"`
	Dimensions   int       `yaml:"dimensions"`
	InputWidth   int       `yaml:"input_width"`
	InputHeight  int       `yaml:"input_height"`
	Layout       string    `yaml:"layout"`
	ChannelOrder string    `yaml:"channel_order"`
	Scale        float32   `yaml:"scale"`
	Mean         []float32 `yaml:"mean"`
	Std          []float32 `yaml:"std"`
	CacheSize    int       `yaml:"cache_size"`
}

// SearchConfig holds result counts.
type SearchConfig struct {
	ScoreLimit    int `yaml:"score_limit"`
	RelevantLimit int `yaml:"relevant_limit"`
}

// WatchConfig holds image directory watch settings.
type WatchConfig struct {
	Recursive  *bool `yaml:"recursive"`
	DebounceMs int   `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, expands paths, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.expandPaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the default configuration with "./" paths resolved against dir.
func Default(dir string) *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.expandPaths(dir)
	return &cfg
}

func (c *Config) expandPaths(configDir string) {
	c.Store.FeatureDir = expandPath(c.Store.FeatureDir, configDir)
	c.Store.ImageDir = expandPath(c.Store.ImageDir, configDir)
	c.Store.CatalogPath = expandPath(c.Store.CatalogPath, configDir)
	c.Embedding.ModelPath = expandPath(c.Embedding.ModelPath, configDir)
	if c.Embedding.LibraryPath != "" {
		c.Embedding.LibraryPath = expandPath(c.Embedding.LibraryPath, configDir)
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch embedding.Backend(strings.ToLower(c.Embedding.Backend)) {
	case embedding.BackendONNX, embedding.BackendMock:
	default:
		errs = append(errs, fmt.Errorf("embedding.backend %q is not onnx or mock", c.Embedding.Backend))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be positive"))
	}
	if c.Embedding.InputWidth <= 0 || c.Embedding.InputHeight <= 0 {
		errs = append(errs, fmt.Errorf("embedding input size must be positive"))
	}
	if len(c.Embedding.Mean) != 3 {
		errs = append(errs, fmt.Errorf("embedding.mean needs 3 values, got %d", len(c.Embedding.Mean)))
	}
	if len(c.Embedding.Std) != 3 {
		errs = append(errs, fmt.Errorf("embedding.std needs 3 values, got %d", len(c.Embedding.Std)))
	}
	if len(errs) == 0 {
		if err := c.Embedding.Preprocessing().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("embedding preprocessing: %w", err))
		}
	}
	if c.Search.ScoreLimit <= 0 || c.Search.RelevantLimit <= 0 {
		errs = append(errs, fmt.Errorf("search limits must be positive"))
	}
	if c.Store.FeatureDir == "" || c.Store.ImageDir == "" {
		errs = append(errs, fmt.Errorf("store.feature_dir and store.image_dir are required"))
	}
	return errors.Join(errs...)
}

// Preprocessing returns the pixel contract described by the config. Mean and Std must
// already hold three values.
func (e EmbeddingConfig) Preprocessing() embedding.Preprocessing {
	p := embedding.Preprocessing{
		ChannelOrder: embedding.ChannelOrder(strings.ToLower(e.ChannelOrder)),
		Layout:       embedding.Layout(strings.ToLower(e.Layout)),
		Scale:        e.Scale,
	}
	copy(p.Mean[:], e.Mean)
	copy(p.Std[:], e.Std)
	return p
}

// ExtractorOptions converts the config into extractor construction options.
func (e EmbeddingConfig) ExtractorOptions() embedding.Options {
	return embedding.Options{
		Backend: embedding.Backend(strings.ToLower(e.Backend)),
		ONNX: embedding.ONNXOptions{
			ModelPath:         e.ModelPath,
			SharedLibraryPath: e.LibraryPath,
			InputName:         e.InputName,
			OutputName:        e.OutputName,
			Dimensions:        e.Dimensions,
			Width:             e.InputWidth,
			Height:            e.InputHeight,
			Preprocessing:     e.Preprocessing(),
		},
	}
}

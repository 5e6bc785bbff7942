// Package config provides configuration loading and structs for the Susume recommender.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
	Generator GeneratorConfig `yaml:"generator"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig holds paths for input tables, the database, and artifacts.
type DataConfig struct {
	ProductsPath   string `yaml:"products_path"`
	PurchasesPath  string `yaml:"purchases_path"`
	DatabasePath   string `yaml:"database_path"`
	ArtifactPath   string `yaml:"artifact_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	OutputDir      string `yaml:"output_dir"`
}

// EmbeddingConfig holds product encoder settings.
// Strategy selects the encoder: "semantic" (ONNX sentence embeddings),
// "lexical" (bag-of-words counts), or "mock" (deterministic hash vectors,
// useful without a model file).
type EmbeddingConfig struct {
	Strategy       string `yaml:"strategy"`
	ModelPath      string `yaml:"model_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	VocabularySize int    `yaml:"vocabulary_size"`
}

// RecommendConfig holds recommendation defaults.
type RecommendConfig struct {
	TopCategories  int `yaml:"top_categories"`
	TopN           int `yaml:"top_n"`
	ColdStartLimit int `yaml:"cold_start_limit"`
}

// GeneratorConfig holds synthetic dataset generation settings.
type GeneratorConfig struct {
	NumProducts      int     `yaml:"num_products"`
	NumCustomers     int     `yaml:"num_customers"`
	NumEntries       int     `yaml:"num_entries"`
	HighSpenderRatio float64 `yaml:"high_spender_ratio"`
	OccasionalRatio  float64 `yaml:"occasional_ratio"`
	LostRatio        float64 `yaml:"lost_ratio"`
	Seed             int64   `yaml:"seed"`
}

// WatchConfig holds data-file watch settings for server mode.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
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

	configDir := filepath.Dir(path)
	cfg.Data.ProductsPath = expandPath(cfg.Data.ProductsPath, configDir)
	cfg.Data.PurchasesPath = expandPath(cfg.Data.PurchasesPath, configDir)
	cfg.Data.DatabasePath = expandPath(cfg.Data.DatabasePath, configDir)
	cfg.Data.ArtifactPath = expandPath(cfg.Data.ArtifactPath, configDir)
	cfg.Data.BleveIndexPath = expandPath(cfg.Data.BleveIndexPath, configDir)
	cfg.Data.OutputDir = expandPath(cfg.Data.OutputDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
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

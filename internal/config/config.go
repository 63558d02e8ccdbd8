// Package config provides configuration loading and structs for the frontdesk service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Grounding GroundingConfig `yaml:"grounding"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the row index database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DatasetConfig points at the booking table. Allowed lists further datasets that API
// callers may name; any other path is refused.
type DatasetConfig struct {
	Path    string   `yaml:"path"`
	Allowed []string `yaml:"allowed_paths,omitempty"`
}

// Paths returns the default dataset followed by the allowed ones, without duplicates.
func (d *DatasetConfig) Paths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range append([]string{d.Path}, d.Allowed...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// EmbeddingConfig selects the embedding provider and its limits.
type EmbeddingConfig struct {
	Provider          string      `yaml:"provider"`
	Model             string      `yaml:"model"`
	APIKey            string      `yaml:"api_key,omitempty"`
	BaseURL           string      `yaml:"base_url,omitempty"`
	BatchSize         int         `yaml:"batch_size"`
	CacheSize         int         `yaml:"cache_size"`
	RequestsPerSecond float64     `yaml:"requests_per_second"`
	Redis             RedisConfig `yaml:"redis"`
}

// RedisConfig enables the shared query-embedding cache when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// GroundingConfig shapes the context block handed to the conversational model.
type GroundingConfig struct {
	MaxRows       int      `yaml:"max_rows"`
	RoomPreview   int      `yaml:"room_preview"`
	SpokenRoomCap int      `yaml:"spoken_room_cap"`
	Keywords      []string `yaml:"keywords"`
}

// WatchConfig controls re-indexing when the dataset file changes.
type WatchConfig struct {
	Enabled        *bool `yaml:"enabled"`
	DebounceMillis int   `yaml:"debounce_ms"`
}

// EnabledOrDefault returns whether to watch the dataset; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Load reads and parses the config file at path, applies environment overrides and
// defaults, and expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	loadDotEnv()
	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Dataset.Path = expandPath(cfg.Dataset.Path, configDir)
	for i, p := range cfg.Dataset.Allowed {
		cfg.Dataset.Allowed[i] = expandPath(p, configDir)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when it exists; an empty or missing path yields a config built
// from the environment and defaults alone.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}
	var cfg Config
	loadDotEnv()
	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a config-relative path to absolute. Paths starting with "./" are
// relative to configDir and "~/" to the home directory; other paths are left as they are.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

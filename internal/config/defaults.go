package config

import "strings"

// Default values applied by ApplyDefaults.
const (
	DefaultDatabasePath   = "booking_vectors.db"
	DefaultDatasetPath    = "motel_week_availability.csv"
	DefaultOpenAIModel    = "text-embedding-3-small"
	DefaultGeminiModel    = "text-embedding-004"
	DefaultMaxRows        = 10
	DefaultBatchSize      = 100
	DefaultCacheSize      = 128
	DefaultRoomPreview    = 4
	DefaultSpokenRoomCap  = 3
	DefaultDebounceMillis = 500
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = DefaultDatasetPath
	}
	cfg.Embedding.Provider = strings.ToLower(strings.TrimSpace(cfg.Embedding.Provider))
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		if cfg.Embedding.Provider == ProviderGemini {
			cfg.Embedding.Model = DefaultGeminiModel
		} else {
			cfg.Embedding.Model = DefaultOpenAIModel
		}
	}
	if cfg.Embedding.BatchSize <= 0 {
		cfg.Embedding.BatchSize = DefaultBatchSize
	}
	if cfg.Embedding.CacheSize <= 0 {
		cfg.Embedding.CacheSize = DefaultCacheSize
	}
	if cfg.Grounding.MaxRows <= 0 {
		cfg.Grounding.MaxRows = DefaultMaxRows
	}
	if cfg.Grounding.RoomPreview <= 0 {
		cfg.Grounding.RoomPreview = DefaultRoomPreview
	}
	if cfg.Grounding.SpokenRoomCap <= 0 {
		cfg.Grounding.SpokenRoomCap = DefaultSpokenRoomCap
	}
	if cfg.Watch.DebounceMillis <= 0 {
		cfg.Watch.DebounceMillis = DefaultDebounceMillis
	}
}

package config

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvDatasetPath    = "BOOKING_CSV_PATH"
	EnvDatabasePath   = "BOOKING_DB_PATH"
	EnvTopK           = "BOOKING_TOP_K"
	EnvEmbedModel     = "BOOKING_EMBED_MODEL"
	EnvEmbedProvider  = "BOOKING_EMBED_PROVIDER"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvRedisAddr      = "BOOKING_REDIS_ADDR"
	EnvServerlessHint = "VERCEL"
)

// serverlessDir is the only writable directory on serverless hosts.
const serverlessDir = "/tmp"

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// loadDotEnv reads .env from the working directory into the process environment.
// Variables already set take precedence; a missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides cfg from the environment. Numeric values that do not parse to a
// positive integer are ignored.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := get(EnvDatasetPath); v != "" {
		cfg.Dataset.Path = v
	}
	if v := get(EnvDatabasePath); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if cfg.Storage.DatabasePath == "" && get(EnvServerlessHint) != "" {
		cfg.Storage.DatabasePath = filepath.Join(serverlessDir, DefaultDatabasePath)
	}
	if v := get(EnvTopK); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grounding.MaxRows = n
		}
	}
	if v := get(EnvEmbedProvider); v != "" {
		cfg.Embedding.Provider = strings.ToLower(v)
	}
	if v := get(EnvEmbedModel); v != "" {
		cfg.Embedding.Model = v
	}
	if cfg.Embedding.APIKey == "" {
		switch strings.ToLower(cfg.Embedding.Provider) {
		case ProviderGemini:
			cfg.Embedding.APIKey = get(EnvGeminiKey)
		case ProviderMock:
		default:
			cfg.Embedding.APIKey = get(EnvOpenAIKey)
		}
	}
	if v := get(EnvOpenAIBaseURL); v != "" && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = v
	}
	if v := get(EnvRedisAddr); v != "" {
		cfg.Embedding.Redis.Addr = v
	}
}

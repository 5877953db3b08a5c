// Package config loads configuration from environment variables and .env files.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Supported generation backends.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Config holds all configuration for the text generation service
type Config struct {
	// Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// CORS
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Generation backend. The model is resolved once at startup and never
	// re-read per request.
	Backend   string `env:"GENERATION_BACKEND" envDefault:"ollama"`
	ModelName string `env:"MODEL_NAME" envDefault:"llama3.2"`
	OllamaURL string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OpenAIKey string `env:"OPENAI_API_KEY"`

	// Post-processing
	MaxOutputWords int `env:"MAX_OUTPUT_WORDS" envDefault:"200"`

	// Decoding defaults applied when a request omits a parameter
	DefaultMaxNewTokens      int     `env:"DEFAULT_MAX_NEW_TOKENS" envDefault:"200"`
	DefaultTemperature       float32 `env:"DEFAULT_TEMPERATURE" envDefault:"0.7"`
	DefaultTopP              float32 `env:"DEFAULT_TOP_P" envDefault:"0.9"`
	DefaultRepetitionPenalty float32 `env:"DEFAULT_REPETITION_PENALTY" envDefault:"1.2"`
	DefaultNoRepeatNgramSize int     `env:"DEFAULT_NO_REPEAT_NGRAM_SIZE" envDefault:"2"`

	// Auth. Empty secret disables bearer-token authentication.
	JWTSecret string `env:"JWT_SECRET"`

	// Observability. Empty DSN disables Sentry.
	SentryDSN string `env:"SENTRY_DSN"`
}

// Load loads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.Backend)
	}

	return cfg, nil
}

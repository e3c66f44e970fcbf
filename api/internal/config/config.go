package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"5000"`

	GeminiAPIKey string   `env:"GEMINI_API_KEY,required,notEmpty"`
	GeminiModels []string `env:"GEMINI_MODELS" envDefault:"gemini-1.5-flash,gemini-1.5-pro" envSeparator:","`

	Deployment string `env:"DEPLOYMENT" envDefault:"render"`
	LogMode    string `env:"LOG_MODE" envDefault:"release"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"20971520"`
	MaxImageSide    int           `env:"MAX_IMAGE_SIDE" envDefault:"0"`
	MaxImagePixels  int64         `env:"MAX_IMAGE_PIXELS" envDefault:"178956970"`
	AnalyzeTimeout  time.Duration `env:"ANALYZE_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// Load reads an optional .env file from the working directory and then the
// process environment. The Gemini credential has no default and must be set.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.GeminiModels = compact(cfg.GeminiModels)
	cfg.CORSAllowedOrigins = compact(cfg.CORSAllowedOrigins)

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	if len(cfg.GeminiModels) == 0 {
		return nil, errors.New("GEMINI_MODELS must name at least one model")
	}
	if cfg.Port == "" {
		return nil, errors.New("PORT is empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.MaxImageSide < 0 {
		return nil, fmt.Errorf("MAX_IMAGE_SIDE must not be negative, got %d", cfg.MaxImageSide)
	}
	if cfg.MaxImagePixels <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_PIXELS must be positive, got %d", cfg.MaxImagePixels)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

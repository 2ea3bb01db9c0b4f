package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	ConfigDir   string
	FREDAPIKey  string
	HTTPAddr    string
	APIKey      string

	PipelineEnabled     bool
	PipelineHourUTC     int
	SummaryCacheTTLSecs int

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		FREDAPIKey:  strings.TrimSpace(os.Getenv("FRED_API_KEY")),
	}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.FREDAPIKey == "" {
		log.Warn().Msg("FRED_API_KEY not set, ingestion will be skipped")
	}

	cfg.ConfigDir = strings.TrimSpace(os.Getenv("CONFIG_DIR"))
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = "config"
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("API_KEY"))
	if cfg.APIKey == "" {
		log.Warn().Msg("API_KEY not set, pipeline trigger is unauthenticated")
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.PipelineEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("PIPELINE_ENABLED")), "false")

	cfg.PipelineHourUTC = 22
	if v := strings.TrimSpace(os.Getenv("PIPELINE_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.PipelineHourUTC = n
		}
	}

	cfg.SummaryCacheTTLSecs = 300
	if v := strings.TrimSpace(os.Getenv("SUMMARY_CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SummaryCacheTTLSecs = n
		}
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if cfg.LogFormat != "console" {
		cfg.LogFormat = "json"
	}

	return cfg
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for raag-engine.
// Configuration comes from YAML file (config.yaml) with environment variable
// overrides. Secrets (API keys, database password) must only come from
// environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI research provider configuration
	Providers ProvidersConfig `yaml:"providers"`

	// Scraper fallback configuration
	Scraper ScraperConfig `yaml:"scraper"`

	// Request rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT bearer tokens are validated.
	// Set to false for local development without an auth server; requests
	// then run as "anonymous".
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// JWKSURL is the JWKS endpoint of the token issuer.
	JWKSURL string `yaml:"jwks_url" env:"AUTH_JWKS_URL" env-default:""`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"raagsetu"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"raag_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// ProvidersConfig holds per-provider AI research settings.
type ProvidersConfig struct {
	// RequestTimeout bounds a single upstream research call.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"PROVIDER_REQUEST_TIMEOUT" env-default:"45s"`

	OpenAI     ProviderConfig `yaml:"openai" env-prefix:"OPENAI_"`
	Gemini     ProviderConfig `yaml:"gemini" env-prefix:"GEMINI_"`
	Perplexity ProviderConfig `yaml:"perplexity" env-prefix:"PERPLEXITY_"`
}

// ProviderConfig holds credentials and model selection for one provider.
type ProviderConfig struct {
	// APIKey is the provider credential. Secret - env only
	// (OPENAI_API_KEY, GEMINI_API_KEY, PERPLEXITY_API_KEY).
	APIKey string `yaml:"-" env:"API_KEY"`

	// BaseURL overrides the provider endpoint (for proxies or compatible
	// servers). Empty means the provider default.
	BaseURL string `yaml:"base_url"`

	// Model is the primary model used for research calls.
	Model string `yaml:"model"`

	// FallbackModelsStr is a comma-separated ordered list of models to try
	// when the primary model is rejected as unknown.
	FallbackModelsStr string `yaml:"fallback_models"`

	// FallbackModels is the parsed form of FallbackModelsStr.
	FallbackModels []string `yaml:"-"`
}

// ScraperConfig holds settings for the non-AI scraping fallback.
type ScraperConfig struct {
	// LookupURL is a template with a %s placeholder for the entity name.
	LookupURL      string        `yaml:"lookup_url" env:"SCRAPER_LOOKUP_URL" env-default:"https://en.wikipedia.org/wiki/%s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SCRAPER_REQUEST_TIMEOUT" env-default:"20s"`
}

// RateLimitConfig holds the per-client token bucket settings.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// Load reads configuration from the given YAML path with environment
// variable overrides. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.Providers.OpenAI.FallbackModels = splitModels(cfg.Providers.OpenAI.FallbackModelsStr)
	cfg.Providers.Gemini.FallbackModels = splitModels(cfg.Providers.Gemini.FallbackModelsStr)
	cfg.Providers.Perplexity.FallbackModels = splitModels(cfg.Providers.Perplexity.FallbackModelsStr)

	return cfg, nil
}

func splitModels(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	models := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			models = append(models, trimmed)
		}
	}
	return models
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Package config loads application configuration from YAML and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// TOC_SERVER_PORT overrides server.port.
const envPrefix = "TOC_"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	CORS     CORSConfig     `koanf:"cors"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AuthConfig contains credential verification settings.
// JWTSecret is the shared secret the external identity provider signs tokens with.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

// WebhookConfig contains external ingestion settings.
// IngestionSecret is optional; when empty the webhook route accepts
// unauthenticated reports.
type WebhookConfig struct {
	IngestionSecret string  `koanf:"ingestion_secret"`
	RateLimit       float64 `koanf:"rate_limit"`
	RateBurst       int     `koanf:"rate_burst"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// defaults returns the built-in configuration defaults.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.host":                "0.0.0.0",
		"server.port":                "8080",
		"server.metrics_port":        "9090",
		"server.read_timeout":        "15s",
		"server.read_header_timeout": "5s",
		"server.write_timeout":       "15s",
		"server.idle_timeout":        "60s",
		"database.max_open_conns":    10,
		"database.max_idle_conns":    2,
		"database.conn_max_lifetime": "30m",
		"database.connect_timeout":   "30s",
		"database.connect_attempts":  5,
		"log.level":                  "info",
		"log.format":                 "json",
		"webhook.rate_limit":         5.0,
		"webhook.rate_burst":         10,
		"cors.allowed_origins":       []string{"*"},
	}
}

// Load reads configuration from the given YAML file (optional) and
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confMapProvider{defaults()}, nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Only the first underscore separates the section from the key, so
	// TOC_SERVER_READ_TIMEOUT maps to server.read_timeout.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

// confMapProvider feeds a flat key map into koanf.
type confMapProvider struct {
	m map[string]interface{}
}

func (p confMapProvider) ReadBytes() ([]byte, error) { return nil, nil }

func (p confMapProvider) Read() (map[string]interface{}, error) {
	flat := make(map[string]interface{}, len(p.m))
	for k, v := range p.m {
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}

// Package config handles deckbrief configuration: YAML file loading with
// environment variable expansion, plus a pure-environment path for
// container deployments.
package config

import (
	"errors"
	"fmt"
	"time"
	"unicode"
)

// Defaults applied when neither file nor environment provide a value.
const (
	DefaultListen          = ":8080"
	DefaultModel           = "gpt-4o-mini"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config represents a deckbrief.yaml configuration file.
// Environment variables (DECKBRIEF_*) fill the same fields when no file
// is used; file values win when both are present.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Listen is the address the server binds to.
	Listen string `yaml:"listen" env:"DECKBRIEF_LISTEN"`
	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout Duration `yaml:"shutdown_timeout" env:"DECKBRIEF_SHUTDOWN_TIMEOUT"`
}

// ProviderConfig holds the external summarizer endpoint settings.
// The credential never appears in logs or rendered output.
type ProviderConfig struct {
	// BaseURL overrides the provider's default API endpoint. Optional.
	BaseURL string `yaml:"base_url" env:"DECKBRIEF_PROVIDER_BASE_URL"`
	// APIKey is the provider credential. Required.
	APIKey string `yaml:"api_key" env:"DECKBRIEF_PROVIDER_API_KEY"`
	// Model is the model identifier used for every summarization call.
	Model string `yaml:"model" env:"DECKBRIEF_PROVIDER_MODEL"`
}

// NotifyConfig selects an optional session-completion notification
// target. At most one backend may be configured.
type NotifyConfig struct {
	// Backend is "webhook", "redis", or empty (notifications disabled).
	Backend string `yaml:"backend" env:"DECKBRIEF_NOTIFY_BACKEND"`
	// URL is the webhook endpoint or Redis connection URL.
	URL string `yaml:"url" env:"DECKBRIEF_NOTIFY_URL"`
	// Channel is the Redis pub/sub channel (redis backend only).
	Channel string `yaml:"channel" env:"DECKBRIEF_NOTIFY_CHANNEL"`
	// Retries is the retry attempt count for a failed publish.
	Retries int `yaml:"retries" env:"DECKBRIEF_NOTIFY_RETRIES" envDefault:"3"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// UnmarshalText parses a duration from an environment variable value.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// applyDefaults fills unset fields with defaults.
func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = DefaultShutdownTimeout
	}
	if c.Provider.Model == "" {
		c.Provider.Model = DefaultModel
	}
}

// Validate checks the configuration before first use.
// A missing or malformed credential is a fatal configuration error.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return errors.New("provider api key is required (set provider.api_key or DECKBRIEF_PROVIDER_API_KEY)")
	}
	// The credential travels in an HTTP Authorization header, which cannot
	// carry non-ASCII bytes.
	for _, r := range c.Provider.APIKey {
		if r > unicode.MaxASCII {
			return errors.New("provider api key contains non-ASCII characters")
		}
	}
	if c.Provider.Model == "" {
		return errors.New("provider model is required")
	}
	if c.Server.Listen == "" {
		return errors.New("server listen address is required")
	}
	switch c.Notify.Backend {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unknown notify backend %q (must be webhook or redis)", c.Notify.Backend)
	}
	if c.Notify.Backend != "" && c.Notify.URL == "" {
		return fmt.Errorf("notify backend %q requires a URL", c.Notify.Backend)
	}
	return nil
}

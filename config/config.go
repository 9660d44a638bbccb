package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c360/graphcfg/errors"
)

// Config is the complete application configuration
type Config struct {
	Log     LogConfig     `json:"log"`
	NATS    NATSConfig    `json:"nats"`
	Store   StoreConfig   `json:"store"`
	HTTP    HTTPConfig    `json:"http"`
	Metrics MetricsConfig `json:"metrics"`
}

// LogConfig controls structured logging output
type LogConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // text or json
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
}

// StoreConfig defines template persistence settings
type StoreConfig struct {
	Bucket  string `json:"bucket,omitempty"`
	History uint8  `json:"history,omitempty"`
}

// HTTPConfig defines the API server settings for serve mode
type HTTPConfig struct {
	Listen string `json:"listen,omitempty"` // host:port for the API
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen,omitempty"` // host:port for /metrics
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Store: StoreConfig{
			Bucket:  "graphcfg_templates",
			History: 10,
		},
		HTTP: HTTPConfig{
			Listen: ":8080",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  ":9090",
		},
	}
}

// Load reads the configuration file at path over the defaults, then
// applies environment overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapSemantic(
				fmt.Errorf("%w: %s: %w", errors.ErrMissingConfig, path, err),
				"Config", "Load", "read config file")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapSyntax(
				fmt.Errorf("%w: %s: %w", errors.ErrInvalidConfig, path, err),
				"Config", "Load", "parse config file")
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies GRAPHCFG_* environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GRAPHCFG_NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := os.Getenv("GRAPHCFG_NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := os.Getenv("GRAPHCFG_NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := os.Getenv("GRAPHCFG_NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}
	if val := os.Getenv("GRAPHCFG_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("GRAPHCFG_STORE_BUCKET"); val != "" {
		cfg.Store.Bucket = val
	}
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapSemantic(
			fmt.Errorf("%w: log.level %q", errors.ErrInvalidConfig, c.Log.Level),
			"Config", "Validate", "log level validation")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.WrapSemantic(
			fmt.Errorf("%w: log.format %q", errors.ErrInvalidConfig, c.Log.Format),
			"Config", "Validate", "log format validation")
	}

	if len(c.NATS.URLs) == 0 {
		return errors.WrapSemantic(
			fmt.Errorf("%w: nats.urls", errors.ErrMissingConfig),
			"Config", "Validate", "NATS URL validation")
	}
	for _, url := range c.NATS.URLs {
		if url == "" {
			return errors.WrapSemantic(
				fmt.Errorf("%w: nats.urls contains an empty entry", errors.ErrInvalidConfig),
				"Config", "Validate", "NATS URL validation")
		}
	}

	if c.Store.Bucket == "" {
		return errors.WrapSemantic(
			fmt.Errorf("%w: store.bucket", errors.ErrMissingConfig),
			"Config", "Validate", "bucket validation")
	}

	if c.HTTP.Listen == "" {
		return errors.WrapSemantic(
			fmt.Errorf("%w: http.listen", errors.ErrMissingConfig),
			"Config", "Validate", "HTTP listener validation")
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.WrapSemantic(
			fmt.Errorf("%w: metrics.listen is required when metrics are enabled",
				errors.ErrMissingConfig),
			"Config", "Validate", "metrics listener validation")
	}

	return nil
}

// ServerURL returns the connection string handed to the NATS client,
// joining multiple URLs with commas the way nats.go expects.
func (c *Config) ServerURL() string {
	return strings.Join(c.NATS.URLs, ",")
}

// UnmarshalJSON accepts reconnect_wait both as a duration string and
// as raw nanoseconds.
func (n *NATSConfig) UnmarshalJSON(data []byte) error {
	type Alias NATSConfig
	aux := &struct {
		ReconnectWait any `json:"reconnect_wait,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(n),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	switch v := aux.ReconnectWait.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		n.ReconnectWait = d
	case float64:
		n.ReconnectWait = time.Duration(v)
	}
	return nil
}

// String renders the config as indented JSON with credentials masked
func (c *Config) String() string {
	masked := *c
	if masked.NATS.Password != "" {
		masked.NATS.Password = "***"
	}
	if masked.NATS.Token != "" {
		masked.NATS.Token = "***"
	}
	data, _ := json.MarshalIndent(&masked, "", "  ")
	return string(data)
}

package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig
const (
	EnvAPIURL            = "DOCS_CHAT_API_URL"
	EnvPushURL           = "DOCS_CHAT_PUSH_URL"
	EnvStorage           = "DOCS_CHAT_STORAGE"
	EnvQueryTimeout      = "DOCS_CHAT_QUERY_TIMEOUT"
	EnvHealthInterval    = "DOCS_CHAT_HEALTH_INTERVAL"
	EnvReconnectAttempts = "DOCS_CHAT_RECONNECT_ATTEMPTS"
	EnvReconnectDelay    = "DOCS_CHAT_RECONNECT_DELAY"
)

// Config holds the client settings
type Config struct {
	APIURL         string          `yaml:"api_url"`
	PushURL        string          `yaml:"push_url"`
	StoragePath    string          `yaml:"storage"`
	QueryTimeout   time.Duration   `yaml:"query_timeout"`
	HealthInterval time.Duration   `yaml:"health_interval"`
	Reconnect      ReconnectPolicy `yaml:"reconnect"`
}

// LoadOptions points LoadConfig at optional files. Empty paths are skipped.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		APIURL:         "http://localhost:5000",
		PushURL:        "ws://localhost:5000/ws",
		QueryTimeout:   30 * time.Second,
		HealthInterval: 30 * time.Second,
		Reconnect:      DefaultReconnectPolicy(),
	}
}

// LoadConfig builds a Config from defaults, then the YAML file, then the .env
// file, then the process environment. Missing files are not errors.
func LoadConfig(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if opts.ConfigFile != "" {
		if err := cfg.mergeYAML(opts.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if opts.EnvFile != "" {
		// Load never overrides variables already set in the environment.
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, &ConfigError{Key: opts.EnvFile, Err: err}
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &ConfigError{Key: path, Err: err}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigError{Key: path, Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvPushURL); v != "" {
		c.PushURL = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.StoragePath = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvQueryTimeout, &c.QueryTimeout},
		{EnvHealthInterval, &c.HealthInterval},
		{EnvReconnectDelay, &c.Reconnect.InitialDelay},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Key: d.key, Err: err}
		}
		*d.dst = parsed
	}

	if v := os.Getenv(EnvReconnectAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Key: EnvReconnectAttempts, Err: err}
		}
		c.Reconnect.MaxAttempts = n
	}
	return nil
}

// Validate checks URLs and durations
func (c Config) Validate() error {
	if err := validateURL("api_url", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("push_url", c.PushURL, "ws", "wss"); err != nil {
		return err
	}
	if c.QueryTimeout <= 0 {
		return &ConfigError{Key: "query_timeout", Err: fmt.Errorf("must be positive, got %s", c.QueryTimeout)}
	}
	if c.HealthInterval < 0 {
		return &ConfigError{Key: "health_interval", Err: fmt.Errorf("must not be negative, got %s", c.HealthInterval)}
	}
	return c.Reconnect.Validate()
}

func validateURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Key: key, Err: err}
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return &ConfigError{Key: key, Err: fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, "/"))}
}

// YAML renders the config as YAML
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

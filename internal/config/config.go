// Package config loads stockroom settings from defaults, a YAML file, a
// .env file and STOCKROOM_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the complete configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	// Stores restricts removal destinations. Empty allows any name.
	Stores []string `yaml:"stores"`
}

// ServerConfig configures `stockroom serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// DB is the SQLite path. Accounts live here for every backend.
	DB string `yaml:"db"`
	// Log is an optional file that receives a copy of all log output.
	Log       string        `yaml:"log"`
	Backend   string        `yaml:"backend"`
	Redis     RedisConfig   `yaml:"redis"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	AdminUser string        `yaml:"admin_user"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ClientConfig configures the CLI's connection to a server.
type ClientConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	// Atomic saves all collections with one snapshot request.
	Atomic bool `yaml:"atomic"`
}

// DefaultConfig returns a Config with defaults for a local install.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			DB:        "stockroom.sqlite3",
			Backend:   BackendSQLite,
			Redis:     RedisConfig{Addr: "localhost:6379", Prefix: "stockroom:"},
			TokenTTL:  12 * time.Hour,
			AdminUser: "admin",
		},
		Client: ClientConfig{
			URL:     "http://localhost:8080",
			Timeout: 10 * time.Second,
			Retries: 2,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.DB == "" {
		return fmt.Errorf("server.db is required")
	}
	if !slices.Contains([]string{BackendSQLite, BackendRedis}, c.Server.Backend) {
		return fmt.Errorf("server.backend must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Server.Backend)
	}
	if c.Server.Backend == BackendRedis && c.Server.Redis.Addr == "" {
		return fmt.Errorf("server.redis.addr is required for the redis backend")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive")
	}
	if c.Client.URL == "" {
		return fmt.Errorf("client.url is required")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if c.Client.Retries < 0 {
		return fmt.Errorf("client.retries must not be negative")
	}
	for _, s := range c.Stores {
		if s == "" {
			return fmt.Errorf("stores must not contain empty names")
		}
	}
	return nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

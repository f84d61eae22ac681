package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "stockroom.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOCKROOM_"

// Loader loads configuration with layered precedence.
type Loader struct {
	logger  *slog.Logger
	lookup  func(string) (string, bool)
	envFile string
}

// NewLoader creates a Loader reading the process environment.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, lookup: os.LookupEnv, envFile: ".env"}
}

// Load builds the configuration:
//  1. defaults
//  2. the YAML file at path, or DefaultFile if path is empty and it exists
//  3. variables from .env, without replacing ones already set
//  4. STOCKROOM_* environment variables
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	fileCfg, err := LoadFromFile(path)
	switch {
	case err == nil:
		l.logger.Debug("loaded config file", "path", path)
		cfg = fileCfg
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err == nil {
			l.logger.Debug("loaded env file", "path", l.envFile)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("failed to load env file", "path", l.envFile, "error", err)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := l.lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("ADDR", &cfg.Server.Addr)
	str("DB", &cfg.Server.DB)
	str("LOG", &cfg.Server.Log)
	str("BACKEND", &cfg.Server.Backend)
	str("ADMIN_USER", &cfg.Server.AdminUser)
	str("REDIS_ADDR", &cfg.Server.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Server.Redis.Password)
	str("REDIS_PREFIX", &cfg.Server.Redis.Prefix)
	str("URL", &cfg.Client.URL)
	str("USERNAME", &cfg.Client.Username)
	str("PASSWORD", &cfg.Client.Password)

	if v, ok := l.lookup(EnvPrefix + "STORES"); ok {
		cfg.Stores = splitList(v)
	}

	var errs []error
	if v, ok := l.lookup(EnvPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, envError("REDIS_DB", err))
		cfg.Server.Redis.DB = n
	}
	if v, ok := l.lookup(EnvPrefix + "RETRIES"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, envError("RETRIES", err))
		cfg.Client.Retries = n
	}
	if v, ok := l.lookup(EnvPrefix + "ATOMIC"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, envError("ATOMIC", err))
		cfg.Client.Atomic = b
	}
	if v, ok := l.lookup(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, envError("TIMEOUT", err))
		cfg.Client.Timeout = d
	}
	if v, ok := l.lookup(EnvPrefix + "TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, envError("TOKEN_TTL", err))
		cfg.Server.TokenTTL = d
	}
	return errors.Join(errs...)
}

func envError(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

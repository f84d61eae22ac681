package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(t *testing.T, env map[string]string) *Loader {
	t.Helper()
	return &Loader{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		envFile: filepath.Join(t.TempDir(), "missing.env"),
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := writeFile(t, "stockroom.yaml", `
server:
  addr: ":9090"
  backend: redis
  redis:
    addr: "redis:6379"
client:
  timeout: 3s
  atomic: true
stores: [Main, North]
`)
	cfg, err := testLoader(t, nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendRedis, cfg.Server.Backend)
	assert.Equal(t, "redis:6379", cfg.Server.Redis.Addr)
	assert.Equal(t, "stockroom:", cfg.Server.Redis.Prefix, "unset keys keep defaults")
	assert.Equal(t, "stockroom.sqlite3", cfg.Server.DB)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.True(t, cfg.Client.Atomic)
	assert.Equal(t, []string{"Main", "North"}, cfg.Stores)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := testLoader(t, nil).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "stockroom.yaml", "server:\n  addr: \":9090\"\n")
	cfg, err := testLoader(t, map[string]string{
		"STOCKROOM_ADDR":    ":7070",
		"STOCKROOM_STORES":  " Main , ,South",
		"STOCKROOM_RETRIES": "5",
		"STOCKROOM_ATOMIC":  "true",
		"STOCKROOM_TIMEOUT": "1500ms",
	}).Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"Main", "South"}, cfg.Stores)
	assert.Equal(t, 5, cfg.Client.Retries)
	assert.True(t, cfg.Client.Atomic)
	assert.Equal(t, 1500*time.Millisecond, cfg.Client.Timeout)
}

func TestEnvParseErrors(t *testing.T) {
	_, err := testLoader(t, map[string]string{
		"STOCKROOM_RETRIES": "many",
		"STOCKROOM_TIMEOUT": "soon",
	}).Load(writeFile(t, "c.yaml", "{}"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "STOCKROOM_RETRIES")
	assert.ErrorContains(t, err, "STOCKROOM_TIMEOUT")
}

func TestEnvFileFillsUnsetVariables(t *testing.T) {
	envFile := writeFile(t, ".env", "STOCKROOM_TEST_ONLY_URL=http://from-dotenv:8080\n")
	t.Setenv("STOCKROOM_TEST_ONLY_URL", "")
	os.Unsetenv("STOCKROOM_TEST_ONLY_URL")

	l := NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.envFile = envFile
	_, err := l.Load(writeFile(t, "c.yaml", "{}"))
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8080", os.Getenv("STOCKROOM_TEST_ONLY_URL"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Server.Backend = "postgres" }},
		{"redis without addr", func(c *Config) { c.Server.Backend = BackendRedis; c.Server.Redis.Addr = "" }},
		{"empty db", func(c *Config) { c.Server.DB = "" }},
		{"negative retries", func(c *Config) { c.Client.Retries = -1 }},
		{"zero timeout", func(c *Config) { c.Client.Timeout = 0 }},
		{"empty store name", func(c *Config) { c.Stores = []string{"Main", ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stockroom.yaml")
	cfg := DefaultConfig()
	cfg.Stores = []string{"Main"}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

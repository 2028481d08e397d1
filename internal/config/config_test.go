package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFrom(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5
backend:
  base_url: https://api.example.com/api/
  timeout: 3
session:
  cookie_name: sid
  ttl: 2h
cache:
  driver: redis
redis:
  address: redis:6379
  db: 2
quiz:
  submit_formats: [array, id_map]
`)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 20*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "https://api.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "sid", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"array", "id_map"}, cfg.Quiz.SubmitFormats)
	assert.Equal(t, 6*time.Hour, cfg.Quiz.FlowTTL)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfigFrom_EnvOverride(t *testing.T) {
	path := writeConfig(t, "backend:\n  base_url: http://file.example\n")
	t.Setenv("BACKEND_BASE_URL", "http://env.example")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example", cfg.Backend.BaseURL)
}

func TestLoadConfigFrom_MissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_WithoutFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("ENV", "")
	t.Setenv("BACKEND_BASE_URL", "http://env.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://env.example", cfg.Backend.BaseURL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid memory", mutate: func(c *Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.Backend.BaseURL = "" }, wantErr: true},
		{name: "missing cookie name", mutate: func(c *Config) { c.Session.CookieName = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Cache.Driver = "memcached" }, wantErr: true},
		{name: "redis without address", mutate: func(c *Config) {
			c.Cache.Driver = "redis"
			c.Redis.Address = ""
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Backend: BackendConfig{BaseURL: "http://localhost"},
				Session: SessionConfig{CookieName: "sid"},
				Cache:   CacheConfig{Driver: "memory"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

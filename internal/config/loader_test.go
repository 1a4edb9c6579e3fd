package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "allgood", cfg.App.Name)
	require.Equal(t, "development", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, 10*time.Second, cfg.Checks.DefaultTimeout)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.OTEL.Enable)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/allgood.yaml")
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "allgood.yaml")
	data := []byte(`
app:
  env: production
cache:
  backend: redis
  redis_url: redis://cache.internal:6379/1
checks:
  default_timeout: 3s
  urls:
    - https://example.com/up
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.App.Env)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, "redis://cache.internal:6379/1", cfg.Cache.RedisURL)
	require.Equal(t, 3*time.Second, cfg.Checks.DefaultTimeout)
	require.Equal(t, []string{"https://example.com/up"}, cfg.Checks.URLs)

	// untouched keys keep their defaults
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("APP_ENV", "staging")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Cache.Backend)
	require.Equal(t, "staging", cfg.App.Env)
}

func TestLoggerAndOTELConversion(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	lc := cfg.AsLoggerConfig()
	require.Equal(t, "allgood", lc.Service)
	require.Equal(t, "info", lc.Level)

	oc := cfg.AsOTELConfig()
	require.Equal(t, "allgood", oc.ServiceName)
	require.False(t, oc.Enable)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9090\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 100000, cfg.Recommendation.QuickStartLimit)
	assert.Equal(t, 1500000, cfg.Recommendation.LoadLimit)
	assert.Equal(t, 900, cfg.Cache.TTLSeconds)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 10, cfg.Dataset.MinRows)
	assert.Equal(t, 10, cfg.Recommendation.DefaultLimit)
}

func TestLoad_ReadsYAML(t *testing.T) {
	path := writeConfig(t, `
dataset:
  path: "/data/movies.csv"
  min_rows: 0
recommendation:
  quick_start_limit: 100
  load_limit: 1000
cache:
  backend: "redis"
  ttl_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/movies.csv", cfg.Dataset.Path)
	assert.Equal(t, 0, cfg.Dataset.MinRows)
	assert.Equal(t, 100, cfg.Recommendation.QuickStartLimit)
	assert.Equal(t, 1000, cfg.Recommendation.LoadLimit)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "recommendation:\n  quick_start_limit: 100\n")
	t.Setenv("ML_QUICK_START_LIMIT", "250")
	t.Setenv("ML_CACHE_TTL", "30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Recommendation.QuickStartLimit)
	assert.Equal(t, 30, cfg.Cache.TTLSeconds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

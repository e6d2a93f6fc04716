package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/estuarine/gateopt/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8000", cfg.Server.URL)
	require.Equal(t, 60, cfg.Server.TimeoutSeconds)
	require.Equal(t, 4, cfg.Run.Workers)
	require.Equal(t, 100, cfg.Run.WeightTotal)
	require.Equal(t, ":memory:", cfg.History.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Fixture)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GATEOPT_SERVER_URL", "https://optimizer.example.org")
	t.Setenv("GATEOPT_SERVER_PREFIX", "api")
	t.Setenv("GATEOPT_PROJECT", "riverlands")
	t.Setenv("GATEOPT_LOG_LEVEL", "debug")
	t.Setenv("GATEOPT_FIXTURE", "1")
	t.Setenv("GATEOPT_REGIONS", "Red Fork:Trident")
	t.Setenv("GATEOPT_TARGETS", "T1:T2")
	t.Setenv("GATEOPT_BUDGET", "500000")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "https://optimizer.example.org", cfg.Server.URL)
	require.Equal(t, "api", cfg.Server.Prefix)
	require.Equal(t, "riverlands", cfg.Project)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Fixture)
	require.Equal(t, []string{"Red Fork", "Trident"}, cfg.Demo.Regions)
	require.Equal(t, []string{"T1", "T2"}, cfg.Demo.Targets)
	require.Equal(t, int64(500000), cfg.Demo.Budget)
}

func TestLoadInvalidBudget(t *testing.T) {
	t.Setenv("GATEOPT_BUDGET", "a lot")
	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateopt.yaml")
	content := `
server:
  url: http://optimizer.internal:9000
  timeout_seconds: 10
project: riverlands
run:
  workers: 2
history:
  path: runs.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("GATEOPT_CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "http://optimizer.internal:9000", cfg.Server.URL)
	require.Equal(t, 10, cfg.Server.TimeoutSeconds)
	require.Equal(t, "riverlands", cfg.Project)
	require.Equal(t, 2, cfg.Run.Workers)
	require.Equal(t, "runs.db", cfg.History.Path)
	// file values still honor untouched defaults
	require.Equal(t, 100, cfg.Run.WeightTotal)
}

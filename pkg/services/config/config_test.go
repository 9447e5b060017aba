package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "eu-central-1", cfg.AWS.Region)
		assert.Equal(t, "DE", cfg.Carbon.Zone)
		assert.Equal(t, 7, cfg.Analysis.WindowDays)
		assert.Equal(t, 30, cfg.Analysis.LookbackDays)
		assert.Equal(t, 24, cfg.Analysis.MetricsHours)
		assert.InDelta(t, 7, cfg.Analysis.ValidationMinDays, 1e-9)
		assert.Equal(t, 4, cfg.Analysis.Workers)
		assert.Equal(t, "localhost:8080", cfg.Server.Addr)
		assert.Equal(t, ".finops-cache", cfg.CacheDir)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
aws:
  region: us-east-1
carbon:
  zone: US-NY-NYIS
analysis:
  window_days: 14
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "us-east-1", cfg.AWS.Region)
		assert.Equal(t, "US-NY-NYIS", cfg.Carbon.Zone)
		assert.Equal(t, 14, cfg.Analysis.WindowDays)
		// Defaults still fill what the file leaves out.
		assert.Equal(t, 30, cfg.Analysis.LookbackDays)
	})

	t.Run("environment overrides", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("FINOPS_CARBON_ZONE", "FR")
		t.Setenv("FINOPS_ANALYSIS_WINDOW_DAYS", "3")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "FR", cfg.Carbon.Zone)
		assert.Equal(t, 3, cfg.Analysis.WindowDays)
	})

	t.Run("explicit path that does not exist is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

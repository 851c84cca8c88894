package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/packout/internal/rooms"
)

// unsetForTest clears key for the duration of the test.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENVIRONMENT", "local")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, 25.0, cfg.Estimator.DriveTimeMinutes)
	assert.Equal(t, 2, cfg.Estimator.StorageMonths)
	assert.Equal(t, 0.65, cfg.Estimator.TargetMargin)
	assert.Equal(t, 0.14, cfg.Estimator.PackBackDiscount)
	assert.Equal(t, 48, cfg.Estimator.BubbleWrapWidth)
	assert.Equal(t, rooms.DefaultThresholds(), cfg.Thresholds())

	settings := cfg.Settings()
	assert.Equal(t, 25.0, settings.DriveTimeMinutes)
	assert.Equal(t, 48, settings.BubbleWrapWidth)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "config.yaml", `
env: production
port: "9090"
tax_rate: 0.086
estimator:
  storage_months: 3
inference:
  density_bump: 1.4
`)
	unsetForTest(t, "ENVIRONMENT")
	unsetForTest(t, "TAX_RATE")
	t.Setenv("PORT", "7070")
	t.Setenv("ESTIMATOR_STORAGE_MONTHS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDev())
	assert.Equal(t, "7070", cfg.Port, "env wins over yaml")
	assert.Equal(t, 0.086, cfg.TaxRate)
	assert.Equal(t, 4, cfg.Settings().StorageMonths)
	assert.Equal(t, 1.4, cfg.Thresholds().DensityBump)
	assert.Equal(t, 1.75, cfg.Thresholds().ClosetBoost, "unset yaml keys keep their defaults")
}

func TestLoad_DotEnvDoesNotOverwriteEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "API_TOKEN='from-file'\nDB_PATH=/tmp/from-file.db\n")
	unsetForTest(t, "API_TOKEN")
	t.Setenv("DB_PATH", "/data/packout.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIToken)
	assert.Equal(t, "/data/packout.db", cfg.DBPath)
}

func TestLoad_RejectsInvalidThresholds(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INFERENCE_VISIBLE_TRUST", "1.5")

	_, err := Load()
	require.Error(t, err)
}

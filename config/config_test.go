package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shaho-engine/config"
)

var envKeys = []string{"PORT", "DB_PATH", "LOG_LEVEL", "LOG_PRETTY", "RATES_FILE", "QUALITY_GRACE_DAYS", "BATCH_WORKERS", "SCHEDULER_ENABLED", "SCHEDULER_INTERVAL"}

// chdir runs the test from an empty directory with a clean environment so
// no stray .env or variable is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "shaho.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
db_path: /var/lib/shaho.db
rates_file: rates.yaml
quality:
  grace_days: 14
scheduler:
  enabled: true
  interval: 15m
`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("BATCH_WORKERS", "3")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "/var/lib/shaho.db", cfg.DBPath)
	assert.Equal(t, "rates.yaml", cfg.RatesFile)
	assert.Equal(t, 14, cfg.Quality.GraceDays)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nQUALITY_GRACE_DAYS=45\n"), 0o600))

	// godotenv sets variables for the whole process
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("QUALITY_GRACE_DAYS")
	})

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45, cfg.Quality.GraceDays)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	chdir(t)
	_, err := config.Load("does-not-exist.yaml")
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		dir := chdir(t)
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [1"), 0o600))
		_, err := config.Load(path)
		assert.Error(t, err)
	})

	t.Run("bad env value", func(t *testing.T) {
		chdir(t)
		t.Setenv("PORT", "eighty")
		_, err := config.Load("")
		assert.Error(t, err)
	})

	t.Run("bad interval", func(t *testing.T) {
		chdir(t)
		t.Setenv("SCHEDULER_INTERVAL", "hourly")
		_, err := config.Load("")
		assert.Error(t, err)
	})

	t.Run("invalid workers", func(t *testing.T) {
		chdir(t)
		t.Setenv("BATCH_WORKERS", "0")
		_, err := config.Load("")
		assert.Error(t, err)
	})
}

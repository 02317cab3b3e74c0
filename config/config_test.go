package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "REPLAY_CRON", "REFRESH_INTERVAL_SECONDS", "REPLAY_CONCURRENCY", "SEASON_START_YEAR", "LOG_LEVEL", "LOG_FORMAT", "CONFIG_FILE"} {
		unsetEnv(t, key)
	}

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "0 6 * * *", cfg.ReplayCron)
	assert.Equal(t, 60*time.Second, cfg.GetRefreshInterval())

	unified := cfg.Unified()
	assert.Equal(t, 5, unified.Scraper.MaxConcurrency)
	assert.Equal(t, 2025, unified.Season.StartYear)
	assert.Equal(t, "America/Chicago", unified.Season.DisplayTimezone)
	assert.Equal(t, "json", unified.Logging.Format)
}

// unsetEnv removes key for the duration of the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ADMIN_TOKEN", "secret")
	t.Setenv("REPLAY_CRON", "30 5 * * *")
	t.Setenv("REFRESH_INTERVAL_SECONDS", "15")
	t.Setenv("REPLAY_CONCURRENCY", "2")
	t.Setenv("SEASON_START_YEAR", "2026")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "secret", cfg.AdminToken)
	assert.Equal(t, "30 5 * * *", cfg.ReplayCron)
	assert.Equal(t, 15*time.Second, cfg.GetRefreshInterval())

	unified := cfg.Unified()
	assert.Equal(t, 2, unified.Scraper.MaxConcurrency)
	assert.Equal(t, 2026, unified.Season.StartYear)
	assert.Equal(t, "debug", unified.Logging.Level)
}

func TestInvalidValuesFallBack(t *testing.T) {
	cfg := &Config{RefreshIntervalSeconds: "soon", ReplayConcurrency: "many", SeasonStartYear: "next"}

	assert.Equal(t, 60*time.Second, cfg.GetRefreshInterval())
	cfg.RefreshIntervalSeconds = "-5"
	assert.Equal(t, 60*time.Second, cfg.GetRefreshInterval())

	unified := cfg.Unified()
	assert.Equal(t, 5, unified.Scraper.MaxConcurrency)
	assert.Equal(t, 2025, unified.Season.StartYear)
	assert.Equal(t, "info", unified.Logging.Level)
}

func TestConfigFileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"season": {"start_year": 2030},
		"scraper": {"max_concurrency": 3},
		"sources": {"lotus": {"base_url": "https://lotus.test"}}
	}`), 0o600))

	cfg := &Config{ReplayConcurrency: "8", SeasonStartYear: "2025", LogLevel: "warn", ConfigFile: path}
	unified := cfg.Unified()

	assert.Equal(t, 2030, unified.Season.StartYear)
	assert.Equal(t, 3, unified.Scraper.MaxConcurrency)
	assert.Equal(t, "https://lotus.test", unified.Sources.Lotus.BaseURL)
	assert.Equal(t, "warn", unified.Logging.Level, "keys absent from the file keep their environment value")
	assert.NotEmpty(t, unified.Sources.Streamed.BaseURL, "defaults survive a partial file")
}

func TestUnreadableConfigFileKeepsDefaults(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"season":`), 0o600))

	for _, path := range []string{broken, filepath.Join(t.TempDir(), "missing.json")} {
		cfg := &Config{ReplayConcurrency: "4", SeasonStartYear: "2025", ConfigFile: path}
		unified := cfg.Unified()
		assert.Equal(t, 4, unified.Scraper.MaxConcurrency)
		assert.Equal(t, 2025, unified.Season.StartYear)
	}
}

package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndApplyDefaults(t *testing.T) {
	cfg := &UnifiedConfiguration{}
	cfg.Scraper.MaxConcurrency = 3
	cfg.Cache.ScoreboardTTL = 15 * time.Second
	cfg.Season.StartMonth = 13

	cfg.ValidateAndApplyDefaults()

	defaults := NewDefaultUnifiedConfiguration()
	assert.Equal(t, 3, cfg.Scraper.MaxConcurrency)
	assert.Equal(t, 15*time.Second, cfg.Cache.ScoreboardTTL)
	assert.Equal(t, defaults.Cache.MomentumTTL, cfg.Cache.MomentumTTL)
	assert.Equal(t, defaults.Sources.Lotus.BaseURL, cfg.Sources.Lotus.BaseURL)
	assert.Equal(t, defaults.Sources.EmbedHost, cfg.Sources.EmbedHost)
	assert.Equal(t, int(time.October), cfg.Season.StartMonth)
	assert.Equal(t, "nba-watcher", cfg.Logging.ServiceName)
}

func TestDefaultCacheTTLs(t *testing.T) {
	cache := NewDefaultUnifiedConfiguration().Cache

	assert.Equal(t, 10*time.Second, cache.ScoreboardTTL)
	assert.Equal(t, 10*time.Second, cache.BoxscoreTTL)
	assert.Equal(t, 60*time.Second, cache.MomentumTTL)
	assert.Equal(t, time.Hour, cache.GamesListTTL)
	assert.Equal(t, 12*time.Hour, cache.ReplayListTTL)
}

func TestConfigurationJSONRoundTrip(t *testing.T) {
	cfg := NewDefaultUnifiedConfiguration()
	cfg.Season.StartYear = 2030
	data, err := cfg.ToJSON()
	require.NoError(t, err)

	loaded := &UnifiedConfiguration{}
	require.NoError(t, loaded.LoadFromJSON(data))
	assert.Equal(t, 2030, loaded.Season.StartYear)
	assert.Equal(t, 2031, loaded.Season.SeasonEndYear())

	assert.Error(t, loaded.LoadFromJSON([]byte(`{"season":`)))
}

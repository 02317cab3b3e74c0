package shared

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// UnifiedConfiguration holds all configuration parameters for the entire application
type UnifiedConfiguration struct {
	Sources  SourcesConfig  `json:"sources"`
	Database DatabaseConfig `json:"database"`
	Scraper  ScraperConfig  `json:"scraper"`
	Cache    CacheConfig    `json:"cache"`
	Season   SeasonConfig   `json:"season"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServiceConfig holds the endpoint settings of one upstream provider
type ServiceConfig struct {
	BaseURL            string        `json:"base_url"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestRateLimit   time.Duration `json:"rate_limit"`
	MaxRetryAttempts   int           `json:"max_retries"`
}

// SourcesConfig lists every upstream the aggregator talks to
type SourcesConfig struct {
	Lotus     ServiceConfig `json:"lotus"`
	Streamed  ServiceConfig `json:"streamed"`
	EmbedHost string        `json:"embed_host"`
	LiveStats ServiceConfig `json:"live_stats"`
	StatsAPI  ServiceConfig `json:"stats_api"`
	Schedule  ServiceConfig `json:"schedule"`
	Replay    ServiceConfig `json:"replay"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// ScraperConfig bounds the headless replay scraping pool
type ScraperConfig struct {
	MaxConcurrency    int           `json:"max_concurrency"`
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	ClickTimeout      time.Duration `json:"click_timeout"`
	IframeTimeout     time.Duration `json:"iframe_timeout"`
	PendingLimit      int           `json:"pending_limit"`
	RunTimeout        time.Duration `json:"run_timeout"`
}

// CacheConfig holds per-key TTLs and the in-memory store bound
type CacheConfig struct {
	ScoreboardTTL  time.Duration `json:"scoreboard_ttl"`
	BoxscoreTTL    time.Duration `json:"boxscore_ttl"`
	MomentumTTL    time.Duration `json:"momentum_ttl"`
	GamesListTTL   time.Duration `json:"games_list_ttl"`
	ReplayListTTL  time.Duration `json:"replay_list_ttl"`
	PlayerStatsTTL time.Duration `json:"player_stats_ttl"`
	MaxSize        int           `json:"max_size"`
}

// SeasonConfig identifies the season being tracked
type SeasonConfig struct {
	StartYear       int    `json:"start_year"`
	StartMonth      int    `json:"start_month"`
	DisplayTimezone string `json:"display_timezone"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Format      string `json:"format"`
	ServiceName string `json:"service_name"`
}

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Sources: SourcesConfig{
			Lotus: ServiceConfig{
				BaseURL:            "https://lotusgamehd.xyz",
				HTTPRequestTimeout: 10 * time.Second,
			},
			Streamed: ServiceConfig{
				BaseURL:            "https://streamed.pk",
				HTTPRequestTimeout: 10 * time.Second,
			},
			EmbedHost: "https://embedsports.top",
			LiveStats: ServiceConfig{
				BaseURL:            "https://cdn.nba.com/static/json/liveData",
				HTTPRequestTimeout: 10 * time.Second,
			},
			StatsAPI: ServiceConfig{
				BaseURL:            "https://stats.nba.com/stats",
				HTTPRequestTimeout: 15 * time.Second,
			},
			Schedule: ServiceConfig{
				BaseURL:            "https://www.basketball-reference.com",
				HTTPRequestTimeout: 30 * time.Second,
				RequestRateLimit:   1 * time.Second,
				MaxRetryAttempts:   2, // 3 attempts total
			},
			Replay: ServiceConfig{
				BaseURL:            "https://basketball-video.com",
				HTTPRequestTimeout: 15 * time.Second,
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			PingTimeout:     5 * time.Second,
		},
		Scraper: ScraperConfig{
			MaxConcurrency:    5,
			NavigationTimeout: 15 * time.Second,
			ClickTimeout:      10 * time.Second,
			IframeTimeout:     15 * time.Second,
			PendingLimit:      1300,
			RunTimeout:        2 * time.Hour,
		},
		Cache: CacheConfig{
			ScoreboardTTL:  10 * time.Second,
			BoxscoreTTL:    10 * time.Second,
			MomentumTTL:    60 * time.Second,
			GamesListTTL:   time.Hour,
			ReplayListTTL:  12 * time.Hour,
			PlayerStatsTTL: 24 * time.Hour,
			MaxSize:        1000,
		},
		Season: SeasonConfig{
			StartYear:       2025,
			StartMonth:      int(time.October),
			DisplayTimezone: "America/Chicago",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "nba-watcher",
		},
	}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")
	defaults := NewDefaultUnifiedConfiguration()

	applyService := func(name string, target *ServiceConfig, fallback ServiceConfig) {
		if target.BaseURL == "" {
			target.BaseURL = fallback.BaseURL
			logger.Debugf("Applied default Sources.%s.BaseURL", name)
		}
		if target.HTTPRequestTimeout <= 0 {
			target.HTTPRequestTimeout = fallback.HTTPRequestTimeout
			logger.Debugf("Applied default Sources.%s.HTTPRequestTimeout", name)
		}
		if target.RequestRateLimit < 0 {
			target.RequestRateLimit = fallback.RequestRateLimit
		}
		if target.MaxRetryAttempts < 0 {
			target.MaxRetryAttempts = fallback.MaxRetryAttempts
		}
	}

	applyService("Lotus", &c.Sources.Lotus, defaults.Sources.Lotus)
	applyService("Streamed", &c.Sources.Streamed, defaults.Sources.Streamed)
	applyService("LiveStats", &c.Sources.LiveStats, defaults.Sources.LiveStats)
	applyService("StatsAPI", &c.Sources.StatsAPI, defaults.Sources.StatsAPI)
	applyService("Schedule", &c.Sources.Schedule, defaults.Sources.Schedule)
	applyService("Replay", &c.Sources.Replay, defaults.Sources.Replay)
	if c.Sources.EmbedHost == "" {
		c.Sources.EmbedHost = defaults.Sources.EmbedHost
		logger.Debug("Applied default Sources.EmbedHost")
	}

	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
		logger.Debug("Applied default Database.MaxOpenConns")
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
		logger.Debug("Applied default Database.MaxIdleConns")
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = defaults.Database.ConnMaxLifetime
	}
	if c.Database.PingTimeout <= 0 {
		c.Database.PingTimeout = defaults.Database.PingTimeout
	}

	if c.Scraper.MaxConcurrency <= 0 {
		c.Scraper.MaxConcurrency = defaults.Scraper.MaxConcurrency
		logger.Debug("Applied default Scraper.MaxConcurrency")
	}
	if c.Scraper.NavigationTimeout <= 0 {
		c.Scraper.NavigationTimeout = defaults.Scraper.NavigationTimeout
	}
	if c.Scraper.ClickTimeout <= 0 {
		c.Scraper.ClickTimeout = defaults.Scraper.ClickTimeout
	}
	if c.Scraper.IframeTimeout <= 0 {
		c.Scraper.IframeTimeout = defaults.Scraper.IframeTimeout
	}
	if c.Scraper.PendingLimit <= 0 {
		c.Scraper.PendingLimit = defaults.Scraper.PendingLimit
	}
	if c.Scraper.RunTimeout <= 0 {
		c.Scraper.RunTimeout = defaults.Scraper.RunTimeout
	}

	if c.Cache.ScoreboardTTL <= 0 {
		c.Cache.ScoreboardTTL = defaults.Cache.ScoreboardTTL
	}
	if c.Cache.BoxscoreTTL <= 0 {
		c.Cache.BoxscoreTTL = defaults.Cache.BoxscoreTTL
	}
	if c.Cache.MomentumTTL <= 0 {
		c.Cache.MomentumTTL = defaults.Cache.MomentumTTL
	}
	if c.Cache.GamesListTTL <= 0 {
		c.Cache.GamesListTTL = defaults.Cache.GamesListTTL
	}
	if c.Cache.ReplayListTTL <= 0 {
		c.Cache.ReplayListTTL = defaults.Cache.ReplayListTTL
	}
	if c.Cache.PlayerStatsTTL <= 0 {
		c.Cache.PlayerStatsTTL = defaults.Cache.PlayerStatsTTL
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = defaults.Cache.MaxSize
		logger.Debug("Applied default Cache.MaxSize")
	}

	if c.Season.StartYear <= 0 {
		c.Season.StartYear = defaults.Season.StartYear
		logger.Debug("Applied default Season.StartYear")
	}
	if c.Season.StartMonth < 1 || c.Season.StartMonth > 12 {
		c.Season.StartMonth = defaults.Season.StartMonth
	}
	if c.Season.DisplayTimezone == "" {
		c.Season.DisplayTimezone = defaults.Season.DisplayTimezone
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
		logger.Debug("Applied default Logging.Level")
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = defaults.Logging.ServiceName
	}
}

// SeasonEndYear is the second year of the season label, e.g. 2026 for 2025-26.
func (s SeasonConfig) SeasonEndYear() int {
	return s.StartYear + 1
}

// ToJSON serializes the configuration to JSON
func (c *UnifiedConfiguration) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFromJSON deserializes configuration from JSON
func (c *UnifiedConfiguration) LoadFromJSON(jsonData []byte) error {
	if err := json.Unmarshal(jsonData, c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	c.ValidateAndApplyDefaults()
	return nil
}

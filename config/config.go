package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort             string
	DatabaseURL            string
	RedisURL               string
	AdminToken             string
	LogLevel               string
	LogFormat              string
	ReplayCron             string
	ReplayConcurrency      string
	RefreshIntervalSeconds string
	SeasonStartYear        string
	ConfigFile             string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		AdminToken:             getEnv("ADMIN_TOKEN", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		ReplayCron:             getEnv("REPLAY_CRON", "0 6 * * *"),
		ReplayConcurrency:      getEnv("REPLAY_CONCURRENCY", "5"),
		RefreshIntervalSeconds: getEnv("REFRESH_INTERVAL_SECONDS", "60"),
		SeasonStartYear:        getEnv("SEASON_START_YEAR", "2025"),
		ConfigFile:             getEnv("CONFIG_FILE", ""),
	}
}

// GetRefreshInterval returns the background cache refresh period
func (c *Config) GetRefreshInterval() time.Duration {
	seconds, err := strconv.Atoi(c.RefreshIntervalSeconds)
	if err != nil || seconds <= 0 {
		logrus.Warnf("Invalid REFRESH_INTERVAL_SECONDS value: %s, using default 60 seconds", c.RefreshIntervalSeconds)
		return 60 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// Unified merges environment overrides into the default application configuration
func (c *Config) Unified() *shared.UnifiedConfiguration {
	unified := shared.NewDefaultUnifiedConfiguration()

	unified.Logging.Level = c.LogLevel
	unified.Logging.Format = c.LogFormat

	if n, err := strconv.Atoi(c.ReplayConcurrency); err == nil {
		unified.Scraper.MaxConcurrency = n
	} else {
		logrus.Warnf("Invalid REPLAY_CONCURRENCY value: %s, using default", c.ReplayConcurrency)
	}

	if year, err := strconv.Atoi(c.SeasonStartYear); err == nil {
		unified.Season.StartYear = year
	} else {
		logrus.Warnf("Invalid SEASON_START_YEAR value: %s, using default", c.SeasonStartYear)
	}

	// Values present in CONFIG_FILE win over the environment.
	if c.ConfigFile != "" {
		data, err := os.ReadFile(c.ConfigFile)
		if err == nil {
			err = unified.LoadFromJSON(data)
		}
		if err != nil {
			logrus.WithError(err).WithField("path", c.ConfigFile).Warn("Ignoring unreadable CONFIG_FILE")
		}
	}

	unified.ValidateAndApplyDefaults()
	return unified
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

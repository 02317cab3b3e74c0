package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/nba-watcher/backend/config"
	"github.com/nba-watcher/backend/database"
	"github.com/nba-watcher/backend/handlers"
	"github.com/nba-watcher/backend/jobs"
	"github.com/nba-watcher/backend/services"
	"github.com/nba-watcher/backend/shared"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	unified := cfg.Unified()
	shared.ConfigureLogging(unified.Logging)
	if data, err := unified.ToJSON(); err == nil {
		logrus.WithField("config", string(data)).Debug("Effective configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := shared.NewMetrics()
	clock := services.SystemClock{}
	zones := services.LoadTimeZones(unified.Season.DisplayTimezone)

	// Cache store: Redis when configured, otherwise in-process
	var memoryStore *services.MemoryStore
	var store services.Store
	if redisClient := connectRedis(ctx, cfg.RedisURL); redisClient != nil {
		defer redisClient.Close()
		store = services.NewRedisStore(redisClient)
	} else {
		memoryStore = services.NewMemoryStore(clock, unified.Cache.MaxSize)
		store = memoryStore
	}
	cache := services.NewCacheService(store, clock, metrics)

	// Upstream clients
	clients := shared.NewHTTPClientFactory(10 * time.Second)
	defer clients.CloseIdleConnections()

	normalizer := services.NewTeamNormalizer()
	sources := unified.Sources
	lotus := services.NewLotusSource(clients.Client(sources.Lotus.HTTPRequestTimeout), sources.Lotus.BaseURL, normalizer, zones, clock)
	streamed := services.NewStreamedSource(clients.Client(sources.Streamed.HTTPRequestTimeout), sources.Streamed.BaseURL, sources.EmbedHost, normalizer, zones, clock)
	statsClient := services.NewNBAStatsClient(
		clients.Client(sources.LiveStats.HTTPRequestTimeout),
		clients.Client(sources.StatsAPI.HTTPRequestTimeout),
		sources.LiveStats.BaseURL,
		sources.StatsAPI.BaseURL,
	)

	// Services
	aggregator := services.NewGameAggregator(cache, unified.Cache.GamesListTTL, metrics, lotus, streamed)
	scoreboardService := services.NewScoreboardService(statsClient, cache, unified.Cache.ScoreboardTTL, zones)
	detailService := services.NewGameDetailService(statsClient, cache, unified.Cache.BoxscoreTTL, unified.Cache.MomentumTTL)
	playerStatsService := services.NewPlayerStatsService(statsClient, cache, unified.Cache.PlayerStatsTTL, services.SeasonLabel(unified.Season.StartYear))
	listing := services.NewGameListing(aggregator, scoreboardService)

	logrus.WithFields(logrus.Fields{
		"cache_store":      storeName(memoryStore),
		"games_ttl":        unified.Cache.GamesListTTL,
		"scoreboard_ttl":   unified.Cache.ScoreboardTTL,
		"replay_pool_size": unified.Scraper.MaxConcurrency,
		"season":           services.SeasonLabel(unified.Season.StartYear),
	}).Info("NBA watcher services initialized")

	// Jobs
	refreshJob := jobs.NewCacheRefreshJob(aggregator, scoreboardService, playerStatsService, metrics)
	refreshJob.Start(ctx, cfg.GetRefreshInterval())

	scheduler := jobs.NewScheduler()
	if memoryStore != nil {
		cleanupJob := jobs.NewCacheCleanupJob(memoryStore)
		if _, err := scheduler.AddFunc("@every 10m", cleanupJob.Run); err != nil {
			logrus.WithError(err).Warn("Failed to schedule cache cleanup")
		}
	}

	// Replays need the relational store; without it the routes answer 503
	var replayHandler *handlers.ReplayHandler
	var replayTrigger handlers.AsyncJobTrigger
	if cfg.DatabaseURL != "" {
		if err := database.ConnectWithConfig(cfg.DatabaseURL, &unified.Database); err != nil {
			logrus.WithError(err).Error("Database unavailable, replay features disabled")
		} else {
			defer database.Close()

			if err := database.Migrate("database/schema.sql"); err != nil {
				logrus.WithError(err).Warn("Migration warning")
			}

			replayStore := services.NewPostgresReplayStore(database.DB)
			replayService := services.NewReplayService(replayStore, cache, unified.Cache.ReplayListTTL)
			replayHandler = handlers.NewReplayHandler(replayService)

			browser := services.NewChromeBrowser()
			defer browser.Close()

			scheduleScraper := services.NewScheduleScraper(sources.Schedule, unified.Season, zones, clock)
			replayScraper := services.NewReplayScraper(browser, sources.Replay.BaseURL, unified.Scraper, metrics)
			replayJob := jobs.NewReplayUpdateJob(scheduleScraper, replayStore, replayScraper, replayService, unified.Scraper, metrics)
			if _, err := replayJob.Register(scheduler, cfg.ReplayCron); err != nil {
				logrus.WithError(err).WithField("schedule", cfg.ReplayCron).Error("Invalid replay schedule, replay job not scheduled")
			}
			replayTrigger = replayJob
		}
	} else {
		logrus.Warn("DATABASE_URL not set, replay features disabled")
	}

	scheduler.Start()
	defer scheduler.Stop()

	// Handlers
	gamesHandler := handlers.NewGamesHandler(listing, aggregator, scoreboardService, detailService, playerStatsService)
	adminHandler := handlers.NewAdminHandler(refreshJob, replayTrigger)

	// Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "nba-watcher",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(etag.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		}
		if database.DB != nil {
			if err := database.HealthCheck(c.Context()); err != nil {
				status["database"] = err.Error()
			} else {
				status["database"] = "ok"
			}
			stats := database.GetConnectionStats()
			status["database_connections"] = fiber.Map{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
			}
		}
		return c.JSON(status)
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Routes
	app.Get("/", gamesHandler.GetListing)
	app.Get("/stream/:stream_id", gamesHandler.GetStream)

	api := app.Group("/api")
	api.Get("/games-today", gamesHandler.GetGamesToday)
	api.Get("/scoreboard", gamesHandler.GetScoreboard)
	api.Get("/boxscore/:game_id", gamesHandler.GetBoxscore)
	api.Get("/momentum/:game_id", gamesHandler.GetMomentum)
	api.Get("/player-stats/:player_id", gamesHandler.GetPlayerStats)

	if replayHandler != nil {
		app.Get("/replay/:id", replayHandler.GetReplay)
		api.Get("/replays", replayHandler.GetReplays)
	} else {
		app.Get("/replay/:id", handlers.ReplayDisabledHandler)
		api.Get("/replays", handlers.ReplayDisabledHandler)
	}

	// Admin Routes
	admin := api.Group("/admin", handlers.RequireAdminToken(cfg.AdminToken))
	admin.Post("/cache/refresh", adminHandler.TriggerCacheRefresh)
	admin.Post("/replays/refresh", adminHandler.TriggerReplayUpdate)

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Warn("Server shutdown failed")
		}
	}()

	// Start server
	logrus.WithField("port", cfg.ServerPort).Info("Server starting")
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.WithError(err).Fatal("Server failed to start")
	}
}

// connectRedis returns nil when no URL is configured or it cannot be parsed.
// An unreachable server still yields a client; the cache then degrades to misses.
func connectRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logrus.WithError(err).Error("Invalid REDIS_URL, using in-memory cache")
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, cache lookups will miss until it recovers")
	} else {
		logrus.Info("Connected to Redis")
	}
	return client
}

func storeName(memoryStore *services.MemoryStore) string {
	if memoryStore != nil {
		return "memory"
	}
	return "redis"
}

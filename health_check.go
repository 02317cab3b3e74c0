//go:build ignore

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nba-watcher/backend/config"
	"github.com/nba-watcher/backend/database"
	"github.com/nba-watcher/backend/services"
	"github.com/nba-watcher/backend/shared"
)

func main() {
	fmt.Printf("🏥 NBA Watcher Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 50))

	cfg := config.LoadConfig()
	unified := cfg.Unified()
	ctx := context.Background()
	clock := services.SystemClock{}
	zones := services.LoadTimeZones(unified.Season.DisplayTimezone)
	normalizer := services.NewTeamNormalizer()
	clients := shared.NewHTTPClientFactory(10 * time.Second)

	healthScore := 0
	totalTests := 4

	// Test 1 and 2: stream sources
	sources := []services.GameSource{
		services.NewLotusSource(clients.Client(unified.Sources.Lotus.HTTPRequestTimeout), unified.Sources.Lotus.BaseURL, normalizer, zones, clock),
		services.NewStreamedSource(clients.Client(unified.Sources.Streamed.HTTPRequestTimeout), unified.Sources.Streamed.BaseURL, unified.Sources.EmbedHost, normalizer, zones, clock),
	}
	for _, source := range sources {
		fmt.Printf("📡 %s: ", source.Name())
		result := source.FetchGames(ctx)
		if result.Status == services.FetchFailed {
			fmt.Printf("❌ FAILED (%s)\n", result.Reason())
		} else {
			fmt.Printf("✅ OK (%d games)\n", len(result.Games))
			healthScore++
		}
	}

	// Test 3: live scoreboard
	fmt.Print("🏀 Live scoreboard: ")
	statsClient := services.NewNBAStatsClient(
		clients.Client(unified.Sources.LiveStats.HTTPRequestTimeout),
		clients.Client(unified.Sources.StatsAPI.HTTPRequestTimeout),
		unified.Sources.LiveStats.BaseURL,
		unified.Sources.StatsAPI.BaseURL,
	)
	if payload, err := statsClient.Scoreboard(ctx); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%d games)\n", len(payload.Scoreboard.Games))
		healthScore++
	}

	// Test 4: replay store
	fmt.Print("🗄️  Replay store: ")
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		store := services.NewPostgresReplayStore(database.DB)
		if missing, err := store.CountMissingEmbeds(ctx); err != nil {
			fmt.Printf("❌ FAILED (%v)\n", err)
		} else {
			fmt.Printf("✅ OK (%d replays missing embeds)\n", missing)
			healthScore++
		}
		database.Close()
	}

	// Overall health
	fmt.Println(strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	if healthScore == totalTests {
		fmt.Printf("🎉 SYSTEM HEALTHY: %d/%d checks passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else if healthScore >= totalTests/2 {
		fmt.Printf("⚠️  SYSTEM DEGRADED: %d/%d checks passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else {
		fmt.Printf("❌ SYSTEM UNHEALTHY: %d/%d checks passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	}

	fmt.Printf("⏰ Check completed at: %s\n", time.Now().Format("15:04:05"))
}

package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/nba-watcher/backend/models"
)

type playerStatsFetcher interface {
	LeaguePlayerStats(ctx context.Context, season string) (*ResultSetPayload, error)
}

// PlayerStatsService caches league-wide season averages keyed by player id
type PlayerStatsService struct {
	client playerStatsFetcher
	cache  *CacheService
	ttl    time.Duration
	season string
}

// NewPlayerStatsService creates the season stats service for a season label such as "2025-26"
func NewPlayerStatsService(client playerStatsFetcher, cache *CacheService, ttl time.Duration, season string) *PlayerStatsService {
	return &PlayerStatsService{client: client, cache: cache, ttl: ttl, season: season}
}

// SeasonLabel formats the league's season label for a starting year.
func SeasonLabel(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// All returns every player's averages, refreshing the cache on a miss
func (s *PlayerStatsService) All(ctx context.Context) (map[string]models.PlayerSeasonStats, error) {
	return Remember(ctx, s.cache, CacheKeyPlayerStats, s.ttl, s.load)
}

// Refresh reloads the league table and overwrites the cache
func (s *PlayerStatsService) Refresh(ctx context.Context) (map[string]models.PlayerSeasonStats, error) {
	stats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, CacheKeyPlayerStats, stats, s.ttl)
	return stats, nil
}

// Player returns one player's averages; found is false for unknown ids
func (s *PlayerStatsService) Player(ctx context.Context, playerID string) (models.PlayerSeasonStats, bool, error) {
	stats, err := s.All(ctx)
	if err != nil {
		return models.PlayerSeasonStats{}, false, err
	}
	player, found := stats[playerID]
	return player, found, nil
}

func (s *PlayerStatsService) load(ctx context.Context) (map[string]models.PlayerSeasonStats, error) {
	payload, err := s.client.LeaguePlayerStats(ctx, s.season)
	if err != nil {
		return nil, err
	}
	return BuildPlayerStats(payload)
}

// BuildPlayerStats maps the first result set's rows by PLAYER_ID. Percentages are scaled to 0-100.
func BuildPlayerStats(payload *ResultSetPayload) (map[string]models.PlayerSeasonStats, error) {
	if payload == nil || len(payload.ResultSets) == 0 {
		return nil, fmt.Errorf("player stats payload has no result sets")
	}

	set := payload.ResultSets[0]
	index := make(map[string]int, len(set.Headers))
	for i, header := range set.Headers {
		index[header] = i
	}
	for _, required := range []string{"PLAYER_ID", "GP", "PTS", "REB", "AST", "STL", "BLK", "FG_PCT", "FG3_PCT", "FG3A", "FT_PCT"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("player stats payload missing column %s", required)
		}
	}

	stats := make(map[string]models.PlayerSeasonStats, len(set.RowSet))
	for _, row := range set.RowSet {
		if len(row) < len(set.Headers) {
			continue
		}
		number := func(column string) float64 {
			value, _ := row[index[column]].(float64)
			return value
		}

		playerID := rowString(row[index["PLAYER_ID"]])
		if playerID == "" {
			continue
		}

		stats[playerID] = models.PlayerSeasonStats{
			GamesPlayed: int(number("GP")),
			Points:      round1(number("PTS")),
			Rebounds:    round1(number("REB")),
			Assists:     round1(number("AST")),
			Steals:      round1(number("STL")),
			Blocks:      round1(number("BLK")),
			FGPct:       round1(number("FG_PCT") * 100),
			FG3Pct:      round1(number("FG3_PCT") * 100),
			FG3A:        round1(number("FG3A")),
			FTPct:       round1(number("FT_PCT") * 100),
		}
	}

	return stats, nil
}

func rowString(value interface{}) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	default:
		return ""
	}
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

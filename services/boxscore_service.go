package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nba-watcher/backend/models"
)

type gameDetailFetcher interface {
	Boxscore(ctx context.Context, gameID string) (*LiveBoxscorePayload, error)
	PlayByPlay(ctx context.Context, gameID string) (*PlayByPlayPayload, error)
}

// momentumBucket is the sampling width of the momentum series.
const momentumBucket = 3 * 60

// GameDetailService serves per-game box scores and momentum series
type GameDetailService struct {
	client      gameDetailFetcher
	cache       *CacheService
	boxscoreTTL time.Duration
	momentumTTL time.Duration
}

// NewGameDetailService creates the per-game detail service
func NewGameDetailService(client gameDetailFetcher, cache *CacheService, boxscoreTTL, momentumTTL time.Duration) *GameDetailService {
	return &GameDetailService{
		client:      client,
		cache:       cache,
		boxscoreTTL: boxscoreTTL,
		momentumTTL: momentumTTL,
	}
}

// Boxscore returns the per-team player lines of a game
func (s *GameDetailService) Boxscore(ctx context.Context, gameID string) (models.BoxScore, error) {
	return Remember(ctx, s.cache, BoxscoreCacheKey(gameID), s.boxscoreTTL, func(ctx context.Context) (models.BoxScore, error) {
		payload, err := s.client.Boxscore(ctx, gameID)
		if err != nil {
			return nil, err
		}
		return BuildBoxScore(payload), nil
	})
}

// Momentum returns the sampled home-minus-away margin of a game
func (s *GameDetailService) Momentum(ctx context.Context, gameID string) ([]models.MomentumPoint, error) {
	return Remember(ctx, s.cache, MomentumCacheKey(gameID), s.momentumTTL, func(ctx context.Context) ([]models.MomentumPoint, error) {
		payload, err := s.client.PlayByPlay(ctx, gameID)
		if err != nil {
			return nil, err
		}
		return BuildMomentum(payload.Game.Actions), nil
	})
}

// BuildBoxScore groups player lines by team tricode.
func BuildBoxScore(payload *LiveBoxscorePayload) models.BoxScore {
	box := make(models.BoxScore)
	if payload == nil {
		return box
	}

	for _, team := range []LiveBoxscoreTeam{payload.Game.AwayTeam, payload.Game.HomeTeam} {
		if team.TeamTricode == "" {
			continue
		}
		players := make([]models.PlayerLine, 0, len(team.Players))
		for _, player := range team.Players {
			stats := player.Statistics
			players = append(players, models.PlayerLine{
				Name:     player.Name,
				Minutes:  FormatMinutes(stats.Minutes),
				Points:   stats.Points,
				Rebounds: stats.ReboundsTotal,
				Assists:  stats.Assists,
				Steals:   stats.Steals,
				Blocks:   stats.Blocks,
				Turnover: stats.Turnovers,
				FG:       fmt.Sprintf("%d/%d", stats.FieldGoalsMade, stats.FieldGoalsAttempted),
				FG3:      fmt.Sprintf("%d/%d", stats.ThreePointersMade, stats.ThreePointersAttempted),
			})
		}
		box[team.TeamTricode] = models.TeamBox{Players: players}
	}

	return box
}

// BuildMomentum samples the score margin in fixed three-minute buckets.
//
// The series opens with a "Start" point of 0. Within each period, the first action
// whose clock falls into a lower bucket than the last sampled one is recorded. The
// bucket resets at every new period.
func BuildMomentum(actions []PlayAction) []models.MomentumPoint {
	points := []models.MomentumPoint{{Label: "Start", Value: 0, Period: 1}}

	home, away := 0, 0
	currentPeriod := 0
	lastBucket := 5 // above any reachable bucket

	for _, action := range actions {
		if action.ScoreHome != nil && action.ScoreHome.Valid {
			home = action.ScoreHome.Value
		}
		if action.ScoreAway != nil && action.ScoreAway.Valid {
			away = action.ScoreAway.Value
		}

		if action.Period != currentPeriod {
			currentPeriod = action.Period
			lastBucket = 5
		}

		remaining, ok := ParseGameClock(action.Clock)
		if !ok {
			remaining = 0
		}

		bucket := remaining / momentumBucket
		if bucket < lastBucket {
			points = append(points, models.MomentumPoint{
				Label:  fmt.Sprintf("Q%d %02d:%02d", action.Period, remaining/60, remaining%60),
				Value:  home - away,
				Period: action.Period,
			})
			lastBucket = bucket
		}
	}

	return points
}

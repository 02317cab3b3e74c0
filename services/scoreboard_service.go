package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/sirupsen/logrus"
)

type scoreboardFetcher interface {
	Scoreboard(ctx context.Context) (*LiveScoreboardPayload, error)
}

// ScoreboardService projects the live scoreboard and caches it as one map
type ScoreboardService struct {
	client scoreboardFetcher
	cache  *CacheService
	ttl    time.Duration
	zones  TimeZones
	logger *logrus.Entry
}

// NewScoreboardService creates the scoreboard projection service
func NewScoreboardService(client scoreboardFetcher, cache *CacheService, ttl time.Duration, zones TimeZones) *ScoreboardService {
	return &ScoreboardService{
		client: client,
		cache:  cache,
		ttl:    ttl,
		zones:  zones,
		logger: logrus.WithField("component", "ScoreboardService"),
	}
}

// Scoreboard returns the cached projection, fetching the live feed on a miss
func (s *ScoreboardService) Scoreboard(ctx context.Context) (models.Scoreboard, error) {
	return Remember(ctx, s.cache, CacheKeyScoreboard, s.ttl, func(ctx context.Context) (models.Scoreboard, error) {
		payload, err := s.client.Scoreboard(ctx)
		if err != nil {
			return nil, err
		}
		return BuildScoreboard(payload, s.zones, s.cache.Now()), nil
	})
}

// Refresh rebuilds the projection and overwrites the cached value
func (s *ScoreboardService) Refresh(ctx context.Context) (models.Scoreboard, error) {
	payload, err := s.client.Scoreboard(ctx)
	if err != nil {
		return nil, err
	}
	scoreboard := BuildScoreboard(payload, s.zones, s.cache.Now())
	s.cache.SetJSON(ctx, CacheKeyScoreboard, scoreboard, s.ttl)
	return scoreboard, nil
}

// Lookup finds the live entry for a team pair, or a placeholder when the feed has none.
// A failed feed read also yields the placeholder.
func (s *ScoreboardService) Lookup(ctx context.Context, awayCode, homeCode string) models.ScoreboardEntry {
	scoreboard, err := s.Scoreboard(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Scoreboard unavailable, serving placeholder")
	}
	return LookupScoreboard(scoreboard, awayCode, homeCode)
}

// LookupScoreboard tries the pair as given, then reversed, before falling back to the placeholder.
func LookupScoreboard(scoreboard models.Scoreboard, awayCode, homeCode string) models.ScoreboardEntry {
	if entry, ok := scoreboard[awayCode+homeCode]; ok {
		return entry
	}
	if entry, ok := scoreboard[homeCode+awayCode]; ok {
		return entry
	}
	return models.PlaceholderScoreboardEntry(MatchupKey(awayCode, homeCode))
}

// BuildScoreboard projects every live game, keyed by the provider's away+home tricode pair.
func BuildScoreboard(payload *LiveScoreboardPayload, zones TimeZones, now time.Time) models.Scoreboard {
	scoreboard := make(models.Scoreboard)
	if payload == nil {
		return scoreboard
	}

	for _, game := range payload.Scoreboard.Games {
		key := scoreboardKey(game)
		if key == "" {
			continue
		}

		tipoff, err := time.Parse(time.RFC3339, game.GameTimeUTC)
		started := err == nil && !tipoff.After(now)
		dayLabel := ""
		if err == nil {
			dayLabel = zones.DayLabel(tipoff, now)
		}

		entry := models.ScoreboardEntry{
			MatchupKey: MatchupKey(game.AwayTeam.TeamTricode, game.HomeTeam.TeamTricode),
			GameID:     game.GameID,
			StatusText: zones.ConvertStatus(game.GameStatusText, now),
			Started:    started,
			DayLabel:   dayLabel,
			LeaderHome: "N/A",
			LeaderAway: "N/A",
		}

		// Leaders appear once the game is under way; until then scores stay zeroed.
		if leaders := game.GameLeaders; leaders != nil && leaders.HomeLeaders != nil && leaders.AwayLeaders != nil {
			entry.LeaderHome = leaderLine(leaders.HomeLeaders)
			entry.LeaderAway = leaderLine(leaders.AwayLeaders)
			entry.HomeScore = game.HomeTeam.Score
			entry.AwayScore = game.AwayTeam.Score
			entry.Period = game.Period
			entry.Clock = game.GameClock
		}

		scoreboard[key] = entry
	}

	return scoreboard
}

func scoreboardKey(game LiveGame) string {
	if _, teams, ok := strings.Cut(game.GameCode, "/"); ok && len(teams) == 6 {
		return teams
	}
	if game.AwayTeam.TeamTricode == "" || game.HomeTeam.TeamTricode == "" {
		return ""
	}
	return game.AwayTeam.TeamTricode + game.HomeTeam.TeamTricode
}

func leaderLine(leader *GameLeader) string {
	if leader.Name == "" {
		return "N/A"
	}
	return fmt.Sprintf("%s - %dpts - %drebs - %dasts", leader.Name, leader.Points, leader.Rebounds, leader.Assists)
}

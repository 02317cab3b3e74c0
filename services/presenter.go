package services

import (
	"context"

	"github.com/nba-watcher/backend/models"
)

// BuildGameViews joins each merged game with its live scoreboard entry.
// Games the scoreboard does not know yet get the scheduled placeholder.
func BuildGameViews(games []models.GameRecord, scoreboard models.Scoreboard) []models.GameView {
	views := make([]models.GameView, 0, len(games))
	for _, game := range games {
		views = append(views, models.GameView{
			GameRecord: game,
			Live:       LookupScoreboard(scoreboard, game.AwayCode, game.HomeCode),
		})
	}
	return views
}

// GameListing assembles the listing view from the merged games and the scoreboard
type GameListing struct {
	games      *GameAggregator
	scoreboard *ScoreboardService
}

// NewGameListing creates the listing presenter
func NewGameListing(games *GameAggregator, scoreboard *ScoreboardService) *GameListing {
	return &GameListing{games: games, scoreboard: scoreboard}
}

// Views returns the listing. A scoreboard failure leaves every game on its placeholder.
func (l *GameListing) Views(ctx context.Context) []models.GameView {
	games := l.games.Games(ctx)
	scoreboard, err := l.scoreboard.Scoreboard(ctx)
	if err != nil {
		l.scoreboard.logger.WithError(err).Warn("Scoreboard unavailable for listing")
	}
	return BuildGameViews(games, scoreboard)
}

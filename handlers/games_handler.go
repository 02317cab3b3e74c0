package handlers

import (
	"context"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/nba-watcher/backend/models"
	"github.com/sirupsen/logrus"
)

var (
	gameIDPattern   = regexp.MustCompile(`^\d{10}$`)
	playerIDPattern = regexp.MustCompile(`^\d{1,10}$`)
)

// GameListingProvider builds the viewer's listing rows
type GameListingProvider interface {
	Views(ctx context.Context) []models.GameView
}

// GamesProvider serves the merged games list
type GamesProvider interface {
	Games(ctx context.Context) []models.GameRecord
	Game(ctx context.Context, id string) (models.GameRecord, bool)
}

// ScoreboardProvider serves the live scoreboard projection
type ScoreboardProvider interface {
	Scoreboard(ctx context.Context) (models.Scoreboard, error)
}

// GameDetailProvider serves per-game detail
type GameDetailProvider interface {
	Boxscore(ctx context.Context, gameID string) (models.BoxScore, error)
	Momentum(ctx context.Context, gameID string) ([]models.MomentumPoint, error)
}

// PlayerStatsProvider serves season averages
type PlayerStatsProvider interface {
	Player(ctx context.Context, playerID string) (models.PlayerSeasonStats, bool, error)
}

type GamesHandler struct {
	Listing    GameListingProvider
	Games      GamesProvider
	Scoreboard ScoreboardProvider
	Details    GameDetailProvider
	Players    PlayerStatsProvider
}

func NewGamesHandler(listing GameListingProvider, games GamesProvider, scoreboard ScoreboardProvider, details GameDetailProvider, players PlayerStatsProvider) *GamesHandler {
	return &GamesHandler{
		Listing:    listing,
		Games:      games,
		Scoreboard: scoreboard,
		Details:    details,
		Players:    players,
	}
}

// GetListing returns merged games joined with their live state
func (h *GamesHandler) GetListing(c *fiber.Ctx) error {
	return respondData(c, h.Listing.Views(c.Context()))
}

func (h *GamesHandler) GetGamesToday(c *fiber.Ctx) error {
	return respondData(c, h.Games.Games(c.Context()))
}

// GetScoreboard serves an empty scoreboard rather than an error when the feed is down
func (h *GamesHandler) GetScoreboard(c *fiber.Ctx) error {
	scoreboard, err := h.Scoreboard.Scoreboard(c.Context())
	if err != nil {
		logrus.WithError(err).Warn("Scoreboard unavailable")
		scoreboard = models.Scoreboard{}
	}
	return respondData(c, scoreboard)
}

func (h *GamesHandler) GetBoxscore(c *fiber.Ctx) error {
	gameID := c.Params("game_id")
	if !gameIDPattern.MatchString(gameID) {
		return respondError(c, fiber.StatusBadRequest, "Invalid game id")
	}

	box, err := h.Details.Boxscore(c.Context(), gameID)
	if err != nil {
		logrus.WithError(err).WithField("game_id", gameID).Warn("Boxscore fetch failed")
		return respondError(c, fiber.StatusBadGateway, "Boxscore unavailable")
	}
	return respondData(c, box)
}

func (h *GamesHandler) GetMomentum(c *fiber.Ctx) error {
	gameID := c.Params("game_id")
	if !gameIDPattern.MatchString(gameID) {
		return respondError(c, fiber.StatusBadRequest, "Invalid game id")
	}

	points, err := h.Details.Momentum(c.Context(), gameID)
	if err != nil {
		logrus.WithError(err).WithField("game_id", gameID).Warn("Momentum fetch failed")
		return respondError(c, fiber.StatusBadGateway, "Momentum unavailable")
	}
	return respondData(c, points)
}

func (h *GamesHandler) GetPlayerStats(c *fiber.Ctx) error {
	playerID := c.Params("player_id")
	if !playerIDPattern.MatchString(playerID) {
		return respondError(c, fiber.StatusBadRequest, "Invalid player id")
	}

	stats, found, err := h.Players.Player(c.Context(), playerID)
	if err != nil {
		logrus.WithError(err).WithField("player_id", playerID).Warn("Player stats fetch failed")
		return respondError(c, fiber.StatusBadGateway, "Player stats unavailable")
	}
	if !found {
		return respondError(c, fiber.StatusNotFound, "Player not found")
	}
	return respondData(c, stats)
}

// GetStream returns one merged game with its embed URLs
func (h *GamesHandler) GetStream(c *fiber.Ctx) error {
	streamID := c.Params("stream_id")
	game, found := h.Games.Game(c.Context(), streamID)
	if !found {
		return respondError(c, fiber.StatusNotFound, "Stream not found")
	}
	return respondData(c, game)
}

package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/services"
	"github.com/sirupsen/logrus"
)

// ReplayProvider serves the replay catalogue
type ReplayProvider interface {
	Replays(ctx context.Context) ([]models.ReplayRecord, error)
	RecordView(ctx context.Context, id int64) (models.ReplayRecord, error)
}

type ReplayHandler struct {
	Service ReplayProvider
}

func NewReplayHandler(service ReplayProvider) *ReplayHandler {
	return &ReplayHandler{Service: service}
}

func (h *ReplayHandler) GetReplays(c *fiber.Ctx) error {
	replays, err := h.Service.Replays(c.Context())
	if err != nil {
		logrus.WithError(err).Warn("Replay list unavailable")
		return respondError(c, fiber.StatusServiceUnavailable, "Replays unavailable")
	}
	if replays == nil {
		replays = []models.ReplayRecord{}
	}
	return respondData(c, replays)
}

// GetReplay returns one replay and counts the view
func (h *ReplayHandler) GetReplay(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return respondError(c, fiber.StatusBadRequest, "Invalid replay id")
	}

	replay, err := h.Service.RecordView(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrReplayNotFound) {
			return respondError(c, fiber.StatusNotFound, "Replay not found")
		}
		logrus.WithError(err).WithField("replay_id", id).Warn("Replay lookup failed")
		return respondError(c, fiber.StatusServiceUnavailable, "Replay unavailable")
	}
	return respondData(c, replay)
}

// ReplayDisabledHandler answers replay routes when no database is configured
func ReplayDisabledHandler(c *fiber.Ctx) error {
	return respondError(c, fiber.StatusServiceUnavailable, "Replays are not configured")
}

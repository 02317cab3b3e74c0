package handlers

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// JobRunner runs a background job synchronously
type JobRunner interface {
	Run()
}

// AsyncJobTrigger starts a long job in the background; false means a run is already in progress
type AsyncJobTrigger interface {
	TriggerAsync() bool
}

type AdminHandler struct {
	CacheRefresh JobRunner
	ReplayUpdate AsyncJobTrigger
}

func NewAdminHandler(cacheRefresh JobRunner, replayUpdate AsyncJobTrigger) *AdminHandler {
	return &AdminHandler{
		CacheRefresh: cacheRefresh,
		ReplayUpdate: replayUpdate,
	}
}

// RequireAdminToken accepts "Authorization: Bearer <token>" or "X-Admin-Token".
// An empty configured token disables the admin routes.
func RequireAdminToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return respondError(c, fiber.StatusForbidden, "Admin routes are disabled")
		}

		provided := c.Get("X-Admin-Token")
		if provided == "" {
			provided = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return respondError(c, fiber.StatusUnauthorized, "Invalid admin token")
		}
		return c.Next()
	}
}

// TriggerCacheRefresh runs the cache refresh job and waits for it
func (h *AdminHandler) TriggerCacheRefresh(c *fiber.Ctx) error {
	logrus.Info("Manual cache refresh triggered via admin endpoint")

	startTime := time.Now()
	h.CacheRefresh.Run()

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Cache refresh completed",
		"duration":  time.Since(startTime).String(),
		"timestamp": time.Now(),
	})
}

// TriggerReplayUpdate starts the replay update job without waiting for it
func (h *AdminHandler) TriggerReplayUpdate(c *fiber.Ctx) error {
	if h.ReplayUpdate == nil {
		return respondError(c, fiber.StatusServiceUnavailable, "Replays are not configured")
	}

	if !h.ReplayUpdate.TriggerAsync() {
		return respondError(c, fiber.StatusConflict, "Replay update already running")
	}

	logrus.Info("Manual replay update triggered via admin endpoint")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":   true,
		"message":   "Replay update started",
		"timestamp": time.Now(),
	})
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/services"
	"github.com/nba-watcher/backend/shared"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrJobRunning is returned when a replay update is already in progress.
var ErrJobRunning = errors.New("replay update already running")

type scheduleScraper interface {
	Scrape(ctx context.Context) ([]models.ReplayRecord, error)
}

type replayRunner interface {
	Run(ctx context.Context, records []models.ReplayRecord) ([]*services.ReplayJob, shared.BatchProcessingResult)
}

type replayListInvalidator interface {
	InvalidateList(ctx context.Context)
}

// ReplayUpdateSummary reports one replay update run
type ReplayUpdateSummary struct {
	RunID          string        `json:"run_id"`
	ScheduledGames int           `json:"scheduled_games"`
	Upserted       int           `json:"upserted"`
	Attempted      int           `json:"attempted"`
	Extracted      int           `json:"extracted"`
	Persisted      int           `json:"persisted"`
	StillMissing   int           `json:"still_missing"`
	Duration       time.Duration `json:"duration"`
}

// ReplayUpdateJob syncs the season schedule into the store and scrapes missing replay embeds
type ReplayUpdateJob struct {
	Schedule     scheduleScraper
	Store        services.ReplayStore
	Scraper      replayRunner
	Replays      replayListInvalidator
	PendingLimit int
	RunTimeout   time.Duration
	Metrics      *shared.Metrics

	running atomic.Bool
}

func NewReplayUpdateJob(schedule scheduleScraper, store services.ReplayStore, scraper replayRunner, replays replayListInvalidator, cfg shared.ScraperConfig, metrics *shared.Metrics) *ReplayUpdateJob {
	return &ReplayUpdateJob{
		Schedule:     schedule,
		Store:        store,
		Scraper:      scraper,
		Replays:      replays,
		PendingLimit: cfg.PendingLimit,
		RunTimeout:   cfg.RunTimeout,
		Metrics:      metrics,
	}
}

// Register adds the job to a cron scheduler
func (j *ReplayUpdateJob) Register(scheduler *cron.Cron, schedule string) (cron.EntryID, error) {
	logrus.WithField("schedule", schedule).Info("Scheduling replay update job")
	return scheduler.AddFunc(schedule, j.Run)
}

// Run executes one update, skipping it when another is still in progress
func (j *ReplayUpdateJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.RunTimeout)
	defer cancel()

	if _, err := j.Execute(ctx); errors.Is(err, ErrJobRunning) {
		logrus.Warn("Replay update skipped: previous run still in progress")
	}
}

// TriggerAsync starts a run in the background; false means one is already running
func (j *ReplayUpdateJob) TriggerAsync() bool {
	if !j.running.CompareAndSwap(false, true) {
		return false
	}

	go func() {
		defer j.running.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), j.RunTimeout)
		defer cancel()
		j.execute(ctx)
	}()
	return true
}

// Execute performs one run synchronously
func (j *ReplayUpdateJob) Execute(ctx context.Context) (ReplayUpdateSummary, error) {
	if !j.running.CompareAndSwap(false, true) {
		return ReplayUpdateSummary{}, ErrJobRunning
	}
	defer j.running.Store(false)
	return j.execute(ctx)
}

func (j *ReplayUpdateJob) execute(ctx context.Context) (ReplayUpdateSummary, error) {
	startTime := time.Now()
	summary := ReplayUpdateSummary{RunID: uuid.New().String()}
	logger := logrus.WithFields(logrus.Fields{
		"job":    "replay_update",
		"run_id": summary.RunID,
	})
	logger.Info("Running replay update job")

	games, err := j.Schedule.Scrape(ctx)
	if err != nil {
		logger.WithError(err).Warn("Schedule scrape incomplete, upserting what was found")
	}
	summary.ScheduledGames = len(games)
	if len(games) > 0 {
		upsert := j.Store.UpsertSchedule(ctx, games)
		summary.Upserted = upsert.Succeeded
		if upsert.ErrorSummary != "" {
			logger.WithField("summary", upsert.ErrorSummary).Warn("Some schedule rows failed to upsert")
		}
	}

	pending, err := j.Store.PendingReplays(ctx, j.PendingLimit)
	if err != nil {
		j.Metrics.RecordJobRun("replay_update", "failed")
		logger.WithError(err).Error("Replay update job failed: could not load pending replays")
		return summary, err
	}
	summary.Attempted = len(pending)

	if len(pending) > 0 {
		extractions, result := j.Scraper.Run(ctx, pending)
		summary.Extracted = result.Succeeded

		// Failed extractions are never written; their rows stay pending for the next run.
		for _, job := range services.ExtractedJobs(extractions) {
			if err := j.Store.SetEmbedURL(ctx, job.Record.ID, job.EmbedURL); err != nil {
				logger.WithError(err).WithField("replay_id", job.Record.ID).Warn("Failed to store replay embed")
				continue
			}
			summary.Persisted++
		}
		if summary.Persisted > 0 {
			j.Replays.InvalidateList(ctx)
		}
	} else {
		logger.Info("No replays missing embeds")
	}

	if missing, err := j.Store.CountMissingEmbeds(ctx); err != nil {
		logger.WithError(err).Warn("Could not count replays missing embeds")
	} else {
		summary.StillMissing = missing
	}

	summary.Duration = time.Since(startTime)
	j.Metrics.RecordJobRun("replay_update", "success")
	logger.WithFields(logrus.Fields{
		"scheduled_games": summary.ScheduledGames,
		"upserted":        summary.Upserted,
		"attempted":       summary.Attempted,
		"extracted":       summary.Extracted,
		"persisted":       summary.Persisted,
		"still_missing":   summary.StillMissing,
		"duration":        summary.Duration,
	}).Info("Replay update job completed")

	return summary, nil
}

package jobs

import (
	"context"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

type gamesRefresher interface {
	Refresh(ctx context.Context) ([]models.GameRecord, error)
}

type scoreboardRefresher interface {
	Refresh(ctx context.Context) (models.Scoreboard, error)
}

type playerStatsRefresher interface {
	Refresh(ctx context.Context) (map[string]models.PlayerSeasonStats, error)
}

// CacheRefreshJob keeps the shared caches warm so requests rarely go live
type CacheRefreshJob struct {
	Games       gamesRefresher
	Scoreboard  scoreboardRefresher
	PlayerStats playerStatsRefresher
	Timeout     time.Duration
	Metrics     *shared.Metrics
}

func NewCacheRefreshJob(games gamesRefresher, scoreboard scoreboardRefresher, playerStats playerStatsRefresher, metrics *shared.Metrics) *CacheRefreshJob {
	return &CacheRefreshJob{
		Games:       games,
		Scoreboard:  scoreboard,
		PlayerStats: playerStats,
		Timeout:     2 * time.Minute,
		Metrics:     metrics,
	}
}

// Start runs the job immediately and then on every tick until ctx is done
func (j *CacheRefreshJob) Start(ctx context.Context, interval time.Duration) {
	logrus.WithField("interval", interval).Info("Starting cache refresh job")
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		j.Run()

		for {
			select {
			case <-ctx.Done():
				logrus.Info("Cache refresh job stopped")
				return
			case <-ticker.C:
				j.Run()
			}
		}
	}()
}

// Run refreshes every cache once. Each refresh fails independently.
func (j *CacheRefreshJob) Run() {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	failures := 0
	fields := logrus.Fields{}

	if games, err := j.Games.Refresh(ctx); err != nil {
		failures++
		logRefreshFailure("games", err)
	} else {
		fields["games"] = len(games)
	}

	if scoreboard, err := j.Scoreboard.Refresh(ctx); err != nil {
		failures++
		logRefreshFailure("scoreboard", err)
	} else {
		fields["scoreboard_entries"] = len(scoreboard)
	}

	if j.PlayerStats != nil {
		if stats, err := j.PlayerStats.Refresh(ctx); err != nil {
			failures++
			logRefreshFailure("player_stats", err)
		} else {
			fields["players"] = len(stats)
		}
	}

	result := "success"
	if failures > 0 {
		result = "partial"
	}
	j.Metrics.RecordJobRun("cache_refresh", result)

	fields["failures"] = failures
	fields["duration"] = time.Since(startTime)
	logrus.WithFields(fields).Info("Cache refresh job completed")
}

// logRefreshFailure logs transient upstream failures as warnings and anything
// else, such as a payload the decoder rejects, as an error.
func logRefreshFailure(cache string, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"cache":          cache,
		"error_category": shared.CategoryOf(err),
	}).Log(refreshFailureLevel(err), "Cache refresh failed")
}

func refreshFailureLevel(err error) logrus.Level {
	if shared.IsRetryableError(err) {
		return logrus.WarnLevel
	}
	return logrus.ErrorLevel
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/services"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type fakeGamesRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeGamesRefresher) Refresh(context.Context) ([]models.GameRecord, error) {
	f.calls.Add(1)
	return []models.GameRecord{{ID: "2026-01-20_CHIDEN"}}, f.err
}

type fakeScoreboardRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeScoreboardRefresher) Refresh(context.Context) (models.Scoreboard, error) {
	f.calls.Add(1)
	return models.Scoreboard{}, f.err
}

type fakePlayerStatsRefresher struct {
	calls atomic.Int32
}

func (f *fakePlayerStatsRefresher) Refresh(context.Context) (map[string]models.PlayerSeasonStats, error) {
	f.calls.Add(1)
	return map[string]models.PlayerSeasonStats{}, nil
}

func TestCacheRefreshJobRefreshesIndependently(t *testing.T) {
	games := &fakeGamesRefresher{err: errors.New("ALL_SOURCES_FAILED")}
	scoreboard := &fakeScoreboardRefresher{}
	players := &fakePlayerStatsRefresher{}

	job := NewCacheRefreshJob(games, scoreboard, players, shared.NewMetrics())
	job.Run()

	assert.Equal(t, int32(1), games.calls.Load())
	assert.Equal(t, int32(1), scoreboard.calls.Load(), "a failed games refresh does not stop the scoreboard")
	assert.Equal(t, int32(1), players.calls.Load())
}

func TestCacheRefreshJobFailureLevels(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	games := &fakeGamesRefresher{err: shared.NewServiceError(shared.ErrorCategoryNetwork, "ALL_SOURCES_FAILED", "every stream source failed", "GameAggregator", "Refresh", true, nil)}
	scoreboard := &fakeScoreboardRefresher{err: shared.NewServiceError(shared.ErrorCategoryPayload, "DECODE_FAILED", "invalid character", "NBAStatsClient", "Scoreboard", false, nil)}
	NewCacheRefreshJob(games, scoreboard, nil, nil).Run()

	levels := map[string]logrus.Level{}
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Cache refresh failed" {
			levels[entry.Data["cache"].(string)] = entry.Level
			if entry.Data["cache"] == "scoreboard" {
				assert.Equal(t, shared.ErrorCategoryPayload, entry.Data["error_category"])
			}
		}
	}
	assert.Equal(t, map[string]logrus.Level{
		"games":      logrus.WarnLevel,
		"scoreboard": logrus.ErrorLevel,
	}, levels)
}

func TestRefreshFailureLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, refreshFailureLevel(errors.New("dial tcp: i/o timeout")))
	assert.Equal(t, logrus.ErrorLevel, refreshFailureLevel(errors.New("unexpected end of JSON input")))
}

func TestCacheRefreshJobWithoutPlayerStats(t *testing.T) {
	job := NewCacheRefreshJob(&fakeGamesRefresher{}, &fakeScoreboardRefresher{}, nil, nil)
	assert.NotPanics(t, job.Run)
}

func TestCacheRefreshJobStartRunsImmediatelyAndStops(t *testing.T) {
	games := &fakeGamesRefresher{}
	scoreboard := &fakeScoreboardRefresher{}
	job := NewCacheRefreshJob(games, scoreboard, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx, 20*time.Millisecond)

	assert.Eventually(t, func() bool { return games.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(50 * time.Millisecond)
	stopped := games.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, games.calls.Load())
}

func TestCacheCleanupJob(t *testing.T) {
	clock := &steppingClock{now: time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)}
	store := services.NewMemoryStore(clock, 10)
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "short", []byte("1"), time.Second))
	assert.NoError(t, store.Set(ctx, "long", []byte("1"), time.Hour))
	clock.now = clock.now.Add(time.Minute)

	NewCacheCleanupJob(store).Run()
	assert.Equal(t, 1, store.Size())
}

func TestNewScheduler(t *testing.T) {
	scheduler := NewScheduler()
	assert.Equal(t, "America/New_York", scheduler.Location().String())

	store := newFakeReplayStore()
	job := NewReplayUpdateJob(&fakeSchedule{}, store, &fakeReplayRunner{}, &countingInvalidator{}, testScraperConfig(), nil)

	_, err := job.Register(scheduler, "0 6 * * *")
	assert.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 1)

	_, err = job.Register(scheduler, "every morning")
	assert.Error(t, err)
}

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time { return c.now }

func TestSchedulerRecoversPanickingJobs(t *testing.T) {
	scheduler := NewScheduler()
	id, err := scheduler.AddFunc("@daily", func() { panic("boom") })
	assert.NoError(t, err)

	assert.NotPanics(t, func() { scheduler.Entry(id).WrappedJob.Run() })
}

func TestPairsToFields(t *testing.T) {
	fields := pairsToFields([]interface{}{"entry", 3, 7, "skipped", "dangling"})
	assert.Equal(t, 3, fields["entry"])
	assert.Len(t, fields, 1)
}

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	games map[string]*models.GameRecord
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchGames(ctx context.Context) SourceResult {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return newSourceResult(s.name, s.games, s.err)
}

func TestAggregatorMergesAndCaches(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(newFakeClock(time.Now()))

	lotus := &stubSource{name: models.SourceLotus, delay: 20 * time.Millisecond, games: map[string]*models.GameRecord{
		"2026-01-20_BOSLAL": gameRecord("2026-01-20_BOSLAL", "lotus", 100, "https://a/1"),
	}}
	streamed := &stubSource{name: models.SourceStreamed, games: map[string]*models.GameRecord{
		"2026-01-20_BOSLAL": gameRecord("2026-01-20_BOSLAL", "streamed", 100, "https://b/1"),
		"2026-01-20_DENCHI": gameRecord("2026-01-20_DENCHI", "streamed", 200, "https://b/2"),
	}}
	aggregator := NewGameAggregator(cache, time.Hour, nil, lotus, streamed)

	games := aggregator.Games(ctx)
	require.Len(t, games, 2)
	assert.Equal(t, "lotus title", games[0].Title, "slower priority source still wins")
	assert.Equal(t, []string{"https://a/1", "https://b/1"}, games[0].EmbedURLs)

	again := aggregator.Games(ctx)
	assert.Equal(t, games, again)
	assert.Equal(t, int32(1), lotus.calls.Load(), "second read is served from cache")

	game, ok := aggregator.Game(ctx, "2026-01-20_DENCHI")
	require.True(t, ok)
	assert.Equal(t, "streamed title", game.Title)
	_, ok = aggregator.Game(ctx, "2026-01-20_MIAORL")
	assert.False(t, ok)
}

func TestAggregatorOneSourceFailing(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(newFakeClock(time.Now()))

	lotus := &stubSource{name: models.SourceLotus, err: errors.New("connection refused")}
	streamed := &stubSource{name: models.SourceStreamed, games: map[string]*models.GameRecord{
		"2026-01-20_DENCHI": gameRecord("2026-01-20_DENCHI", "streamed", 200, "https://b/2"),
	}}
	aggregator := NewGameAggregator(cache, time.Hour, nil, lotus, streamed)

	results := aggregator.FetchAll(ctx)
	require.Len(t, results, 2)
	assert.Equal(t, FetchFailed, results[0].Status)
	assert.Equal(t, FetchOK, results[1].Status)

	games, err := aggregator.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestAggregatorAllSourcesFailed(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(newFakeClock(time.Now()))

	cache.SetJSON(ctx, CacheKeyGamesList, []models.GameRecord{{ID: "2026-01-19_BOSLAL"}}, time.Hour)

	aggregator := NewGameAggregator(cache, time.Hour, nil,
		&stubSource{name: models.SourceLotus, err: errors.New("timeout")},
		&stubSource{name: models.SourceStreamed, err: errors.New("timeout")},
	)

	games, err := aggregator.Refresh(ctx)
	require.Error(t, err)
	assert.Empty(t, games)

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "ALL_SOURCES_FAILED", serviceErr.Code)

	var cached []models.GameRecord
	require.True(t, cache.GetJSON(ctx, CacheKeyGamesList, &cached), "previous list keeps serving")
	assert.Equal(t, "2026-01-19_BOSLAL", cached[0].ID)
}

func TestAggregatorGamesLogsTotalFailure(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	aggregator := NewGameAggregator(newTestCache(newFakeClock(time.Now())), time.Hour, nil,
		&stubSource{name: models.SourceLotus, err: errors.New("connection refused")},
		&stubSource{name: models.SourceStreamed, err: errors.New("timeout")},
	)
	assert.Empty(t, aggregator.Games(context.Background()))

	var logged *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Data["error_code"] == "ALL_SOURCES_FAILED" {
			logged = entry
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, logrus.ErrorLevel, logged.Level)
	details, ok := logged.Data["details"].(map[string]string)
	require.True(t, ok)
	assert.Len(t, details, 2)
	assert.Contains(t, details[models.SourceLotus], "connection refused")
}

func TestAggregatorEmptySlateIsCached(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(newFakeClock(time.Now()))
	source := &stubSource{name: models.SourceStreamed}
	aggregator := NewGameAggregator(cache, time.Hour, nil, source)

	assert.Empty(t, aggregator.Games(ctx))
	assert.Empty(t, aggregator.Games(ctx))
	assert.Equal(t, int32(1), source.calls.Load())
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

// GameAggregator fans out to every stream source, waits for all of them and merges the results
type GameAggregator struct {
	sources []GameSource
	cache   *CacheService
	ttl     time.Duration
	metrics *shared.Metrics
	logger  *logrus.Entry
}

// NewGameAggregator wires sources in merge priority order
func NewGameAggregator(cache *CacheService, ttl time.Duration, metrics *shared.Metrics, sources ...GameSource) *GameAggregator {
	return &GameAggregator{
		sources: sources,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logrus.WithField("component", "GameAggregator"),
	}
}

// FetchAll runs every source concurrently and returns results in source order.
func (a *GameAggregator) FetchAll(ctx context.Context) []SourceResult {
	results := make([]SourceResult, len(a.sources))

	var wg sync.WaitGroup
	for i, source := range a.sources {
		wg.Add(1)
		go func(i int, source GameSource) {
			defer wg.Done()

			started := time.Now()
			result := source.FetchGames(ctx)
			a.metrics.RecordFetch(source.Name(), string(result.Status), time.Since(started))

			fields := logrus.Fields{
				"source": source.Name(),
				"status": result.Status,
				"games":  len(result.Games),
			}
			if result.Status == FetchFailed {
				a.logger.WithFields(fields).WithField("reason", result.Reason()).Warn("Source fetch failed, contributing no games")
			} else {
				a.logger.WithFields(fields).Debug("Source fetch completed")
			}
			results[i] = result
		}(i, source)
	}
	wg.Wait()

	return results
}

// Refresh fetches and merges all sources, then replaces the cached games list.
// Nothing is cached when every source failed, so the previous list keeps serving.
func (a *GameAggregator) Refresh(ctx context.Context) ([]models.GameRecord, error) {
	results := a.FetchAll(ctx)

	maps := make([]map[string]*models.GameRecord, 0, len(results))
	failed := 0
	for _, result := range results {
		if result.Status == FetchFailed {
			failed++
		}
		maps = append(maps, result.Games)
	}

	games := SortGames(MergeGames(maps...))

	if failed == len(results) && len(results) > 0 {
		reasons := make(map[string]string, len(results))
		for _, result := range results {
			reasons[result.Source] = result.Reason()
		}
		return games, shared.NewServiceError(shared.ErrorCategoryNetwork, "ALL_SOURCES_FAILED",
			"every stream source failed", "GameAggregator", "Refresh", true, results[0].Err).WithDetails(reasons)
	}

	a.cache.SetJSON(ctx, CacheKeyGamesList, games, a.ttl)
	a.logger.WithFields(logrus.Fields{
		"games":          len(games),
		"failed_sources": failed,
	}).Info("Games list refreshed")

	return games, nil
}

// Games serves the cached list, refreshing on a miss. A failed refresh yields whatever merged.
func (a *GameAggregator) Games(ctx context.Context) []models.GameRecord {
	var games []models.GameRecord
	if a.cache.GetJSON(ctx, CacheKeyGamesList, &games) {
		return games
	}

	games, err := a.Refresh(ctx)
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		serviceErr.LogError()
	}
	return games
}

// Game returns one merged game by key.
func (a *GameAggregator) Game(ctx context.Context, id string) (models.GameRecord, bool) {
	for _, game := range a.Games(ctx) {
		if game.ID == id {
			return game, true
		}
	}
	return models.GameRecord{}, false
}

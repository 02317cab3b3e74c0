package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/sirupsen/logrus"
)

// ErrReplayNotFound is returned when no replay row has the requested id.
var ErrReplayNotFound = errors.New("replay not found")

// ReplayStore persists historical games and their replay embeds
type ReplayStore interface {
	UpsertSchedule(ctx context.Context, records []models.ReplayRecord) shared.BatchProcessingResult
	PendingReplays(ctx context.Context, limit int) ([]models.ReplayRecord, error)
	SetEmbedURL(ctx context.Context, id int64, embedURL string) error
	IncrementViews(ctx context.Context, id int64) (int, error)
	ListReplays(ctx context.Context) ([]models.ReplayRecord, error)
	GetReplay(ctx context.Context, id int64) (models.ReplayRecord, error)
	CountMissingEmbeds(ctx context.Context) (int, error)
}

const replayColumns = `id, game_date, replay_url, away_team, home_team, away_score, home_score, notes, iframe_url, views`

// PostgresReplayStore is the ReplayStore backed by the nba_replays table
type PostgresReplayStore struct {
	DB *sql.DB
}

// NewPostgresReplayStore creates a replay store over an open connection pool
func NewPostgresReplayStore(db *sql.DB) *PostgresReplayStore {
	return &PostgresReplayStore{DB: db}
}

// UpsertSchedule inserts scraped games keyed by replay slug. Existing rows keep
// their embed URL and view count. Each row is written independently.
func (s *PostgresReplayStore) UpsertSchedule(ctx context.Context, records []models.ReplayRecord) shared.BatchProcessingResult {
	query := `
		INSERT INTO nba_replays (game_date, replay_url, away_team, home_team, away_score, home_score, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (replay_url) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			away_team = EXCLUDED.away_team,
			home_team = EXCLUDED.home_team,
			away_score = EXCLUDED.away_score,
			home_score = EXCLUDED.home_score,
			notes = EXCLUDED.notes,
			updated_at = CURRENT_TIMESTAMP
	`

	startTime := time.Now()
	result := shared.BatchProcessingResult{TotalProcessed: len(records)}
	var sampleErrors []error

	for _, record := range records {
		_, err := s.DB.ExecContext(ctx, query,
			record.GameDate, record.Slug, record.AwayTeam, record.HomeTeam,
			nullableInt(record.AwayScore), nullableInt(record.HomeScore), record.Notes,
		)
		if err != nil {
			result.FailedItems = append(result.FailedItems, shared.FailedItem{
				Key:         record.Slug,
				Reason:      err.Error(),
				FailureTime: time.Now(),
			})
			sampleErrors = append(sampleErrors, fmt.Errorf("%s: %w", record.Slug, err))
			continue
		}
		result.Succeeded++
	}

	result.ProcessingTime = time.Since(startTime)
	if len(result.FailedItems) > 0 {
		result.ErrorSummary = shared.BuildBatchProcessingErrorSummary(result.Succeeded, len(result.FailedItems), sampleErrors)
	}

	logrus.WithFields(logrus.Fields{
		"component": "PostgresReplayStore",
		"total":     result.TotalProcessed,
		"succeeded": result.Succeeded,
		"failed":    len(result.FailedItems),
		"duration":  result.ProcessingTime,
	}).Info("Replay schedule upserted")

	return result
}

// PendingReplays returns rows still missing an embed URL, newest first
func (s *PostgresReplayStore) PendingReplays(ctx context.Context, limit int) ([]models.ReplayRecord, error) {
	query := `SELECT ` + replayColumns + ` FROM nba_replays
              WHERE iframe_url IS NULL
              ORDER BY game_date DESC, id DESC
              LIMIT $1`
	return s.queryReplays(ctx, "PendingReplays", query, limit)
}

// SetEmbedURL stores the scraped embed URL of one replay
func (s *PostgresReplayStore) SetEmbedURL(ctx context.Context, id int64, embedURL string) error {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE nba_replays SET iframe_url = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		embedURL, id)
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryDatabase, "UPDATE_FAILED", err.Error(), "PostgresReplayStore", "SetEmbedURL", true, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrReplayNotFound
	}
	return nil
}

// IncrementViews bumps the view counter and returns the new value
func (s *PostgresReplayStore) IncrementViews(ctx context.Context, id int64) (int, error) {
	var views int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE nba_replays SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrReplayNotFound
		}
		return 0, shared.NewServiceError(shared.ErrorCategoryDatabase, "UPDATE_FAILED", err.Error(), "PostgresReplayStore", "IncrementViews", true, err)
	}
	return views, nil
}

// ListReplays returns every replay that has an embed URL, newest first
func (s *PostgresReplayStore) ListReplays(ctx context.Context) ([]models.ReplayRecord, error) {
	query := `SELECT ` + replayColumns + ` FROM nba_replays
              WHERE iframe_url IS NOT NULL
              ORDER BY game_date DESC, id DESC`
	return s.queryReplays(ctx, "ListReplays", query)
}

// GetReplay returns one replay by id
func (s *PostgresReplayStore) GetReplay(ctx context.Context, id int64) (models.ReplayRecord, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+replayColumns+` FROM nba_replays WHERE id = $1`, id)
	record, err := scanReplay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ReplayRecord{}, ErrReplayNotFound
		}
		return models.ReplayRecord{}, shared.NewServiceError(shared.ErrorCategoryDatabase, "SCAN_FAILED", err.Error(), "PostgresReplayStore", "GetReplay", true, err)
	}
	return record, nil
}

// CountMissingEmbeds counts rows the replay scraper has not filled yet
func (s *PostgresReplayStore) CountMissingEmbeds(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM nba_replays WHERE iframe_url IS NULL`).Scan(&count); err != nil {
		return 0, shared.NewServiceError(shared.ErrorCategoryDatabase, "QUERY_FAILED", err.Error(), "PostgresReplayStore", "CountMissingEmbeds", true, err)
	}
	return count, nil
}

func (s *PostgresReplayStore) queryReplays(ctx context.Context, operation, query string, args ...interface{}) ([]models.ReplayRecord, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, "QUERY_FAILED", err.Error(), "PostgresReplayStore", operation, true, err)
	}
	defer rows.Close()

	var records []models.ReplayRecord
	for rows.Next() {
		record, err := scanReplay(rows)
		if err != nil {
			return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, "SCAN_FAILED", err.Error(), "PostgresReplayStore", operation, false, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, "QUERY_FAILED", err.Error(), "PostgresReplayStore", operation, true, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReplay(row rowScanner) (models.ReplayRecord, error) {
	var (
		record    models.ReplayRecord
		awayScore sql.NullInt64
		homeScore sql.NullInt64
		embedURL  sql.NullString
	)
	err := row.Scan(
		&record.ID, &record.GameDate, &record.Slug, &record.AwayTeam, &record.HomeTeam,
		&awayScore, &homeScore, &record.Notes, &embedURL, &record.Views,
	)
	if err != nil {
		return models.ReplayRecord{}, err
	}
	if awayScore.Valid {
		score := int(awayScore.Int64)
		record.AwayScore = &score
	}
	if homeScore.Valid {
		score := int(homeScore.Int64)
		record.HomeScore = &score
	}
	if embedURL.Valid {
		record.EmbedURL = &embedURL.String
	}
	return record, nil
}

func nullableInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

// ReplayService serves the replay catalogue through the cache
type ReplayService struct {
	store  ReplayStore
	cache  *CacheService
	ttl    time.Duration
	logger *logrus.Entry
}

// NewReplayService creates the cached replay catalogue
func NewReplayService(store ReplayStore, cache *CacheService, ttl time.Duration) *ReplayService {
	return &ReplayService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logrus.WithField("component", "ReplayService"),
	}
}

// Replays returns every playable replay, cached as one list
func (s *ReplayService) Replays(ctx context.Context) ([]models.ReplayRecord, error) {
	return Remember(ctx, s.cache, CacheKeyReplayList, s.ttl, s.store.ListReplays)
}

// Replay returns one replay row
func (s *ReplayService) Replay(ctx context.Context, id int64) (models.ReplayRecord, error) {
	return s.store.GetReplay(ctx, id)
}

// RecordView loads a replay and counts one view. The cached list is patched
// in place, keeping its expiry, so listings reflect the view without a reload.
// A failed increment is logged and the replay is still returned.
func (s *ReplayService) RecordView(ctx context.Context, id int64) (models.ReplayRecord, error) {
	record, err := s.store.GetReplay(ctx, id)
	if err != nil {
		return models.ReplayRecord{}, err
	}

	views, err := s.store.IncrementViews(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("replay_id", id).Warn("Failed to increment view count")
		return record, nil
	}
	record.Views = views

	var cached []models.ReplayRecord
	if s.cache.GetJSON(ctx, CacheKeyReplayList, &cached) {
		for i := range cached {
			if cached[i].ID == id {
				cached[i].Views = views
				s.cache.ReplaceJSON(ctx, CacheKeyReplayList, cached)
				break
			}
		}
	}

	return record, nil
}

// InvalidateList drops the cached catalogue after new embeds are stored
func (s *ReplayService) InvalidateList(ctx context.Context) {
	s.cache.Delete(ctx, CacheKeyReplayList)
}

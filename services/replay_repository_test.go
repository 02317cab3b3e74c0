package services

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nba-watcher/backend/database"
	"github.com/nba-watcher/backend/models"
	"github.com/nba-watcher/backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryReplayStore is an in-process ReplayStore for service and job tests.
type memoryReplayStore struct {
	mutex        sync.Mutex
	rows         map[int64]models.ReplayRecord
	incrementErr error
	listCalls    int
}

func newMemoryReplayStore(records ...models.ReplayRecord) *memoryReplayStore {
	store := &memoryReplayStore{rows: make(map[int64]models.ReplayRecord)}
	for _, record := range records {
		store.rows[record.ID] = record
	}
	return store
}

func (s *memoryReplayStore) UpsertSchedule(_ context.Context, records []models.ReplayRecord) shared.BatchProcessingResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, record := range records {
		record.ID = int64(len(s.rows) + 1)
		s.rows[record.ID] = record
	}
	return shared.BatchProcessingResult{Succeeded: len(records), TotalProcessed: len(records)}
}

func (s *memoryReplayStore) PendingReplays(context.Context, int) ([]models.ReplayRecord, error) {
	return nil, nil
}

func (s *memoryReplayStore) SetEmbedURL(_ context.Context, id int64, embedURL string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	record, ok := s.rows[id]
	if !ok {
		return ErrReplayNotFound
	}
	record.EmbedURL = &embedURL
	s.rows[id] = record
	return nil
}

func (s *memoryReplayStore) IncrementViews(_ context.Context, id int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.incrementErr != nil {
		return 0, s.incrementErr
	}
	record, ok := s.rows[id]
	if !ok {
		return 0, ErrReplayNotFound
	}
	record.Views++
	s.rows[id] = record
	return record.Views, nil
}

func (s *memoryReplayStore) ListReplays(context.Context) ([]models.ReplayRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.listCalls++
	var records []models.ReplayRecord
	for _, record := range s.rows {
		if record.EmbedURL != nil {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	return records, nil
}

func (s *memoryReplayStore) GetReplay(_ context.Context, id int64) (models.ReplayRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	record, ok := s.rows[id]
	if !ok {
		return models.ReplayRecord{}, ErrReplayNotFound
	}
	return record, nil
}

func (s *memoryReplayStore) CountMissingEmbeds(context.Context) (int, error) {
	return 0, nil
}

func embedded(id int64, url string) models.ReplayRecord {
	record := replayRecord(id, "game-"+url)
	record.EmbedURL = &url
	return record
}

func TestReplayServiceCachesList(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReplayStore(embedded(1, "https://player.test/1"), embedded(2, "https://player.test/2"), replayRecord(3, "pending"))
	service := NewReplayService(store, newTestCache(newFakeClock(time.Now())), 12*time.Hour)

	replays, err := service.Replays(ctx)
	require.NoError(t, err)
	require.Len(t, replays, 2)
	assert.Equal(t, int64(2), replays[0].ID)

	_, err = service.Replays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)

	service.InvalidateList(ctx)
	_, err = service.Replays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestReplayServiceRecordView(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReplayStore(embedded(1, "https://player.test/1"), embedded(2, "https://player.test/2"))
	service := NewReplayService(store, newTestCache(newFakeClock(time.Now())), 12*time.Hour)

	_, err := service.Replays(ctx)
	require.NoError(t, err)

	record, err := service.RecordView(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Views)

	replays, err := service.Replays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls, "view count is patched into the cached list")
	for _, replay := range replays {
		if replay.ID == 1 {
			assert.Equal(t, 1, replay.Views)
		}
	}

	_, err = service.RecordView(ctx, 42)
	assert.ErrorIs(t, err, ErrReplayNotFound)

	store.incrementErr = errors.New("deadlock detected")
	record, err = service.RecordView(ctx, 2)
	require.NoError(t, err, "a failed increment still serves the replay")
	assert.Equal(t, 0, record.Views)
}

func TestRecordViewKeepsListExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC))
	store := newMemoryReplayStore(embedded(1, "https://player.test/1"))
	service := NewReplayService(store, newTestCache(clock), 12*time.Hour)

	_, err := service.Replays(ctx)
	require.NoError(t, err)

	clock.Advance(11 * time.Hour)
	_, err = service.RecordView(ctx, 1)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	replays, err := service.Replays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "views do not keep the list alive past its ttl")
	assert.Equal(t, 1, replays[0].Views)
}

// openTestDatabase connects to TEST_DATABASE_URL and applies the schema.
func openTestDatabase(t *testing.T) *PostgresReplayStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	require.NoError(t, database.Connect(url))
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate("../database/schema.sql"))
	return NewPostgresReplayStore(database.DB)
}

func TestPostgresReplayStoreLifecycle(t *testing.T) {
	store := openTestDatabase(t)
	ctx := context.Background()

	suffix := uuid.NewString()
	score := 101
	gameDate := time.Date(2025, time.October, 21, 0, 0, 0, 0, time.UTC)
	records := []models.ReplayRecord{
		{GameDate: gameDate, Slug: "first-" + suffix, AwayTeam: "Houston Rockets", HomeTeam: "Oklahoma City Thunder", AwayScore: &score},
		{GameDate: gameDate, Slug: "second-" + suffix, AwayTeam: "Boston Celtics", HomeTeam: "Miami Heat", Notes: "OT"},
	}

	result := store.UpsertSchedule(ctx, records)
	require.Equal(t, 2, result.Succeeded)

	pending, err := store.PendingReplays(ctx, 5000)
	require.NoError(t, err)
	var first models.ReplayRecord
	for _, record := range pending {
		if record.Slug == "first-"+suffix {
			first = record
		}
	}
	require.NotZero(t, first.ID)
	require.NotNil(t, first.AwayScore)
	assert.Equal(t, 101, *first.AwayScore)
	assert.Nil(t, first.HomeScore)

	require.NoError(t, store.SetEmbedURL(ctx, first.ID, "https://player.test/"+suffix))
	views, err := store.IncrementViews(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	// Re-upserting keeps the embed URL and the view count.
	result = store.UpsertSchedule(ctx, records[:1])
	require.Equal(t, 1, result.Succeeded)

	stored, err := store.GetReplay(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EmbedURL)
	assert.Equal(t, "https://player.test/"+suffix, *stored.EmbedURL)
	assert.Equal(t, 1, stored.Views)

	listed, err := store.ListReplays(ctx)
	require.NoError(t, err)
	found := false
	for _, record := range listed {
		found = found || record.ID == first.ID
	}
	assert.True(t, found)

	_, err = store.GetReplay(ctx, -1)
	assert.ErrorIs(t, err, ErrReplayNotFound)
	_, err = store.IncrementViews(ctx, -1)
	assert.ErrorIs(t, err, ErrReplayNotFound)
	assert.ErrorIs(t, store.SetEmbedURL(ctx, -1, "x"), ErrReplayNotFound)

	missing, err := store.CountMissingEmbeds(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, missing, 1)
}

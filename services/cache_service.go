package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nba-watcher/backend/shared"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache keys shared by the services and the refresh job.
const (
	CacheKeyScoreboard  = "nba_scoreboard_live"
	CacheKeyGamesList   = "nba_games_list"
	CacheKeyReplayList  = "replays_list_full"
	CacheKeyPlayerStats = "nba_player_season_stats"
)

// BoxscoreCacheKey returns the per-game box score key.
func BoxscoreCacheKey(gameID string) string { return "boxscore:" + gameID }

// MomentumCacheKey returns the per-game momentum series key.
func MomentumCacheKey(gameID string) string { return "momentum_3min:" + gameID }

// ErrCacheMiss is returned by a Store when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is an opaque byte store with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Replace overwrites a live key and keeps its current expiry. It returns
	// ErrCacheMiss when the key is absent or expired.
	Replace(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
}

// MemoryStore keeps entries in process memory and expires them against an injected clock
type MemoryStore struct {
	clock   Clock
	mutex   sync.RWMutex
	entries map[string]CacheEntry
	maxSize int
}

// NewMemoryStore creates an in-memory store bounded to maxSize entries
func NewMemoryStore(clock Clock, maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		clock:   clock,
		entries: make(map[string]CacheEntry),
		maxSize: maxSize,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.entries[key]
	if !exists || !s.clock.Now().Before(entry.ExpiresAt) {
		return nil, ErrCacheMiss
	}
	return entry.Data, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	s.entries[key] = CacheEntry{
		Data:      append([]byte(nil), value...),
		ExpiresAt: s.clock.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.entries[key]
	if !exists || !s.clock.Now().Before(entry.ExpiresAt) {
		return ErrCacheMiss
	}
	entry.Data = append([]byte(nil), value...)
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, key)
	return nil
}

// evictOldest removes the entry closest to expiry. Caller holds the lock.
func (s *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range s.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

// PurgeExpired drops expired entries and returns how many were removed
func (s *MemoryStore) PurgeExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of items held, expired or not
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// RedisStore keeps entries in Redis with SETEX semantics
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Replace is SET key value XX KEEPTTL.
func (s *RedisStore) Replace(ctx context.Context, key string, value []byte) error {
	err := s.client.SetArgs(ctx, key, value, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// CacheService is the JSON cache in front of every upstream call. Store failures
// degrade to misses and dropped writes so callers always fall through to the source.
type CacheService struct {
	store   Store
	clock   Clock
	metrics *shared.Metrics
	logger  *logrus.Entry
}

// NewCacheService builds the cache over an explicit store and clock
func NewCacheService(store Store, clock Clock, metrics *shared.Metrics) *CacheService {
	return &CacheService{
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logrus.WithField("component", "CacheService"),
	}
}

// Now returns the cache's notion of the current time
func (c *CacheService) Now() time.Time {
	return c.clock.Now()
}

// GetJSON decodes the value under key into dest. It reports false on a miss,
// a store error, or an undecodable value.
func (c *CacheService) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			c.metrics.RecordCacheLookup("miss")
		} else {
			c.metrics.RecordCacheLookup("error")
			c.logger.WithError(err).WithField("key", key).Warn("Cache get failed, treating as miss")
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.metrics.RecordCacheLookup("error")
		c.logger.WithError(err).WithField("key", key).Warn("Cached value is not valid JSON, treating as miss")
		return false
	}

	c.metrics.RecordCacheLookup("hit")
	return true
}

// SetJSON stores value under key for ttl. Failures are logged and dropped.
func (c *CacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to encode cache value")
		return
	}

	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache set failed, value not cached")
	}
}

// ReplaceJSON overwrites a cached value without extending its expiry. Nothing
// is written when key is not cached.
func (c *CacheService) ReplaceJSON(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to encode cache value")
		return
	}

	if err := c.store.Replace(ctx, key, data); err != nil && !errors.Is(err, ErrCacheMiss) {
		c.logger.WithError(err).WithField("key", key).Warn("Cache replace failed, value not updated")
	}
}

// Delete removes key, ignoring store failures
func (c *CacheService) Delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache delete failed")
	}
}

// Remember returns the cached value under key or calls load, caches its result and returns it.
// Load errors are returned without caching.
func Remember[T any](ctx context.Context, c *CacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}

	c.SetJSON(ctx, key, fresh, ttl)
	return fresh, nil
}

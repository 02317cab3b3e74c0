package jobs

import (
	"time"

	"github.com/nba-watcher/backend/services"
	"github.com/sirupsen/logrus"
)

// CacheCleanupJob drops expired entries from the in-process store
type CacheCleanupJob struct {
	Store *services.MemoryStore
}

func NewCacheCleanupJob(store *services.MemoryStore) *CacheCleanupJob {
	return &CacheCleanupJob{Store: store}
}

func (j *CacheCleanupJob) Run() {
	startTime := time.Now()
	purged := j.Store.PurgeExpired()

	logrus.WithFields(logrus.Fields{
		"purged":    purged,
		"remaining": j.Store.Size(),
		"duration":  time.Since(startTime),
	}).Info("Cache cleanup job completed")
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"
	_ "time/tzdata"
)

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

// failingStore errors on every call, standing in for an unreachable backend.
type failingStore struct{}

var errStoreDown = errors.New("store unavailable")

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (failingStore) Replace(context.Context, string, []byte) error { return errStoreDown }
func (failingStore) Delete(context.Context, string) error          { return errStoreDown }

func newTestCache(clock Clock) *CacheService {
	return NewCacheService(NewMemoryStore(clock, 100), clock, nil)
}

func testZones() TimeZones {
	return LoadTimeZones("America/Chicago")
}

// chicagoTime builds a wall-clock time in the display zone.
func chicagoTime(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, testZones().Display)
}

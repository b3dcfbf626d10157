package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/enrutador/dispatch-backend/internal/geo"
	"github.com/enrutador/dispatch-backend/internal/holiday"
	"github.com/enrutador/dispatch-backend/internal/models"
)

// Snapshot is the immutable view of the scheduling data one request runs
// against. Refreshing the underlying tables mid-scan never changes an
// in-flight scan's inputs.
type Snapshot struct {
	Technicians []models.Technician
	Visits      []models.Visit
	Overrides   []models.ScheduleOverride
	Geo         *geo.Index
	Holidays    *holiday.Calendar
	LoadedAt    time.Time
}

// Loader produces a fresh snapshot from the backing store.
type Loader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// SnapshotCache hands out the current snapshot and reloads it on demand or
// when it goes stale.
type SnapshotCache struct {
	loader Loader
	ttl    time.Duration

	mu   sync.RWMutex
	snap *Snapshot
}

func NewSnapshotCache(loader Loader, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{loader: loader, ttl: ttl}
}

func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil && time.Since(snap.LoadedAt) < c.ttl {
		return snap, nil
	}
	return c.Refresh(ctx)
}

func (c *SnapshotCache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the write lock; a concurrent caller may have won.
	if c.snap != nil && time.Since(c.snap.LoadedAt) < c.ttl {
		return c.snap, nil
	}
	snap, err := c.loader.LoadSnapshot(ctx)
	if err != nil {
		// A stale snapshot beats no snapshot when the store is down.
		if c.snap != nil {
			return c.snap, nil
		}
		return nil, err
	}
	c.snap = snap
	return snap, nil
}

// Force drops the cached snapshot so the next Get reloads unconditionally.
func (c *SnapshotCache) Force(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
	return c.Refresh(ctx)
}

package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls int
	err   error
}

func (l *countingLoader) LoadSnapshot(_ context.Context) (*Snapshot, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return &Snapshot{LoadedAt: time.Now()}, nil
}

func TestSnapshotCacheServesFreshCopy(t *testing.T) {
	loader := &countingLoader{}
	cache := NewSnapshotCache(loader, time.Minute)

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.calls)
}

func TestSnapshotCacheForceReloads(t *testing.T) {
	loader := &countingLoader{}
	cache := NewSnapshotCache(loader, time.Minute)

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Force(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, loader.calls)
}

func TestSnapshotCacheKeepsStaleOnLoadError(t *testing.T) {
	loader := &countingLoader{}
	cache := NewSnapshotCache(loader, time.Nanosecond)

	first, err := cache.Get(context.Background())
	require.NoError(t, err)

	loader.err = errors.New("db down")
	time.Sleep(time.Millisecond)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSnapshotCacheErrorsWithNothingCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	cache := NewSnapshotCache(loader, time.Minute)

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
}

// Package statecache serves the aggregated device state through a short lived
// read-through cache and mirrors every recomputed snapshot to disk.
package statecache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

// TTL is how long a computed snapshot is served before it is rebuilt.
const TTL = 1000 * time.Millisecond

type source interface {
	Snapshot() model.Snapshot
}

type persister interface {
	Write(ctx context.Context, snapshot model.Snapshot) error
}

type observer interface {
	SnapshotWritten(err error)
}

type Cache struct {
	src      source
	persist  persister
	observer observer
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	snapshot model.Snapshot
	ts       time.Time
}

func WithClock(now func() time.Time) func(*Cache) {
	return func(c *Cache) {
		c.now = now
	}
}

func WithObserver(o observer) func(*Cache) {
	return func(c *Cache) {
		c.observer = o
	}
}

func New(src source, persist persister, opts ...func(*Cache)) *Cache {
	c := &Cache{
		src:     src,
		persist: persist,
		ttl:     TTL,
		now:     time.Now,
		logger:  zap.L(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetState returns the cached snapshot while it is younger than the TTL,
// otherwise it rebuilds, persists and caches a new one. Persistence failures
// are logged and never returned.
func (c *Cache) GetState(ctx context.Context) model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.snapshot != nil && now.Sub(c.ts) < c.ttl {
		return c.snapshot
	}

	snapshot := c.src.Snapshot()
	err := c.persist.Write(ctx, snapshot)
	if err != nil {
		c.logger.Warn("failed to persist state snapshot", zap.Error(err))
	}
	if c.observer != nil {
		c.observer.SnapshotWritten(err)
	}
	c.snapshot = snapshot
	c.ts = now
	return snapshot
}

package chart

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"quotechart/internal/metrics"
	"quotechart/internal/series"
)

// SnapshotFunc reads the current series.
type SnapshotFunc func(ctx context.Context) (series.Snapshot, error)

// entry stores one rendered image.
type entry struct {
	seq  uint64
	body []byte
}

// Cache renders the chart on demand and keeps the result per format until the
// series grows. The series is append-only, so its length identifies its
// content.
type Cache struct {
	Snapshot SnapshotFunc
	Options  Options
	MaxItems int
	Metrics  *metrics.Metrics

	mu    sync.RWMutex
	items map[string]entry // key: format + series length
	seq   uint64

	// coalesce concurrent renders of the same version
	sf singleflight.Group
}

func cacheKey(f Format, n int) string { return fmt.Sprintf("%s:%d", f, n) }

// Get returns the chart image for the current series. It returns ErrEmpty
// when no point has been plotted yet.
func (c *Cache) Get(ctx context.Context, f Format) ([]byte, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.Points) == 0 {
		return nil, ErrEmpty
	}
	key := cacheKey(f, len(snap.Points))

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		c.Metrics.ObserveRender(string(f), true)
		return e.body, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		body, err := Render(snap, f, c.Options)
		if err != nil {
			return nil, err
		}
		c.store(key, body)
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	c.Metrics.ObserveRender(string(f), false)
	return v.([]byte), nil
}

func (c *Cache) store(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.seq++
	c.items[key] = entry{seq: c.seq, body: body}

	limit := c.MaxItems
	if limit <= 0 {
		limit = 8
	}
	// evict oldest until under the cap
	for len(c.items) > limit {
		var oldest string
		var at uint64
		for k, v := range c.items {
			if oldest == "" || v.seq < at {
				oldest, at = k, v.seq
			}
		}
		delete(c.items, oldest)
	}
}

// Len reports the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

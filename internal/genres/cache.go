// Package genres holds the process-wide genre id to name reference table.
package genres

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/logging"
)

// Loader fetches the full genre list from upstream.
type Loader interface {
	FetchGenres(ctx context.Context) ([]domain.Genre, error)
}

// Cache maps genre ids to names. It is filled once and only refilled while
// empty; entries are never removed.
type Cache struct {
	loader Loader
	logger hclog.Logger
	group  singleflight.Group

	mu    sync.RWMutex
	names map[int]string
}

// NewCache returns an empty cache backed by loader.
func NewCache(loader Loader, logger hclog.Logger) *Cache {
	return &Cache{
		loader: loader,
		logger: logging.OrNull(logger).Named("genres"),
		names:  make(map[int]string),
	}
}

// EnsureLoaded populates the cache if it is empty. Load failures are logged
// and swallowed so ranking can continue with fallback genre names; the next
// call retries. Concurrent callers share one upstream fetch.
func (c *Cache) EnsureLoaded(ctx context.Context) {
	if c.Len() > 0 || c.loader == nil {
		return
	}
	_, _, _ = c.group.Do("genres", func() (interface{}, error) {
		if c.Len() > 0 {
			return nil, nil
		}
		list, err := c.loader.FetchGenres(ctx)
		if err != nil {
			c.logger.Warn("genre list load failed", "error", err)
			return nil, err
		}
		c.Seed(list)
		c.logger.Debug("genre list loaded", "count", len(list))
		return nil, nil
	})
}

// Resolve returns the name for id.
func (c *Cache) Resolve(id int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[id]
	return name, ok
}

// Seed adds entries without a fetch. Existing ids keep their name.
func (c *Cache) Seed(list []domain.Genre) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range list {
		if g.Name == "" {
			continue
		}
		if _, exists := c.names[g.ID]; !exists {
			c.names[g.ID] = g.Name
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Snapshot returns the cached genres ordered by id.
func (c *Cache) Snapshot() []domain.Genre {
	c.mu.RLock()
	out := make([]domain.Genre, 0, len(c.names))
	for id, name := range c.names {
		out = append(out, domain.Genre{ID: id, Name: name})
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

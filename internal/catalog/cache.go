package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/01moynul/keyu-storefront/internal/models"
	"github.com/01moynul/keyu-storefront/internal/observability"
)

var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Fetcher loads the full catalog, most recent first.
type Fetcher interface {
	List(ctx context.Context) ([]models.Product, error)
}

// Snapshot is an immutable view of the cached catalog.
type Snapshot struct {
	Products   []models.Product
	Generation uint64
	LoadedAt   time.Time
}

// Cache is the in-memory copy of the product collection. It is disposable:
// every full fetch replaces it, and the only local edit is removing a
// deleted product.
//
// Each fetch takes a ticket when it is issued. A result is applied only if
// its ticket is newer than the one already applied, so a slow fetch that
// resolves after a newer one is discarded. Deletes take a ticket too, which
// keeps a fetch issued before the delete from restoring the removed row.
type Cache struct {
	fetcher Fetcher
	metrics *observability.Metrics
	now     func() time.Time

	tickets atomic.Uint64
	group   singleflight.Group

	mu       sync.RWMutex
	state    State
	loadedAt time.Time
}

type CacheOption func(*Cache)

func WithMetrics(m *observability.Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		now:     time.Now,
		state:   NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current contents and whether anything was loaded yet.
func (c *Cache) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Products:   c.state.Catalog,
		Generation: c.state.Generation,
		LoadedAt:   c.loadedAt,
	}, c.state.Loaded
}

// Load returns the cached catalog, fetching it first if nothing is loaded.
func (c *Cache) Load(ctx context.Context) (Snapshot, error) {
	if snap, ok := c.Snapshot(); ok {
		return snap, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the catalog, joining a fetch already in flight.
// Readers and the background refresher use it.
func (c *Cache) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.Reload(ctx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// maxSuperseded bounds how often Reload refetches when every fetch it issued
// was overtaken by a delete before anything was loaded.
const maxSuperseded = 3

// Reload always issues a new fetch. Callers that just changed the store use
// it so they never join a fetch that started before their change landed.
func (c *Cache) Reload(ctx context.Context) (Snapshot, error) {
	for attempt := 1; ; attempt++ {
		ticket := c.tickets.Add(1)

		products, err := c.fetcher.List(ctx)
		c.metrics.RecordRefresh(ctx, err)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}

		c.mu.Lock()
		before := c.state.Generation
		c.state = Reduce(c.state, CatalogLoaded{Products: products, Generation: ticket})
		if c.state.Generation != before {
			c.loadedAt = c.now()
		}
		c.mu.Unlock()

		snap, loaded := c.Snapshot()
		if loaded {
			return snap, nil
		}
		// A delete landed while the first fetch was in flight.
		if attempt == maxSuperseded {
			return Snapshot{}, fmt.Errorf("%w: fetch superseded %d times", ErrCatalogUnavailable, attempt)
		}
	}
}

// Remove drops one product from the cached catalog.
func (c *Cache) Remove(id string) {
	ticket := c.tickets.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, ProductDeleted{ID: id, Generation: ticket})
}

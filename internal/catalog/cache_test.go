package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/keyu-storefront/internal/models"
)

// scriptedFetcher returns queued results in order. When gate is set each
// call blocks on its own channel so tests can control completion order.
type scriptedFetcher struct {
	mu      sync.Mutex
	results [][]models.Product
	errs    []error
	calls   int
	gates   []chan struct{}
	started chan int
}

func (f *scriptedFetcher) List(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	var gate chan struct{}
	if n < len(f.gates) {
		gate = f.gates[n]
	}
	f.mu.Unlock()

	if f.started != nil {
		f.started <- n
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var err error
	if n < len(f.errs) {
		err = f.errs[n]
	}
	if err != nil {
		return nil, err
	}
	return f.results[n], nil
}

func TestCacheLoadFetchesOnce(t *testing.T) {
	f := &scriptedFetcher{results: [][]models.Product{mixedCatalog(3)}}
	c := NewCache(f)

	_, ok := c.Snapshot()
	assert.False(t, ok)

	snap, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Products, 3)

	snap, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Products, 3)
	assert.Equal(t, 1, f.calls)
}

func TestCacheLoadFailureWithoutSnapshot(t *testing.T) {
	f := &scriptedFetcher{errs: []error{errors.New("connection refused")}}
	c := NewCache(f)

	_, err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	_, ok := c.Snapshot()
	assert.False(t, ok)
}

func TestCacheRefreshFailureKeepsSnapshot(t *testing.T) {
	f := &scriptedFetcher{
		results: [][]models.Product{mixedCatalog(2), nil},
		errs:    []error{nil, errors.New("timeout")},
	}
	c := NewCache(f)

	_, err := c.Load(context.Background())
	require.NoError(t, err)

	_, err = c.Refresh(context.Background())
	require.Error(t, err)

	snap, ok := c.Snapshot()
	assert.True(t, ok)
	assert.Len(t, snap.Products, 2)
}

func TestCacheDropsFetchThatResolvesLate(t *testing.T) {
	f := &scriptedFetcher{
		results: [][]models.Product{
			{product("stale", models.CategoryTops)},
			{product("fresh", models.CategoryTops)},
		},
		gates:   []chan struct{}{make(chan struct{}), make(chan struct{})},
		started: make(chan int, 2),
	}
	c := NewCache(f)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.Reload(ctx)
	}()
	<-f.started
	go func() {
		defer wg.Done()
		_, _ = c.Reload(ctx)
	}()
	<-f.started

	// the newer fetch completes first, then the older one
	close(f.gates[1])
	require.Eventually(t, func() bool {
		snap, ok := c.Snapshot()
		return ok && len(snap.Products) == 1 && snap.Products[0].ID == "fresh"
	}, testTimeout, testTick)
	close(f.gates[0])
	wg.Wait()

	snap, _ := c.Snapshot()
	assert.Equal(t, []string{"fresh"}, ids(snap.Products))
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestCacheRemoveThenReload(t *testing.T) {
	catalog := []models.Product{
		product("A", models.CategoryTops),
		product("B", models.CategoryBottoms),
	}
	f := &scriptedFetcher{results: [][]models.Product{catalog, catalog[:1]}}
	c := NewCache(f)
	ctx := context.Background()

	_, err := c.Load(ctx)
	require.NoError(t, err)

	c.Remove("B")
	snap, _ := c.Snapshot()
	assert.Equal(t, []string{"A"}, ids(snap.Products))

	snap, err = c.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(snap.Products))
	assert.Equal(t, 2, f.calls)
}

func TestCacheRemoveDuringFirstLoad(t *testing.T) {
	f := &scriptedFetcher{
		results: [][]models.Product{
			{product("A", models.CategoryTops), product("B", models.CategoryBottoms)},
			{product("B", models.CategoryBottoms)},
		},
		gates:   []chan struct{}{make(chan struct{})},
		started: make(chan int, 2),
	}
	c := NewCache(f)

	type result struct {
		snap Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := c.Load(context.Background())
		done <- result{snap, err}
	}()
	<-f.started

	c.Remove("A")
	close(f.gates[0])

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, []string{"B"}, ids(res.snap.Products))
	assert.Equal(t, 2, f.calls)

	snap, ok := c.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, []string{"B"}, ids(snap.Products))
}

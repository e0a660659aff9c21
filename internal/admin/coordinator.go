// Package admin applies operator create/update/delete requests to the
// product store and keeps the catalog cache in step with it.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/01moynul/keyu-storefront/internal/catalog"
	"github.com/01moynul/keyu-storefront/internal/models"
	"github.com/01moynul/keyu-storefront/internal/observability"
	"github.com/01moynul/keyu-storefront/internal/store"
)

// Cache is the part of the catalog cache the coordinator drives.
type Cache interface {
	Reload(ctx context.Context) (catalog.Snapshot, error)
	Remove(id string)
}

// Images removes uploaded product images. Implemented by storage.Storage.
type Images interface {
	KeyForURL(url string) (string, bool)
	Delete(ctx context.Context, key string) error
}

type Coordinator struct {
	store   store.ProductStore
	cache   Cache
	images  Images
	metrics *observability.Metrics
	tracer  trace.Tracer
	log     *slog.Logger
	now     func() time.Time

	// one mutation at a time
	mu sync.Mutex
}

type Option func(*Coordinator)

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithImages enables cleanup of uploaded images that a delete or an image
// change leaves unreferenced.
func WithImages(img Images) Option {
	return func(c *Coordinator) { c.images = img }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

func NewCoordinator(s store.ProductStore, cache Cache, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  s,
		cache:  cache,
		tracer: observability.Tracer(),
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create inserts the draft and then refetches the whole catalog, so the
// cache carries the store-assigned id, timestamp and position.
// A failed refetch does not undo the insert; the error is logged and the
// next refresh picks the row up.
func (c *Coordinator) Create(ctx context.Context, draft models.ProductDraft) (p models.Product, err error) {
	ctx, end := c.begin(ctx, "create", "")
	defer func() { end(err) }()

	draft.UpdatedAt = c.now().UTC()
	p, err = c.store.Insert(ctx, draft)
	if err != nil {
		return models.Product{}, fmt.Errorf("admin.Create: %w", err)
	}

	c.reload(ctx, "admin.Coordinator.Create", p.ID)
	return p, nil
}

// Update replaces the draft fields of product id and refetches the catalog.
// An unknown id surfaces store.ErrNotFound.
func (c *Coordinator) Update(ctx context.Context, id string, draft models.ProductDraft) (err error) {
	ctx, end := c.begin(ctx, "update", id)
	defer func() { end(err) }()

	oldImage := c.currentImage(ctx, id)
	draft.UpdatedAt = c.now().UTC()
	if err = c.store.Update(ctx, id, draft); err != nil {
		return fmt.Errorf("admin.Update: %w", err)
	}

	c.reload(ctx, "admin.Coordinator.Update", id)
	if oldImage != draft.ImageURL {
		c.removeImage(ctx, "admin.Coordinator.Update", id, oldImage)
	}
	return nil
}

// Delete removes product id from the store and then from the cache. The
// cache is left alone when the store rejects the delete.
func (c *Coordinator) Delete(ctx context.Context, id string) (err error) {
	ctx, end := c.begin(ctx, "delete", id)
	defer func() { end(err) }()

	oldImage := c.currentImage(ctx, id)
	if err = c.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin.Delete: %w", err)
	}

	c.cache.Remove(id)
	c.removeImage(ctx, "admin.Coordinator.Delete", id, oldImage)
	return nil
}

// currentImage returns the stored image_url of id, or "" when image cleanup
// is off or the row cannot be read.
func (c *Coordinator) currentImage(ctx context.Context, id string) string {
	if c.images == nil {
		return ""
	}
	p, err := c.store.Get(ctx, id)
	if err != nil {
		return ""
	}
	return p.ImageURL
}

// removeImage deletes an uploaded image. Failures are logged only; the
// mutation has already been committed.
func (c *Coordinator) removeImage(ctx context.Context, op, id, imageURL string) {
	if c.images == nil || imageURL == "" {
		return
	}
	key, ok := c.images.KeyForURL(imageURL)
	if !ok {
		return
	}
	if err := c.images.Delete(ctx, key); err != nil {
		c.log.WarnContext(ctx, "image cleanup failed",
			"op", op, "product_id", id, "key", key, "err", err)
	}
}

func (c *Coordinator) reload(ctx context.Context, op, id string) {
	if _, err := c.cache.Reload(ctx); err != nil {
		c.log.WarnContext(ctx, "catalog refetch after mutation failed",
			"op", op, "product_id", id, "err", err)
	}
}

// begin takes the mutation lock and opens a span. The returned func records
// the outcome and releases both.
func (c *Coordinator) begin(ctx context.Context, op, id string) (context.Context, func(error)) {
	c.mu.Lock()

	attrs := []attribute.KeyValue{attribute.String("admin.op", op)}
	if id != "" {
		attrs = append(attrs, attribute.String("product.id", id))
	}
	ctx, span := c.tracer.Start(ctx, "admin."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.metrics.RecordMutation(ctx, op, err)
		c.mu.Unlock()
	}
}

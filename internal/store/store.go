// Package store is the Collection Store: the authoritative products table.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/01moynul/keyu-storefront/internal/models"
)

var ErrNotFound = errors.New("product not found")

// ProductStore is the read/write API over the products table.
type ProductStore interface {
	// List returns every product, most recently created first.
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	// Insert assigns ID and CreatedAt and returns the stored row.
	Insert(ctx context.Context, draft models.ProductDraft) (models.Product, error)
	Update(ctx context.Context, id string, draft models.ProductDraft) error
	Delete(ctx context.Context, id string) error
}

type GormStore struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:    db,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

func (s *GormStore) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("store.List: %w", err)
	}
	return products, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("store.Get: %w", err)
	}
	return p, nil
}

func (s *GormStore) Insert(ctx context.Context, draft models.ProductDraft) (models.Product, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	p := models.Product{ID: s.newID(), CreatedAt: now}
	draft.Apply(&p)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return models.Product{}, fmt.Errorf("store.Insert: %w", err)
	}
	return p, nil
}

// Update replaces every draft field of the row with the given id.
func (s *GormStore) Update(ctx context.Context, id string, draft models.ProductDraft) error {
	var p models.Product
	draft.Apply(&p)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now().UTC()
	}

	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Select("name", "description", "category", "image_url", "affiliate_url", "updated_at").
		Updates(&p)
	if res.Error != nil {
		return fmt.Errorf("store.Update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("store.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

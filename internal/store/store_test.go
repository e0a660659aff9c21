package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/01moynul/keyu-storefront/internal/models"
)

func setupStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	s := NewGormStore(db)
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("01HTEST%019d", seq)
	}
	return s
}

func draft(name, category string) models.ProductDraft {
	return models.ProductDraft{
		Name:         name,
		Description:  name + " description",
		Category:     category,
		ImageURL:     "https://cdn.example.com/" + name + ".jpg",
		AffiliateURL: "https://shop.example.com/" + name,
	}
}

func TestInsertAssignsIdAndCreatedAt(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Insert(ctx, draft("linen shirt", "Tops"))
	require.NoError(t, err)
	assert.Len(t, p.ID, 26)
	assert.False(t, p.CreatedAt.IsZero())
	require.NotNil(t, p.Category)
	assert.Equal(t, models.CategoryTops, *p.Category)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "linen shirt", got.Name)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestInsertWithoutCategory(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Insert(ctx, draft("gift card", ""))
	require.NoError(t, err)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)
}

func TestListNewestFirst(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := s.Insert(ctx, draft(name, "Bottoms"))
		require.NoError(t, err)
	}

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "third", products[0].Name)
	assert.Equal(t, "first", products[2].Name)
}

func TestGetUnknownId(t *testing.T) {
	s := setupStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReplacesDraftFields(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Insert(ctx, draft("boots", "Footwear"))
	require.NoError(t, err)

	edit := draft("chelsea boots", "")
	edit.UpdatedAt = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Update(ctx, p.ID, edit))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "chelsea boots", got.Name)
	assert.Nil(t, got.Category)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, edit.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpdateUnknownId(t *testing.T) {
	s := setupStore(t)
	err := s.Update(context.Background(), "missing", draft("x", "Tops"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Insert(ctx, draft("scarf", "Accessories"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)
}

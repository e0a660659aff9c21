package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/01moynul/keyu-storefront/internal/catalog"
	"github.com/01moynul/keyu-storefront/internal/content"
	"github.com/01moynul/keyu-storefront/internal/events"
	"github.com/01moynul/keyu-storefront/internal/flash"
	"github.com/01moynul/keyu-storefront/internal/middleware"
	"github.com/01moynul/keyu-storefront/internal/models"
	"github.com/01moynul/keyu-storefront/internal/storage"
)

// CatalogSource serves the cached catalog, loading it on first use.
type CatalogSource interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
}

// ProductReader looks a single product up in the store.
type ProductReader interface {
	Get(ctx context.Context, id string) (models.Product, error)
}

// Mutator applies operator changes. Implemented by admin.Coordinator.
type Mutator interface {
	Create(ctx context.Context, draft models.ProductDraft) (models.Product, error)
	Update(ctx context.Context, id string, draft models.ProductDraft) error
	Delete(ctx context.Context, id string) error
}

type PasswordVerifier interface {
	Verify(plaintext string) error
}

// Drafter suggests product descriptions. Nil when drafting is disabled.
type Drafter interface {
	Draft(ctx context.Context, name string, category *models.Category) (string, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Engine   catalog.Engine
	Catalog  CatalogSource
	Products ProductReader
	Admin    Mutator

	Credential PasswordVerifier
	Session    *middleware.AdminSession
	Flash      *flash.Codec

	Uploads   storage.Storage
	Clicks    events.Publisher
	Drafter   Drafter
	TermsPage content.Page
	Log       *slog.Logger
	Now       func() time.Time

	// PublicBaseURL is where the storefront UI is served; share links point there.
	PublicBaseURL string
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handlers) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

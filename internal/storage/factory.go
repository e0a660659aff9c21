package storage

import (
	"context"
	"fmt"

	appconfig "github.com/01moynul/keyu-storefront/internal/config"
)

// New builds the Storage selected by cfg.Driver.
func New(ctx context.Context, cfg appconfig.Storage) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.URLPrefix), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Region:        cfg.S3.Region,
			Bucket:        cfg.S3.Bucket,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

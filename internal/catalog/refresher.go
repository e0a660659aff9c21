package catalog

import (
	"context"
	"log/slog"
	"time"
)

// RunRefresher reloads the cache every interval until ctx is done.
// Failures keep the previous snapshot and are retried on the next tick.
func (c *Cache) RunRefresher(ctx context.Context, interval time.Duration) {
	const op = "catalog.Cache.RunRefresher"
	log := slog.With("op", op)

	if interval <= 0 {
		log.Info("periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("catalog refresher started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("catalog refresher stopped")
			return
		case <-ticker.C:
			snap, err := c.Refresh(ctx)
			if err != nil {
				log.Warn("catalog refresh failed", "err", err)
				continue
			}
			log.Debug("catalog refreshed", "products", len(snap.Products), "generation", snap.Generation)
		}
	}
}

package jobs

import (
	"context"
	"log"
	"time"

	"brightsteps/portal/internal/config"
	"brightsteps/portal/internal/repository"
)

// StartSessionPurgeJob periodically deletes expired and long-revoked refresh
// sessions so the table does not grow without bound.
func StartSessionPurgeJob(ctx context.Context, cfg config.Config, store *repository.Store) {
	if !cfg.SessionPurgeEnabled {
		return
	}
	interval := cfg.SessionPurgeInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				purged, err := store.PurgeExpiredRefreshSessions(tickCtx, time.Now().UTC())
				cancel()
				if err != nil {
					log.Printf("session purge job error: %v", err)
					continue
				}
				if purged > 0 {
					log.Printf("session purge job removed %d sessions", purged)
				}
			}
		}
	}()
}

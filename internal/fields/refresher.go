package fields

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads the dictionary into the cache.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// StartRefresher reloads the dictionary every interval until ctx is done.
func StartRefresher(ctx context.Context, r Refresher, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := r.Refresh(ctx)
				if err != nil {
					log.Error("failed to refresh field dictionary", zap.Error(err))
					continue
				}
				log.Debug("refreshed field dictionary", zap.Int("fields", n))
			}
		}
	}()
}

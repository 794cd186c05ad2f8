package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner drops revocation entries whose tokens have expired.
type Pruner interface {
	Prune(now time.Time) (int, error)
}

// StartRevocationPruner prunes on every tick until ctx is cancelled. The
// returned channel closes once the loop has exited.
func StartRevocationPruner(ctx context.Context, pruner Pruner, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if pruner == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := pruner.Prune(now)
				if err != nil {
					logger.Warn("prune revoked tokens", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Debug("pruned revoked tokens", zap.Int("removed", removed))
				}
			}
		}
	}()
	return done
}

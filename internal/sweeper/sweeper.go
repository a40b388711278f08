package sweeper

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	SweepRevoked(ctx context.Context) (int64, error)
}

// Run sweeps expired revocation entries every interval until ctx is cancelled.
// A non-positive interval disables it.
func Run(ctx context.Context, s Sweeper, interval time.Duration, l *slog.Logger) {
	if interval <= 0 {
		l.Info("revocation_sweeper_disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepRevoked(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.Error("revocation_sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("revocation_sweep", "removed", n)
			}
		}
	}
}

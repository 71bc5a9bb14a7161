package usecase

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = 10 * time.Minute

// SweepExpiredOTPs periodically removes records past their deadline until
// ctx is canceled. Verification never depends on the sweep; an expired
// record fails verification whether or not it has been removed yet.
func (s *Usecase) SweepExpiredOTPs(ctx context.Context) {
	interval := s.cfg.GetMinute("modules.auth.sweep_interval_minutes")
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.repoDB.DeleteExpiredOTPs(ctx, s.clock.Now())
			if err != nil {
				slog.ErrorContext(ctx, "failed to sweep expired otp records", "error", err)
				continue
			}
			if deleted > 0 {
				slog.InfoContext(ctx, "swept expired otp records", "deleted", deleted)
			}
		}
	}
}

package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/infra/redis"
	"telegram-yoga-subscription/internal/usecase"
)

const sweepLockKey = "jobs:subscription-lifecycle:lock"

// LifecycleWorker periodically runs the subscription lifecycle sweep.
// A redis lock makes a double-fired tick usually skip instead of overlap;
// when the lock is unavailable the sweep still stays safe through its
// conditional per-row updates.
type LifecycleWorker struct {
	interval time.Duration
	uc       usecase.LifecycleUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewLifecycleWorker(interval time.Duration, uc usecase.LifecycleUseCase, locker redis.Locker, logger *zerolog.Logger) *LifecycleWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "LifecycleWorker").Logger()
	return &LifecycleWorker{interval: interval, uc: uc, locker: locker, log: &l}
}

func (w *LifecycleWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting lifecycle worker")
	// Run once on startup, then on every tick
	w.runSweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping lifecycle worker")
			return ctx.Err()
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *LifecycleWorker) runSweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if w.locker != nil {
		token, err := w.locker.TryLock(runCtx, sweepLockKey, w.interval)
		if err != nil {
			if errors.Is(err, domain.ErrSweepLocked) {
				w.log.Debug().Msg("sweep already running elsewhere; skipping tick")
			} else {
				w.log.Warn().Err(err).Msg("sweep lock unavailable; running unlocked")
			}
			if !errors.Is(err, domain.ErrSweepLocked) {
				w.sweep(runCtx)
			}
			return
		}
		defer func() { _ = w.locker.Unlock(runCtx, sweepLockKey, token) }()
	}
	w.sweep(runCtx)
}

func (w *LifecycleWorker) sweep(ctx context.Context) {
	run, err := w.uc.RunOnce(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("lifecycle sweep failed")
		return
	}
	if run.ProcessedCount > 0 || len(run.Errors) > 0 {
		w.log.Info().
			Str("run_id", run.ID).
			Str("status", string(run.Status)).
			Int("processed", run.ProcessedCount).
			Msg("lifecycle sweep run recorded")
	}
}

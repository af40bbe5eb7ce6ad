package quota

import (
	"context"
	"time"

	"github.com/01moynul/projectforge-golang/internal/metrics"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/rs/zerolog/log"
)

const defaultResetInterval = time.Hour

// ResetWorker periodically restores research counters for every tenant
// past the day boundary. Check still resets lazily, so a missed tick only
// delays the bulk update.
type ResetWorker struct {
	store    *store.Store
	interval time.Duration
	now      func() time.Time
}

func NewResetWorker(st *store.Store, interval time.Duration) *ResetWorker {
	if interval <= 0 {
		interval = defaultResetInterval
	}
	return &ResetWorker{store: st, interval: interval, now: func() time.Time { return time.Now().UTC() }}
}

// Run blocks until ctx is cancelled.
func (w *ResetWorker) Run(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Daily research reset worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.reset(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Daily research reset worker stopped")
			return
		case <-ticker.C:
			w.reset(ctx)
		}
	}
}

func (w *ResetWorker) reset(ctx context.Context) {
	now := w.now()
	n, err := w.store.ResetAllDailyResearch(ctx, StartOfDay(now), now)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Daily research reset failed")
		}
		return
	}
	if n > 0 {
		metrics.QuotaResetsTotal.Add(float64(n))
		log.Info().Int64("tenants", n).Msg("Daily research counters reset")
	}
}

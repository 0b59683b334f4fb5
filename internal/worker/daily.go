package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/wingo/internal/broadcast"
	"github.com/Alias1177/wingo/internal/config"
	"github.com/Alias1177/wingo/internal/database"
	"github.com/Alias1177/wingo/internal/message"
)

// Aggregator posts a prediction-accuracy summary once per day at a fixed
// wall-clock boundary. It runs independently of the polling worker.
type Aggregator struct {
	cfg    *config.Config
	db     *database.DB
	caster *broadcast.Broadcaster
	logger zerolog.Logger
}

// NewAggregator creates the daily summary job.
func NewAggregator(cfg *config.Config, db *database.DB, caster *broadcast.Broadcaster) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		db:     db,
		caster: caster,
		logger: log.With().Str("component", "daily_summary").Logger(),
	}
}

// Run blocks until ctx is cancelled, emitting one summary per boundary.
// The wait is recomputed after every emission, so the job always targets
// the next boundary and self-corrects for drift.
func (a *Aggregator) Run(ctx context.Context) {
	a.logger.Info().Int("hour", a.cfg.SummaryHour).Str("zone", a.cfg.SummaryZone).Msg("Daily summary job started")

	for {
		wait := untilNextBoundary(time.Now().In(a.cfg.Location), a.cfg.SummaryHour)
		a.logger.Debug().Dur("wait", wait).Msg("Sleeping until next summary boundary")

		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Daily summary job cancelled")
			return
		case <-time.After(wait):
		}

		a.emit(ctx)
	}
}

func (a *Aggregator) emit(ctx context.Context) {
	stats, err := a.db.Stats(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to compute stats")
		return
	}
	targets, err := a.db.ListTargets(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to list targets")
		return
	}

	sent := a.caster.SendAll(ctx, targets, message.BuildSummary(stats))
	a.logger.Info().Int("sent", sent).Int("total", stats.Total).Float64("win_rate", stats.WinRate).Msg("Posted daily summary")
}

// untilNextBoundary returns the duration from now until the next
// occurrence of hour:00 in now's location.
func untilNextBoundary(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

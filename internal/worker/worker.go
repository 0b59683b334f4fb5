package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/wingo/internal/broadcast"
	"github.com/Alias1177/wingo/internal/config"
	"github.com/Alias1177/wingo/internal/database"
	"github.com/Alias1177/wingo/internal/message"
	"github.com/Alias1177/wingo/internal/predictor"
	"github.com/Alias1177/wingo/models"
)

var (
	// ErrAlreadyRunning is returned by Start when a worker loop is active.
	ErrAlreadyRunning = errors.New("prediction already running")
	// ErrNotRunning is returned by Stop when no worker loop is active.
	ErrNotRunning = errors.New("no prediction worker running")
	// ErrNoTargets is returned by Start when no destination is configured.
	ErrNoTargets = errors.New("no targets configured")

	errNoHistory = errors.New("no history fetched")
)

// Worker owns the polling loop: fetch, persist, reconcile, predict,
// broadcast, sleep. At most one loop runs per Worker; Start and Stop are
// safe to call concurrently with an in-flight cycle.
type Worker struct {
	cfg    *config.Config
	db     *database.DB
	client models.HistoryClient
	caster *broadcast.Broadcaster
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a polling worker. Nothing runs until Start is called.
func New(cfg *config.Config, db *database.DB, client models.HistoryClient, caster *broadcast.Broadcaster) *Worker {
	return &Worker{
		cfg:    cfg,
		db:     db,
		client: client,
		caster: caster,
		logger: log.With().Str("component", "worker").Logger(),
	}
}

// Start launches the polling loop. It refuses to start a second loop and
// refuses to start with an empty destination set.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrAlreadyRunning
	}

	targets, err := w.db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("listing targets: %w", err)
	}
	if len(targets) == 0 {
		return ErrNoTargets
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(runCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to unwind.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done
	return nil
}

// Running reports whether the polling loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		if w.done == done {
			w.cancel = nil
			w.done = nil
		}
		w.mu.Unlock()
		close(done)
	}()

	w.logger.Info().Dur("interval", w.cfg.PostInterval).Msg("Prediction worker started")

	for {
		delay := w.cfg.PostInterval
		if err := w.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("Prediction worker cancelled")
				return
			}
			w.logger.Warn().Err(err).Msg("Cycle failed, will retry")
			if errors.Is(err, errNoHistory) {
				delay = w.cfg.RetryInterval
			}
		}

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Prediction worker cancelled")
			return
		case <-time.After(delay):
		}
	}
}

// cycle runs one full iteration. Fetch trouble is reported as
// errNoHistory so the loop retries on the short interval; any later
// failure aborts before the forecast so unobserved data never gets one.
func (w *Worker) cycle(ctx context.Context) error {
	rounds, err := w.client.GetHistory(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Fetch failed")
		return errNoHistory
	}
	if len(rounds) == 0 {
		return errNoHistory
	}

	if err := w.db.SaveRounds(ctx, rounds); err != nil {
		return fmt.Errorf("storing rounds: %w", err)
	}

	w.reconcile(ctx, rounds)

	history, err := w.db.ListRounds(ctx)
	if err != nil {
		return fmt.Errorf("listing rounds: %w", err)
	}

	forecast := predictor.Predict(history, w.cfg.HistoryWindow)
	if err := w.issue(ctx, forecast); err != nil {
		return err
	}

	return w.post(ctx)
}

// reconcile resolves pending predictions against freshly observed rounds.
// A round without a matching prediction is simply recorded: accuracy
// bookkeeping for it is lost, which is accepted.
func (w *Worker) reconcile(ctx context.Context, rounds []models.Round) {
	for _, r := range rounds {
		p, err := w.db.GetPrediction(ctx, r.Issue)
		if err != nil {
			w.logger.Error().Err(err).Str("issue", r.Issue).Msg("Failed to look up prediction")
			continue
		}
		if p == nil || p.Result != models.ResultPending {
			continue
		}

		result := models.ResultLoss
		if p.Predicted == predictor.Label(r.Number) {
			result = models.ResultWin
		}
		if err := w.db.ResolvePrediction(ctx, r.Issue, result); err != nil {
			w.logger.Error().Err(err).Str("issue", r.Issue).Msg("Failed to resolve prediction")
		}
	}
}

// issue persists the forecast unless one already exists for that issue.
// Re-entrant cycles after a restart must not duplicate or overwrite an
// already-issued prediction.
func (w *Worker) issue(ctx context.Context, forecast models.Forecast) error {
	existing, err := w.db.GetPrediction(ctx, forecast.NextIssue)
	if err != nil {
		return fmt.Errorf("checking existing prediction: %w", err)
	}
	if existing != nil {
		return nil
	}

	prev, err := w.db.LatestPrediction(ctx)
	if err != nil {
		return fmt.Errorf("loading latest prediction: %w", err)
	}

	p := models.Prediction{
		Issue:      forecast.NextIssue,
		Predicted:  forecast.Predicted,
		Confidence: forecast.Confidence,
		Multiplier: predictor.NextMultiplier(prev, w.cfg.MultiplierCap),
		CreatedAt:  time.Now().UTC(),
		Result:     models.ResultPending,
	}
	if err := w.db.SavePrediction(ctx, p); err != nil {
		return fmt.Errorf("saving prediction: %w", err)
	}

	w.logger.Info().
		Str("issue", p.Issue).
		Str("predicted", string(p.Predicted)).
		Float64("confidence", p.Confidence).
		Int("multiplier", p.Multiplier).
		Msg("Issued prediction")
	return nil
}

// post composes the status message and fans it out to every destination.
func (w *Worker) post(ctx context.Context) error {
	rounds, err := w.db.ListRounds(ctx)
	if err != nil {
		return fmt.Errorf("listing rounds: %w", err)
	}
	predictions, err := w.db.ListPredictions(ctx)
	if err != nil {
		return fmt.Errorf("listing predictions: %w", err)
	}
	latest, err := w.db.LatestPrediction(ctx)
	if err != nil {
		return fmt.Errorf("loading latest prediction: %w", err)
	}

	text := message.BuildStatus(w.cfg.HeaderTitle, rounds, predictions, latest, w.cfg.DisplayCount)

	targets, err := w.db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("listing targets: %w", err)
	}
	w.caster.SendAll(ctx, targets, text)
	return nil
}

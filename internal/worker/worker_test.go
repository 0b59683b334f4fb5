package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/wingo/internal/broadcast"
	"github.com/Alias1177/wingo/internal/config"
	"github.com/Alias1177/wingo/internal/database"
	"github.com/Alias1177/wingo/models"
)

type fakeClient struct {
	mu     sync.Mutex
	rounds []models.Round
	err    error
}

func (f *fakeClient) GetHistory(ctx context.Context) ([]models.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rounds, nil
}

func (f *fakeClient) set(rounds []models.Round, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds = rounds
	f.err = err
}

type countingSender struct {
	mu   sync.Mutex
	sent []string
}

func (c *countingSender) Send(destination, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, destination)
	return nil
}

func (c *countingSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func testConfig() *config.Config {
	return &config.Config{
		HeaderTitle:   "WinGo",
		PageSize:      20,
		HistoryWindow: 10,
		Retention:     15,
		DisplayCount:  15,
		MultiplierCap: 81,
		PostInterval:  20 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		SummaryHour:   0,
		SummaryZone:   "UTC",
		Location:      time.UTC,
	}
}

func testWorker(t *testing.T, client models.HistoryClient) (*Worker, *database.DB, *countingSender) {
	t.Helper()

	db, err := database.New(":memory:", 15)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sender := &countingSender{}
	w := New(testConfig(), db, client, broadcast.New(sender))
	return w, db, sender
}

func makeRounds(start, count int, number int) []models.Round {
	rounds := make([]models.Round, count)
	for i := range rounds {
		rounds[i] = models.Round{
			Issue:      strconv.Itoa(start + i),
			Number:     number,
			ObservedAt: time.Now().UTC(),
		}
	}
	return rounds
}

func TestStartRequiresTargets(t *testing.T) {
	w, _, _ := testWorker(t, &fakeClient{err: errors.New("unused")})

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoTargets)
	assert.False(t, w.Running())
}

func TestStartTwiceIsRejected(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	w, db, _ := testWorker(t, client)
	require.NoError(t, db.AddTarget(context.Background(), "-100"))

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.Running())

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, w.Stop())
	assert.False(t, w.Running())

	err = w.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestStopWaitsForLoopExit(t *testing.T) {
	client := &fakeClient{rounds: makeRounds(1000, 5, 7)}
	w, db, _ := testWorker(t, client)
	require.NoError(t, db.AddTarget(context.Background(), "-100"))

	require.NoError(t, w.Start(context.Background()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, w.Stop())

	// After Stop returns, the loop must be fully unwound and restartable.
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
}

func TestCycleIssuesForecastIdempotently(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{rounds: makeRounds(1000, 10, 7)} // all HIGH
	w, db, sender := testWorker(t, client)
	require.NoError(t, db.AddTarget(ctx, "-100"))

	require.NoError(t, w.cycle(ctx))

	p, err := db.GetPrediction(ctx, "1010")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.LabelHigh, p.Predicted)
	assert.Equal(t, 1.0, p.Confidence)
	assert.Equal(t, 1, p.Multiplier)
	assert.Equal(t, models.ResultPending, p.Result)
	assert.Equal(t, 1, sender.count())

	// The same feed again: no duplicate, no overwrite.
	require.NoError(t, w.cycle(ctx))

	preds, err := db.ListPredictions(ctx)
	require.NoError(t, err)
	assert.Len(t, preds, 1)

	again, err := db.GetPrediction(ctx, "1010")
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, again.CreatedAt)
	assert.Equal(t, 2, sender.count())
}

func TestCycleWithoutHistoryIsNoOp(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{err: errors.New("timeout")}
	w, db, sender := testWorker(t, client)
	require.NoError(t, db.AddTarget(ctx, "-100"))

	for i := 0; i < 3; i++ {
		err := w.cycle(ctx)
		assert.ErrorIs(t, err, errNoHistory)
	}

	rounds, err := db.ListRounds(ctx)
	require.NoError(t, err)
	assert.Empty(t, rounds)

	preds, err := db.ListPredictions(ctx)
	require.NoError(t, err)
	assert.Empty(t, preds)
	assert.Equal(t, 0, sender.count())
}

func TestCycleResolvesAndEscalates(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{rounds: makeRounds(1000, 10, 7)} // all HIGH
	w, db, _ := testWorker(t, client)
	require.NoError(t, db.AddTarget(ctx, "-100"))

	// Cycle 1 predicts HIGH for issue 1010 at multiplier 1.
	require.NoError(t, w.cycle(ctx))

	// Issue 1010 is drawn LOW: the prediction loses and the next
	// multiplier doubles.
	client.set(append(makeRounds(1001, 9, 7), models.Round{
		Issue: "1010", Number: 2, ObservedAt: time.Now().UTC(),
	}), nil)
	require.NoError(t, w.cycle(ctx))

	lost, err := db.GetPrediction(ctx, "1010")
	require.NoError(t, err)
	require.NotNil(t, lost)
	assert.Equal(t, models.ResultLoss, lost.Result)

	next, err := db.GetPrediction(ctx, "1011")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Multiplier)

	// Issue 1011 is drawn matching the prediction: the ladder resets.
	winNumber := 2
	if next.Predicted == models.LabelHigh {
		winNumber = 8
	}
	client.set(append(makeRounds(1002, 9, 7), models.Round{
		Issue: "1011", Number: winNumber, ObservedAt: time.Now().UTC(),
	}), nil)
	require.NoError(t, w.cycle(ctx))

	won, err := db.GetPrediction(ctx, "1011")
	require.NoError(t, err)
	assert.Equal(t, models.ResultWin, won.Result)

	reset, err := db.GetPrediction(ctx, "1012")
	require.NoError(t, err)
	require.NotNil(t, reset)
	assert.Equal(t, 1, reset.Multiplier)
}

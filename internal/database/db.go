package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Alias1177/wingo/models"
)

// timeLayout is a fixed-width UTC format so stored timestamps sort
// lexicographically in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB represents a database connection. SQLite is single-writer, so the
// pool is capped at one connection; every multi-step operation runs in
// its own transaction.
type DB struct {
	*sql.DB
	retention int
}

// New opens (or creates) the database at the given path and applies the
// schema. retention bounds how many rounds and predictions are kept.
func New(path string, retention int) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, retention: retention}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rounds (
			issue       TEXT PRIMARY KEY,
			number      INTEGER NOT NULL,
			color       TEXT NOT NULL DEFAULT '',
			observed_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS predictions (
			issue      TEXT PRIMARY KEY,
			predicted  TEXT NOT NULL,
			confidence REAL NOT NULL,
			multiplier INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			result     TEXT
		);
		CREATE TABLE IF NOT EXISTS targets (
			identifier TEXT PRIMARY KEY
		);
	`)
	return err
}

// SaveRounds inserts new rounds and prunes the oldest beyond the retention
// bound, as a single transaction. Re-inserting a known issue is a no-op:
// the first stored values win.
func (db *DB) SaveRounds(ctx context.Context, rounds []models.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rounds {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO rounds (issue, number, color, observed_at) VALUES (?, ?, ?, ?)`,
			r.Issue, r.Number, r.Color, r.ObservedAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("insert round %s: %w", r.Issue, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rounds WHERE issue NOT IN (SELECT issue FROM rounds ORDER BY issue DESC LIMIT ?)`,
		db.retention,
	); err != nil {
		return fmt.Errorf("prune rounds: %w", err)
	}

	return tx.Commit()
}

// ListRounds returns the stored trailing window ordered by issue ascending.
func (db *DB) ListRounds(ctx context.Context) ([]models.Round, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT issue, number, color, observed_at FROM rounds ORDER BY issue ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		var r models.Round
		var observed string
		if err := rows.Scan(&r.Issue, &r.Number, &r.Color, &observed); err != nil {
			return nil, err
		}
		r.ObservedAt, _ = time.Parse(timeLayout, observed)
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// SavePrediction stores a prediction for a not-yet-drawn issue and prunes
// the oldest predictions beyond the retention bound (by creation time).
// The caller guards against re-issuing for an already-predicted issue.
func (db *DB) SavePrediction(ctx context.Context, p models.Prediction) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var result any
	if p.Result != "" && p.Result != models.ResultPending {
		result = string(p.Result)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO predictions (issue, predicted, confidence, multiplier, created_at, result)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Issue, string(p.Predicted), p.Confidence, p.Multiplier,
		p.CreatedAt.UTC().Format(timeLayout), result,
	); err != nil {
		return fmt.Errorf("insert prediction %s: %w", p.Issue, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM predictions WHERE issue NOT IN (SELECT issue FROM predictions ORDER BY created_at DESC LIMIT ?)`,
		db.retention,
	); err != nil {
		return fmt.Errorf("prune predictions: %w", err)
	}

	return tx.Commit()
}

// GetPrediction retrieves the prediction for an issue, or nil if absent.
func (db *DB) GetPrediction(ctx context.Context, issue string) (*models.Prediction, error) {
	return scanPrediction(db.QueryRowContext(ctx,
		`SELECT issue, predicted, confidence, multiplier, created_at, result
		 FROM predictions WHERE issue = ?`, issue,
	))
}

// LatestPrediction retrieves the most recently created prediction, or nil
// if none exist.
func (db *DB) LatestPrediction(ctx context.Context) (*models.Prediction, error) {
	return scanPrediction(db.QueryRowContext(ctx,
		`SELECT issue, predicted, confidence, multiplier, created_at, result
		 FROM predictions ORDER BY created_at DESC LIMIT 1`,
	))
}

// ListPredictions returns all stored predictions keyed by issue.
func (db *DB) ListPredictions(ctx context.Context) (map[string]models.Prediction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT issue, predicted, confidence, multiplier, created_at, result FROM predictions`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	preds := make(map[string]models.Prediction)
	for rows.Next() {
		var p models.Prediction
		var created string
		var result sql.NullString
		if err := rows.Scan(&p.Issue, &p.Predicted, &p.Confidence, &p.Multiplier, &created, &result); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		p.Result = models.ResultPending
		if result.Valid {
			p.Result = models.Result(result.String)
		}
		preds[p.Issue] = p
	}
	return preds, rows.Err()
}

// ResolvePrediction sets the result for a still-pending prediction. It is
// a no-op if the prediction is absent or already resolved: the first
// resolution wins and is never overwritten.
func (db *DB) ResolvePrediction(ctx context.Context, issue string, result models.Result) error {
	_, err := db.ExecContext(ctx,
		`UPDATE predictions SET result = ? WHERE issue = ? AND result IS NULL`,
		string(result), issue,
	)
	return err
}

// Stats aggregates prediction outcomes over the stored trailing window.
func (db *DB) Stats(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN result = 'WIN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN result = 'LOSS' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN result IS NULL THEN 1 ELSE 0 END), 0)
		FROM predictions
	`).Scan(&s.Total, &s.Wins, &s.Losses, &s.Pending)
	if err != nil {
		return models.Stats{}, err
	}

	if s.Total > 0 {
		s.WinRate = math.Round(float64(s.Wins)/float64(s.Total)*100) / 100
	}
	return s, nil
}

// AddTarget registers a broadcast destination. Adding a known destination
// is a no-op.
func (db *DB) AddTarget(ctx context.Context, identifier string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO targets (identifier) VALUES (?)`, identifier,
	)
	return err
}

// RemoveTarget removes a broadcast destination.
func (db *DB) RemoveTarget(ctx context.Context, identifier string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM targets WHERE identifier = ?`, identifier)
	return err
}

// ClearTargets removes all broadcast destinations.
func (db *DB) ClearTargets(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM targets`)
	return err
}

// ListTargets returns all registered broadcast destinations.
func (db *DB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT identifier FROM targets ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		targets = append(targets, id)
	}
	return targets, rows.Err()
}

func scanPrediction(row *sql.Row) (*models.Prediction, error) {
	var p models.Prediction
	var created string
	var result sql.NullString

	err := row.Scan(&p.Issue, &p.Predicted, &p.Confidence, &p.Multiplier, &created, &result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No prediction found
		}
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.Result = models.ResultPending
	if result.Valid {
		p.Result = models.Result(result.String)
	}
	return &p, nil
}

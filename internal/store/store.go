// Package store handles SQLite persistence of quiz results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/globequiz/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for quiz sessions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		closeQuietly(db)
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			percentage INTEGER NOT NULL,
			tier TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_answers (
			session_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			country_code TEXT NOT NULL,
			correct INTEGER NOT NULL,
			timed_out INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_answers_code ON session_answers(country_code);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed quiz and its answers.
func (s *Store) InsertSession(ctx context.Context, res model.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, category, started_at, ended_at, score, total, percentage, tier)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID,
		string(res.Category),
		res.StartedAt.Format(time.RFC3339Nano),
		res.EndedAt.Format(time.RFC3339Nano),
		res.Score,
		res.Total,
		res.Percentage,
		res.Tier.Key(),
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(res.Records) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_answers (session_id, position, country_code, correct, timed_out, elapsed_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer closeQuietly(stmt)
		for _, rec := range res.Records {
			if _, err = stmt.ExecContext(ctx, id, rec.Position, rec.SubjectCode, boolInt(rec.Correct), boolInt(rec.TimedOut), rec.Elapsed.Milliseconds()); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetMissedCountries aggregates answers per subject country over the most recent sessions.
// Population sessions are skipped: their recorded subject is only one of the
// compared options, not the country the question asked about.
func (s *Store) GetMissedCountries(ctx context.Context, window int, category model.Category) ([]model.CountryAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE category != ? AND (? = '' OR category = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT a.country_code, SUM(a.correct) AS correct, SUM(1 - a.correct) AS incorrect,
		SUM(a.timed_out) AS timed_out
	FROM session_answers a
	JOIN recent_sessions r ON r.id = a.session_id
	GROUP BY a.country_code`

	rows, err := s.db.QueryContext(ctx, query, string(model.CategoryPopulation), string(category), string(category), window)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	var result []model.CountryAggregate
	for rows.Next() {
		var agg model.CountryAggregate
		if err := rows.Scan(&agg.Code, &agg.Correct, &agg.Incorrect, &agg.TimedOut); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSessions returns session aggregates filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(cfg.Category))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, uuid, category, started_at, ended_at, score, total, percentage, tier
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var category, startedAt, endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.UUID, &category, &startedAt, &endedAt, &agg.Score, &agg.Total, &agg.Percentage, &agg.Tier); err != nil {
			return nil, err
		}
		started, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		ended, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.Category = model.Category(category)
		agg.EndedAt = ended
		agg.DurationMs = ended.Sub(started).Milliseconds()
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCategoryAggregates summarizes sessions per category.
func (s *Store) ListCategoryAggregates(ctx context.Context, sessionIDs []int64) ([]model.CategoryAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT category, COUNT(*) AS sessions, SUM(score) AS correct,
		SUM(total) AS questions, MAX(percentage) AS best
		FROM sessions
		WHERE id IN (%s)
		GROUP BY category
		ORDER BY category`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	var result []model.CategoryAggregate
	for rows.Next() {
		var agg model.CategoryAggregate
		var category string
		if err := rows.Scan(&category, &agg.Sessions, &agg.Correct, &agg.Questions, &agg.Best); err != nil {
			return nil, err
		}
		agg.Category = model.Category(category)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// closeQuietly closes c and drops the error.
func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		_ = err
	}
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

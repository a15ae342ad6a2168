/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package duckstore persists projects, models, results, battles, ratings and
// task progress in DuckDB.
package duckstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/store"
	"chainguard.dev/arena/task"
	"github.com/chainguard-dev/clog"
	_ "github.com/duckdb/duckdb-go/v2"
)

//go:embed schema.sql
var schemaDDL string

// Store is a DuckDB backed store.Interface. Writes are serialized.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ store.Interface = (*Store)(nil)

// Open connects to the DuckDB database at dsn and ensures the schema exists.
// An empty dsn or ":memory:" opens an in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == ":memory:" {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	clog.FromContext(ctx).Debug("Opened DuckDB store", "dsn", dsn)
	return &Store{db: db}, nil
}

// EnsureSchema creates every table and sequence if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close implements store.Interface
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateModel implements store.Interface
func (s *Store) CreateModel(ctx context.Context, project, name string, results []store.ResultInput) (battle.Model, error) {
	if project == "" || name == "" {
		return battle.Model{}, errors.New("project and model name are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return battle.Model{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) > 0 FROM model WHERE project = ? AND name = ?`, project, name,
	).Scan(&exists); err != nil {
		return battle.Model{}, fmt.Errorf("lookup model: %w", err)
	}
	if exists {
		return battle.Model{}, fmt.Errorf("model %q already exists in project %q", name, project)
	}

	m := battle.Model{Project: project, Name: name}
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO model (project, name) VALUES (?, ?) RETURNING id`, project, name,
	).Scan(&m.ID); err != nil {
		return battle.Model{}, fmt.Errorf("insert model: %w", err)
	}
	for i, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO result (model_id, prompt, response) VALUES (?, ?, ?)`,
			m.ID, r.Prompt, r.Response,
		); err != nil {
			return battle.Model{}, fmt.Errorf("insert result %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return battle.Model{}, err
	}
	return m, nil
}

// Models implements leaderboard.Store
func (s *Store) Models(ctx context.Context, project string) ([]battle.Model, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, name FROM model WHERE project = ? ORDER BY id`, project)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	var out []battle.Model
	for rows.Next() {
		var m battle.Model
		if err := rows.Scan(&m.ID, &m.Project, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Results implements store.Interface
func (s *Store) Results(ctx context.Context, modelID int64) ([]battle.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_id, prompt, response FROM result WHERE model_id = ? ORDER BY id`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []battle.Result
	for rows.Next() {
		var r battle.Result
		if err := rows.Scan(&r.ID, &r.ModelID, &r.Prompt, &r.Response); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Result implements store.Interface
func (s *Store) Result(ctx context.Context, id int64) (battle.Result, error) {
	var r battle.Result
	err := s.db.QueryRowContext(ctx,
		`SELECT id, model_id, prompt, response FROM result WHERE id = ?`, id,
	).Scan(&r.ID, &r.ModelID, &r.Prompt, &r.Response)
	if errors.Is(err, sql.ErrNoRows) {
		return battle.Result{}, fmt.Errorf("result %d not found", id)
	}
	return r, err
}

func (s *Store) inProject(ctx context.Context, project string, modelID int64) error {
	var found bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) > 0 FROM model WHERE id = ? AND project = ?`, modelID, project,
	).Scan(&found); err != nil {
		return fmt.Errorf("lookup model: %w", err)
	}
	if !found {
		return fmt.Errorf("model %d not found in project %q", modelID, project)
	}
	return nil
}

// Datapoints implements store.Interface
func (s *Store) Datapoints(ctx context.Context, project string) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT m.id, count(r.id)
FROM model m
LEFT JOIN result r ON r.model_id = m.id
WHERE m.project = ?
GROUP BY m.id`, project)
	if err != nil {
		return nil, fmt.Errorf("query datapoints: %w", err)
	}
	defer rows.Close()

	out := map[int64]int{}
	for rows.Next() {
		var (
			id int64
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// Each battle is counted once from either model's side.
const headToHeadStatsQuery = `
WITH side AS (
    SELECT project, judge, model_a_id AS model_id, model_b_id AS other_id,
           CASE winner WHEN 'A' THEN 'W' WHEN 'B' THEN 'L' ELSE 'T' END AS outcome
    FROM battle
    UNION ALL
    SELECT project, judge, model_b_id, model_a_id,
           CASE winner WHEN 'B' THEN 'W' WHEN 'A' THEN 'L' ELSE 'T' END
    FROM battle
    WHERE model_a_id <> model_b_id
)
SELECT s.other_id, m.name, s.judge,
       count(*) FILTER (WHERE s.outcome = 'W'),
       count(*) FILTER (WHERE s.outcome = 'L'),
       count(*) FILTER (WHERE s.outcome = 'T')
FROM side s
JOIN model m ON m.id = s.other_id
WHERE s.project = ? AND s.model_id = ?
GROUP BY s.other_id, m.name, s.judge
ORDER BY s.other_id, s.judge`

// HeadToHeadStats implements store.Interface
func (s *Store) HeadToHeadStats(ctx context.Context, project string, modelID int64) ([]store.HeadToHeadStats, error) {
	if err := s.inProject(ctx, project, modelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, headToHeadStatsQuery, project, modelID)
	if err != nil {
		return nil, fmt.Errorf("query head-to-head stats: %w", err)
	}
	defer rows.Close()

	var out []store.HeadToHeadStats
	for rows.Next() {
		var st store.HeadToHeadStats
		if err := rows.Scan(&st.OtherModelID, &st.OtherModel, &st.Judge, &st.Wins, &st.Losses, &st.Ties); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

const unjudgedQuery = `
SELECT ra.id, ra.model_id, ra.prompt, ra.response,
       rb.id, rb.model_id, rb.prompt, rb.response
FROM result ra
JOIN model ma ON ma.id = ra.model_id
JOIN result rb ON rb.prompt = ra.prompt AND rb.model_id <> ra.model_id
JOIN model mb ON mb.id = rb.model_id AND mb.project = ma.project
WHERE ra.model_id = ? AND ma.project = ?
  AND NOT EXISTS (
    SELECT 1 FROM battle b
    WHERE b.project = ma.project
      AND b.judge = ?
      AND b.result_a_id = least(ra.id, rb.id)
      AND b.result_b_id = greatest(ra.id, rb.id)
  )
ORDER BY ra.id, mb.id, rb.id`

// UnjudgedHeadToHeads implements task.Store
func (s *Store) UnjudgedHeadToHeads(ctx context.Context, project string, modelID int64, judge string) ([]battle.HeadToHead, error) {
	if err := s.inProject(ctx, project, modelID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, unjudgedQuery, modelID, project, judge)
	if err != nil {
		return nil, fmt.Errorf("query head-to-heads: %w", err)
	}
	defer rows.Close()

	var out []battle.HeadToHead
	for rows.Next() {
		var h battle.HeadToHead
		if err := rows.Scan(
			&h.ResultA.ID, &h.ResultA.ModelID, &h.ResultA.Prompt, &h.ResultA.Response,
			&h.ResultB.ID, &h.ResultB.ModelID, &h.ResultB.Prompt, &h.ResultB.Response,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// PutBattle implements leaderboard.Store
func (s *Store) PutBattle(ctx context.Context, project string, b battle.Battle) (battle.Battle, error) {
	b = b.Normalize()
	if err := b.Validate(); err != nil {
		return battle.Battle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return battle.Battle{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
INSERT INTO battle (project, judge, result_a_id, result_b_id, model_a_id, model_b_id, winner)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (project, judge, result_a_id, result_b_id) DO UPDATE SET
    model_a_id = excluded.model_a_id,
    model_b_id = excluded.model_b_id,
    winner = excluded.winner`,
		project, b.Judge, b.ResultA, b.ResultB, b.ModelA, b.ModelB, string(b.Winner),
	); err != nil {
		return battle.Battle{}, fmt.Errorf("upsert battle %s: %w", b.Key(), err)
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM battle WHERE project = ? AND judge = ? AND result_a_id = ? AND result_b_id = ?`,
		project, b.Judge, b.ResultA, b.ResultB,
	).Scan(&b.ID); err != nil {
		return battle.Battle{}, fmt.Errorf("lookup battle %s: %w", b.Key(), err)
	}
	if err := tx.Commit(); err != nil {
		return battle.Battle{}, err
	}
	return b, nil
}

// Battles implements leaderboard.Store
func (s *Store) Battles(ctx context.Context, project string) ([]battle.Battle, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, judge, result_a_id, result_b_id, model_a_id, model_b_id, winner
FROM battle WHERE project = ?
ORDER BY id, judge, result_a_id, result_b_id`, project)
	if err != nil {
		return nil, fmt.Errorf("query battles: %w", err)
	}
	defer rows.Close()

	var out []battle.Battle
	for rows.Next() {
		var b battle.Battle
		var winner string
		if err := rows.Scan(&b.ID, &b.Judge, &b.ResultA, &b.ResultB, &b.ModelA, &b.ModelB, &winner); err != nil {
			return nil, err
		}
		b.Winner = battle.Verdict(winner)
		out = append(out, b)
	}
	return out, rows.Err()
}

// PutRatings implements leaderboard.Store
func (s *Store) PutRatings(ctx context.Context, project string, lb elo.Leaderboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM rating WHERE project = ?`, project); err != nil {
		return fmt.Errorf("clear ratings: %w", err)
	}
	for _, r := range lb.Ranked() {
		var lo, hi sql.NullFloat64
		if r.Interval != nil {
			lo = sql.NullFloat64{Float64: r.Interval.Lower, Valid: true}
			hi = sql.NullFloat64{Float64: r.Interval.Upper, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rating (project, model_id, elo, q025, q975, votes) VALUES (?, ?, ?, ?, ?, ?)`,
			project, r.Competitor, r.Elo, lo, hi, r.Votes,
		); err != nil {
			return fmt.Errorf("insert rating for model %d: %w", r.Competitor, err)
		}
	}
	return tx.Commit()
}

// Ratings implements leaderboard.Store
func (s *Store) Ratings(ctx context.Context, project string) (elo.Leaderboard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, elo, q025, q975, votes FROM rating WHERE project = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	lb := elo.Leaderboard{}
	for rows.Next() {
		var (
			r      elo.Rating
			lo, hi sql.NullFloat64
		)
		if err := rows.Scan(&r.Competitor, &r.Elo, &lo, &hi, &r.Votes); err != nil {
			return nil, err
		}
		if lo.Valid && hi.Valid {
			r.Interval = &elo.Interval{Lower: lo.Float64, Upper: hi.Float64}
		}
		lb[r.Competitor] = r
	}
	return lb, rows.Err()
}

// ReportTaskProgress implements task.Reporter
func (s *Store) ReportTaskProgress(ctx context.Context, u task.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO task_update (task_id, project, type, state, progress, status, created)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.TaskID, u.Project, string(u.Type), string(u.State), u.Progress, u.Status, u.Time.UTC(),
	); err != nil {
		return fmt.Errorf("insert task update: %w", err)
	}
	return nil
}

// TaskUpdates implements store.Interface
func (s *Store) TaskUpdates(ctx context.Context, taskID string) ([]task.Update, error) {
	return s.queryUpdates(ctx, `task_id = ?`, taskID)
}

// ProjectTaskUpdates implements store.Interface
func (s *Store) ProjectTaskUpdates(ctx context.Context, project string) ([]task.Update, error) {
	return s.queryUpdates(ctx, `project = ?`, project)
}

func (s *Store) queryUpdates(ctx context.Context, where string, arg any) ([]task.Update, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT task_id, project, type, state, progress, status, created
FROM task_update WHERE `+where+` ORDER BY seq`, arg)
	if err != nil {
		return nil, fmt.Errorf("query task updates: %w", err)
	}
	defer rows.Close()

	var out []task.Update
	for rows.Next() {
		var (
			u          task.Update
			typ, state string
		)
		if err := rows.Scan(&u.TaskID, &u.Project, &typ, &state, &u.Progress, &u.Status, &u.Time); err != nil {
			return nil, err
		}
		u.Type, u.State = task.Type(typ), task.State(state)
		out = append(out, u)
	}
	return out, rows.Err()
}

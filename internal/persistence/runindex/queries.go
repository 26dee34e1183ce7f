package runindex

import (
	"context"
	"encoding/json"
	"fmt"

	"roomsort.dev/internal/puzzle/run"
)

// RunSummary is the row shape returned by listing queries. The full record
// (including moves) lives in raw_json and comes back via Get.
type RunSummary struct {
	RunID       string `json:"run_id"`
	StartedAt   string `json:"started_at"`
	Source      string `json:"source"`
	Client      string `json:"client,omitempty"`
	Preset      string `json:"preset,omitempty"`
	BoardDigest string `json:"board_digest"`
	Rooms       int    `json:"rooms"`
	Depth       int    `json:"depth"`
	Outcome     string `json:"outcome"`
	Cost        int64  `json:"cost"`
	Expanded    int64  `json:"expanded"`
	ElapsedMs   int64  `json:"elapsed_ms"`
	Moves       int    `json:"moves"`
}

// BoardBest is one row of the boards table: the cheapest recorded solution
// for a board position.
type BoardBest struct {
	BoardDigest string `json:"board_digest"`
	Rooms       int    `json:"rooms"`
	Depth       int    `json:"depth"`
	Board       string `json:"board"`
	BestCost    int64  `json:"best_cost"`
	BestRunID   string `json:"best_run_id"`
	SolvedRuns  int64  `json:"solved_runs"`
	UpdatedAt   string `json:"updated_at"`
}

func (s *Index) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, source, client, preset, board_digest,
		       rooms, depth, outcome, cost, expanded, elapsed_ms, moves
		FROM runs
		ORDER BY started_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.RunID, &r.StartedAt, &r.Source, &r.Client, &r.Preset, &r.BoardDigest,
			&r.Rooms, &r.Depth, &r.Outcome, &r.Cost, &r.Expanded, &r.ElapsedMs, &r.Moves,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the full stored record for one run.
func (s *Index) Get(ctx context.Context, runID string) (run.Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT raw_json FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if err != nil {
		return run.Record{}, err
	}
	var rec run.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return run.Record{}, fmt.Errorf("runs.raw_json: %w", err)
	}
	return rec, nil
}

// BestKnown returns the cheapest recorded solution for a board digest.
// Callers should treat sql.ErrNoRows as "never solved here".
func (s *Index) BestKnown(ctx context.Context, digest string) (BoardBest, error) {
	var b BoardBest
	err := s.db.QueryRowContext(ctx, `
		SELECT board_digest, rooms, depth, board, best_cost, best_run_id, solved_runs, updated_at
		FROM boards WHERE board_digest = ?`, digest).Scan(
		&b.BoardDigest, &b.Rooms, &b.Depth, &b.Board,
		&b.BestCost, &b.BestRunID, &b.SolvedRuns, &b.UpdatedAt,
	)
	return b, err
}

func (s *Index) Boards(ctx context.Context, limit int) ([]BoardBest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT board_digest, rooms, depth, board, best_cost, best_run_id, solved_runs, updated_at
		FROM boards
		ORDER BY updated_at DESC, board_digest
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BoardBest
	for rows.Next() {
		var b BoardBest
		if err := rows.Scan(
			&b.BoardDigest, &b.Rooms, &b.Depth, &b.Board,
			&b.BestCost, &b.BestRunID, &b.SolvedRuns, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

package runindex

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"roomsort.dev/internal/puzzle/catalog"
	"roomsort.dev/internal/puzzle/run"
	"roomsort.dev/internal/puzzle/tuning"
)

// Index is the queryable read model over the run history. Writes go through
// a single goroutine in batched transactions; the JSONL run logs stay the
// source of truth, so a dropped row is an acceptable trade for never
// stalling a solve.
type Index struct {
	db *sql.DB

	ch   chan run.Record
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Index{
		db: db,
		// Enough slack for bursts of short solves without stalling the
		// serve path.
		ch: make(chan run.Record, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS config (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			source TEXT NOT NULL,
			client TEXT,
			preset TEXT,
			board_digest TEXT NOT NULL,
			rooms INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			cost INTEGER NOT NULL,
			expanded INTEGER NOT NULL,
			enqueued INTEGER NOT NULL,
			distinct_boards INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(board_digest, started_at);`,
		`CREATE TABLE IF NOT EXISTS boards (
			board_digest TEXT PRIMARY KEY,
			rooms INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			board TEXT NOT NULL,
			best_cost INTEGER NOT NULL,
			best_run_id TEXT NOT NULL,
			solved_runs INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Index) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Index) WriteRun(rec run.Record) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- rec:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

// UpsertConfig records the preset catalog and effective tuning alongside
// the runs, so a browser can tell which configuration produced them.
func (s *Index) UpsertConfig(cat *catalog.Catalog, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cat != nil {
		presets := make([]catalog.Preset, 0, len(cat.IDs))
		for _, id := range cat.IDs {
			presets = append(presets, cat.ByID[id])
		}
		if b, _ := json.Marshal(presets); len(b) > 0 {
			rows = append(rows, kv{name: "presets", digest: cat.Digest, json: b})
		}
	}
	{
		// Tuning: store the values we actually apply (canonical JSON).
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO config(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Index) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,started_at,source,client,preset,board_digest,rooms,depth,outcome,cost,expanded,enqueued,distinct_boards,elapsed_ms,moves,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	upsertBoard, _ := s.db.Prepare(`INSERT INTO boards(board_digest,rooms,depth,board,best_cost,best_run_id,solved_runs,updated_at) VALUES(?,?,?,?,?,?,1,?)
		ON CONFLICT(board_digest) DO UPDATE SET
			solved_runs = solved_runs + 1,
			updated_at = excluded.updated_at,
			best_run_id = CASE WHEN excluded.best_cost < best_cost THEN excluded.best_run_id ELSE best_run_id END,
			best_cost = CASE WHEN excluded.best_cost < best_cost THEN excluded.best_cost ELSE best_cost END`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if upsertBoard != nil {
			_ = upsertBoard.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		// Runs arrive at human rates; commit as soon as the queue drains so
		// reads never wait on a half-open batch.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	for rec := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		raw, _ := json.Marshal(rec)
		if insertRun != nil {
			if _, err := tx.Stmt(insertRun).Exec(
				rec.RunID, rec.StartedAt, rec.Source, rec.Client, rec.Preset,
				rec.BoardDigest, rec.Rooms, rec.Depth,
				rec.Outcome, rec.Cost, rec.Expanded, rec.Enqueued, rec.Distinct,
				rec.ElapsedMs, len(rec.Moves), string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if rec.Outcome == "solved" && upsertBoard != nil {
			if _, err := tx.Stmt(upsertBoard).Exec(
				rec.BoardDigest, rec.Rooms, rec.Depth, rec.Board,
				rec.Cost, rec.RunID, time.Now().UTC().Format(time.RFC3339Nano),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}

package runindex

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"roomsort.dev/internal/puzzle/board"
	"roomsort.dev/internal/puzzle/catalog"
	"roomsort.dev/internal/puzzle/run"
	"roomsort.dev/internal/puzzle/solver"
	"roomsort.dev/internal/puzzle/tuning"
)

const tinyDiagram = `#########
#.......#
###B#A###
  #####`

func solveTiny(t *testing.T) (board.Board, solver.Result) {
	t.Helper()
	b := board.MustParse(tinyDiagram)
	res := solver.Solve(context.Background(), b, solver.Options{KeepPath: true})
	if res.Outcome != solver.Solved {
		t.Fatalf("fixture solve: outcome = %v", res.Outcome)
	}
	return b, res
}

func TestIndex_WriteCloseReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "runs.db")

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	b, res := solveTiny(t)
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	// Two solved runs for the same board, the second one pricier, plus an
	// unsolvable run for a different position.
	cheap := run.New("cli", "", "tiny", base, b, res)
	dear := run.New("ws", "itest", "", base.Add(time.Second), b, res)
	dear.Cost += 100

	deadlock := board.MustParse(`#############
#...D.A.....#
###.#B#C#.###
  #########`)
	failed := run.New("ws", "itest", "", base.Add(2*time.Second), deadlock,
		solver.Result{Outcome: solver.Unsolvable, Expanded: 1, Enqueued: 0, Distinct: 1})

	for _, rec := range []run.Record{cheap, dear, failed} {
		if err := idx.WriteRun(rec); err != nil {
			t.Fatalf("WriteRun: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Writes after close must be a quiet no-op.
	if err := idx.WriteRun(cheap); err != nil {
		t.Fatalf("WriteRun after close: %v", err)
	}

	idx, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	recent, err := idx.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent: %d rows, want 3", len(recent))
	}
	if recent[0].RunID != failed.RunID || recent[2].RunID != cheap.RunID {
		t.Fatalf("Recent order = %s, %s, %s; want newest first",
			recent[0].RunID, recent[1].RunID, recent[2].RunID)
	}
	if recent[2].Outcome != "solved" || recent[2].Cost != 46 || recent[2].Moves != 3 {
		t.Fatalf("cheap summary = %+v", recent[2])
	}
	if recent[0].Outcome != "unsolvable" || recent[0].BoardDigest != deadlock.Digest() {
		t.Fatalf("failed summary = %+v", recent[0])
	}

	best, err := idx.BestKnown(ctx, b.Digest())
	if err != nil {
		t.Fatalf("BestKnown: %v", err)
	}
	if best.BestCost != cheap.Cost || best.BestRunID != cheap.RunID {
		t.Fatalf("BestKnown = cost %d run %s; want cost %d run %s",
			best.BestCost, best.BestRunID, cheap.Cost, cheap.RunID)
	}
	if best.SolvedRuns != 2 {
		t.Fatalf("SolvedRuns = %d, want 2", best.SolvedRuns)
	}
	if _, err := idx.BestKnown(ctx, "no-such-digest"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("BestKnown miss: err = %v, want sql.ErrNoRows", err)
	}

	got, err := idx.Get(ctx, cheap.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Board != cheap.Board || got.Cost != cheap.Cost || len(got.Moves) != len(cheap.Moves) {
		t.Fatalf("Get round-trip mismatch: %+v", got)
	}

	boards, err := idx.Boards(ctx, 10)
	if err != nil {
		t.Fatalf("Boards: %v", err)
	}
	if len(boards) != 1 {
		t.Fatalf("Boards: %d rows, want 1 (unsolvable runs are not best-known)", len(boards))
	}
}

func TestIndex_LiveReads(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	b, res := solveTiny(t)
	rec := run.New("cli", "", "", time.Now(), b, res)
	if err := idx.WriteRun(rec); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}

	// The writer commits as soon as its queue drains; give it a moment.
	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rows, err := idx.Recent(ctx, 1)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(rows) == 1 {
			if rows[0].RunID != rec.RunID {
				t.Fatalf("Recent = %s, want %s", rows[0].RunID, rec.RunID)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("run never became visible")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIndex_UpsertConfig(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	cat := &catalog.Catalog{
		ByID: map[string]catalog.Preset{
			"tiny": {ID: "tiny", Title: "Two rooms", Diagram: tinyDiagram},
		},
		IDs:    []string{"tiny"},
		Digest: "feedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedface",
	}
	if err := idx.UpsertConfig(cat, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	// Idempotent.
	if err := idx.UpsertConfig(cat, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertConfig again: %v", err)
	}

	rows, err := idx.db.Query(`SELECT name, digest FROM config ORDER BY name`)
	if err != nil {
		t.Fatalf("query config: %v", err)
	}
	defer rows.Close()
	got := map[string]string{}
	for rows.Next() {
		var name, digest string
		if err := rows.Scan(&name, &digest); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got[name] = digest
	}
	if got["presets"] != cat.Digest {
		t.Fatalf("presets digest = %q, want %q", got["presets"], cat.Digest)
	}
	if len(got["tuning"]) != 64 {
		t.Fatalf("tuning digest = %q, want 64 hex chars", got["tuning"])
	}

	var version string
	if err := idx.db.QueryRow(`SELECT value FROM meta WHERE key='schema_version'`).Scan(&version); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if version != "1" {
		t.Fatalf("schema_version = %q", version)
	}
}

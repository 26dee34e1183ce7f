package run

import (
	"context"
	"strings"
	"testing"
	"time"

	"roomsort.dev/internal/protocol"
	"roomsort.dev/internal/puzzle/board"
	"roomsort.dev/internal/puzzle/solver"
)

const tinyDiagram = `#########
#.......#
###B#A###
  #####`

func solvedRecord(t *testing.T) Record {
	t.Helper()
	b := board.MustParse(tinyDiagram)
	res := solver.Solve(context.Background(), b, solver.Options{KeepPath: true})
	if res.Outcome != solver.Solved {
		t.Fatalf("fixture did not solve: %s", res.Outcome)
	}
	return New("cli", "test", "", time.Now(), b, res)
}

func TestNew_Fields(t *testing.T) {
	rec := solvedRecord(t)
	if rec.RunID == "" {
		t.Fatalf("empty run id")
	}
	if rec.Rooms != 2 || rec.Depth != 1 {
		t.Fatalf("rooms=%d depth=%d, want 2x1", rec.Rooms, rec.Depth)
	}
	if rec.Outcome != "solved" || rec.Cost != 46 {
		t.Fatalf("outcome=%s cost=%d, want solved/46", rec.Outcome, rec.Cost)
	}
	if rec.BoardDigest != board.MustParse(tinyDiagram).Digest() {
		t.Fatalf("digest does not match the board")
	}
	if len(rec.Moves) != 3 {
		t.Fatalf("%d moves, want 3", len(rec.Moves))
	}
	if _, err := time.Parse(time.RFC3339Nano, rec.StartedAt); err != nil {
		t.Fatalf("started_at not RFC3339Nano: %v", err)
	}
	if rec.Moves[0].Token == "" || !strings.ContainsAny(rec.Moves[0].Token, "AB") {
		t.Fatalf("bad wire token %q", rec.Moves[0].Token)
	}
}

func TestVerify_GoodRecord(t *testing.T) {
	rec := solvedRecord(t)
	if err := Verify(context.Background(), rec, solver.Options{}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerify_CatchesTampering(t *testing.T) {
	base := solvedRecord(t)

	cost := base
	cost.Cost = base.Cost + 1
	if err := Verify(context.Background(), cost, solver.Options{}); err == nil {
		t.Fatalf("tampered cost passed verification")
	}

	moved := base
	moved.Moves = append([]protocol.WireMove(nil), base.Moves...)
	moved.Moves[0].Cost += 10
	if err := Verify(context.Background(), moved, solver.Options{}); err == nil {
		t.Fatalf("tampered moves passed verification")
	}
}

func TestVerify_Unsolvable(t *testing.T) {
	b := board.MustParse(`#############
#...D.A.....#
###.#B#C#.###
  #########`)
	res := solver.Solve(context.Background(), b, solver.Options{})
	rec := New("cli", "test", "", time.Now(), b, res)
	if rec.Outcome != "unsolvable" {
		t.Fatalf("fixture outcome %s", rec.Outcome)
	}
	if err := Verify(context.Background(), rec, solver.Options{}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerify_BudgetExhausted(t *testing.T) {
	rec := solvedRecord(t)
	err := Verify(context.Background(), rec, solver.Options{MaxExpansions: 1})
	if err == nil || !strings.Contains(err.Error(), "budget") {
		t.Fatalf("want budget error, got %v", err)
	}
}

package run

import (
	"context"
	"fmt"

	"roomsort.dev/internal/puzzle/board"
	"roomsort.dev/internal/puzzle/solver"
)

// Verify re-checks a recorded run: the board must reproduce its digest, the
// recorded moves (when present) must be legal, correctly priced and end on
// a solved board, and a fresh search must reproduce the recorded outcome
// and cost. Aborted records carry budget-dependent counters and only get
// the board and move checks. opts bounds the re-solve; an exhausted budget
// is reported as an error, not a mismatch.
func Verify(ctx context.Context, rec Record, opts solver.Options) error {
	b, err := board.Parse(rec.Board)
	if err != nil {
		return fmt.Errorf("%s: board: %w", rec.RunID, err)
	}
	if d := b.Digest(); d != rec.BoardDigest {
		return fmt.Errorf("%s: board digest %s, recorded %s", rec.RunID, d, rec.BoardDigest)
	}
	if len(rec.Moves) > 0 {
		if err := checkMoves(b, rec); err != nil {
			return err
		}
	}

	opts.KeepPath = false
	switch rec.Outcome {
	case solver.Solved.String():
		res := solver.Solve(ctx, b, opts)
		if res.Outcome == solver.Aborted {
			return fmt.Errorf("%s: verification budget exhausted", rec.RunID)
		}
		if res.Outcome != solver.Solved {
			return fmt.Errorf("%s: re-solve outcome %s, recorded solved", rec.RunID, res.Outcome)
		}
		if res.Cost != rec.Cost {
			return fmt.Errorf("%s: re-solve cost %d, recorded %d", rec.RunID, res.Cost, rec.Cost)
		}
	case solver.Unsolvable.String():
		res := solver.Solve(ctx, b, opts)
		if res.Outcome == solver.Aborted {
			return fmt.Errorf("%s: verification budget exhausted", rec.RunID)
		}
		if res.Outcome != solver.Unsolvable {
			return fmt.Errorf("%s: re-solve outcome %s, recorded unsolvable", rec.RunID, res.Outcome)
		}
	case solver.Aborted.String():
	default:
		return fmt.Errorf("%s: unknown outcome %q", rec.RunID, rec.Outcome)
	}
	return nil
}

func checkMoves(b board.Board, rec Record) error {
	cur := b
	var sum int64
	for i, wm := range rec.Moves {
		src := wireCell(wm.FromRoom, wm.FromPos)
		dst := wireCell(wm.ToRoom, wm.ToPos)
		legal := false
		for _, m := range solver.Moves(cur) {
			if m.Src != src || m.Dst != dst {
				continue
			}
			if m.Distance != wm.Distance || m.Cost != wm.Cost {
				return fmt.Errorf("%s: move %d priced %d/%d, recorded %d/%d",
					rec.RunID, i, m.Distance, m.Cost, wm.Distance, wm.Cost)
			}
			legal = true
			break
		}
		if !legal {
			return fmt.Errorf("%s: move %d (%s -> %s) is not legal", rec.RunID, i, src, dst)
		}
		sum += wm.Cost
		cur = cur.WithMove(src, dst)
	}
	if rec.Outcome == solver.Solved.String() {
		if !cur.Solved() {
			return fmt.Errorf("%s: recorded moves do not solve the board", rec.RunID)
		}
		if sum != rec.Cost {
			return fmt.Errorf("%s: recorded moves sum to %d, recorded cost %d", rec.RunID, sum, rec.Cost)
		}
	}
	return nil
}

package solver

import (
	"container/heap"
	"context"
	"time"

	"roomsort.dev/internal/puzzle/board"
)

type Outcome int

const (
	// Solved: a minimum-cost plan was found.
	Solved Outcome = iota
	// Unsolvable: the reachable space was exhausted without a solved board.
	Unsolvable
	// Aborted: a budget or the context cut the search short. The board may
	// or may not be solvable.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Solved:
		return "solved"
	case Unsolvable:
		return "unsolvable"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Heuristic lower-bounds the remaining cost of a board. It must never
// overestimate; the zero bound degrades the search to uniform-cost.
type Heuristic func(board.Board) int64

type Options struct {
	// MaxExpansions stops the search after that many expansions. Zero means
	// no limit.
	MaxExpansions int
	// MaxDuration stops the search after that much wall time. Zero means no
	// limit.
	MaxDuration time.Duration
	// Heuristic overrides the built-in bound. Nil selects LowerBound.
	Heuristic Heuristic
	// KeepPath records parent links so Result.Path can be reconstructed.
	KeepPath bool
	// OnProgress, when set together with ProgressEvery, is called from the
	// search loop every ProgressEvery expansions.
	ProgressEvery int
	OnProgress    func(Progress)
}

type Progress struct {
	Expanded  int
	Enqueued  int
	Distinct  int
	BestBound int64
	Elapsed   time.Duration
}

type Result struct {
	Outcome  Outcome
	Cost     int64
	Path     []Move // populated only with Options.KeepPath
	Expanded int
	Enqueued int
	Distinct int
	Elapsed  time.Duration
}

type node struct {
	b      board.Board
	g      int64 // cost spent to reach b
	f      int64 // g plus the lower bound on the rest
	parent *node
	via    Move
}

// frontier is a lazy-deletion heap: superseded entries stay queued and are
// skipped on pop by comparing against the best known cost per board.
type frontier []*node

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		// Deeper is closer to done; finishing it first keeps the frontier
		// small and the tie-break deterministic.
		return q[i].g > q[j].g
	}
	return q[i].b.Key() < q[j].b.Key()
}

func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x any) { *q = append(*q, x.(*node)) }

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Solve runs best-first search from start. The first solved board popped is
// a cheapest one: the bound never overestimates, and any cheaper route to a
// popped board would already have been queued ahead of it. If a strictly
// cheaper route to an already-expanded board does turn up, the board is
// re-queued and expanded again.
func Solve(ctx context.Context, start board.Board, opts Options) Result {
	h := opts.Heuristic
	if h == nil {
		h = LowerBound
	}
	began := time.Now()
	var deadline time.Time
	if opts.MaxDuration > 0 {
		deadline = began.Add(opts.MaxDuration)
	}

	best := map[string]int64{start.Key(): 0}
	q := frontier{{b: start, f: h(start)}}
	heap.Init(&q)

	res := Result{Outcome: Unsolvable, Enqueued: 1}

search:
	for q.Len() > 0 {
		n := heap.Pop(&q).(*node)
		if g, ok := best[n.b.Key()]; ok && n.g > g {
			continue // superseded by a cheaper route
		}
		if n.b.Solved() {
			res.Outcome = Solved
			res.Cost = n.g
			if opts.KeepPath {
				res.Path = unwind(n)
			}
			break
		}
		if opts.MaxExpansions > 0 && res.Expanded >= opts.MaxExpansions {
			res.Outcome = Aborted
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			res.Outcome = Aborted
			break
		}
		select {
		case <-ctx.Done():
			res.Outcome = Aborted
			break search
		default:
		}

		res.Expanded++
		if opts.OnProgress != nil && opts.ProgressEvery > 0 && res.Expanded%opts.ProgressEvery == 0 {
			opts.OnProgress(Progress{
				Expanded:  res.Expanded,
				Enqueued:  res.Enqueued,
				Distinct:  len(best),
				BestBound: n.f,
				Elapsed:   time.Since(began),
			})
		}

		for _, m := range Moves(n.b) {
			child := n.b.WithMove(m.Src, m.Dst)
			cg := n.g + m.Cost
			key := child.Key()
			if prev, ok := best[key]; ok && cg >= prev {
				continue
			}
			best[key] = cg
			cn := &node{b: child, g: cg, f: cg + h(child)}
			if opts.KeepPath {
				cn.parent = n
				cn.via = m
			}
			heap.Push(&q, cn)
			res.Enqueued++
		}
	}

	res.Distinct = len(best)
	res.Elapsed = time.Since(began)
	return res
}

func unwind(n *node) []Move {
	var path []Move
	for ; n.parent != nil; n = n.parent {
		path = append(path, n.via)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

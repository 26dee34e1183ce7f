package solver

import "roomsort.dev/internal/puzzle/board"

// LowerBound sums, over every unsettled token, the cheapest conceivable
// relocation: straight to the target room as if nothing were in the way,
// entering at depth 1. A token parked in its own room column over a
// foreigner is charged the forced detour: out, one slot aside, back in.
// The bound never exceeds the true remaining cost, so best-first search
// ordered by it returns minimum-cost plans.
func LowerBound(b board.Board) int64 {
	g := b.Geometry()
	var total int64
	b.EachOccupied(func(c board.Cell, t board.Token) {
		if b.Settled(c) {
			return
		}
		anchor := g.RoomAnchor(g.TargetRoom(t))
		pos, depth := c.Anchor()
		var steps int
		if pos == anchor {
			steps = depth + 3
		} else {
			steps = abs(pos-anchor) + depth + 1
		}
		total += int64(steps) * g.StepCost(t)
	})
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

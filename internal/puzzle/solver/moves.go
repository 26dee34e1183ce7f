package solver

import "roomsort.dev/internal/puzzle/board"

// Move is one legal relocation of a token, priced and ready to apply.
type Move struct {
	Src, Dst board.Cell
	Token    board.Token
	Distance int
	Cost     int64
}

func (m Move) Apply(b board.Board) board.Board { return b.WithMove(m.Src, m.Dst) }

// Moves lists every legal move on b, in a deterministic order. The rules:
//   - settled tokens stay put
//   - a room token under a shallower occupant stays put
//   - every corridor slot strictly between source and destination anchors
//     must be empty
//   - a corridor token may only enter its target room, at the deepest empty
//     slot, and only once no foreign token remains in that room
//   - a room token may step out to any reachable corridor slot that is not
//     over a room mouth, or go straight home under the same entry rule
//   - corridor-to-corridor moves are never legal
func Moves(b board.Board) []Move {
	var out []Move
	b.EachOccupied(func(c board.Cell, t board.Token) {
		out = movesFrom(out, b, c, t)
	})
	return out
}

func movesFrom(out []Move, b board.Board, src board.Cell, t board.Token) []Move {
	g := b.Geometry()
	if b.Settled(src) {
		return out
	}
	if !src.InCorridor() {
		for d := int(src.Pos) - 1; d >= 1; d-- {
			if _, ok := b.At(board.RoomSlot(int(src.Room), d)); ok {
				return out
			}
		}
	}
	srcPos, _ := src.Anchor()

	// Straight home. A token already in its target room column cannot
	// re-enter deeper; it has to step out first.
	home := g.TargetRoom(t)
	if int(src.Room) != home {
		if dst, ok := homeSlot(b, t); ok && corridorClear(b, srcPos, g.RoomAnchor(home)) {
			out = append(out, priced(g, src, dst, t))
		}
	}

	if src.InCorridor() {
		return out
	}

	for p := srcPos - 1; p >= 1; p-- {
		if _, ok := b.At(board.Corridor(p)); ok {
			break
		}
		if !g.NoStop(p) {
			out = append(out, priced(g, src, board.Corridor(p), t))
		}
	}
	for p := srcPos + 1; p <= g.CorridorLen(); p++ {
		if _, ok := b.At(board.Corridor(p)); ok {
			break
		}
		if !g.NoStop(p) {
			out = append(out, priced(g, src, board.Corridor(p), t))
		}
	}
	return out
}

// homeSlot finds the slot a token of kind t would enter in its target room:
// the deepest empty one. A foreign occupant anywhere in the room rules the
// whole room out until it has left.
func homeSlot(b board.Board, t board.Token) (board.Cell, bool) {
	g := b.Geometry()
	room := g.TargetRoom(t)
	for d := g.Depth; d >= 1; d-- {
		c := board.RoomSlot(room, d)
		u, ok := b.At(c)
		if !ok {
			return c, true
		}
		if u != t {
			return board.Cell{}, false
		}
	}
	return board.Cell{}, false
}

// corridorClear reports whether every corridor slot strictly between two
// positions is empty. Endpoints are excluded: the source does not block
// itself and room anchors are never resting slots.
func corridorClear(b board.Board, from, to int) bool {
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	for p := lo + 1; p < hi; p++ {
		if _, ok := b.At(board.Corridor(p)); ok {
			return false
		}
	}
	return true
}

func priced(g board.Geometry, src, dst board.Cell, t board.Token) Move {
	d := board.Distance(src, dst)
	return Move{Src: src, Dst: dst, Token: t, Distance: d, Cost: int64(d) * g.StepCost(t)}
}

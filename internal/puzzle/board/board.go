package board

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Board is one immutable assignment of tokens to cells. Everything that
// looks like mutation returns a fresh Board, so boards are safe to share
// between goroutines and to use as map keys via Key.
type Board struct {
	geom  Geometry
	cells string
}

type Placement struct {
	Cell  Cell
	Token Token
}

// New validates geometry and placements and builds the board. Beyond the
// per-cell checks it enforces full population (exactly Depth tokens of each
// kind 1..Rooms), no token parked over a room mouth, and no gap inside a
// room (a token above an empty slot could never have got there).
func New(geom Geometry, placements []Placement) (Board, error) {
	if err := geom.validate(); err != nil {
		return Board{}, err
	}
	buf := make([]byte, geom.cellCount())
	for _, p := range placements {
		if p.Token == 0 || int(p.Token) > geom.Rooms {
			return Board{}, fmt.Errorf("board: unknown token kind %d at %s", p.Token, p.Cell)
		}
		idx, err := geom.index(p.Cell)
		if err != nil {
			return Board{}, err
		}
		if buf[idx] != 0 {
			return Board{}, fmt.Errorf("board: duplicate occupant at %s", p.Cell)
		}
		if p.Cell.InCorridor() && geom.NoStop(int(p.Cell.Pos)) {
			return Board{}, fmt.Errorf("board: %s is over a room mouth, tokens cannot rest there", p.Cell)
		}
		buf[idx] = byte(p.Token)
	}
	b := Board{geom: geom, cells: string(buf)}
	if err := b.validatePopulation(); err != nil {
		return Board{}, err
	}
	if err := b.validateRooms(); err != nil {
		return Board{}, err
	}
	return b, nil
}

func (b Board) validatePopulation() error {
	counts := make([]int, b.geom.Rooms+1)
	for i := 0; i < len(b.cells); i++ {
		if k := b.cells[i]; k != 0 {
			counts[k]++
		}
	}
	for k := 1; k <= b.geom.Rooms; k++ {
		if counts[k] != b.geom.Depth {
			return fmt.Errorf("board: %d tokens of kind %c, want %d", counts[k], Token(k).Glyph(), b.geom.Depth)
		}
	}
	return nil
}

func (b Board) validateRooms() error {
	for r := 1; r <= b.geom.Rooms; r++ {
		occupied := false
		for d := 1; d <= b.geom.Depth; d++ {
			_, ok := b.At(RoomSlot(r, d))
			if ok {
				occupied = true
			} else if occupied {
				return fmt.Errorf("board: room %d has a token above an empty slot at depth %d", r, d)
			}
		}
	}
	return nil
}

func (b Board) Geometry() Geometry { return b.geom }

// At returns the token on c, if any. Out-of-range cells read as empty.
func (b Board) At(c Cell) (Token, bool) {
	idx, err := b.geom.index(c)
	if err != nil {
		return 0, false
	}
	t := Token(b.cells[idx])
	return t, t != 0
}

// EachOccupied calls fn for every occupied cell in canonical order:
// corridor left to right, then rooms left to right, top to bottom.
func (b Board) EachOccupied(fn func(Cell, Token)) {
	for i := 0; i < len(b.cells); i++ {
		if t := Token(b.cells[i]); t != 0 {
			fn(b.geom.cellAt(i), t)
		}
	}
}

// Settled reports whether the token on c is finally placed: c is inside the
// token's target room and every deeper slot already holds a token that
// targets the same room. A settled token never needs to move again.
func (b Board) Settled(c Cell) bool {
	if c.InCorridor() {
		return false
	}
	t, ok := b.At(c)
	if !ok {
		return false
	}
	room := int(c.Room)
	if b.geom.TargetRoom(t) != room {
		return false
	}
	for d := int(c.Pos) + 1; d <= b.geom.Depth; d++ {
		u, ok := b.At(RoomSlot(room, d))
		if !ok || b.geom.TargetRoom(u) != room {
			return false
		}
	}
	return true
}

// Solved reports whether every room is filled with the tokens that target it.
func (b Board) Solved() bool {
	for r := 1; r <= b.geom.Rooms; r++ {
		for d := 1; d <= b.geom.Depth; d++ {
			t, ok := b.At(RoomSlot(r, d))
			if !ok || b.geom.TargetRoom(t) != r {
				return false
			}
		}
	}
	return true
}

// WithMove returns a copy with the token on src relocated to dst. The
// receiver is untouched. Move legality is the caller's contract; an empty
// src or occupied dst is a programming error and panics.
func (b Board) WithMove(src, dst Cell) Board {
	si, err := b.geom.index(src)
	if err != nil {
		panic(err)
	}
	di, err := b.geom.index(dst)
	if err != nil {
		panic(err)
	}
	if b.cells[si] == 0 {
		panic(fmt.Sprintf("board: move from empty %s", src))
	}
	if b.cells[di] != 0 {
		panic(fmt.Sprintf("board: move onto occupied %s", dst))
	}
	buf := []byte(b.cells)
	buf[di] = buf[si]
	buf[si] = 0
	return Board{geom: b.geom, cells: string(buf)}
}

// Key is the packed occupancy. Boards of one geometry are equal iff their
// keys are equal, and lexicographic key order is a deterministic total
// order over them.
func (b Board) Key() string { return b.cells }

// Digest is a stable content hash over geometry, cost model and occupancy,
// used to identify a puzzle across runs and processes.
func (b Board) Digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "rooms=%d depth=%d;", b.geom.Rooms, b.geom.Depth)
	for k := 1; k <= b.geom.Rooms; k++ {
		fmt.Fprintf(h, "%d>%d@%d;", k, b.geom.TargetRoom(Token(k)), b.geom.StepCost(Token(k)))
	}
	h.Write([]byte(b.cells))
	return hex.EncodeToString(h.Sum(nil))
}

package board

import "fmt"

// Geometry fixes the shape and cost model of one puzzle family. Rooms are
// numbered 1..Rooms, each Depth slots deep, with room r opening under
// corridor position 2r+1. The corridor spans 2*Rooms+3 slots so one free
// slot flanks the outermost rooms on either side.
type Geometry struct {
	Rooms int
	Depth int

	// StepCosts[k-1] is the per-step cost of token kind k. Nil selects the
	// reference scale 1, 10, 100, ...
	StepCosts []int64

	// Targets[k-1] is the room token kind k must end up in. Nil selects the
	// identity mapping (kind k fills room k). When set it must be a
	// permutation of 1..Rooms.
	Targets []int
}

func (g Geometry) CorridorLen() int { return 2*g.Rooms + 3 }

func (g Geometry) RoomAnchor(room int) int { return roomAnchor(room) }

// NoStop reports whether a corridor position sits directly over a room
// mouth. Tokens pass through such slots but never end a move on one.
func (g Geometry) NoStop(pos int) bool {
	return pos >= 3 && pos <= 2*g.Rooms+1 && pos%2 == 1
}

func (g Geometry) StepCost(t Token) int64 {
	if g.StepCosts != nil {
		return g.StepCosts[int(t)-1]
	}
	c := int64(1)
	for i := 1; i < int(t); i++ {
		c *= 10
	}
	return c
}

func (g Geometry) TargetRoom(t Token) int {
	if g.Targets != nil {
		return g.Targets[int(t)-1]
	}
	return int(t)
}

func (g Geometry) cellCount() int { return g.CorridorLen() + g.Rooms*g.Depth }

func (g Geometry) validate() error {
	if g.Rooms < 1 || g.Rooms > 26 {
		return fmt.Errorf("geometry: room count %d out of range 1..26", g.Rooms)
	}
	if g.Depth < 1 {
		return fmt.Errorf("geometry: room depth %d out of range", g.Depth)
	}
	if g.StepCosts != nil {
		if len(g.StepCosts) != g.Rooms {
			return fmt.Errorf("geometry: %d step costs for %d kinds", len(g.StepCosts), g.Rooms)
		}
		for k, c := range g.StepCosts {
			if c <= 0 {
				return fmt.Errorf("geometry: kind %d has non-positive step cost %d", k+1, c)
			}
		}
	}
	if g.Targets != nil {
		if len(g.Targets) != g.Rooms {
			return fmt.Errorf("geometry: %d targets for %d kinds", len(g.Targets), g.Rooms)
		}
		taken := make([]bool, g.Rooms+1)
		for k, r := range g.Targets {
			if r < 1 || r > g.Rooms {
				return fmt.Errorf("geometry: kind %d targets room %d, out of range 1..%d", k+1, r, g.Rooms)
			}
			if taken[r] {
				return fmt.Errorf("geometry: room %d targeted by two kinds", r)
			}
			taken[r] = true
		}
	}
	return nil
}

// index maps a cell to its offset in the packed occupancy: corridor slots
// first, then rooms left to right, each top to bottom.
func (g Geometry) index(c Cell) (int, error) {
	if c.Room == 0 {
		p := int(c.Pos)
		if p < 1 || p > g.CorridorLen() {
			return 0, fmt.Errorf("board: corridor position %d out of range 1..%d", p, g.CorridorLen())
		}
		return p - 1, nil
	}
	r, d := int(c.Room), int(c.Pos)
	if r < 1 || r > g.Rooms {
		return 0, fmt.Errorf("board: room %d out of range 1..%d", r, g.Rooms)
	}
	if d < 1 || d > g.Depth {
		return 0, fmt.Errorf("board: room depth %d out of range 1..%d", d, g.Depth)
	}
	return g.CorridorLen() + (r-1)*g.Depth + (d - 1), nil
}

func (g Geometry) cellAt(idx int) Cell {
	if idx < g.CorridorLen() {
		return Corridor(idx + 1)
	}
	idx -= g.CorridorLen()
	return RoomSlot(idx/g.Depth+1, idx%g.Depth+1)
}

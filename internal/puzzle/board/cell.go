package board

import "fmt"

// Cell addresses one slot on the board. Room == 0 means a corridor slot and
// Pos is the corridor position (1-based, left to right). Room >= 1 means a
// slot inside that room and Pos is the depth (1 = next to the corridor).
type Cell struct {
	Room int8
	Pos  int8
}

func Corridor(pos int) Cell { return Cell{Pos: int8(pos)} }

func RoomSlot(room, depth int) Cell { return Cell{Room: int8(room), Pos: int8(depth)} }

func (c Cell) InCorridor() bool { return c.Room == 0 }

// Anchor projects a cell onto the corridor: the corridor position it hangs
// under plus the extra depth to reach it. Corridor cells have depth 0; room
// r opens under corridor position 2r+1.
func (c Cell) Anchor() (pos, depth int) {
	if c.Room == 0 {
		return int(c.Pos), 0
	}
	return roomAnchor(int(c.Room)), int(c.Pos)
}

func roomAnchor(room int) int { return 2*room + 1 }

// Distance is the exact number of steps a token travels between two cells:
// up out of the source room, along the corridor, down into the destination.
// Movement is always routed that way, so the anchor arithmetic is exact,
// not an estimate.
func Distance(a, b Cell) int {
	h1, d1 := a.Anchor()
	h2, d2 := b.Anchor()
	if h1 > h2 {
		return h1 - h2 + d1 + d2
	}
	return h2 - h1 + d1 + d2
}

func (c Cell) String() string {
	if c.Room == 0 {
		return fmt.Sprintf("corridor %d", c.Pos)
	}
	return fmt.Sprintf("room %d depth %d", c.Room, c.Pos)
}

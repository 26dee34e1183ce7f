package solver

import (
	"testing"

	"roomsort.dev/internal/puzzle/board"
)

const exampleDiagram = `#############
#...........#
###B#C#B#D###
  #A#D#C#A#
  #########`

const deepExampleDiagram = `#############
#...........#
###B#C#B#D###
  #D#C#B#A#
  #D#B#A#C#
  #A#D#C#A#
  #########`

const solvedDiagram = `#############
#...........#
###A#B#C#D###
  #A#B#C#D#
  #########`

// Two corridor tokens block each other's only route home; nothing else may
// move.
const deadlockDiagram = `#############
#...D.A.....#
###.#B#C#.###
  #########`

const tinyDiagram = `#########
#.......#
###B#A###
  #####`

const threeRoomDiagram = `###########
#.........#
###B#A#C###
  #A#B#C#
  #######`

func movesFromCell(b board.Board, c board.Cell) []Move {
	var out []Move
	for _, m := range Moves(b) {
		if m.Src == c {
			out = append(out, m)
		}
	}
	return out
}

func TestMoves_PartialBoard(t *testing.T) {
	b := board.MustParse(`#############
#C....C...A.#
###.#B#.#D###
  #A#B#.#D#
  #########`)
	all := Moves(b)
	if len(all) != 1 {
		t.Fatalf("got %d moves, want exactly 1: %v", len(all), all)
	}
	m := all[0]
	if m.Src != board.Corridor(6) || m.Dst != board.RoomSlot(3, 2) {
		t.Fatalf("got %s -> %s, want corridor 6 -> room 3 depth 2", m.Src, m.Dst)
	}
	if m.Distance != 3 || m.Cost != 300 {
		t.Fatalf("got distance=%d cost=%d, want 3/300", m.Distance, m.Cost)
	}
	// The A at corridor 10 is walled off from room 1 by the C at 6.
	if got := movesFromCell(b, board.Corridor(10)); len(got) != 0 {
		t.Fatalf("blocked corridor token moved: %v", got)
	}
	if got := movesFromCell(b, board.RoomSlot(1, 2)); len(got) != 0 {
		t.Fatalf("settled token moved: %v", got)
	}
}

func TestMoves_RoomExit(t *testing.T) {
	b := board.MustParse(exampleDiagram)
	got := movesFromCell(b, board.RoomSlot(3, 1))
	wantDst := map[board.Cell]bool{
		board.Corridor(1): true, board.Corridor(2): true,
		board.Corridor(4): true, board.Corridor(6): true,
		board.Corridor(8): true, board.Corridor(10): true,
		board.Corridor(11): true,
	}
	if len(got) != len(wantDst) {
		t.Fatalf("got %d exits, want %d: %v", len(got), len(wantDst), got)
	}
	for _, m := range got {
		if !wantDst[m.Dst] {
			t.Fatalf("unexpected destination %s", m.Dst)
		}
		if m.Dst == (board.Corridor(6)) && (m.Distance != 2 || m.Cost != 20) {
			t.Fatalf("exit to corridor 6: distance=%d cost=%d, want 2/20", m.Distance, m.Cost)
		}
	}
}

func TestMoves_BuriedTokenStaysPut(t *testing.T) {
	b := board.MustParse(exampleDiagram)
	// The D at the bottom of room 2 sits under a C.
	if got := movesFromCell(b, board.RoomSlot(2, 2)); len(got) != 0 {
		t.Fatalf("buried token moved: %v", got)
	}
}

func TestMoves_DeadlockHasNone(t *testing.T) {
	b := board.MustParse(deadlockDiagram)
	if got := Moves(b); len(got) != 0 {
		t.Fatalf("deadlocked board produced moves: %v", got)
	}
}

func TestMoves_HomeEntryBottomUp(t *testing.T) {
	b := board.MustParse(`#############
#D.........D#
###B#C#A#.###
  #A#B#C#.#
  #########`)
	got := movesFromCell(b, board.Corridor(1))
	if len(got) != 1 || got[0].Dst != board.RoomSlot(4, 2) {
		t.Fatalf("want a single entry at the bottom of room 4, got %v", got)
	}
	if got[0].Distance != 10 || got[0].Cost != 10000 {
		t.Fatalf("distance=%d cost=%d, want 10/10000", got[0].Distance, got[0].Cost)
	}

	// Once the other D has settled at the bottom, entry moves up one slot.
	after := b.WithMove(board.Corridor(11), board.RoomSlot(4, 2))
	got = movesFromCell(after, board.Corridor(1))
	if len(got) != 1 || got[0].Dst != board.RoomSlot(4, 1) {
		t.Fatalf("want entry above the settled token, got %v", got)
	}
	if got[0].Distance != 9 || got[0].Cost != 9000 {
		t.Fatalf("distance=%d cost=%d, want 9/9000", got[0].Distance, got[0].Cost)
	}
}

func TestMoves_ForeignOccupantBlocksRoom(t *testing.T) {
	// Room 4 holds a stray A at the bottom; the D outside must wait.
	b := board.MustParse(`#############
#D..........#
###B#C#D#.###
  #A#B#C#A#
  #########`)
	if got := movesFromCell(b, board.Corridor(1)); len(got) != 0 {
		t.Fatalf("token entered a room with a foreign occupant: %v", got)
	}
}

func TestMoves_OwnRoomOverForeignerExitsOnly(t *testing.T) {
	// The A on top of room 1 is in its target room but over a B: it cannot
	// re-enter, only step out.
	b := board.MustParse(`#############
#...........#
###A#C#B#D###
  #B#D#C#A#
  #########`)
	got := movesFromCell(b, board.RoomSlot(1, 1))
	if len(got) != 7 {
		t.Fatalf("got %d moves, want 7 corridor exits: %v", len(got), got)
	}
	for _, m := range got {
		if !m.Dst.InCorridor() {
			t.Fatalf("token re-entered a room: %v", m)
		}
	}
}

func TestMoves_DeterministicOrder(t *testing.T) {
	b := board.MustParse(exampleDiagram)
	first, second := Moves(b), Moves(b)
	if len(first) != len(second) {
		t.Fatalf("move counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("move %d differs between runs", i)
		}
	}
}

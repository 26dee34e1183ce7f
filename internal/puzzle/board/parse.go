package board

import (
	"fmt"
	"strings"
)

// Parse reads the diagram form of a board:
//
//	#############
//	#...........#
//	###B#C#B#D###
//	  #A#D#C#A#
//	  #########
//
// The top wall fixes the room count and the number of room rows fixes the
// depth. Surrounding blank lines and a uniform indent are tolerated.
// Parsed boards use the default cost and target tables.
func Parse(text string) (Board, error) {
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t\r")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 4 {
		return Board{}, fmt.Errorf("parse: %d lines, want at least 4", len(lines))
	}
	indent := len(lines[0]) - len(strings.TrimLeft(lines[0], " "))
	for i, ln := range lines {
		if ln == "" {
			return Board{}, fmt.Errorf("parse: line %d: blank line inside diagram", i+1)
		}
		if len(ln) <= indent || strings.TrimLeft(ln[:indent], " ") != "" {
			return Board{}, fmt.Errorf("parse: line %d: inconsistent indent", i+1)
		}
		lines[i] = ln[indent:]
	}

	top := lines[0]
	if strings.Trim(top, "#") != "" {
		return Board{}, fmt.Errorf("parse: line 1: want top wall, got %q", top)
	}
	corridor := len(top) - 2
	if corridor < 5 || corridor%2 == 0 {
		return Board{}, fmt.Errorf("parse: top wall of width %d fits no room count", len(top))
	}
	rooms := (corridor - 3) / 2

	var placements []Placement

	row := lines[1]
	if len(row) != corridor+2 || row[0] != '#' || row[len(row)-1] != '#' {
		return Board{}, fmt.Errorf("parse: line 2: want corridor row %d cells wide", corridor)
	}
	for p := 1; p <= corridor; p++ {
		if ch := row[p]; ch != '.' {
			t, ok := tokenFromGlyph(ch)
			if !ok {
				return Board{}, fmt.Errorf("parse: line 2: bad cell %q at position %d", ch, p)
			}
			placements = append(placements, Placement{Cell: Corridor(p), Token: t})
		}
	}

	last := strings.TrimLeft(lines[len(lines)-1], " ")
	if strings.Trim(last, "#") != "" || len(last) != 2*rooms+1 {
		return Board{}, fmt.Errorf("parse: line %d: want bottom wall %d wide", len(lines), 2*rooms+1)
	}

	roomRows := lines[2 : len(lines)-1]
	for i, row := range roomRows {
		lineNo := i + 3
		for r := 1; r <= rooms; r++ {
			col := roomAnchor(r)
			if col+1 >= len(row) || row[col-1] != '#' || row[col+1] != '#' {
				return Board{}, fmt.Errorf("parse: line %d: broken room walls", lineNo)
			}
			ch := row[col]
			if ch == '.' {
				continue
			}
			t, ok := tokenFromGlyph(ch)
			if !ok {
				return Board{}, fmt.Errorf("parse: line %d: bad cell %q in room %d", lineNo, ch, r)
			}
			placements = append(placements, Placement{Cell: RoomSlot(r, i+1), Token: t})
		}
	}

	return New(Geometry{Rooms: rooms, Depth: len(roomRows)}, placements)
}

// MustParse is Parse for known-good diagrams in code; it panics on error.
func MustParse(text string) Board {
	b, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return b
}

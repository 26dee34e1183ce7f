package board

import "strings"

// String renders the diagram form. Parse(b.String()) reproduces b for
// boards on the default cost and target tables.
func (b Board) String() string {
	var sb strings.Builder
	corridor := b.geom.CorridorLen()
	sb.WriteString(strings.Repeat("#", corridor+2))
	sb.WriteString("\n#")
	for p := 1; p <= corridor; p++ {
		sb.WriteByte(b.glyphAt(Corridor(p)))
	}
	sb.WriteString("#\n")
	for d := 1; d <= b.geom.Depth; d++ {
		if d == 1 {
			sb.WriteString("###")
		} else {
			sb.WriteString("  #")
		}
		for r := 1; r <= b.geom.Rooms; r++ {
			sb.WriteByte(b.glyphAt(RoomSlot(r, d)))
			sb.WriteByte('#')
		}
		if d == 1 {
			sb.WriteString("##")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  ")
	sb.WriteString(strings.Repeat("#", 2*b.geom.Rooms+1))
	return sb.String()
}

func (b Board) glyphAt(c Cell) byte {
	t, ok := b.At(c)
	if !ok {
		return '.'
	}
	return t.Glyph()
}

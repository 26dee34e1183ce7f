package board

// Token identifies a piece kind. Kinds are 1-based; the zero value marks an
// empty slot in the packed occupancy and is never a valid token.
type Token uint8

// Glyph is the diagram letter for the kind: 'A' for kind 1, 'B' for kind 2
// and so on.
func (t Token) Glyph() byte { return 'A' + byte(t) - 1 }

func tokenFromGlyph(ch byte) (Token, bool) {
	if ch < 'A' || ch > 'Z' {
		return 0, false
	}
	return Token(ch - 'A' + 1), true
}

package run

import (
	"time"

	"github.com/google/uuid"

	"roomsort.dev/internal/protocol"
	"roomsort.dev/internal/puzzle/board"
	"roomsort.dev/internal/puzzle/solver"
)

// Record is the durable trace of one solve: enough to rebuild the request,
// re-run the search and check the answer.
type Record struct {
	RunID     string `json:"run_id"`
	StartedAt string `json:"started_at"` // RFC3339Nano, UTC
	Source    string `json:"source"`     // "ws", "cli", "replay"
	Client    string `json:"client,omitempty"`
	Preset    string `json:"preset,omitempty"`

	Board       string `json:"board"` // diagram text
	BoardDigest string `json:"board_digest"`
	Rooms       int    `json:"rooms"`
	Depth       int    `json:"depth"`

	Outcome   string              `json:"outcome"`
	Cost      int64               `json:"cost"`
	Expanded  int                 `json:"expanded"`
	Enqueued  int                 `json:"enqueued"`
	Distinct  int                 `json:"distinct"`
	ElapsedMs int64               `json:"elapsed_ms"`
	Moves     []protocol.WireMove `json:"moves,omitempty"`
}

// New builds a Record from a finished solve.
func New(source, client, preset string, startedAt time.Time, b board.Board, res solver.Result) Record {
	g := b.Geometry()
	return Record{
		RunID:       uuid.NewString(),
		StartedAt:   startedAt.UTC().Format(time.RFC3339Nano),
		Source:      source,
		Client:      client,
		Preset:      preset,
		Board:       b.String(),
		BoardDigest: b.Digest(),
		Rooms:       g.Rooms,
		Depth:       g.Depth,
		Outcome:     res.Outcome.String(),
		Cost:        res.Cost,
		Expanded:    res.Expanded,
		Enqueued:    res.Enqueued,
		Distinct:    res.Distinct,
		ElapsedMs:   res.Elapsed.Milliseconds(),
		Moves:       WireMoves(res.Path),
	}
}

// WireMoves converts engine moves to their wire form.
func WireMoves(path []solver.Move) []protocol.WireMove {
	if len(path) == 0 {
		return nil
	}
	out := make([]protocol.WireMove, len(path))
	for i, m := range path {
		out[i] = protocol.WireMove{
			Token:    string(m.Token.Glyph()),
			FromRoom: int(m.Src.Room),
			FromPos:  int(m.Src.Pos),
			ToRoom:   int(m.Dst.Room),
			ToPos:    int(m.Dst.Pos),
			Distance: m.Distance,
			Cost:     m.Cost,
		}
	}
	return out
}

func wireCell(room, pos int) board.Cell {
	if room == 0 {
		return board.Corridor(pos)
	}
	return board.RoomSlot(room, pos)
}

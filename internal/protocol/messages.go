package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	Presets         PresetDigest `json:"presets"`
	Limits          Limits       `json:"limits"`
}

type PresetDigest struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// Limits tells the client what the service will actually accept, so it can
// clamp its own requests instead of discovering the caps by error.
type Limits struct {
	MaxRooms      int `json:"max_rooms"`
	MaxDepth      int `json:"max_depth"`
	MaxBoardBytes int `json:"max_board_bytes"`
	MaxExpansions int `json:"max_expansions"`
	MaxSolveMs    int `json:"max_solve_ms"`
}

// SOLVE (client -> server): exactly one of Board or Preset is set. Board is
// the diagram text; Preset names a server-side catalog entry.
type SolveMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Board           string `json:"board,omitempty"`
	Preset          string `json:"preset,omitempty"`
	WantPath        bool   `json:"want_path,omitempty"`
	ProgressEvery   int    `json:"progress_every,omitempty"`
	MaxExpansions   int    `json:"max_expansions,omitempty"`
	MaxSolveMs      int    `json:"max_solve_ms,omitempty"`
}

// PROGRESS (server -> client): periodic search counters while a SOLVE runs.
type ProgressMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Expanded        int    `json:"expanded"`
	Enqueued        int    `json:"enqueued"`
	Distinct        int    `json:"distinct"`
	BestBound       int64  `json:"best_bound"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

// WireMove addresses cells the way diagrams read: room 0 is the corridor
// and pos is the corridor position; otherwise pos is the depth in the room.
type WireMove struct {
	Token    string `json:"token"`
	FromRoom int    `json:"from_room"`
	FromPos  int    `json:"from_pos"`
	ToRoom   int    `json:"to_room"`
	ToPos    int    `json:"to_pos"`
	Distance int    `json:"distance"`
	Cost     int64  `json:"cost"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id"`
	Outcome         string     `json:"outcome"` // "solved", "unsolvable", "aborted"
	Cost            int64      `json:"cost"`
	Moves           []WireMove `json:"moves,omitempty"`
	Expanded        int        `json:"expanded"`
	Enqueued        int        `json:"enqueued"`
	Distinct        int        `json:"distinct"`
	ElapsedMs       int64      `json:"elapsed_ms"`
	BoardDigest     string     `json:"board_digest"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

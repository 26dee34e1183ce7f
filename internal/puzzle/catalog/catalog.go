package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"roomsort.dev/internal/puzzle/board"
)

// Catalog is the preset library: named boards ready to solve, loaded from
// presets.json. Diagrams are parsed and validated at load time, so a bad
// preset fails startup rather than the first request that asks for it.
type Catalog struct {
	ByID   map[string]Preset
	IDs    []string // sorted
	Digest string   // over the raw presets.json bytes
}

type Preset struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Diagram string `json:"diagram"`
	// BestKnown records the optimal plan cost where one has been verified;
	// zero means unrecorded.
	BestKnown int64 `json:"best_known,omitempty"`

	Board board.Board `json:"-"`
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Catalog{Digest: sha256Hex(raw), ByID: map[string]Preset{}}

	var defs []Preset
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("presets.json: %w", err)
	}
	for _, p := range defs {
		if p.ID == "" {
			return nil, fmt.Errorf("presets.json: empty id")
		}
		if _, dup := c.ByID[p.ID]; dup {
			return nil, fmt.Errorf("presets.json: duplicate id %q", p.ID)
		}
		b, err := board.Parse(p.Diagram)
		if err != nil {
			return nil, fmt.Errorf("presets.json: %s: %w", p.ID, err)
		}
		p.Board = b
		c.ByID[p.ID] = p
	}

	ids := make([]string, 0, len(c.ByID))
	for id := range c.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	c.IDs = ids
	return c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

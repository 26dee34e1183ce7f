package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	MaxExpansions int `yaml:"max_expansions"`
	MaxSolveMs    int `yaml:"max_solve_ms"`
	ProgressEvery int `yaml:"progress_every"`

	MaxConcurrentSolves int `yaml:"max_concurrent_solves"`
	MaxBoardBytes       int `yaml:"max_board_bytes"`
	MaxRooms            int `yaml:"max_rooms"`
	MaxDepth            int `yaml:"max_depth"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

type RateLimits struct {
	SolveWindowMs int `yaml:"solve_window_ms"`
	SolveMax      int `yaml:"solve_max"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "rs.v1",

		MaxExpansions: 2_000_000,
		MaxSolveMs:    30_000,
		ProgressEvery: 25_000,

		MaxConcurrentSolves: 4,
		MaxBoardBytes:       16 * 1024,
		MaxRooms:            8,
		MaxDepth:            8,

		RateLimits: RateLimits{
			SolveWindowMs: 10_000,
			SolveMax:      20,
		},
	}
}

// Load reads tuning.yaml over Defaults, so a partial file only overrides
// the keys it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

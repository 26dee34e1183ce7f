package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	persistlog "roomsort.dev/internal/persistence/log"
	"roomsort.dev/internal/puzzle/board"
	"roomsort.dev/internal/puzzle/catalog"
	"roomsort.dev/internal/puzzle/run"
	"roomsort.dev/internal/puzzle/solver"
	"roomsort.dev/internal/puzzle/tuning"
)

func main() {
	var (
		boardPath = flag.String("board", "", "path to a board diagram file")
		preset    = flag.String("preset", "", "preset id from the catalog")
		configDir = flag.String("configs", "./configs", "config directory (presets.json, tuning.yaml)")
		dataDir   = flag.String("data", "", "record the run under this directory (optional)")
		wantPath  = flag.Bool("path", false, "print the move list")
		progress  = flag.Int("progress", 0, "print progress every N expansions (0 = quiet)")
		maxExp    = flag.Int("max_expansions", 0, "expansion budget (0 = tuning default)")
		maxMs     = flag.Int("max_ms", 0, "time budget in milliseconds (0 = tuning default)")
	)
	flag.Parse()

	if (*boardPath == "") == (*preset == "") {
		fmt.Fprintln(os.Stderr, "need exactly one of -board or -preset")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[solve] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}

	var (
		b        board.Board
		presetID string
	)
	if *preset != "" {
		cat, err := catalog.Load(filepath.Join(*configDir, "presets.json"))
		if err != nil {
			logger.Fatalf("load presets: %v", err)
		}
		p, ok := cat.ByID[*preset]
		if !ok {
			fmt.Fprintf(os.Stderr, "no preset %q; have: %s\n", *preset, strings.Join(cat.IDs, ", "))
			os.Exit(2)
		}
		b, presetID = p.Board, p.ID
	} else {
		raw, err := os.ReadFile(*boardPath)
		if err != nil {
			logger.Fatalf("read board: %v", err)
		}
		b, err = board.Parse(string(raw))
		if err != nil {
			logger.Fatalf("parse board: %v", err)
		}
	}

	opts := solver.Options{
		MaxExpansions: tune.MaxExpansions,
		MaxDuration:   time.Duration(tune.MaxSolveMs) * time.Millisecond,
		KeepPath:      *wantPath,
	}
	if *maxExp > 0 {
		opts.MaxExpansions = *maxExp
	}
	if *maxMs > 0 {
		opts.MaxDuration = time.Duration(*maxMs) * time.Millisecond
	}
	if *progress > 0 {
		opts.ProgressEvery = *progress
		opts.OnProgress = func(p solver.Progress) {
			logger.Printf("expanded=%d enqueued=%d distinct=%d bound=%d elapsed=%s",
				p.Expanded, p.Enqueued, p.Distinct, p.BestBound, p.Elapsed.Round(time.Millisecond))
		}
	}

	started := time.Now()
	res := solver.Solve(context.Background(), b, opts)

	g := b.Geometry()
	fmt.Printf("%s: %d rooms, depth %d, digest %s\n", res.Outcome, g.Rooms, g.Depth, b.Digest())
	fmt.Printf("cost=%d expanded=%d enqueued=%d distinct=%d elapsed=%s\n",
		res.Cost, res.Expanded, res.Enqueued, res.Distinct, res.Elapsed.Round(time.Millisecond))
	if *wantPath {
		for i, m := range res.Path {
			fmt.Printf("%3d. %c  %s -> %s  (dist %d, cost %d)\n",
				i+1, m.Token.Glyph(), m.Src, m.Dst, m.Distance, m.Cost)
		}
	}

	if *dataDir != "" {
		rl := persistlog.NewRunLogger(*dataDir)
		rec := run.New("cli", "", presetID, started, b, res)
		if err := rl.WriteRun(rec); err != nil {
			logger.Printf("write run: %v", err)
		} else {
			logger.Printf("recorded run %s", rec.RunID)
		}
		_ = rl.Close()
	}

	if res.Outcome != solver.Solved {
		os.Exit(1)
	}
}

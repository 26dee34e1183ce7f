package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"roomsort.dev/internal/puzzle/run"
	"roomsort.dev/internal/puzzle/solver"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "runtime data directory")
		runsDir = flag.String("runs", "", "runs dir containing runs-*.jsonl.zst (default: <data>/runs)")
		runID   = flag.String("run_id", "", "verify only this run id (optional)")
		maxExp  = flag.Int("max_expansions", 2_000_000, "re-solve expansion budget per run")
		maxMs   = flag.Int("max_ms", 60_000, "re-solve time budget per run (ms)")
	)
	flag.Parse()

	dir := strings.TrimSpace(*runsDir)
	if dir == "" {
		dir = filepath.Join(*dataDir, "runs")
	}

	files, err := listRunFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list runs:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no run files found in", dir)
		os.Exit(1)
	}

	opts := solver.Options{
		MaxExpansions: *maxExp,
		MaxDuration:   time.Duration(*maxMs) * time.Millisecond,
	}

	var checked, matched int
	for _, path := range files {
		if err := verifyFile(path, *runID, opts, &checked, &matched); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	if *runID != "" && matched == 0 {
		fmt.Fprintln(os.Stderr, "run id not found:", *runID)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d runs\n", checked)
}

func listRunFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "runs-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func verifyFile(path, onlyID string, opts solver.Options, checked, matched *int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var rec run.Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if onlyID != "" {
			if rec.RunID != onlyID {
				continue
			}
			*matched++
		}
		if err := run.Verify(context.Background(), rec, opts); err != nil {
			return fmt.Errorf("run %s (%s): %w", rec.RunID, rec.StartedAt, err)
		}
		*checked++
	}
	return sc.Err()
}

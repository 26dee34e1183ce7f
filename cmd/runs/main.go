package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"roomsort.dev/internal/persistence/runindex"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "recent":
			recentCmd(os.Args[2:])
			return
		case "best":
			bestCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		case "boards":
			boardsCmd(os.Args[2:])
			return
		case "-h", "-help", "--help":
			usage()
			return
		}
	}
	recentCmd(os.Args[1:])
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: runs [recent|best|show|boards] [flags]")
	fmt.Fprintln(os.Stderr, "  recent  [-data ./data] [-db PATH] [-limit N]")
	fmt.Fprintln(os.Stderr, "  best    [-data ./data] [-db PATH] -digest HEX")
	fmt.Fprintln(os.Stderr, "  show    [-data ./data] [-db PATH] -id RUN_ID")
	fmt.Fprintln(os.Stderr, "  boards  [-data ./data] [-db PATH] [-limit N]")
}

func openIndex(dataDir, dbPath string) *runindex.Index {
	path := strings.TrimSpace(dbPath)
	if path == "" {
		path = filepath.Join(dataDir, "index", "runs.db")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "no run index at", path)
		os.Exit(2)
	}
	idx, err := runindex.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return idx
}

func recentCmd(args []string) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.db)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *dbPath)
	defer idx.Close()

	rows, err := idx.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func bestCmd(args []string) {
	fs := flag.NewFlagSet("best", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.db)")
	digest := fs.String("digest", "", "board digest (required)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*digest) == "" {
		fmt.Fprintln(os.Stderr, "missing -digest")
		os.Exit(2)
	}

	idx := openIndex(*dataDir, *dbPath)
	defer idx.Close()

	best, err := idx.BestKnown(context.Background(), strings.TrimSpace(*digest))
	if errors.Is(err, sql.ErrNoRows) {
		fmt.Fprintln(os.Stderr, "no solved runs for digest", *digest)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	printJSON(best)
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.db)")
	id := fs.String("id", "", "run id (required)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		fmt.Fprintln(os.Stderr, "missing -id")
		os.Exit(2)
	}

	idx := openIndex(*dataDir, *dbPath)
	defer idx.Close()

	rec, err := idx.Get(context.Background(), strings.TrimSpace(*id))
	if errors.Is(err, sql.ErrNoRows) {
		fmt.Fprintln(os.Stderr, "no such run", *id)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	printJSON(rec)
}

func boardsCmd(args []string) {
	fs := flag.NewFlagSet("boards", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/runs.db)")
	limit := fs.Int("limit", 50, "result limit")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir, *dbPath)
	defer idx.Close()

	rows, err := idx.Boards(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

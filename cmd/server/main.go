package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "roomsort.dev/internal/persistence/log"
	"roomsort.dev/internal/persistence/runindex"
	"roomsort.dev/internal/puzzle/catalog"
	"roomsort.dev/internal/puzzle/tuning"
	"roomsort.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run index (JSONL run logs still written)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	cat, err := catalog.Load(filepath.Join(*configDir, "presets.json"))
	if err != nil {
		logger.Fatalf("load presets: %v", err)
	}
	logger.Printf("presets: %d entries digest=%s", len(cat.IDs), cat.Digest[:12])

	_ = os.MkdirAll(*dataDir, 0o755)

	runLog := persistlog.NewRunLogger(*dataDir)
	defer runLog.Close()

	sinks := []ws.RunSink{runLog}
	var idx *runindex.Index
	if !*disableDB {
		idx, err = runindex.Open(filepath.Join(*dataDir, "index", "runs.db"))
		if err != nil {
			logger.Fatalf("open run index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertConfig(cat, tune); err != nil {
			logger.Printf("run index: upsert config: %v", err)
		}
		sinks = append(sinks, idx)
	}

	wsSrv := ws.NewServer(tune, cat, logger, sinks...)

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := wsSrv.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP roomsort_solves_active Solves currently running.\n")
		fmt.Fprintf(rw, "# TYPE roomsort_solves_active gauge\n")
		fmt.Fprintf(rw, "roomsort_solves_active %d\n", m.ActiveSolves)

		fmt.Fprintf(rw, "# HELP roomsort_solve_slots Configured concurrent solve slots.\n")
		fmt.Fprintf(rw, "# TYPE roomsort_solve_slots gauge\n")
		fmt.Fprintf(rw, "roomsort_solve_slots %d\n", m.SolveSlots)

		fmt.Fprintf(rw, "# HELP roomsort_solves_total Finished solves by outcome.\n")
		fmt.Fprintf(rw, "# TYPE roomsort_solves_total counter\n")
		fmt.Fprintf(rw, "roomsort_solves_total{outcome=%q} %d\n", "solved", m.Solved)
		fmt.Fprintf(rw, "roomsort_solves_total{outcome=%q} %d\n", "unsolvable", m.Unsolvable)
		fmt.Fprintf(rw, "roomsort_solves_total{outcome=%q} %d\n", "aborted", m.Aborted)
	})

	mux.HandleFunc("/v1/presets", func(rw http.ResponseWriter, r *http.Request) {
		type entry struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Rooms     int    `json:"rooms"`
			Depth     int    `json:"depth"`
			BestKnown int64  `json:"best_known,omitempty"`
		}
		out := struct {
			Digest  string  `json:"digest"`
			Presets []entry `json:"presets"`
		}{Digest: cat.Digest}
		for _, id := range cat.IDs {
			p := cat.ByID[id]
			g := p.Board.Geometry()
			out.Presets = append(out.Presets, entry{
				ID: p.ID, Title: p.Title,
				Rooms: g.Rooms, Depth: g.Depth,
				BestKnown: p.BestKnown,
			})
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(out)
	})

	mux.HandleFunc("/v1/recent", func(rw http.ResponseWriter, r *http.Request) {
		if idx == nil {
			http.Error(rw, "run index disabled", http.StatusServiceUnavailable)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := idx.Recent(r.Context(), limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(rows)
	})

	mux.HandleFunc("/v1/run", func(rw http.ResponseWriter, r *http.Request) {
		if idx == nil {
			http.Error(rw, "run index disabled", http.StatusServiceUnavailable)
			return
		}
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(rw, "missing id", http.StatusBadRequest)
			return
		}
		rec, err := idx.Get(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(rw, "no such run", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(rec)
	})

	mux.HandleFunc("/v1/boards", func(rw http.ResponseWriter, r *http.Request) {
		if idx == nil {
			http.Error(rw, "run index disabled", http.StatusServiceUnavailable)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := idx.Boards(r.Context(), limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(rows)
	})

	if envBool("RS_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"roomsort.dev/internal/protocol"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name      = flag.String("name", "client", "client name")
		preset    = flag.String("preset", "", "preset id to solve")
		boardPath = flag.String("board", "", "path to a board diagram file")
		wantPath  = flag.Bool("path", false, "request the move list")
		progress  = flag.Int("progress", 0, "request progress every N expansions")
		maxExp    = flag.Int("max_expansions", 0, "expansion budget (0 = server default)")
		maxMs     = flag.Int("max_ms", 0, "time budget ms (0 = server default)")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall wait for the result")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[client] ", log.LstdFlags|log.Lmicroseconds)

	if (*preset == "") == (*boardPath == "") {
		logger.Fatal("need exactly one of -preset or -board")
	}

	req := protocol.SolveMsg{
		Type:            protocol.TypeSolve,
		ProtocolVersion: protocol.Version,
		ReqID:           "c1",
		Preset:          *preset,
		WantPath:        *wantPath,
		ProgressEvery:   *progress,
		MaxExpansions:   *maxExp,
		MaxSolveMs:      *maxMs,
	}
	if *boardPath != "" {
		raw, err := os.ReadFile(*boardPath)
		if err != nil {
			logger.Fatalf("read board: %v", err)
		}
		req.Board = string(raw)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	deadline := time.Now().Add(*timeout)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s presets=%d max=%dx%d / %dms",
				w.SessionID, w.Presets.Count, w.Limits.MaxRooms, w.Limits.MaxDepth, w.Limits.MaxSolveMs)
			if err := conn.WriteJSON(req); err != nil {
				logger.Fatalf("send SOLVE: %v", err)
			}

		case protocol.TypeProgress:
			var p protocol.ProgressMsg
			if err := json.Unmarshal(msg, &p); err != nil {
				continue
			}
			logger.Printf("PROGRESS expanded=%d distinct=%d bound=%d elapsed=%dms",
				p.Expanded, p.Distinct, p.BestBound, p.ElapsedMs)

		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				logger.Fatalf("decode RESULT: %v", err)
			}
			logger.Printf("RESULT outcome=%s cost=%d expanded=%d elapsed=%dms digest=%s",
				res.Outcome, res.Cost, res.Expanded, res.ElapsedMs, res.BoardDigest)
			for i, m := range res.Moves {
				fmt.Printf("%3d. %s  %s -> %s  (dist %d, cost %d)\n",
					i+1, m.Token, cellName(m.FromRoom, m.FromPos), cellName(m.ToRoom, m.ToPos), m.Distance, m.Cost)
			}
			if res.Outcome != "solved" {
				os.Exit(1)
			}
			return

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				logger.Fatalf("decode ERROR: %v", err)
			}
			logger.Fatalf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}

func cellName(room, pos int) string {
	if room == 0 {
		return fmt.Sprintf("corridor %d", pos)
	}
	return fmt.Sprintf("room %d depth %d", room, pos)
}

package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomsort.dev/internal/protocol"
	"roomsort.dev/internal/puzzle/board"
	"roomsort.dev/internal/puzzle/catalog"
	"roomsort.dev/internal/puzzle/run"
	"roomsort.dev/internal/puzzle/solver"
	"roomsort.dev/internal/puzzle/tuning"
)

// RunSink receives finished solve records. The JSONL logger and the sqlite
// index both satisfy it.
type RunSink interface {
	WriteRun(run.Record) error
}

type Server struct {
	tune  tuning.Tuning
	cat   *catalog.Catalog
	log   *log.Logger
	sinks []RunSink

	// Global solve slots; a full channel means E_BUSY.
	solves chan struct{}

	solvesTotal     atomic.Int64
	solvedTotal     atomic.Int64
	unsolvableTotal atomic.Int64
	abortedTotal    atomic.Int64

	upgrader websocket.Upgrader
}

// Metrics is a point-in-time snapshot for the /metrics endpoint.
type Metrics struct {
	ActiveSolves int
	SolveSlots   int
	SolvesTotal  int64
	Solved       int64
	Unsolvable   int64
	Aborted      int64
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		ActiveSolves: len(s.solves),
		SolveSlots:   cap(s.solves),
		SolvesTotal:  s.solvesTotal.Load(),
		Solved:       s.solvedTotal.Load(),
		Unsolvable:   s.unsolvableTotal.Load(),
		Aborted:      s.abortedTotal.Load(),
	}
}

func NewServer(tune tuning.Tuning, cat *catalog.Catalog, logger *log.Logger, sinks ...RunSink) *Server {
	slots := tune.MaxConcurrentSolves
	if slots <= 0 {
		slots = 1
	}
	s := &Server{
		tune:   tune,
		cat:    cat,
		log:    logger,
		sinks:  sinks,
		solves: make(chan struct{}, slots),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-sess.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				sess.sendErr(ctx, "", protocol.ErrProtoBadRequest, "not a JSON message")
				continue
			}
			if base.Type != protocol.TypeSolve {
				sess.sendErr(ctx, base.ReqID, protocol.ErrProtoBadRequest,
					fmt.Sprintf("unexpected type %q", base.Type))
				continue
			}
			var req protocol.SolveMsg
			if err := json.Unmarshal(msg, &req); err != nil {
				sess.sendErr(ctx, base.ReqID, protocol.ErrProtoBadRequest, "malformed SOLVE")
				continue
			}
			s.handleSolve(ctx, sess, req)
		}
	}
}

// session is one connected client. The reader loop owns it, so the recent
// slice needs no lock.
type session struct {
	id     string
	client string
	out    chan []byte
	recent []time.Time // accepted solve times inside the rate window
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	reject := func(why string) {
		b, _ := json.Marshal(protocol.ErrorMsg{
			Type:            protocol.TypeError,
			ProtocolVersion: protocol.Version,
			Code:            protocol.ErrProtoBadRequest,
			Message:         why,
		})
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.TextMessage, b)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, why),
			time.Now().Add(time.Second))
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		reject("expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		reject("malformed HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		reject("bad protocol_version")
		return nil
	}
	name := strings.TrimSpace(hello.ClientName)
	if name == "" {
		name = "client"
	}

	sess := &session{
		id:     uuid.NewString(),
		client: name,
		out:    make(chan []byte, 64),
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		Limits: protocol.Limits{
			MaxRooms:      s.tune.MaxRooms,
			MaxDepth:      s.tune.MaxDepth,
			MaxBoardBytes: s.tune.MaxBoardBytes,
			MaxExpansions: s.tune.MaxExpansions,
			MaxSolveMs:    s.tune.MaxSolveMs,
		},
	}
	if s.cat != nil {
		welcome.Presets = protocol.PresetDigest{Digest: s.cat.Digest, Count: len(s.cat.IDs)}
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return nil
	}
	return sess
}

func (s *Server) handleSolve(ctx context.Context, sess *session, req protocol.SolveMsg) {
	if req.ProtocolVersion != protocol.Version {
		sess.sendErr(ctx, req.ReqID, protocol.ErrProtoBadRequest, "bad protocol_version")
		return
	}
	if (req.Board == "") == (req.Preset == "") {
		sess.sendErr(ctx, req.ReqID, protocol.ErrProtoBadRequest, "exactly one of board or preset")
		return
	}
	if !sess.admit(time.Now(), s.tune.RateLimits) {
		sess.sendErr(ctx, req.ReqID, protocol.ErrRateLimit, "too many solves; slow down")
		return
	}

	var (
		b      board.Board
		preset string
	)
	if req.Preset != "" {
		p, ok := s.cat.ByID[req.Preset]
		if !ok {
			sess.sendErr(ctx, req.ReqID, protocol.ErrPresetNotFound,
				fmt.Sprintf("no preset %q", req.Preset))
			return
		}
		b, preset = p.Board, p.ID
	} else {
		if len(req.Board) > s.tune.MaxBoardBytes {
			sess.sendErr(ctx, req.ReqID, protocol.ErrBadBoard,
				fmt.Sprintf("board exceeds %d bytes", s.tune.MaxBoardBytes))
			return
		}
		parsed, err := board.Parse(req.Board)
		if err != nil {
			sess.sendErr(ctx, req.ReqID, protocol.ErrParse, err.Error())
			return
		}
		g := parsed.Geometry()
		if g.Rooms > s.tune.MaxRooms || g.Depth > s.tune.MaxDepth {
			sess.sendErr(ctx, req.ReqID, protocol.ErrBadBoard,
				fmt.Sprintf("board %dx%d exceeds limit %dx%d", g.Rooms, g.Depth, s.tune.MaxRooms, s.tune.MaxDepth))
			return
		}
		b = parsed
	}

	select {
	case s.solves <- struct{}{}:
	default:
		sess.sendErr(ctx, req.ReqID, protocol.ErrBusy, "all solve slots taken; retry later")
		return
	}

	opts := s.solveOptions(sess, req)
	started := time.Now()
	go func() {
		defer func() { <-s.solves }()

		res := solver.Solve(ctx, b, opts)
		s.solvesTotal.Add(1)
		switch res.Outcome {
		case solver.Solved:
			s.solvedTotal.Add(1)
		case solver.Unsolvable:
			s.unsolvableTotal.Add(1)
		case solver.Aborted:
			s.abortedTotal.Add(1)
		}
		rec := run.New("ws", sess.client, preset, started, b, res)
		for _, sink := range s.sinks {
			if err := sink.WriteRun(rec); err != nil && s.log != nil {
				s.log.Printf("run %s: sink: %v", rec.RunID, err)
			}
		}
		if s.log != nil {
			s.log.Printf("solve %s: %s cost=%d expanded=%d in %s",
				req.ReqID, res.Outcome, res.Cost, res.Expanded, res.Elapsed.Round(time.Millisecond))
		}
		sess.send(ctx, protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			ReqID:           req.ReqID,
			Outcome:         res.Outcome.String(),
			Cost:            res.Cost,
			Moves:           rec.Moves,
			Expanded:        res.Expanded,
			Enqueued:        res.Enqueued,
			Distinct:        res.Distinct,
			ElapsedMs:       res.Elapsed.Milliseconds(),
			BoardDigest:     b.Digest(),
		})
	}()
}

// solveOptions clamps the request's budgets to the server's caps; a request
// may tighten them, never widen.
func (s *Server) solveOptions(sess *session, req protocol.SolveMsg) solver.Options {
	opts := solver.Options{
		MaxExpansions: s.tune.MaxExpansions,
		MaxDuration:   time.Duration(s.tune.MaxSolveMs) * time.Millisecond,
		KeepPath:      req.WantPath,
	}
	if req.MaxExpansions > 0 && req.MaxExpansions < opts.MaxExpansions {
		opts.MaxExpansions = req.MaxExpansions
	}
	if req.MaxSolveMs > 0 {
		if d := time.Duration(req.MaxSolveMs) * time.Millisecond; d < opts.MaxDuration {
			opts.MaxDuration = d
		}
	}
	if pe := req.ProgressEvery; pe > 0 {
		if pe < 100 {
			pe = 100 // keep chatty clients from flooding the socket
		}
		opts.ProgressEvery = pe
		reqID := req.ReqID
		opts.OnProgress = func(p solver.Progress) {
			sess.trySend(protocol.ProgressMsg{
				Type:            protocol.TypeProgress,
				ProtocolVersion: protocol.Version,
				ReqID:           reqID,
				Expanded:        p.Expanded,
				Enqueued:        p.Enqueued,
				Distinct:        p.Distinct,
				BestBound:       p.BestBound,
				ElapsedMs:       p.Elapsed.Milliseconds(),
			})
		}
	}
	return opts
}

// admit applies the per-connection sliding window. now is a parameter so
// tests can drive the clock.
func (c *session) admit(now time.Time, rl tuning.RateLimits) bool {
	if rl.SolveMax <= 0 || rl.SolveWindowMs <= 0 {
		return true
	}
	cutoff := now.Add(-time.Duration(rl.SolveWindowMs) * time.Millisecond)
	keep := c.recent[:0]
	for _, t := range c.recent {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	c.recent = keep
	if len(c.recent) >= rl.SolveMax {
		return false
	}
	c.recent = append(c.recent, now)
	return true
}

// send queues a message for the writer, waiting if the queue is full.
func (c *session) send(ctx context.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	case <-ctx.Done():
	}
}

// trySend queues a message only if there is room; progress is advisory and
// a slow reader should not stall the search.
func (c *session) trySend(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
	}
}

func (c *session) sendErr(ctx context.Context, reqID, code, msg string) {
	c.send(ctx, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Code:            code,
		Message:         msg,
	})
}

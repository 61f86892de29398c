// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over a WebSocket endpoint. One
// connection carries one run at a time: each inbound {"query": ...}
// message starts a run whose stage events stream back as JSON objects.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/pkg/types"
)

const writeTimeout = 10 * time.Second

// Runner executes one pipeline run, streaming events into emit.
type Runner interface {
	Run(ctx context.Context, query string, emit pipeline.EventSink) (*pipeline.State, error)
}

// Archiver persists a completed run. Archive failures are logged, never
// surfaced to the client.
type Archiver interface {
	Save(ctx context.Context, query, document string, papers []types.Paper) error
}

// Server handles WebSocket research sessions.
type Server struct {
	runner         Runner
	archiver       Archiver
	receiveTimeout time.Duration
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// New returns a Server for the given runner. archiver may be nil.
func New(runner Runner, archiver Archiver, cfg types.ServerConfig, logger *zap.Logger) *Server {
	timeout := cfg.ReceiveTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		runner:         runner,
		archiver:       archiver,
		receiveTimeout: timeout,
		upgrader: websocket.Upgrader{
			// The browser client is served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handler returns the HTTP routes: a service banner at / and the
// research WebSocket at /ws/research.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /ws/research", s.handleResearch)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "litreview research service"})
}

// handleResearch owns one client connection. It waits up to the receive
// timeout for each query; an expired wait or a disconnect ends the
// session silently, with no error event. A stage-fatal run failure closes
// the connection after the single error event the pipeline emitted.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(s.receiveTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			// Receive timeout and client disconnect are both normal
			// termination.
			s.logger.Debug("connection ended", zap.Error(err))
			return
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(msg, &req); err != nil || strings.TrimSpace(req.Query) == "" {
			s.writeEvent(conn, pipeline.StageEvent{
				Stage:  pipeline.StageError,
				Status: "expected a JSON message with a non-empty \"query\" field",
			})
			return
		}

		st, err := s.runner.Run(r.Context(), req.Query, func(ev pipeline.StageEvent) error {
			return s.writeEvent(conn, ev)
		})
		if err != nil {
			// The pipeline already emitted the error event for stage
			// failures; emit failures mean the peer is gone.
			return
		}

		if s.archiver != nil {
			if err := s.archiver.Save(r.Context(), st.UserQuery, st.FinalDocument, st.FilteredPapers); err != nil {
				s.logger.Warn("archiving run failed", zap.Error(err))
			}
		}
	}
}

// writeEvent serializes and sends one event. A serialization failure of
// the outer message is itself reported to the client as an error event.
func (s *Server) writeEvent(conn *websocket.Conn, ev pipeline.StageEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		fallback, _ := json.Marshal(pipeline.StageEvent{
			Stage:  pipeline.StageError,
			Status: "serializing event: " + err.Error(),
		})
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.WriteMessage(websocket.TextMessage, fallback)
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Package server exposes the engine over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/becomeliminal/astra/engine"
	"github.com/becomeliminal/astra/logging"
)

// Frame types sent to clients.
const (
	FrameChunk = "chunk"
	FrameReply = "reply"
	FrameError = "error"
)

// Request is a client frame.
type Request struct {
	Message string `json:"message"`
}

// Response is a server frame.
type Response struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Retrieved int    `json:"retrieved"`
	Saved     bool   `json:"saved"`
	Error     string `json:"error,omitempty"`
}

// Server runs every connection's turns against one shared session, one turn
// at a time.
type Server struct {
	engine   *engine.Engine
	session  *engine.Session
	upgrader websocket.Upgrader
	stream   bool

	mu sync.Mutex
}

// Option configures the server.
type Option func(*Server)

// WithSession uses session instead of a fresh one.
func WithSession(s *engine.Session) Option {
	return func(srv *Server) {
		srv.session = s
	}
}

// WithStreaming sends chunk frames while the reply is generated.
func WithStreaming(enabled bool) Option {
	return func(srv *Server) {
		srv.stream = enabled
	}
}

// New creates a server for eng.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		upgrader: websocket.Upgrader{
			// Local companion service; browsers on any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.session == nil {
		s.session = engine.NewSession()
	}
	return s
}

// Handler returns the HTTP routes: GET /ws and GET /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.For("server").WithField("addr", addr).Info("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	turns := s.session.TurnCount()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"session": s.session.ID,
		"turns":   turns,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logging.For("server")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	log.WithField("remote", r.RemoteAddr).Info("client connected")
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("read failed, closing connection")
			}
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			if err := conn.WriteJSON(Response{Type: FrameError, Error: "message is required"}); err != nil {
				return
			}
			continue
		}
		if err := s.turn(r.Context(), conn, req.Message); err != nil {
			log.WithError(err).Debug("write failed, closing connection")
			return
		}
	}
}

// turn runs one engine turn and writes its frames. Only write errors are
// returned; turn errors are reported to the client.
func (s *Server) turn(ctx context.Context, conn *websocket.Conn, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := &engine.Input{UserMessage: message}
	var writeErr error
	if s.stream {
		input.StreamCallback = func(chunk string, done bool) {
			if done || writeErr != nil {
				return
			}
			writeErr = conn.WriteJSON(Response{Type: FrameChunk, Text: chunk})
		}
	}

	out, err := s.engine.Turn(ctx, s.session, input)
	if writeErr != nil {
		return writeErr
	}
	if out != nil {
		if werr := conn.WriteJSON(Response{
			Type:      FrameReply,
			Text:      out.Text,
			Retrieved: out.Retrieved,
			Saved:     out.Saved,
		}); werr != nil {
			return werr
		}
	}
	if err != nil {
		logging.For("server").WithFields(logrus.Fields{
			"session": s.session.ID,
		}).WithError(err).Warn("turn failed")
		return conn.WriteJSON(Response{Type: FrameError, Error: err.Error()})
	}
	return nil
}

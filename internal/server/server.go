package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"bitcore/internal/dispatch"
	"bitcore/internal/logchannel"
)

// Server exposes the WebSocket command endpoint. Each accepted connection
// gets its own clientSession; sessions run independently of one another.
type Server struct {
	dispatcher *dispatch.Dispatcher
	logger     *logchannel.Logger
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New creates a server over the given dispatcher.
func New(dispatcher *dispatch.Dispatcher) *Server {
	return &Server{
		dispatcher: dispatcher,
		logger:     logchannel.Source("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin: func(*http.Request) bool {
				// Single-operator local deployment; the browser terminal is
				// served from the same host.
				return true
			},
		},
	}
}

// Handler returns the HTTP routes: the command WebSocket and a health
// probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	session := newClientSession(s.dispatcher, conn)
	s.logger.Info("session opened", map[string]any{
		"session": session.session.ID,
		"remote":  r.RemoteAddr,
	})
	go session.run()
}

// ListenAndServe blocks serving the endpoint on addr until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("listening", map[string]any{"addr": addr})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

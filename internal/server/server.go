package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbeaudoin/rates-relay/internal/session"
)

const maxMessageSize = 4096

// Config holds WebSocket server settings.
type Config struct {
	WriteTimeout time.Duration // Write deadline for outbound frames
	PingInterval time.Duration // Keepalive ping cadence
	PongWait     time.Duration // Max silence before a connection is dead
	Interval     time.Duration // Per-session streaming cadence
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 5 * time.Second,
		PingInterval: 50 * time.Second,
		PongWait:     60 * time.Second,
		Interval:     time.Second,
	}
}

// Server upgrades incoming requests and runs one session per client.
type Server struct {
	cfg    Config
	rates  session.Refresher
	logger *slog.Logger

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	active atomic.Int64
}

// New creates a Server. Call Start before serving requests.
func New(cfg Config, rates session.Refresher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		rates:  rates,
		logger: logger,
		upgrader: websocket.Upgrader{
			// The relay serves public market data; origin checks are an
			// authentication concern handled upstream of this process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start arms the server; sessions accepted afterwards live under ctx.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("websocket server started",
		"interval", s.cfg.Interval,
		"ping_interval", s.cfg.PingInterval,
	)
	return nil
}

// Stop cancels all session contexts and waits for them to drain.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("websocket server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveSessions reports the number of connected clients.
func (s *Server) ActiveSessions() int64 {
	return s.active.Load()
}

// ServeHTTP upgrades the request and hands the connection to a session.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.ctx == nil {
		http.Error(w, "server not started", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("websocket upgrade failed",
			"remote", r.RemoteAddr,
			"error", err,
		)
		return
	}

	s.wg.Add(1)
	go s.serve(conn)
}

// serve runs one connection to completion.
func (s *Server) serve(raw *websocket.Conn) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	raw.SetReadLimit(maxMessageSize)
	raw.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	conn := newWSConn(raw, s.cfg.WriteTimeout)
	defer conn.Close()

	go s.pingLoop(ctx, conn)

	s.active.Add(1)
	defer s.active.Add(-1)

	sess := session.New(conn, s.rates, s.cfg.Interval, s.logger)
	sess.Run(ctx)
}

// pingLoop keeps the connection alive until the session ends.
func (s *Server) pingLoop(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				s.logger.Debug("keepalive ping failed", "error", err)
				return
			}
		}
	}
}

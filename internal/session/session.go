package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbeaudoin/rates-relay/internal/model"
)

// Refresher produces the latest normalized snapshot, one call per cycle.
type Refresher interface {
	Refresh(ctx context.Context) (map[string]model.Quote, error)
}

// Session is the per-client state machine. One instance per connection;
// destroyed when the connection closes.
type Session struct {
	id       uuid.UUID
	conn     Conn
	rates    Refresher
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	state State

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a session over an accepted connection.
func New(conn Conn, rates Refresher, interval time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New()
	return &Session{
		id:       id,
		conn:     conn,
		rates:    rates,
		interval: interval,
		logger:   logger.With("session_id", id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run processes the connection until it closes or ctx is canceled.
// Inbound messages are handled in arrival order; the send loop, once
// subscribed, runs concurrently and owns the outbound data channel.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	// Unblock the pending read when the session context ends, so the
	// loop stops promptly instead of waiting for the next failed send.
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	s.logger.Info("client connected")

	s.readLoop(ctx)

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	s.logger.Info("client disconnected")
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(ctx, data)
	}
}

// handleMessage is the session boundary: whatever goes wrong inside,
// the client sees a well-formed error frame, never a raw failure.
func (s *Session) handleMessage(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("message handler panic", "panic", r)
			s.sendError(msgInternalError)
		}
	}()

	var req subscribeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendError(msgInvalidJSON)
		return
	}

	if req.Event != eventSubscribe || req.Channel != channelRates {
		s.sendError(msgInvalidFormat)
		return
	}

	s.subscribe(ctx)
}

// subscribe enters Subscribed and starts the send loop. Duplicate
// subscribes are idempotent: the loop is started at most once.
func (s *Session) subscribe(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		s.logger.Debug("duplicate subscribe ignored")
		return
	}
	s.state = StateSubscribed
	s.mu.Unlock()

	s.logger.Info("subscription received", "channel", channelRates)

	s.wg.Add(1)
	go s.sendLoop(ctx)
}

// sendLoop emits one data frame per cycle until the connection ends.
// Cycles are strictly sequential; frame N+1 is never sent before N.
func (s *Session) sendLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First cycle immediately on subscribe.
	if err := s.cycle(ctx); err != nil {
		s.teardown(err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.cycle(ctx); err != nil {
				s.teardown(err)
				return
			}
		}
	}
}

// cycle runs one refresh and sends the result. A refresh failure is
// transient (the next cycle retries); a send failure is not.
func (s *Session) cycle(ctx context.Context) error {
	quotes, err := s.rates.Refresh(ctx)
	if err != nil {
		s.logger.Error("refresh cycle aborted", "error", err)
		return nil
	}

	// An empty cycle sends nothing.
	if len(quotes) == 0 {
		return nil
	}

	return s.send(dataFrame{
		Channel: channelRates,
		Event:   eventData,
		Data:    quotes,
	})
}

func (s *Session) teardown(err error) {
	s.logger.Warn("send failed, closing session", "error", err)
	s.cancel()
}

func (s *Session) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(data)
}

func (s *Session) sendError(message string) {
	err := s.send(errorFrame{Event: eventError, Message: message})
	if err != nil {
		s.logger.Debug("failed to send error frame", "error", err)
	}
}

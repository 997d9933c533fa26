package session

import (
	"github.com/mbeaudoin/rates-relay/internal/model"
)

// Protocol field values.
const (
	eventSubscribe = "subscribe"
	eventData      = "data"
	eventError     = "error"
	channelRates   = "rates"
)

// Client-visible error messages. These are part of the wire protocol;
// clients match on them.
const (
	msgInvalidJSON   = "Invalid JSON format"
	msgInvalidFormat = "Invalid message format"
	msgInternalError = "Internal server error"
)

// subscribeRequest is the only meaningful inbound message.
type subscribeRequest struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
}

// dataFrame carries one cycle's quotes to the client.
type dataFrame struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]model.Quote `json:"data"`
}

// errorFrame reports a recoverable protocol or server error.
type errorFrame struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// State is the session lifecycle state.
type State int

const (
	// StateIdle is the entry state; no subscription yet.
	StateIdle State = iota

	// StateSubscribed means the send loop is running. Entered exactly
	// once per session.
	StateSubscribed

	// StateClosed is terminal, entered on connection teardown.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the duplex byte channel the transport layer hands to a
// session. Implementations must allow concurrent ReadMessage and
// WriteMessage calls, and unblock pending reads when closed.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// State is the lifecycle of the transport's connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

var stateNames = []string{"CONNECTING", "OPEN", "CLOSING", "CLOSED"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Frame is the wire envelope in both directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Frame types owned by the transport.
const (
	FramePing        = "ping"
	FramePong        = "pong"
	FrameTicketJoin  = "ticket_join"
	FrameTicketLeave = "ticket_leave"
)

const (
	writeWait    = 10 * time.Second
	readLimit    = 1 << 20
	handshakeTTL = 10 * time.Second
)

type Config struct {
	URL                  string
	PingInterval         time.Duration
	PongTimeout          time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	TokenPollInterval    time.Duration
}

// TokenSource reports the current auth token and whether it may be used.
type TokenSource interface {
	Token() (string, bool)
}

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// DefaultDialer returns the dialer used outside tests.
func DefaultDialer() Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTTL,
	}
}

type room struct {
	TicketID int64 `json:"ticket_id"`
	ClientID int64 `json:"client_id,omitempty"`
}

// Package socket is the client's single websocket to the CRM backend: token
// gated connects, heartbeat, bounded reconnects, typed frame fan-out and
// ticket room membership.
package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"leadsync/internal/infrastructure/metrics"
	"leadsync/internal/shared/goroutine"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/notify"
)

const exhaustedWarning = "Connection to the server was lost. Retrying stopped until you sign in again."

type listener[T any] struct {
	id uint64
	fn T
}

type Transport struct {
	cfg      Config
	tokens   TokenSource
	dialer   Dialer
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   logger.Interface

	mu    sync.Mutex
	conn  *connection
	state State
	room  *room

	lmu      sync.RWMutex
	nextID   uint64
	handlers map[string][]listener[func(json.RawMessage)]
	openFns  []listener[func()]
	stateFns []listener[func(State)]
}

func NewTransport(cfg Config, tokens TokenSource, dialer Dialer, notifier notify.Notifier, m *metrics.Metrics, log logger.Interface) *Transport {
	if dialer == nil {
		dialer = DefaultDialer()
	}
	if cfg.MaxReconnectAttempts < 1 {
		cfg.MaxReconnectAttempts = 1
	}
	return &Transport{
		cfg:      cfg,
		tokens:   tokens,
		dialer:   dialer,
		notifier: notifier,
		metrics:  m,
		logger:   log.Named("socket"),
		state:    StateClosed,
		handlers: make(map[string][]listener[func(json.RawMessage)]),
	}
}

// Start supervises the connection until ctx is done. It never dials
// without a usable token, and after MaxReconnectAttempts consecutive
// failures it idles until the token changes.
func (t *Transport) Start(ctx context.Context) error {
	delay := backoff.NewConstantBackOff(t.cfg.ReconnectDelay)
	attempts := 0
	exhaustedToken := ""
	connectedBefore := false

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		token, ok := t.tokens.Token()
		if !ok {
			exhaustedToken = ""
			attempts = 0
			if !sleep(ctx, t.cfg.TokenPollInterval) {
				return ctx.Err()
			}
			continue
		}
		if exhaustedToken != "" {
			if token == exhaustedToken {
				if !sleep(ctx, t.cfg.TokenPollInterval) {
					return ctx.Err()
				}
				continue
			}
			t.logger.Infow("token changed, reconnect cycle restarted")
			exhaustedToken = ""
			attempts = 0
		}

		t.setState(StateConnecting)
		conn, err := t.dial(ctx, token)
		if err != nil {
			t.setState(StateClosed)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempts++
			t.metrics.Reconnect(false)
			t.logger.Warnw("socket connect failed", "attempt", attempts, "error", err)
			if attempts >= t.cfg.MaxReconnectAttempts {
				exhaustedToken = token
				t.notifier.Warn(exhaustedWarning)
				continue
			}
			if !sleep(ctx, delay.NextBackOff()) {
				return ctx.Err()
			}
			continue
		}

		if connectedBefore {
			t.metrics.Reconnect(true)
		}
		connectedBefore = true
		attempts = 0

		reason := t.run(ctx, conn, token)
		t.setState(StateClosed)
		t.logger.Infow("socket closed", "reason", reason)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !sleep(ctx, delay.NextBackOff()) {
			return ctx.Err()
		}
	}
}

func (t *Transport) dial(ctx context.Context, token string) (*connection, error) {
	u, err := url.Parse(t.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, resp, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed: status=%d, err=%w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return newConnection(ws), nil
}

// run serves one connection and returns why it ended.
func (t *Transport) run(ctx context.Context, conn *connection, token string) string {
	t.mu.Lock()
	t.conn = conn
	joined := t.room
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
		}
		t.mu.Unlock()
		conn.close()
	}()

	t.setState(StateOpen)
	if joined != nil {
		t.sendOn(conn, FrameTicketJoin, joined)
	}
	t.fireOpen()

	readDone := make(chan error, 1)
	goroutine.SafeGo(t.logger, "socket-read", func() {
		readDone <- t.readLoop(conn)
	})

	ping := time.NewTicker(t.cfg.PingInterval)
	defer ping.Stop()
	poll := time.NewTicker(t.cfg.TokenPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			t.setState(StateClosing)
			return "shutdown"
		case err := <-readDone:
			return fmt.Sprintf("read: %v", err)
		case <-conn.done:
			return "heartbeat timeout"
		case <-ping.C:
			if !t.sendOn(conn, FramePing, nil) {
				return "ping failed"
			}
			conn.armPong(t.cfg.PongTimeout, func() {
				t.metrics.HeartbeatTimeout()
				t.logger.Warnw("no pong within timeout, closing socket", "timeout", t.cfg.PongTimeout)
				conn.close()
			})
		case <-poll.C:
			if current, ok := t.tokens.Token(); !ok || current != token {
				t.setState(StateClosing)
				return "token changed or revoked"
			}
		}
	}
}

func (t *Transport) readLoop(conn *connection) error {
	for {
		_, payload, err := conn.ws.ReadMessage()
		if err != nil {
			return err
		}
		var f Frame
		if err := json.Unmarshal(payload, &f); err != nil || f.Type == "" {
			t.logger.Debugw("malformed frame ignored", "error", err)
			continue
		}
		if f.Type == FramePong {
			conn.disarmPong()
		}
		t.metrics.FrameIn(f.Type)
		t.dispatch(f)
	}
}

func (t *Transport) dispatch(f Frame) {
	t.lmu.RLock()
	targets := append([]listener[func(json.RawMessage)](nil), t.handlers[f.Type]...)
	t.lmu.RUnlock()

	for _, l := range targets {
		goroutine.SafeCall(t.logger, "socket:"+f.Type, func() { l.fn(f.Data) })
	}
}

// Send writes one frame when the socket is OPEN and reports whether it did.
func (t *Transport) Send(frameType string, data any) bool {
	t.mu.Lock()
	conn, state := t.conn, t.state
	t.mu.Unlock()
	if conn == nil || state != StateOpen {
		return false
	}
	return t.sendOn(conn, frameType, data)
}

func (t *Transport) sendOn(conn *connection, frameType string, data any) bool {
	f := Frame{Type: frameType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.logger.Errorw("failed to encode frame", "type", frameType, "error", err)
			return false
		}
		f.Data = raw
	}
	if err := conn.write(f); err != nil {
		t.logger.Warnw("failed to send frame", "type", frameType, "error", err)
		return false
	}
	t.metrics.FrameOut(frameType)
	return true
}

// JoinRoom subscribes to a ticket room. The room is remembered and joined
// again on every reconnect.
func (t *Transport) JoinRoom(ticketID, clientID int64) bool {
	r := &room{TicketID: ticketID, ClientID: clientID}
	t.mu.Lock()
	t.room = r
	t.mu.Unlock()
	return t.Send(FrameTicketJoin, r)
}

// LeaveRoom leaves a ticket room and forgets it if it was the joined one.
func (t *Transport) LeaveRoom(ticketID, clientID int64) bool {
	t.mu.Lock()
	if t.room != nil && t.room.TicketID == ticketID {
		t.room = nil
	}
	t.mu.Unlock()
	return t.Send(FrameTicketLeave, &room{TicketID: ticketID, ClientID: clientID})
}

// SwitchRoom moves to another ticket room, leaving the previous one only
// when it differs.
func (t *Transport) SwitchRoom(ticketID, clientID int64) {
	t.mu.Lock()
	prev := t.room
	t.mu.Unlock()

	if prev != nil && prev.TicketID == ticketID && prev.ClientID == clientID {
		return
	}
	if prev != nil && prev.TicketID != ticketID {
		t.LeaveRoom(prev.TicketID, prev.ClientID)
	}
	t.JoinRoom(ticketID, clientID)
}

// Room returns the joined ticket, zero when none.
func (t *Transport) Room() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.room == nil {
		return 0
	}
	return t.room.TicketID
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) setState(s State) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()

	t.metrics.SetSocketState(s.String(), stateNames)
	t.lmu.RLock()
	targets := append([]listener[func(State)](nil), t.stateFns...)
	t.lmu.RUnlock()
	for _, l := range targets {
		goroutine.SafeCall(t.logger, "socket-state", func() { l.fn(s) })
	}
}

func (t *Transport) fireOpen() {
	t.lmu.RLock()
	targets := append([]listener[func()](nil), t.openFns...)
	t.lmu.RUnlock()
	for _, l := range targets {
		goroutine.SafeCall(t.logger, "socket-open", l.fn)
	}
}

// On registers fn for frames of frameType. The returned func removes it.
func (t *Transport) On(frameType string, fn func(data json.RawMessage)) func() {
	t.lmu.Lock()
	t.nextID++
	id := t.nextID
	t.handlers[frameType] = append(t.handlers[frameType], listener[func(json.RawMessage)]{id: id, fn: fn})
	t.lmu.Unlock()

	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		t.handlers[frameType] = without(t.handlers[frameType], id)
		if len(t.handlers[frameType]) == 0 {
			delete(t.handlers, frameType)
		}
	}
}

// OnOpen registers fn for every transition to OPEN, after the room replay.
func (t *Transport) OnOpen(fn func()) func() {
	t.lmu.Lock()
	t.nextID++
	id := t.nextID
	t.openFns = append(t.openFns, listener[func()]{id: id, fn: fn})
	t.lmu.Unlock()

	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		t.openFns = without(t.openFns, id)
	}
}

func (t *Transport) OnStateChange(fn func(State)) func() {
	t.lmu.Lock()
	t.nextID++
	id := t.nextID
	t.stateFns = append(t.stateFns, listener[func(State)]{id: id, fn: fn})
	t.lmu.Unlock()

	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		t.stateFns = without(t.stateFns, id)
	}
}

// ListenerCount returns how many frame handlers are registered.
func (t *Transport) ListenerCount() int {
	t.lmu.RLock()
	defer t.lmu.RUnlock()
	n := 0
	for _, list := range t.handlers {
		n += len(list)
	}
	return n
}

func without[T any](list []listener[T], id uint64) []listener[T] {
	out := list[:0:0]
	for _, l := range list {
		if l.id != id {
			out = append(out, l)
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ Dialer = (*websocket.Dialer)(nil)

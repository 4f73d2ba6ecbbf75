package socket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection wraps one websocket. All writes go through write so gorilla's
// single-writer rule holds.
type connection struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	pongMu    sync.Mutex
	pongTimer *time.Timer

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(ws *websocket.Conn) *connection {
	ws.SetReadLimit(readLimit)
	return &connection{ws: ws, done: make(chan struct{})}
}

func (c *connection) write(f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", f.Type, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Type, err)
	}
	return nil
}

// armPong starts the pong deadline unless one is already running.
func (c *connection) armPong(timeout time.Duration, onTimeout func()) {
	c.pongMu.Lock()
	defer c.pongMu.Unlock()
	if c.pongTimer != nil {
		return
	}
	c.pongTimer = time.AfterFunc(timeout, onTimeout)
}

func (c *connection) disarmPong() {
	c.pongMu.Lock()
	defer c.pongMu.Unlock()
	if c.pongTimer != nil {
		c.pongTimer.Stop()
		c.pongTimer = nil
	}
}

// close sends a close frame, stops the pong timer and drops the socket.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.disarmPong()
		c.writeMu.Lock()
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
}

// Package chatws is the websocket chat transport. It owns connections
// and translates between JSON envelopes and room calls; room internals
// never see websockets or envelope shapes.
package chatws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dkeye/Warden/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn adapts a websocket to core.Conn. Room text goes out wrapped in
// a message envelope; a full send buffer drops the frame rather than
// blocking the room.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newWSConn(ws *websocket.Conn, buffer int) *wsConn {
	return &wsConn{conn: ws, send: make(chan []byte, buffer)}
}

func (c *wsConn) TrySend(f core.Frame) error {
	payload, err := json.Marshal(outEnvelope{Type: "message", Text: string(f)})
	if err != nil {
		return err
	}
	return c.trySendRaw(payload)
}

func (c *wsConn) trySendRaw(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- payload:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

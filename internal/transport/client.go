package transport

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// client is one registered session's outbound side: a buffered frame
// channel drained by a dedicated write goroutine. A full buffer drops the
// frame rather than blocking the hub.
type client struct {
	connID string
	conn   *Conn

	mu     sync.Mutex
	outbox chan []byte
	closed bool
}

func newClient(connID string, conn *Conn, bufferSize int) *client {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &client{
		connID: connID,
		conn:   conn,
		outbox: make(chan []byte, bufferSize),
	}
}

// enqueue queues a frame for the write loop.
//
// Postcondition: The frame is enqueued, or an error if the client is
// closed or its buffer is full.
func (c *client) enqueue(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client %s is closed", c.connID)
	}
	select {
	case c.outbox <- frame:
		return nil
	default:
		return fmt.Errorf("client %s outbox full", c.connID)
	}
}

// writeLoop drains the outbox onto the socket until the client closes.
func (c *client) writeLoop(logger *zap.Logger) {
	for frame := range c.outbox {
		if err := c.conn.WriteFrame(frame); err != nil {
			logger.Debug("write failed, closing client",
				zap.String("conn_id", c.connID), zap.Error(err))
			_ = c.conn.Close()
			return
		}
	}
}

// close stops the write loop and closes the socket. Safe to call twice.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbox)
	_ = c.conn.Close()
}

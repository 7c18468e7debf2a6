// Package transport accepts TCP connections, runs the authentication
// handshake, and maintains the client table the hub broadcasts through.
// Frames are single JSON objects, one per line.
package transport

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"
)

// Conn wraps a TCP connection with newline-delimited JSON framing.
// Writes are mutex-guarded so the write loop and the handshake never
// interleave partial frames.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn ready for reading and writing.
func NewConn(raw net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		writeTimeout: writeTimeout,
	}
}

// ReadFrame reads the next line and returns it without the trailing
// newline. Carriage returns are stripped for clients that send \r\n.
// The read blocks indefinitely: a seated player may legitimately sit
// silent through many turns, so idleness never ends a session.
//
// Postcondition: Returns the next frame, or an error (including io.EOF).
func (c *Conn) ReadFrame() ([]byte, error) {
	_ = c.raw.SetReadDeadline(time.Time{})
	return c.readLine()
}

// ReadFrameWithin reads the next line under a deadline. Used during the
// handshake, where a silent dialer must not hold a slot open.
//
// Postcondition: Returns the next frame, or a timeout error after d.
func (c *Conn) ReadFrameWithin(d time.Duration) ([]byte, error) {
	if d > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(d))
	}
	return c.readLine()
}

func (c *Conn) readLine() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// WriteFrame sends one frame followed by a newline.
//
// Precondition: data must not contain a newline.
// Postcondition: data + \n is written to the connection.
func (c *Conn) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	_, err := c.raw.Write(buf)
	return err
}

// Close closes the underlying TCP connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

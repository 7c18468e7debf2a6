package testutil

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/kmorita/daifugo/internal/wire"
)

// Client is a line-protocol test client speaking the room's JSON framing.
type Client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to a running acceptor.
//
// Postcondition: Returns a connected Client, or fails the test. The
// connection is closed automatically at cleanup.
func Dial(t *testing.T, addr string) *Client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dialing %s: %v", addr, err)
	}
	c := &Client{t: t, conn: conn, reader: bufio.NewReader(conn)}
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

// Login sends the hello frame and returns the token reply.
func (c *Client) Login(name, password string) string {
	c.t.Helper()
	c.sendJSON(wire.Hello{Name: name, Password: password})
	resp, err := wire.DecodeAuthResponse(c.readFrame())
	if err != nil {
		c.t.Fatalf("decoding auth response: %v", err)
	}
	return resp.Token
}

// Send encodes and sends one inbound message.
func (c *Client) Send(m wire.Message) {
	c.t.Helper()
	frame, err := wire.Encode(m)
	if err != nil {
		c.t.Fatalf("encoding message: %v", err)
	}
	c.sendRaw(frame)
}

// SendText sends a plain text frame, including control strings.
func (c *Client) SendText(text string) {
	c.t.Helper()
	c.Send(wire.Text(text))
}

// ReadPayload reads and decodes the next outbound frame.
func (c *Client) ReadPayload() wire.Payload {
	c.t.Helper()
	p, err := wire.DecodePayload(c.readFrame())
	if err != nil {
		c.t.Fatalf("decoding payload: %v", err)
	}
	return p
}

// ReadPayloadUntil reads frames until pred matches or the deadline hits.
func (c *Client) ReadPayloadUntil(pred func(wire.Payload) bool, timeout time.Duration) wire.Payload {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p := c.ReadPayload()
		if pred(p) {
			return p
		}
	}
	c.t.Fatalf("no matching payload within %s", timeout)
	return nil
}

// Close closes the connection immediately, simulating a drop.
func (c *Client) Close() {
	_ = c.conn.Close()
}

func (c *Client) sendJSON(v any) {
	c.t.Helper()
	frame, err := json.Marshal(v)
	if err != nil {
		c.t.Fatalf("marshaling frame: %v", err)
	}
	c.sendRaw(frame)
}

func (c *Client) sendRaw(frame []byte) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write(append(frame, '\n')); err != nil {
		c.t.Fatalf("writing frame: %v", err)
	}
}

func (c *Client) readFrame() []byte {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		c.t.Fatalf("reading frame: %v", err)
	}
	return line[:len(line)-1]
}

package transport

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/wire"
)

// TestConn_FrameRoundTrip verifies newline framing in both directions,
// including \r\n tolerance.
func TestConn_FrameRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := NewConn(server, time.Second)

	go func() {
		_, _ = client.Write([]byte("{\"kind\":\"text\",\"text\":\"hi\"}\r\n"))
	}()

	frame, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"text","text":"hi"}`, string(frame))

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()
	require.NoError(t, conn.WriteFrame([]byte(`{"kind":"notice"}`)))
	assert.Equal(t, "{\"kind\":\"notice\"}\n", string(<-done))
}

// TestConn_HandshakeReadDeadline verifies a silent dialer trips the
// bounded handshake read.
func TestConn_HandshakeReadDeadline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := NewConn(server, time.Second)

	_, err := conn.ReadFrameWithin(20 * time.Millisecond)
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

// TestConn_SteadyStateReadIsUnbounded verifies ReadFrame clears any
// deadline left over from the handshake: a player may sit silent through
// other turns far longer than the handshake bound without the session
// timing out.
func TestConn_SteadyStateReadIsUnbounded(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := NewConn(server, time.Second)

	_, err := conn.ReadFrameWithin(10 * time.Millisecond)
	require.Error(t, err, "the armed deadline must fire first")

	go func() {
		time.Sleep(50 * time.Millisecond) // well past the expired deadline
		_, _ = client.Write([]byte("{\"kind\":\"flag\",\"flag\":true}\n"))
	}()

	frame, err := conn.ReadFrame()
	require.NoError(t, err, "an idle session must not hit a read deadline")
	assert.Equal(t, `{"kind":"flag","flag":true}`, string(frame))
}

// TestClient_DropsWhenOutboxFull verifies the slow-client policy: a full
// buffer rejects the frame instead of blocking the sender.
func TestClient_DropsWhenOutboxFull(t *testing.T) {
	server, _ := net.Pipe()
	defer server.Close()

	c := newClient("conn-1", NewConn(server, time.Second), 2)

	require.NoError(t, c.enqueue([]byte("one")))
	require.NoError(t, c.enqueue([]byte("two")))
	assert.Error(t, c.enqueue([]byte("three")), "a full outbox must drop, not block")
}

// TestClient_CloseIsIdempotent verifies repeated closes and post-close
// enqueues are safe.
func TestClient_CloseIsIdempotent(t *testing.T) {
	server, _ := net.Pipe()

	c := newClient("conn-1", NewConn(server, time.Second), 2)
	c.close()
	c.close()

	assert.Error(t, c.enqueue([]byte("late")), "a closed client must reject frames")
}

// TestRegistry_SendToOneAndAll verifies addressing through the client
// table, with unknown identities dropped silently.
func TestRegistry_SendToOneAndAll(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	aServer, aClient := net.Pipe()
	bServer, bClient := net.Pipe()
	defer aClient.Close()
	defer bClient.Close()

	a := newClient("conn-a", NewConn(aServer, time.Second), 8)
	b := newClient("conn-b", NewConn(bServer, time.Second), 8)
	require.NoError(t, reg.add("alice", a))
	require.NoError(t, reg.add("bob", b))
	assert.Error(t, reg.add("alice", a), "double registration must be rejected")
	assert.Equal(t, 2, reg.Count())

	reg.SendToOne("alice", wire.Notice("just you"))
	assert.Len(t, a.outbox, 1)
	assert.Len(t, b.outbox, 0)

	reg.SendToAll(wire.Notice("everyone"))
	assert.Len(t, a.outbox, 2)
	assert.Len(t, b.outbox, 1)

	reg.SendToOne("ghost", wire.Notice("nobody"))

	ids := reg.ConnectedIDs()
	assert.ElementsMatch(t, []wire.Identity{"alice", "bob"}, ids)

	reg.remove("alice")
	assert.Equal(t, 1, reg.Count())
	reg.SendToOne("alice", wire.Notice("gone")) // dropped silently
}

// TestRegistry_ResetOutputKeepsQueuedFrames verifies the broadcast
// sequence standings, reset, join notice delivers every frame in order
// even when the client's write loop is still blocked mid-write: a reset
// renews encoder state, it never destroys undelivered output.
func TestRegistry_ResetOutputKeepsQueuedFrames(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	server, client := net.Pipe()
	defer client.Close()

	c := newClient("conn-a", NewConn(server, 2*time.Second), 8)
	require.NoError(t, reg.add("alice", c))
	go c.writeLoop(zap.NewNop())

	// Nobody reads the pipe yet, so the write loop blocks on the first
	// frame and the second stays queued across the reset.
	reg.SendToAll(wire.Standings{{Name: "alice", Points: 0}})
	reg.ResetOutput()
	reg.SendToAll(wire.Joined{Name: "alice"})

	reader := bufio.NewReader(client)
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))

	first, err := reader.ReadBytes('\n')
	require.NoError(t, err)
	p, err := wire.DecodePayload(first[:len(first)-1])
	require.NoError(t, err)
	assert.IsType(t, wire.Standings{}, p, "the standings frame must survive the reset")

	second, err := reader.ReadBytes('\n')
	require.NoError(t, err)
	p, err = wire.DecodePayload(second[:len(second)-1])
	require.NoError(t, err)
	assert.Equal(t, wire.Joined{Name: "alice"}, p)
}

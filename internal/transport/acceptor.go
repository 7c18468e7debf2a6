package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/config"
	"github.com/kmorita/daifugo/internal/tracker"
	"github.com/kmorita/daifugo/internal/wire"
)

// defaultHandshakeTimeout bounds the hello/token exchange when the
// configuration leaves it unset.
const defaultHandshakeTimeout = 10 * time.Second

// Coordinator receives session events after authentication. The hub
// implements this by posting to its inbox.
type Coordinator interface {
	Connected(id wire.Identity)
	Disconnected(id wire.Identity)
	Inbound(id wire.Identity, m wire.Message)
}

// Acceptor listens for room connections on a TCP port, performs the
// authentication handshake, and runs the per-session read loop.
type Acceptor struct {
	cfg    config.ServerConfig
	trk    tracker.Tracker
	coord  Coordinator
	reg    *Registry
	logger *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewAcceptor creates an acceptor for the configured room port.
//
// Precondition: cfg must have a valid port; all collaborators non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg config.ServerConfig, trk tracker.Tracker, coord Coordinator, reg *Registry, logger *zap.Logger) *Acceptor {
	return &Acceptor{
		cfg:    cfg,
		trk:    trk,
		coord:  coord,
		reg:    reg,
		logger: logger,
		quit:   make(chan struct{}),
	}
}

// ListenAndServe starts the TCP listener and accepts connections until
// Stop is called. This method blocks until the acceptor is stopped.
//
// Precondition: The acceptor must not already be running.
// Postcondition: The listener is closed when this method returns.
func (a *Acceptor) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	a.listener = listener
	a.running = true
	a.mu.Unlock()

	a.logger.Info("room acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-a.quit:
				return nil
			default:
				a.logger.Error("accepting connection", zap.Error(err))
				continue
			}
		}

		a.wg.Add(1)
		go a.handleConn(conn)
	}
}

// handleConn runs one connection: handshake, registration, read loop,
// then teardown.
func (a *Acceptor) handleConn(raw net.Conn) {
	defer a.wg.Done()
	start := time.Now()
	addr := raw.RemoteAddr().String()
	connID := uuid.NewString()

	a.logger.Info("client connected",
		zap.String("remote_addr", addr),
		zap.String("conn_id", connID),
	)

	conn := NewConn(raw, a.cfg.WriteTimeout)

	id, ok := a.handshake(conn, connID)
	if !ok {
		_ = conn.Close()
		return
	}

	c := newClient(connID, conn, a.cfg.OutboxBuffer)
	if err := a.reg.add(id, c); err != nil {
		a.logger.Warn("registration rejected",
			zap.String("id", string(id)), zap.Error(err))
		_ = conn.Close()
		return
	}
	go c.writeLoop(a.logger)

	a.coord.Connected(id)
	a.readLoop(conn, id, connID)

	a.reg.remove(id)
	a.coord.Disconnected(id)

	a.logger.Info("session ended",
		zap.String("id", string(id)),
		zap.String("conn_id", connID),
		zap.Duration("duration", time.Since(start)),
	)
}

// handshake reads the hello frame, consults the tracker, and writes the
// single token reply. Only an Authenticated outcome proceeds. The
// handshake is the only deadline-bounded read of a session; once a
// client is authenticated its reads block until it speaks or hangs up.
func (a *Acceptor) handshake(conn *Conn, connID string) (wire.Identity, bool) {
	timeout := a.cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	frame, err := conn.ReadFrameWithin(timeout)
	if err != nil {
		a.logger.Debug("handshake read failed", zap.String("conn_id", connID), zap.Error(err))
		return "", false
	}

	var hello wire.Hello
	if err := json.Unmarshal(frame, &hello); err != nil || hello.Name == "" {
		a.writeToken(conn, connID, wire.TokenClosedError)
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := a.trk.Authenticate(ctx, hello.Name, hello.Password, a.cfg.Port)
	if err != nil {
		a.logger.Error("authentication failed",
			zap.String("conn_id", connID),
			zap.String("name", hello.Name),
			zap.Error(err),
		)
		a.writeToken(conn, connID, wire.TokenClosedError)
		return "", false
	}

	a.logger.Info("authentication result",
		zap.String("conn_id", connID),
		zap.String("name", hello.Name),
		zap.Stringer("result", result),
	)
	a.writeToken(conn, connID, result.Token())

	if result != tracker.Authenticated {
		return "", false
	}
	return wire.Identity(hello.Name), true
}

func (a *Acceptor) writeToken(conn *Conn, connID, token string) {
	frame, err := wire.EncodeAuthResponse(token)
	if err != nil {
		a.logger.Error("token encode failed", zap.String("conn_id", connID), zap.Error(err))
		return
	}
	if err := conn.WriteFrame(frame); err != nil {
		a.logger.Debug("token write failed", zap.String("conn_id", connID), zap.Error(err))
	}
}

// readLoop decodes inbound frames and posts them to the coordinator until
// the connection errors out. Malformed frames are logged and skipped.
func (a *Acceptor) readLoop(conn *Conn, id wire.Identity, connID string) {
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			a.logger.Debug("read loop ended",
				zap.String("id", string(id)),
				zap.String("conn_id", connID),
				zap.Error(err),
			)
			return
		}
		if len(frame) == 0 {
			continue
		}
		msg, err := wire.Decode(frame)
		if err != nil {
			a.logger.Warn("discarding malformed frame",
				zap.String("id", string(id)), zap.Error(err))
			continue
		}
		a.coord.Inbound(id, msg)
	}
}

// Stop gracefully stops the acceptor, closing the listener and every
// registered client, then waiting for all sessions to finish.
//
// Postcondition: All connections are closed and goroutines have exited.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.running = false

	close(a.quit)
	if a.listener != nil {
		a.listener.Close()
	}
	a.reg.closeAll()
	a.wg.Wait()

	a.logger.Info("room acceptor stopped")
}

// Addr returns the actual listening address, or empty string if not yet
// listening.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// IsRunning reports whether the acceptor is currently accepting connections.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

package transport

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/wire"
)

// Registry is the table of registered (authenticated) clients. It is the
// hub's outbound surface: SendToOne, SendToAll, ResetOutput, ConnectedIDs.
type Registry struct {
	mu      sync.RWMutex
	clients map[wire.Identity]*client
	logger  *zap.Logger
}

// NewRegistry creates an empty client table.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		clients: make(map[wire.Identity]*client),
		logger:  logger,
	}
}

// add registers a client under its identity.
//
// Postcondition: The client is registered, or an error if the identity is
// already present.
func (r *Registry) add(id wire.Identity, c *client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; ok {
		return fmt.Errorf("identity %s already registered", id)
	}
	r.clients[id] = c
	return nil
}

// remove deregisters and closes the client for id, if any.
func (r *Registry) remove(id wire.Identity) {
	r.mu.Lock()
	c, ok := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if ok {
		c.close()
	}
}

// SendToOne delivers a payload to a single identity. Unknown identities
// and full outboxes drop the frame.
func (r *Registry) SendToOne(id wire.Identity, p wire.Payload) {
	frame, err := wire.EncodePayload(p)
	if err != nil {
		r.logger.Error("payload encode failed", zap.Error(err))
		return
	}
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.enqueue(frame); err != nil {
		r.logger.Warn("dropping frame", zap.String("id", string(id)), zap.Error(err))
	}
}

// SendToAll delivers a payload to every registered client. Slow clients
// drop the frame rather than stalling the rest.
func (r *Registry) SendToAll(p wire.Payload) {
	frame, err := wire.EncodePayload(p)
	if err != nil {
		r.logger.Error("payload encode failed", zap.Error(err))
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if err := c.enqueue(frame); err != nil {
			r.logger.Warn("dropping frame", zap.String("id", string(id)), zap.Error(err))
		}
	}
}

// ResetOutput renews per-client encoder state between broadcast
// sequences. Frames here are self-contained JSON objects with no shared
// stream state, so there is nothing to renew; queued frames are never
// discarded.
func (r *Registry) ResetOutput() {}

// ConnectedIDs returns the registered identities in no particular order.
func (r *Registry) ConnectedIDs() []wire.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]wire.Identity, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of registered clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// closeAll closes every registered client. Used during shutdown so read
// loops unblock and drain.
func (r *Registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.close()
		delete(r.clients, id)
	}
}

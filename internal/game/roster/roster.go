// Package roster tracks the connected, seated, and spectating views over
// one room's participants.
package roster

import (
	"fmt"
	"slices"

	"github.com/kmorita/daifugo/internal/wire"
)

// Role classifies a connected identity relative to the current round.
type Role string

const (
	// RoleSeated marks an identity participating in the current round.
	RoleSeated Role = "seated"
	// RoleSpectating marks a connected identity that is not seated.
	RoleSpectating Role = "spectating"
)

// Roster is the ordered bookkeeping of one room's participants.
//
// connected holds every identity with a live session, in session-slot
// order; seated holds the subset playing the current round, in turn order.
// Invariant: seated ⊆ connected. Not safe for concurrent use; the hub
// goroutine owns it.
type Roster struct {
	connected []wire.Identity
	seated    []wire.Identity
}

// New creates an empty Roster.
func New() *Roster {
	return &Roster{}
}

// ConnectedIDs returns the connected identities in session-slot order.
//
// Postcondition: Returns a copy; mutating it does not affect the roster.
func (r *Roster) ConnectedIDs() []wire.Identity {
	return slices.Clone(r.connected)
}

// SeatedIDs returns the seated identities in turn order.
//
// Postcondition: Returns a copy; mutating it does not affect the roster.
func (r *Roster) SeatedIDs() []wire.Identity {
	return slices.Clone(r.seated)
}

// IsConnected reports whether id holds a live session.
func (r *Roster) IsConnected(id wire.Identity) bool {
	return slices.Contains(r.connected, id)
}

// IsSeated reports whether id is part of the current round.
func (r *Roster) IsSeated(id wire.Identity) bool {
	return slices.Contains(r.seated, id)
}

// AddConnected appends id to the connected view.
//
// Precondition: id must be non-empty.
// Postcondition: id is connected, or an error if it already was.
func (r *Roster) AddConnected(id wire.Identity) error {
	if slices.Contains(r.connected, id) {
		return fmt.Errorf("identity %q already connected", id)
	}
	r.connected = append(r.connected, id)
	return nil
}

// RemoveConnected removes id from both views.
//
// Postcondition: id is neither connected nor seated. Returns an error if it
// was not connected.
func (r *Roster) RemoveConnected(id wire.Identity) error {
	i := slices.Index(r.connected, id)
	if i < 0 {
		return fmt.Errorf("identity %q not connected", id)
	}
	r.connected = slices.Delete(r.connected, i, i+1)
	if j := slices.Index(r.seated, id); j >= 0 {
		r.seated = slices.Delete(r.seated, j, j+1)
	}
	return nil
}

// SetSeated replaces the seated view with ids, preserving the given turn
// order. Identities that are not connected are dropped to keep the
// seated ⊆ connected invariant.
//
// Postcondition: Every seated identity is connected.
func (r *Roster) SetSeated(ids []wire.Identity) {
	seated := make([]wire.Identity, 0, len(ids))
	for _, id := range ids {
		if slices.Contains(r.connected, id) && !slices.Contains(seated, id) {
			seated = append(seated, id)
		}
	}
	r.seated = seated
}

// ClearSeated empties the seated view (between rounds).
func (r *Roster) ClearSeated() {
	r.seated = nil
}

// Classify returns the role of a connected identity. Classification is by
// set membership, never by positional alignment between the two views —
// except that when the views have equal cardinality every connected
// identity counts as seated (a round with no spectators, where the seated
// list may be a reordering of the connected list).
func (r *Roster) Classify(id wire.Identity) Role {
	if len(r.connected) == len(r.seated) {
		return RoleSeated
	}
	if r.IsSeated(id) {
		return RoleSeated
	}
	return RoleSpectating
}

// SpectatingIDs returns the connected identities that are not seated, in
// session-slot order.
func (r *Roster) SpectatingIDs() []wire.Identity {
	if len(r.connected) == len(r.seated) {
		return nil
	}
	var out []wire.Identity
	for _, id := range r.connected {
		if !r.IsSeated(id) {
			out = append(out, id)
		}
	}
	return out
}

// ConnectedCount returns the number of live sessions.
func (r *Roster) ConnectedCount() int { return len(r.connected) }

// SeatedCount returns the number of seated players.
func (r *Roster) SeatedCount() int { return len(r.seated) }

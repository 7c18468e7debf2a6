// Package turn holds the turn cursor: the single pointer to the identity
// whose turn it is, and the successor arithmetic over the seated order.
package turn

import (
	"errors"
	"slices"

	"github.com/kmorita/daifugo/internal/wire"
)

// ErrNoSeated is returned by PeekNext when no player is seated.
var ErrNoSeated = errors.New("no seated players")

// Cursor points at the identity whose turn it currently is. The zero value
// has no current holder. Not safe for concurrent use; the hub goroutine
// owns it.
//
// Invariant: when present, the holder is a member of the seated order the
// cursor was last advanced over. The cursor is never auto-advanced on
// structural seated changes — a forfeit restarts the round instead.
type Cursor struct {
	current wire.Identity
	present bool
}

// Current returns the current turn holder.
//
// Postcondition: Returns (holder, true) when a holder is set, or ("", false)
// when no player holds the turn.
func (c *Cursor) Current() (wire.Identity, bool) {
	return c.current, c.present
}

// Holds reports whether id is the current turn holder. An absent holder
// matches no identity.
func (c *Cursor) Holds(id wire.Identity) bool {
	return c.present && c.current == id
}

// Set makes id the current holder.
//
// Precondition: id must be non-empty.
func (c *Cursor) Set(id wire.Identity) {
	c.current = id
	c.present = true
}

// Clear removes the current holder.
func (c *Cursor) Clear() {
	c.current = ""
	c.present = false
}

// Advance moves the cursor to the seated identity after the current holder,
// wrapping to the first at the end of the order. When the holder is absent
// or no longer seated, the first seated identity becomes the holder. An
// empty seated order clears the cursor.
//
// Postcondition: The holder is a member of seated, or absent when seated is
// empty. Never panics.
func (c *Cursor) Advance(seated []wire.Identity) {
	if len(seated) == 0 {
		c.Clear()
		return
	}
	if !c.present {
		c.Set(seated[0])
		return
	}
	i := slices.Index(seated, c.current)
	if i < 0 {
		// Holder left the seated order; fall back to the first player.
		c.Set(seated[0])
		return
	}
	c.Set(seated[(i+1)%len(seated)])
}

// PeekNext returns the identity Advance would select, without moving the
// cursor. Used to tell a player they are on deck.
//
// Precondition: seated must be non-empty.
// Postcondition: Returns the successor identity, or ErrNoSeated.
func (c *Cursor) PeekNext(seated []wire.Identity) (wire.Identity, error) {
	if len(seated) == 0 {
		return "", ErrNoSeated
	}
	if !c.present {
		return seated[0], nil
	}
	i := slices.Index(seated, c.current)
	if i < 0 {
		return seated[0], nil
	}
	return seated[(i+1)%len(seated)], nil
}

// IndexOf returns the position of the current holder within the seated
// order, or 0 when the holder is absent or not seated. The zero fallback
// mirrors the legacy behavior of defaulting to the first position rather
// than signalling "unknown".
func (c *Cursor) IndexOf(seated []wire.Identity) int {
	if !c.present {
		return 0
	}
	if i := slices.Index(seated, c.current); i >= 0 {
		return i
	}
	return 0
}

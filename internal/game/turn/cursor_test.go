package turn_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kmorita/daifugo/internal/game/turn"
	"github.com/kmorita/daifugo/internal/wire"
)

func seatedOrder(n int) []wire.Identity {
	out := make([]wire.Identity, n)
	for i := range out {
		out[i] = wire.Identity(fmt.Sprintf("player-%d", i))
	}
	return out
}

// TestCursor_ZeroValue verifies that a fresh cursor has no holder and
// matches no identity.
func TestCursor_ZeroValue(t *testing.T) {
	var c turn.Cursor

	_, ok := c.Current()
	assert.False(t, ok, "zero cursor must have no holder")
	assert.False(t, c.Holds("anyone"), "absent holder must match no identity")
}

// TestCursor_AdvanceFromAbsent verifies that the first advance assigns the
// first seated identity.
func TestCursor_AdvanceFromAbsent(t *testing.T) {
	var c turn.Cursor
	seated := seatedOrder(3)

	c.Advance(seated)

	holder, ok := c.Current()
	require.True(t, ok, "advance over a non-empty order must set a holder")
	assert.Equal(t, seated[0], holder, "first advance must land on the first seated identity")
}

// TestCursor_AdvanceWrapsAround verifies the successor arithmetic wraps at
// the end of the seated order.
func TestCursor_AdvanceWrapsAround(t *testing.T) {
	var c turn.Cursor
	seated := seatedOrder(3)

	c.Set(seated[2])
	c.Advance(seated)

	holder, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, seated[0], holder, "advance from the last seat must wrap to the first")
}

// TestCursor_AdvanceFallbackToFirst verifies that a holder no longer in
// the seated order falls back to the first seated identity.
func TestCursor_AdvanceFallbackToFirst(t *testing.T) {
	var c turn.Cursor
	seated := seatedOrder(3)

	c.Set("departed")
	c.Advance(seated)

	holder, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, seated[0], holder, "unknown holder must fall back to the first seat")
}

// TestCursor_AdvanceEmptyClears verifies that advancing over an empty
// order clears the cursor instead of panicking.
func TestCursor_AdvanceEmptyClears(t *testing.T) {
	var c turn.Cursor
	c.Set("someone")

	c.Advance(nil)

	_, ok := c.Current()
	assert.False(t, ok, "empty seated order must clear the holder")
}

// TestCursor_PeekNext verifies the successor preview without moving the
// cursor.
func TestCursor_PeekNext(t *testing.T) {
	var c turn.Cursor
	seated := seatedOrder(3)
	c.Set(seated[0])

	next, err := c.PeekNext(seated)
	require.NoError(t, err)
	assert.Equal(t, seated[1], next)

	holder, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, seated[0], holder, "peek must not move the cursor")
}

// TestCursor_PeekNextEmpty verifies the error on an empty seated order.
func TestCursor_PeekNextEmpty(t *testing.T) {
	var c turn.Cursor

	_, err := c.PeekNext(nil)
	assert.ErrorIs(t, err, turn.ErrNoSeated)
}

// TestCursor_IndexOf verifies the position lookup and its zero fallback.
func TestCursor_IndexOf(t *testing.T) {
	var c turn.Cursor
	seated := seatedOrder(3)

	assert.Equal(t, 0, c.IndexOf(seated), "absent holder must report position 0")

	c.Set(seated[2])
	assert.Equal(t, 2, c.IndexOf(seated))

	c.Set("departed")
	assert.Equal(t, 0, c.IndexOf(seated), "unseated holder must report position 0")
}

// TestCursor_CyclicClosure_Property verifies that len(seated) advances
// from any seated position return the cursor to where it started.
func TestCursor_CyclicClosure_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "players")
		start := rapid.IntRange(0, n-1).Draw(rt, "start")
		seated := seatedOrder(n)

		var c turn.Cursor
		c.Set(seated[start])
		for range seated {
			c.Advance(seated)
		}

		holder, ok := c.Current()
		if !ok {
			rt.Fatalf("holder lost after %d advances", n)
		}
		if holder != seated[start] {
			rt.Fatalf("expected %s after full cycle, got %s", seated[start], holder)
		}
	})
}

// TestCursor_AdvanceStaysSeated_Property verifies the membership
// postcondition: after any advance over a non-empty order, the holder is
// a member of that order.
func TestCursor_AdvanceStaysSeated_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "players")
		seated := seatedOrder(n)

		var c turn.Cursor
		if rapid.Bool().Draw(rt, "preset") {
			c.Set(wire.Identity(rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "holder")))
		}
		c.Advance(seated)

		holder, ok := c.Current()
		if !ok {
			rt.Fatal("holder absent after advance over non-empty order")
		}
		found := false
		for _, id := range seated {
			if id == holder {
				found = true
			}
		}
		if !found {
			rt.Fatalf("holder %s not in seated order", holder)
		}
	})
}

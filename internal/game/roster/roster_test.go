package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorita/daifugo/internal/game/roster"
	"github.com/kmorita/daifugo/internal/wire"
)

// TestRoster_AddAndRemove verifies the connected view bookkeeping.
func TestRoster_AddAndRemove(t *testing.T) {
	r := roster.New()

	require.NoError(t, r.AddConnected("alice"))
	require.NoError(t, r.AddConnected("bob"))
	assert.Error(t, r.AddConnected("alice"), "duplicate connect must be rejected")

	assert.Equal(t, []wire.Identity{"alice", "bob"}, r.ConnectedIDs())
	assert.True(t, r.IsConnected("alice"))

	require.NoError(t, r.RemoveConnected("alice"))
	assert.False(t, r.IsConnected("alice"))
	assert.Error(t, r.RemoveConnected("alice"), "removing an unknown identity must error")
}

// TestRoster_RemoveClearsSeat verifies that removing a connected identity
// also removes its seat, preserving seated ⊆ connected.
func TestRoster_RemoveClearsSeat(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.AddConnected("alice"))
	require.NoError(t, r.AddConnected("bob"))
	require.NoError(t, r.AddConnected("carol"))
	r.SetSeated([]wire.Identity{"bob", "alice"})

	require.NoError(t, r.RemoveConnected("bob"))

	assert.Equal(t, []wire.Identity{"alice"}, r.SeatedIDs())
	assert.False(t, r.IsSeated("bob"))
}

// TestRoster_SetSeatedFiltersUnconnected verifies that seating an identity
// without a live session drops it silently.
func TestRoster_SetSeatedFiltersUnconnected(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.AddConnected("alice"))

	r.SetSeated([]wire.Identity{"alice", "ghost", "alice"})

	assert.Equal(t, []wire.Identity{"alice"}, r.SeatedIDs(),
		"unconnected and duplicate identities must be dropped")
}

// TestRoster_SetSeatedPreservesTurnOrder verifies the seated view keeps
// the given order, not the session-slot order.
func TestRoster_SetSeatedPreservesTurnOrder(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.AddConnected("alice"))
	require.NoError(t, r.AddConnected("bob"))
	require.NoError(t, r.AddConnected("carol"))

	r.SetSeated([]wire.Identity{"carol", "alice", "bob"})

	assert.Equal(t, []wire.Identity{"carol", "alice", "bob"}, r.SeatedIDs())
}

// TestRoster_ClassifyByMembership verifies classification is by set
// membership regardless of ordering between the views.
func TestRoster_ClassifyByMembership(t *testing.T) {
	r := roster.New()
	for _, id := range []wire.Identity{"a", "b", "c", "d"} {
		require.NoError(t, r.AddConnected(id))
	}
	r.SetSeated([]wire.Identity{"b", "a"})

	assert.Equal(t, roster.RoleSeated, r.Classify("a"))
	assert.Equal(t, roster.RoleSeated, r.Classify("b"))
	assert.Equal(t, roster.RoleSpectating, r.Classify("c"))
	assert.Equal(t, roster.RoleSpectating, r.Classify("d"))
	assert.Equal(t, []wire.Identity{"c", "d"}, r.SpectatingIDs())
}

// TestRoster_ClassifyEqualCardinality verifies that when every connected
// identity is playing, a reordered seated view still classifies everyone
// as seated.
func TestRoster_ClassifyEqualCardinality(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.AddConnected("a"))
	require.NoError(t, r.AddConnected("b"))
	r.SetSeated([]wire.Identity{"b", "a"})

	assert.Equal(t, roster.RoleSeated, r.Classify("a"))
	assert.Equal(t, roster.RoleSeated, r.Classify("b"))
	assert.Nil(t, r.SpectatingIDs(), "a full table has no spectators")
}

// TestRoster_ClearSeated verifies clearing between rounds.
func TestRoster_ClearSeated(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.AddConnected("a"))
	r.SetSeated([]wire.Identity{"a"})

	r.ClearSeated()

	assert.Empty(t, r.SeatedIDs())
	assert.Equal(t, 1, r.ConnectedCount(), "clearing seats must not touch sessions")
}

// TestRoster_ReturnedSlicesAreCopies verifies callers cannot mutate the
// roster through returned slices.
func TestRoster_ReturnedSlicesAreCopies(t *testing.T) {
	r := roster.New()
	require.NoError(t, r.AddConnected("a"))
	require.NoError(t, r.AddConnected("b"))

	ids := r.ConnectedIDs()
	ids[0] = "mutated"

	assert.Equal(t, []wire.Identity{"a", "b"}, r.ConnectedIDs())
}

package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kmorita/daifugo/internal/tracker"
	"github.com/kmorita/daifugo/internal/wire"
)

// TestAuthResult_Token verifies the fixed category-to-token mapping at
// the serialization edge.
func TestAuthResult_Token(t *testing.T) {
	cases := map[tracker.AuthResult]string{
		tracker.Authenticated:       wire.TokenAuthenticated,
		tracker.AccountCreated:      wire.TokenSuccessAccount,
		tracker.AccountCreateFailed: wire.TokenFailAccount,
		tracker.CredentialMismatch:  wire.TokenCombinationError,
		tracker.DoubleLogin:         wire.TokenDoubleLogin,
		tracker.InsufficientPoints:  wire.TokenPointsError,
		tracker.RoomClosed:          wire.TokenClosedError,
	}
	for result, token := range cases {
		assert.Equal(t, token, result.Token(), "result %s", result)
	}
}

// TestAuthResult_UnknownDefaultsToClosed verifies out-of-range categories
// fall back to the closed-room token rather than leaking internals.
func TestAuthResult_UnknownDefaultsToClosed(t *testing.T) {
	assert.Equal(t, wire.TokenClosedError, tracker.AuthResult(99).Token())
	assert.Equal(t, "unknown", tracker.AuthResult(99).String())
}

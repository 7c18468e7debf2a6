// Package tracker defines the account-tracking collaborator boundary: the
// operations the room server needs for authentication, point ledgers, and
// login state. The Postgres implementation lives in internal/storage.
package tracker

import (
	"context"

	"github.com/kmorita/daifugo/internal/wire"
)

// AuthResult is the categorical outcome of an authentication attempt.
// The wire tokens for these categories are generated only at the
// serialization edge (internal/wire); nothing inside the server branches
// on token strings.
type AuthResult int

const (
	// Authenticated means the credentials matched and the session may proceed.
	Authenticated AuthResult = iota
	// AccountCreated means the username was unknown and an account was
	// registered; the connection attempt still aborts.
	AccountCreated
	// AccountCreateFailed means registration of an unknown username failed.
	AccountCreateFailed
	// CredentialMismatch means the username exists but the password is wrong.
	CredentialMismatch
	// DoubleLogin means the identity is already logged in elsewhere.
	DoubleLogin
	// InsufficientPoints means the player lacks the points this room requires.
	InsufficientPoints
	// RoomClosed means the room is closed or unrecognised.
	RoomClosed
)

// String returns the category name for logging.
func (r AuthResult) String() string {
	switch r {
	case Authenticated:
		return "authenticated"
	case AccountCreated:
		return "account_created"
	case AccountCreateFailed:
		return "account_create_failed"
	case CredentialMismatch:
		return "credential_mismatch"
	case DoubleLogin:
		return "double_login"
	case InsufficientPoints:
		return "insufficient_points"
	case RoomClosed:
		return "room_closed"
	}
	return "unknown"
}

// Token returns the fixed wire token for this category.
func (r AuthResult) Token() string {
	switch r {
	case Authenticated:
		return wire.TokenAuthenticated
	case AccountCreated:
		return wire.TokenSuccessAccount
	case AccountCreateFailed:
		return wire.TokenFailAccount
	case CredentialMismatch:
		return wire.TokenCombinationError
	case DoubleLogin:
		return wire.TokenDoubleLogin
	case InsufficientPoints:
		return wire.TokenPointsError
	}
	return wire.TokenClosedError
}

// Tracker is the account-tracking collaborator. All operations may fail;
// callers outside the handshake log and swallow failures so game state is
// never left half-updated by a tracker outage.
type Tracker interface {
	// Authenticate checks credentials for entry to the room on the given
	// port. Unknown usernames are registered (AccountCreated).
	Authenticate(ctx context.Context, name, password string, port int) (AuthResult, error)
	// UpdatePoints applies a ladder point delta.
	UpdatePoints(ctx context.Context, id wire.Identity, delta int) error
	// UpdateTournament applies a tournament point delta.
	UpdateTournament(ctx context.Context, id wire.Identity, delta int) error
	// Points returns the ladder point total.
	Points(ctx context.Context, id wire.Identity) (int, error)
	// TournamentPoints returns the tournament point total.
	TournamentPoints(ctx context.Context, id wire.Identity) (int, error)
	// Logout marks the identity as logged out.
	Logout(ctx context.Context, id wire.Identity) error
	// ReloadConfig re-reads the tracker's backing configuration.
	ReloadConfig(ctx context.Context) error
}

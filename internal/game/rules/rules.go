// Package rules holds the rules-validation collaborator boundary and the
// in-process round-state engine the hub drives. Card-combination legality
// and hand ranking live behind this boundary and are not part of the
// session core.
package rules

import (
	"errors"

	"github.com/kmorita/daifugo/internal/wire"
)

// ErrEmptyHand is returned for a played hand containing no cards.
var ErrEmptyHand = errors.New("empty hand")

// ErrNoRound is returned for gameplay arriving while no round is in progress.
var ErrNoRound = errors.New("no round in progress")

// Validator is the rules-validation collaborator consumed by the hub.
type Validator interface {
	// DealRequested registers id's agreement to start a new deal and starts
	// the round once every connected player has agreed.
	DealRequested(id wire.Identity)
	// RoundEnding handles the turn holder passing.
	RoundEnding()
	// ProcessPlay validates and applies a played hand.
	ProcessPlay(h wire.Hand) error
	// RoundInProgress reports whether a hand is being played.
	RoundInProgress() bool
	// RestartRound abandons the current round and clears all round state.
	RestartRound()
	// SeatedIDs returns the identities of the current round in turn order.
	SeatedIDs() []wire.Identity
	// DealAgreement returns the identities that have agreed to a pending deal.
	DealAgreement() []wire.Identity
	// CurrentPlayerView builds the turn holder's state view.
	CurrentPlayerView() wire.View
	// WaitingPlayerView builds the view for a seated, non-holder player.
	WaitingPlayerView(id wire.Identity) wire.View
	// SpectatorView builds the view for a connected, non-seated identity.
	SpectatorView(id wire.Identity) wire.View
	// AddJoker increments the joker-substitution counter for this round.
	AddJoker()
	// SetKakumei stores the hold/kakumei toggle without interpretation.
	SetKakumei(on bool)
}

// Table is the hub surface the engine drives back into: the connected
// list, the turn cursor, and state broadcast. All calls happen on the hub
// goroutine.
type Table interface {
	ConnectedIDs() []wire.Identity
	CurrentHolder() (wire.Identity, bool)
	AdvanceTurn()
	SendState()
}

package rules

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/wire"
)

// minPlayers is the smallest seated set that can start a round.
const minPlayers = 2

// Engine is the in-process Validator implementation. It owns the deal
// agreement set, the seated order, and the round-in-progress flag. Not
// safe for concurrent use; the hub goroutine owns it.
type Engine struct {
	table     Table
	logger    *zap.Logger
	winPoints int
	timeLimit time.Duration

	dealAgree  []wire.Identity
	seated     []wire.Identity
	inProgress bool

	// JokerCount and Kakumei are pass-through round flags set by the router.
	jokerCount int
	kakumei    bool
}

// NewEngine creates an Engine for a room with the given win threshold and
// per-turn time limit.
//
// Precondition: table and logger must be non-nil.
func NewEngine(table Table, winPoints int, timeLimit time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		table:     table,
		logger:    logger,
		winPoints: winPoints,
		timeLimit: timeLimit,
	}
}

// WinPoints returns the room's winning point threshold.
func (e *Engine) WinPoints() int { return e.winPoints }

// TimeLimit returns the room's per-turn time limit.
func (e *Engine) TimeLimit() time.Duration { return e.timeLimit }

// DealRequested implements Validator. Once every connected player has
// agreed, the agreeing players are seated in agreement order and the round
// begins with the first turn assigned.
func (e *Engine) DealRequested(id wire.Identity) {
	if e.inProgress {
		return
	}
	if !slices.Contains(e.dealAgree, id) {
		e.dealAgree = append(e.dealAgree, id)
	}

	connected := e.table.ConnectedIDs()
	if len(e.dealAgree) < minPlayers || len(e.dealAgree) < len(connected) {
		return
	}

	e.seated = e.dealAgree
	e.dealAgree = nil
	e.inProgress = true
	e.jokerCount = 0
	e.kakumei = false

	e.logger.Info("round started",
		zap.Int("players", len(e.seated)),
		zap.Int("win_points", e.winPoints),
	)

	e.table.AdvanceTurn()
	e.table.SendState()
}

// RoundEnding implements Validator: the holder passes and the turn moves on.
func (e *Engine) RoundEnding() {
	if !e.inProgress {
		return
	}
	e.table.AdvanceTurn()
	e.table.SendState()
}

// ProcessPlay implements Validator. Combination legality is checked here,
// behind the collaborator boundary; the session core only logs failures.
func (e *Engine) ProcessPlay(h wire.Hand) error {
	if !e.inProgress {
		return ErrNoRound
	}
	if len(h.Cards) == 0 {
		return ErrEmptyHand
	}

	e.table.AdvanceTurn()
	e.table.SendState()
	return nil
}

// RoundInProgress implements Validator.
func (e *Engine) RoundInProgress() bool { return e.inProgress }

// RestartRound implements Validator. Safe to call repeatedly; a restart of
// an idle engine is a no-op apart from clearing stale agreement state.
func (e *Engine) RestartRound() {
	e.inProgress = false
	e.seated = nil
	e.dealAgree = nil
	e.jokerCount = 0
	e.kakumei = false
}

// SeatedIDs implements Validator.
func (e *Engine) SeatedIDs() []wire.Identity {
	return slices.Clone(e.seated)
}

// DealAgreement implements Validator.
func (e *Engine) DealAgreement() []wire.Identity {
	return slices.Clone(e.dealAgree)
}

// CurrentPlayerView implements Validator.
func (e *Engine) CurrentPlayerView() wire.View {
	return e.baseView("holder")
}

// WaitingPlayerView implements Validator.
func (e *Engine) WaitingPlayerView(wire.Identity) wire.View {
	return e.baseView("waiting")
}

// SpectatorView implements Validator.
func (e *Engine) SpectatorView(wire.Identity) wire.View {
	return e.baseView("spectator")
}

func (e *Engine) baseView(role string) wire.View {
	v := wire.View{
		Role:            role,
		Seated:          slices.Clone(e.seated),
		RoundInProgress: e.inProgress,
	}
	if holder, ok := e.table.CurrentHolder(); ok {
		v.Holder = holder
	}
	return v
}

// AddJoker implements Validator.
func (e *Engine) AddJoker() { e.jokerCount++ }

// JokerCount returns the number of joker substitutions this round.
func (e *Engine) JokerCount() int { return e.jokerCount }

// SetKakumei implements Validator.
func (e *Engine) SetKakumei(on bool) { e.kakumei = on }

// Kakumei returns the stored hold/kakumei toggle.
func (e *Engine) Kakumei() bool { return e.kakumei }

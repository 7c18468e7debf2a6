// Package hub runs the single goroutine that owns a room's session state:
// the roster, the turn cursor, and the score ledger. Transport goroutines
// never touch that state directly; they post events to the inbox and the
// hub applies them one at a time, so every invariant holds between events
// without locks.
package hub

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/game/roster"
	"github.com/kmorita/daifugo/internal/game/rules"
	"github.com/kmorita/daifugo/internal/game/score"
	"github.com/kmorita/daifugo/internal/game/turn"
	"github.com/kmorita/daifugo/internal/tracker"
	"github.com/kmorita/daifugo/internal/wire"
)

// ForfeitPenalty is the point delta applied when a committed player
// disconnects mid-round or mid-agreement.
const ForfeitPenalty = -10

// Transport is the outbound side the hub writes through. Implementations
// must be safe to call from the hub goroutine while transport goroutines
// mutate the client table.
type Transport interface {
	// SendToOne delivers a payload to a single identity. Unknown
	// identities are dropped silently.
	SendToOne(id wire.Identity, p wire.Payload)
	// SendToAll delivers a payload to every connected identity.
	SendToAll(p wire.Payload)
	// ResetOutput renews any per-client encoder state so the next frame
	// decodes from a clean stream. Must never discard undelivered frames.
	ResetOutput()
}

// Hub coordinates one room. Construct with New, attach the rules engine
// with SetValidator, then call Run on its own goroutine.
type Hub struct {
	inbox chan Msg

	roster    *roster.Roster
	cursor    turn.Cursor
	ledger    *score.Ledger
	validator rules.Validator
	trk       tracker.Tracker
	out       Transport
	logger    *zap.Logger
}

// New builds a hub. The validator is attached separately because the
// engine needs the hub as its Table.
func New(trk tracker.Tracker, ledger *score.Ledger, out Transport, logger *zap.Logger) *Hub {
	return &Hub{
		inbox:  make(chan Msg, 64),
		roster: roster.New(),
		ledger: ledger,
		trk:    trk,
		out:    out,
		logger: logger,
	}
}

// SetValidator attaches the rules engine. Must happen before Run.
func (h *Hub) SetValidator(v rules.Validator) {
	h.validator = v
}

// Post queues an event for the hub goroutine.
func (h *Hub) Post(m Msg) {
	h.inbox <- m
}

// Connected posts a session-connected event. Satisfies the transport's
// coordinator surface.
func (h *Hub) Connected(id wire.Identity) { h.Post(Connected{ID: id}) }

// Disconnected posts a session-closed event.
func (h *Hub) Disconnected(id wire.Identity) { h.Post(Disconnected{ID: id}) }

// Inbound posts one decoded client message.
func (h *Hub) Inbound(id wire.Identity, m wire.Message) { h.Post(Inbound{ID: id, Msg: m}) }

// Snapshot posts a GetSnapshot and waits for the reply.
func (h *Hub) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	h.Post(GetSnapshot{Reply: reply})
	return <-reply
}

// Run drains the inbox until Shutdown arrives or ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connected:
				h.handleConnected(ctx, msg.ID)
			case Disconnected:
				h.handleDisconnected(ctx, msg.ID)
			case Inbound:
				h.handleInbound(ctx, msg.ID, msg.Msg)
			case GetSnapshot:
				msg.Reply <- h.snapshot()
			case Shutdown:
				return
			}
		}
	}
}

func (h *Hub) handleConnected(ctx context.Context, id wire.Identity) {
	if err := h.roster.AddConnected(id); err != nil {
		h.logger.Warn("duplicate connect ignored", zap.String("id", string(id)), zap.Error(err))
		return
	}
	h.logger.Info("participant connected", zap.String("id", string(id)),
		zap.Int("connected", h.roster.ConnectedCount()))
	h.out.ResetOutput()
	h.ledger.BroadcastStandings(ctx, h.roster.ConnectedIDs())
	h.out.ResetOutput()
	h.out.SendToAll(wire.Joined{Name: id})
}

func (h *Hub) handleDisconnected(ctx context.Context, id wire.Identity) {
	if !h.roster.IsConnected(id) {
		return
	}
	if h.committed(id) {
		h.logger.Info("committed participant left, abandoning round",
			zap.String("id", string(id)))
		h.validator.RestartRound()
		h.syncRound()
		h.ledger.ApplyDelta(ctx, id, ForfeitPenalty, h.roster.ConnectedIDs())
	}
	if err := h.roster.RemoveConnected(id); err != nil {
		h.logger.Warn("roster removal failed", zap.String("id", string(id)), zap.Error(err))
	}
	if err := h.trk.Logout(ctx, id); err != nil {
		h.logger.Error("logout failed", zap.String("id", string(id)), zap.Error(err))
	}
	h.out.ResetOutput()
	h.ledger.BroadcastStandings(ctx, h.roster.ConnectedIDs())
	h.out.ResetOutput()
	h.out.SendToAll(wire.Left{Name: id})
	if !h.validator.RoundInProgress() {
		h.validator.RestartRound()
		h.syncRound()
	}
}

// committed reports whether id forfeits on disconnect: seated in a live
// round, or party to a pending deal agreement.
func (h *Hub) committed(id wire.Identity) bool {
	if h.validator.RoundInProgress() && h.roster.IsSeated(id) {
		return true
	}
	return !h.validator.RoundInProgress() && slices.Contains(h.validator.DealAgreement(), id)
}

func (h *Hub) handleInbound(ctx context.Context, id wire.Identity, m wire.Message) {
	switch msg := m.(type) {
	case wire.Private:
		msg.From = id
		h.out.SendToOne(msg.To, msg)
	case wire.Control:
		h.handleControl(ctx, id, msg)
	case wire.Hand:
		if !h.holderGate(id) {
			return
		}
		if err := h.validator.ProcessPlay(msg); err != nil {
			h.logger.Warn("play rejected", zap.String("id", string(id)), zap.Error(err))
		}
	case wire.Card:
		if !h.holderGate(id) {
			return
		}
		h.validator.AddJoker()
		h.out.SendToAll(wire.Notice(fmt.Sprintf("%s replaces a joker with the %s", id, msg)))
	case wire.Flag:
		h.validator.SetKakumei(bool(msg))
	default:
		h.forwardToAll(id, m)
	}
}

func (h *Hub) handleControl(ctx context.Context, id wire.Identity, c wire.Control) {
	switch string(c) {
	case wire.ControlDeal:
		h.validator.DealRequested(id)
		h.syncRound()
	case wire.ControlPass:
		if !h.holderGate(id) {
			return
		}
		h.validator.RoundEnding()
	case wire.ControlReload:
		h.out.SendToAll(wire.Notice("Server configuration is reloading."))
		if err := h.trk.ReloadConfig(ctx); err != nil {
			h.logger.Error("config reload failed", zap.Error(err))
		}
	default:
		h.forwardToAll(id, c)
	}
}

// holderGate admits only the current turn holder. Everyone else gets a
// private rejection and the game state is untouched.
func (h *Hub) holderGate(id wire.Identity) bool {
	if h.cursor.Holds(id) {
		return true
	}
	h.out.SendToOne(id, wire.Notice("It is not your turn."))
	return false
}

func (h *Hub) forwardToAll(id wire.Identity, m wire.Message) {
	raw, err := wire.Encode(m)
	if err != nil {
		h.logger.Error("forward encode failed", zap.String("id", string(id)), zap.Error(err))
		return
	}
	h.out.SendToAll(wire.Forwarded{From: id, Payload: raw})
}

// syncRound mirrors the validator's seating into the roster and drops the
// cursor when no round is live.
func (h *Hub) syncRound() {
	h.roster.SetSeated(h.validator.SeatedIDs())
	if h.roster.SeatedCount() == 0 {
		h.cursor.Clear()
	}
}

func (h *Hub) snapshot() Snapshot {
	holder, ok := h.cursor.Current()
	return Snapshot{
		Connected:       h.roster.ConnectedIDs(),
		Seated:          h.roster.SeatedIDs(),
		Holder:          holder,
		HolderPresent:   ok,
		RoundInProgress: h.validator.RoundInProgress(),
	}
}

// ConnectedIDs implements rules.Table.
func (h *Hub) ConnectedIDs() []wire.Identity {
	return h.roster.ConnectedIDs()
}

// CurrentHolder implements rules.Table.
func (h *Hub) CurrentHolder() (wire.Identity, bool) {
	return h.cursor.Current()
}

// AdvanceTurn implements rules.Table: refresh seating from the validator,
// then step the cursor through it.
func (h *Hub) AdvanceTurn() {
	h.roster.SetSeated(h.validator.SeatedIDs())
	h.cursor.Advance(h.roster.SeatedIDs())
}

// SendState sends each connected identity its role-appropriate view. The
// holder hears first-person state, other seated players hear the waiting
// view, everyone else the spectator view.
func (h *Hub) SendState() {
	holder, hasHolder := h.cursor.Current()
	for _, id := range h.roster.ConnectedIDs() {
		switch {
		case hasHolder && id == holder:
			h.out.SendToOne(id, h.validator.CurrentPlayerView())
		case h.roster.Classify(id) == roster.RoleSeated:
			h.out.SendToOne(id, h.validator.WaitingPlayerView(id))
		default:
			h.out.SendToOne(id, h.validator.SpectatorView(id))
		}
	}
}

// Package score applies point deltas under the plain-ladder or
// tournament-window scoring policy and rebroadcasts standings.
package score

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kmorita/daifugo/internal/config"
	"github.com/kmorita/daifugo/internal/tracker"
	"github.com/kmorita/daifugo/internal/wire"
)

// Mode selects the scoring policy for a server instance.
type Mode int

const (
	// ModePlain applies deltas directly to the ladder.
	ModePlain Mode = iota
	// ModeTournament gates deltas behind the nightly tournament window.
	ModeTournament
)

// Window is the tournament scoring window: a single hour that alternates
// between two values by calendar day, evaluated in a fixed reference zone.
type Window struct {
	zone        *time.Location
	evenDayHour int
	oddDayHour  int
}

// NewWindow builds a Window from configuration.
//
// Precondition: cfg.Timezone must be a valid IANA zone name.
// Postcondition: Returns a Window or a non-nil error.
func NewWindow(cfg config.TournamentConfig) (Window, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Window{}, fmt.Errorf("loading tournament timezone %q: %w", cfg.Timezone, err)
	}
	return Window{zone: loc, evenDayHour: cfg.EvenDayHour, oddDayHour: cfg.OddDayHour}, nil
}

// Contains reports whether t falls inside the scoring window.
//
// Postcondition: True iff (even day of month and hour == EvenDayHour) or
// (odd day of month and hour == OddDayHour), in the reference zone.
func (w Window) Contains(t time.Time) bool {
	local := t.In(w.zone)
	hour := local.Hour()
	day := local.Day()
	if day%2 == 0 {
		return hour == w.evenDayHour
	}
	return hour == w.oddDayHour
}

// Broadcaster sends a payload to every connected client.
type Broadcaster interface {
	SendToAll(p wire.Payload)
}

// Ledger computes and applies score adjustments. Storage belongs to the
// tracker; a ledger entry is an ephemeral computation, and totals are
// always re-fetched after every mutation.
type Ledger struct {
	trk    tracker.Tracker
	mode   Mode
	window Window
	now    func() time.Time
	out    Broadcaster
	logger *zap.Logger
}

// NewLedger creates a Ledger.
//
// Precondition: trk, out, and logger must be non-nil. now may be nil, in
// which case time.Now is used.
func NewLedger(trk tracker.Tracker, mode Mode, window Window, now func() time.Time, out Broadcaster, logger *zap.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{trk: trk, mode: mode, window: window, now: now, out: out, logger: logger}
}

// Mode returns the scoring policy of this ledger.
func (l *Ledger) Mode() Mode { return l.mode }

// ApplyDelta applies a point delta for winner under the instance's scoring
// policy, then rebroadcasts full standings for the connected identities.
//
// In tournament mode, outside the scoring window the delta is recorded as
// zero (the tracker still acknowledges the event) and a notice explains
// that it is not tournament hour. Tracker failures are logged and
// swallowed; the standings broadcast always follows.
//
// Postcondition: A standings broadcast reflecting post-delta tracker state
// has been sent, regardless of which branch was taken.
func (l *Ledger) ApplyDelta(ctx context.Context, winner wire.Identity, delta int, connected []wire.Identity) {
	switch l.mode {
	case ModePlain:
		if err := l.trk.UpdatePoints(ctx, winner, delta); err != nil {
			l.logger.Error("updating points",
				zap.String("player", string(winner)),
				zap.Int("delta", delta),
				zap.Error(err),
			)
		}
	case ModeTournament:
		if l.window.Contains(l.now()) {
			if err := l.trk.UpdateTournament(ctx, winner, delta); err != nil {
				l.logger.Error("updating tournament points",
					zap.String("player", string(winner)),
					zap.Int("delta", delta),
					zap.Error(err),
				)
			}
		} else {
			if err := l.trk.UpdateTournament(ctx, winner, 0); err != nil {
				l.logger.Error("recording zero tournament delta",
					zap.String("player", string(winner)),
					zap.Error(err),
				)
			}
			l.out.SendToAll(wire.Notice("It is currently not tournament hour. No points were added or deducted."))
		}
	}

	l.BroadcastStandings(ctx, connected)
}

// BroadcastStandings fetches current totals for every connected identity
// and sends the full table to all clients. Per-player fetch failures are
// logged and that row reported as zero, so players always see a complete
// leaderboard.
func (l *Ledger) BroadcastStandings(ctx context.Context, connected []wire.Identity) {
	standings := make(wire.Standings, 0, len(connected))
	for _, id := range connected {
		var (
			pts int
			err error
		)
		if l.mode == ModeTournament {
			pts, err = l.trk.TournamentPoints(ctx, id)
		} else {
			pts, err = l.trk.Points(ctx, id)
		}
		if err != nil {
			l.logger.Error("fetching points for standings",
				zap.String("player", string(id)),
				zap.Error(err),
			)
			pts = 0
		}
		standings = append(standings, wire.Standing{Name: id, Points: pts})
	}

	wire.SortStandings(standings)
	l.out.SendToAll(standings)
}

package testutil

import (
	"context"
	"sync"

	"github.com/kmorita/daifugo/internal/tracker"
	"github.com/kmorita/daifugo/internal/wire"
)

// FakeTracker is an in-memory tracker. Point totals start at zero and
// every account authenticates unless a canned result is installed.
type FakeTracker struct {
	mu sync.Mutex

	// Results maps username to a canned authentication outcome.
	Results map[string]tracker.AuthResult
	// Err, when set, is returned from every call.
	Err error

	points     map[wire.Identity]int
	tournament map[wire.Identity]int
	loggedOut  []wire.Identity
	reloads    int
}

// NewFakeTracker returns an empty fake.
func NewFakeTracker() *FakeTracker {
	return &FakeTracker{
		Results:    make(map[string]tracker.AuthResult),
		points:     make(map[wire.Identity]int),
		tournament: make(map[wire.Identity]int),
	}
}

// SetPoints seeds a ladder point total.
func (f *FakeTracker) SetPoints(id wire.Identity, points int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[id] = points
}

// SetTournamentPoints seeds a tournament point total.
func (f *FakeTracker) SetTournamentPoints(id wire.Identity, points int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tournament[id] = points
}

// LoggedOut returns the identities logged out so far, in order.
func (f *FakeTracker) LoggedOut() []wire.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]wire.Identity, len(f.loggedOut))
	copy(out, f.loggedOut)
	return out
}

// Reloads returns how many times ReloadConfig was called.
func (f *FakeTracker) Reloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

func (f *FakeTracker) Authenticate(_ context.Context, name, _ string, _ int) (tracker.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return tracker.RoomClosed, f.Err
	}
	if res, ok := f.Results[name]; ok {
		return res, nil
	}
	return tracker.Authenticated, nil
}

func (f *FakeTracker) UpdatePoints(_ context.Context, id wire.Identity, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.points[id] += delta
	return nil
}

func (f *FakeTracker) UpdateTournament(_ context.Context, id wire.Identity, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.tournament[id] += delta
	return nil
}

func (f *FakeTracker) Points(_ context.Context, id wire.Identity) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return f.points[id], nil
}

func (f *FakeTracker) TournamentPoints(_ context.Context, id wire.Identity) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return f.tournament[id], nil
}

func (f *FakeTracker) Logout(_ context.Context, id wire.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.loggedOut = append(f.loggedOut, id)
	return nil
}

func (f *FakeTracker) ReloadConfig(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.reloads++
	return nil
}

var _ tracker.Tracker = (*FakeTracker)(nil)

// Sent records one outbound delivery: the target identity, or empty for a
// broadcast.
type Sent struct {
	To      wire.Identity
	Payload wire.Payload
}

// RecordingTransport captures everything the hub sends, including output
// resets, in order.
type RecordingTransport struct {
	mu     sync.Mutex
	sent   []Sent
	resets int
}

// NewRecordingTransport returns an empty recorder.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{}
}

func (r *RecordingTransport) SendToOne(id wire.Identity, p wire.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{To: id, Payload: p})
}

func (r *RecordingTransport) SendToAll(p wire.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Payload: p})
}

func (r *RecordingTransport) ResetOutput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

// Sent returns every delivery so far, in order.
func (r *RecordingTransport) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Resets returns how many times ResetOutput was called.
func (r *RecordingTransport) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

// Clear discards recorded deliveries and resets.
func (r *RecordingTransport) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.resets = 0
}

// Broadcasts returns only the deliveries sent to everyone.
func (r *RecordingTransport) Broadcasts() []wire.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []wire.Payload
	for _, s := range r.sent {
		if s.To == "" {
			out = append(out, s.Payload)
		}
	}
	return out
}

// SentTo returns only the deliveries addressed to id.
func (r *RecordingTransport) SentTo(id wire.Identity) []wire.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []wire.Payload
	for _, s := range r.sent {
		if s.To == id {
			out = append(out, s.Payload)
		}
	}
	return out
}

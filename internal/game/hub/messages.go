package hub

import "github.com/kmorita/daifugo/internal/wire"

// Msg is an event delivered to the hub goroutine. All roster, turn, and
// score mutation happens by sending one of these variants to the inbox.
type Msg interface{ isHubMsg() }

// Connected reports a freshly authenticated session.
type Connected struct {
	ID wire.Identity
}

// Disconnected reports a closed session.
type Disconnected struct {
	ID wire.Identity
}

// Inbound carries one decoded client message.
type Inbound struct {
	ID  wire.Identity
	Msg wire.Message
}

// Snapshot is a consistent view of the hub's state, for tests and
// diagnostics.
type Snapshot struct {
	Connected       []wire.Identity
	Seated          []wire.Identity
	Holder          wire.Identity
	HolderPresent   bool
	RoundInProgress bool
}

// GetSnapshot requests a Snapshot on the reply channel.
type GetSnapshot struct {
	Reply chan Snapshot
}

// Shutdown stops the hub loop.
type Shutdown struct{}

func (Connected) isHubMsg()    {}
func (Disconnected) isHubMsg() {}
func (Inbound) isHubMsg()      {}
func (GetSnapshot) isHubMsg()  {}
func (Shutdown) isHubMsg()     {}

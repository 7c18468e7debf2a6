package wire

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Authentication response tokens. Exactly one is written to the client
// before the session proceeds or the connection is aborted. These strings
// are fixed by the client protocol and must not change.
const (
	TokenAuthenticated    = "authenticated"
	TokenSuccessAccount   = "successAccount"
	TokenFailAccount      = "failAccount"
	TokenCombinationError = "combinationError"
	TokenDoubleLogin      = "doubleLoginError"
	TokenPointsError      = "pointsError"
	TokenClosedError      = "closedError"
)

// Hello is the handshake frame a client sends before anything else.
type Hello struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResponse is the single reply frame written during the handshake.
// Token is one of the fixed token constants above.
type AuthResponse struct {
	Token string `json:"token"`
}

// EncodeAuthResponse serializes the handshake reply frame.
func EncodeAuthResponse(token string) ([]byte, error) {
	return json.Marshal(AuthResponse{Token: token})
}

// DecodeAuthResponse parses the handshake reply frame.
func DecodeAuthResponse(data []byte) (AuthResponse, error) {
	var r AuthResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return AuthResponse{}, fmt.Errorf("decoding auth response: %w", err)
	}
	return r, nil
}

// Payload is an outbound frame body. Implementations marshal themselves
// into the outbound envelope.
type Payload interface{ isPayload() }

// Notice is a plain text line shown to the player.
type Notice string

// Standing is one row of the points table.
type Standing struct {
	Name   Identity `json:"name"`
	Points int      `json:"points"`
}

// Standings is the full points table, ordered by name.
type Standings []Standing

// Joined announces a new participant.
type Joined struct {
	Name Identity `json:"name"`
}

// Left announces a departed participant.
type Left struct {
	Name Identity `json:"name"`
}

// Forwarded wraps an unrecognised client message for broadcast to all.
type Forwarded struct {
	From    Identity        `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// View is a per-player game state snapshot produced by the rules engine.
type View struct {
	// Role is "holder", "waiting", or "spectator".
	Role string `json:"role"`
	// Holder is the identity whose turn it is, when known.
	Holder Identity `json:"holder,omitempty"`
	// Seated is the turn order of the current round.
	Seated []Identity `json:"seated,omitempty"`
	// RoundInProgress reports whether a hand is being played.
	RoundInProgress bool `json:"round_in_progress"`
}

func (Notice) isPayload()    {}
func (Standings) isPayload() {}
func (Joined) isPayload()    {}
func (Left) isPayload()      {}
func (Forwarded) isPayload() {}
func (Private) isPayload()   {}
func (View) isPayload()      {}

// outEnvelope is the JSON frame for outbound payloads.
type outEnvelope struct {
	Kind      string     `json:"kind"`
	Notice    string     `json:"notice,omitempty"`
	Standings Standings  `json:"standings,omitempty"`
	Joined    *Joined    `json:"joined,omitempty"`
	Left      *Left      `json:"left,omitempty"`
	Forwarded *Forwarded `json:"forwarded,omitempty"`
	Private   *Private   `json:"private,omitempty"`
	View      *View      `json:"view,omitempty"`
}

// SortStandings orders rows by name, matching the original's name-keyed
// points table.
func SortStandings(s Standings) {
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
}

// EncodePayload serializes an outbound payload into its JSON frame.
//
// Postcondition: Returns a single JSON frame without a trailing newline.
func EncodePayload(p Payload) ([]byte, error) {
	var env outEnvelope
	switch v := p.(type) {
	case Notice:
		env = outEnvelope{Kind: "notice", Notice: string(v)}
	case Standings:
		SortStandings(v)
		env = outEnvelope{Kind: "standings", Standings: v}
	case Joined:
		env = outEnvelope{Kind: "joined", Joined: &v}
	case Left:
		env = outEnvelope{Kind: "left", Left: &v}
	case Forwarded:
		env = outEnvelope{Kind: "forwarded", Forwarded: &v}
	case Private:
		env = outEnvelope{Kind: "private", Private: &v}
	case View:
		env = outEnvelope{Kind: "view", View: &v}
	default:
		return nil, fmt.Errorf("unsupported payload type %T", p)
	}
	return json.Marshal(env)
}

// DecodePayload parses an outbound JSON frame back into its typed payload.
// Test clients use this to assert on server output.
//
// Postcondition: Returns a non-nil Payload or a non-nil error.
func DecodePayload(data []byte) (Payload, error) {
	var env outEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding payload frame: %w", err)
	}
	switch env.Kind {
	case "notice":
		return Notice(env.Notice), nil
	case "standings":
		return env.Standings, nil
	case "joined":
		if env.Joined == nil {
			return nil, fmt.Errorf("joined frame missing payload")
		}
		return *env.Joined, nil
	case "left":
		if env.Left == nil {
			return nil, fmt.Errorf("left frame missing payload")
		}
		return *env.Left, nil
	case "forwarded":
		if env.Forwarded == nil {
			return nil, fmt.Errorf("forwarded frame missing payload")
		}
		return *env.Forwarded, nil
	case "private":
		if env.Private == nil {
			return nil, fmt.Errorf("private frame missing payload")
		}
		return *env.Private, nil
	case "view":
		if env.View == nil {
			return nil, fmt.Errorf("view frame missing payload")
		}
		return *env.View, nil
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
}

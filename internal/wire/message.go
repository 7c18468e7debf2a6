// Package wire defines the client/server message vocabulary and the JSON
// framing used on the socket. Game packages exchange the typed variants;
// serialization happens only at this edge.
package wire

import (
	"encoding/json"
	"fmt"
)

// Identity is an authenticated player's unique session-scoped username token.
type Identity string

// Control strings recognised verbatim on the wire.
const (
	ControlDeal   = "deal2357"
	ControlPass   = "pass2357"
	ControlReload = "reload server"
)

// Message is an inbound payload variant. The concrete type, not a string
// tag, drives routing: control strings, private envelopes, hands, single
// cards, and booleans are each their own shape.
type Message interface{ isMessage() }

// Control is one of the literal control strings (deal, pass, reload).
type Control string

// Text is a plain chat line with no special meaning to the router.
type Text string

// Private is a direct message envelope. From is stamped by the server from
// the sender's session; any client-supplied value is overwritten.
type Private struct {
	From Identity `json:"from"`
	To   Identity `json:"to"`
	Body string   `json:"body"`
}

// Card is a single playing card, used for joker substitution.
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// String renders the card for player-facing notices.
func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Hand is a played combination of cards.
type Hand struct {
	Cards []Card `json:"cards"`
}

// Flag is a boolean toggle passed through to the rules engine (kakumei hold).
type Flag bool

func (Control) isMessage() {}
func (Text) isMessage()    {}
func (Private) isMessage() {}
func (Card) isMessage()    {}
func (Hand) isMessage()    {}
func (Flag) isMessage()    {}

// envelope is the JSON frame for inbound messages. Exactly one payload
// field is set for non-text kinds.
type envelope struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Private *Private `json:"private,omitempty"`
	Hand    *Hand    `json:"hand,omitempty"`
	Card    *Card    `json:"card,omitempty"`
	Flag    *bool    `json:"flag,omitempty"`
}

// Inbound frame kinds.
const (
	kindText    = "text"
	kindPrivate = "private"
	kindHand    = "hand"
	kindCard    = "card"
	kindFlag    = "flag"
)

// Decode parses one inbound JSON frame into its typed variant. Text frames
// whose body is a recognised control string decode as Control.
//
// Postcondition: Returns a non-nil Message or a non-nil error.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	switch env.Kind {
	case kindText:
		switch env.Text {
		case ControlDeal, ControlPass, ControlReload:
			return Control(env.Text), nil
		}
		return Text(env.Text), nil
	case kindPrivate:
		if env.Private == nil {
			return nil, fmt.Errorf("private frame missing payload")
		}
		return *env.Private, nil
	case kindHand:
		if env.Hand == nil {
			return nil, fmt.Errorf("hand frame missing payload")
		}
		return *env.Hand, nil
	case kindCard:
		if env.Card == nil {
			return nil, fmt.Errorf("card frame missing payload")
		}
		return *env.Card, nil
	case kindFlag:
		if env.Flag == nil {
			return nil, fmt.Errorf("flag frame missing payload")
		}
		return Flag(*env.Flag), nil
	default:
		return nil, fmt.Errorf("unknown frame kind %q", env.Kind)
	}
}

// Encode serializes an inbound-style message back to its JSON frame.
// Used by test clients and by the broadcast fallback wrapping.
//
// Postcondition: Returns a single JSON frame without a trailing newline.
func Encode(m Message) ([]byte, error) {
	var env envelope
	switch v := m.(type) {
	case Control:
		env = envelope{Kind: kindText, Text: string(v)}
	case Text:
		env = envelope{Kind: kindText, Text: string(v)}
	case Private:
		env = envelope{Kind: kindPrivate, Private: &v}
	case Hand:
		env = envelope{Kind: kindHand, Hand: &v}
	case Card:
		env = envelope{Kind: kindCard, Card: &v}
	case Flag:
		b := bool(v)
		env = envelope{Kind: kindFlag, Flag: &b}
	default:
		return nil, fmt.Errorf("unsupported message type %T", m)
	}
	return json.Marshal(env)
}

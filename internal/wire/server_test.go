package wire_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorita/daifugo/internal/wire"
)

// TestSortStandings verifies name ordering, matching the name-keyed
// points table clients expect.
func TestSortStandings(t *testing.T) {
	s := wire.Standings{
		{Name: "zed", Points: 1},
		{Name: "amy", Points: 2},
		{Name: "mia", Points: 3},
	}
	wire.SortStandings(s)
	assert.Equal(t, wire.Standings{
		{Name: "amy", Points: 2},
		{Name: "mia", Points: 3},
		{Name: "zed", Points: 1},
	}, s)
}

// TestEncodePayload_RoundTrips verifies each outbound payload survives
// the frame boundary with its type intact.
func TestEncodePayload_RoundTrips(t *testing.T) {
	raw, err := wire.Encode(wire.Text("gg"))
	require.NoError(t, err)

	cases := []wire.Payload{
		wire.Notice("It is not your turn."),
		wire.Standings{{Name: "amy", Points: 2}},
		wire.Joined{Name: "amy"},
		wire.Left{Name: "amy"},
		wire.Forwarded{From: "amy", Payload: json.RawMessage(raw)},
		wire.Private{From: "amy", To: "zed", Body: "psst"},
		wire.View{Role: "holder", Holder: "amy", Seated: []wire.Identity{"amy", "zed"}, RoundInProgress: true},
	}
	for _, p := range cases {
		frame, err := wire.EncodePayload(p)
		require.NoError(t, err)

		got, err := wire.DecodePayload(frame)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

// TestAuthResponse_RoundTrip verifies the handshake reply framing.
func TestAuthResponse_RoundTrip(t *testing.T) {
	frame, err := wire.EncodeAuthResponse(wire.TokenDoubleLogin)
	require.NoError(t, err)

	resp, err := wire.DecodeAuthResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, wire.TokenDoubleLogin, resp.Token)
}

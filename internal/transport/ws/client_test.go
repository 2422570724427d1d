package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxelcraft.ai/guardbot/internal/protocol"
	"voxelcraft.ai/guardbot/internal/worldtest"
)

func TestDial_HandshakeObsAndAct(t *testing.T) {
	srv := worldtest.NewServer(t)
	srv.AgentID = "A7"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hello := protocol.HelloMsg{AgentName: "gps", Auth: &protocol.HelloAuth{Token: "secret"}}
	conn, err := Dial(ctx, srv.URL(), hello)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, "A7", conn.Welcome.AgentID)

	peer := srv.Accept(t)
	require.Equal(t, "gps", peer.Hello.AgentName)
	require.Equal(t, protocol.TypeHello, peer.Hello.Type)
	require.Equal(t, protocol.Version, peer.Hello.ProtocolVersion)
	require.Equal(t, "secret", peer.Hello.Auth.Token)

	peer.SendObs(t, protocol.ObsMsg{Tick: 42, AgentID: "A7"})
	obs, err := conn.ReadObs()
	require.NoError(t, err)
	require.Equal(t, uint64(42), obs.Tick)

	require.NoError(t, conn.SendAct(protocol.ActMsg{
		Tick:     42,
		AgentID:  "A7",
		Instants: []protocol.InstantReq{{ID: "I_1", Type: protocol.InstantSay, Channel: "LOCAL", Text: "hi"}},
	}))
	act := peer.NextAct(t)
	require.Equal(t, protocol.TypeAct, act.Type)
	require.Equal(t, "hi", act.Instants[0].Text)
}

func TestReadObs_ReturnsErrorWhenServerCloses(t *testing.T) {
	srv := worldtest.NewServer(t)
	conn, err := Dial(context.Background(), srv.URL(), protocol.HelloMsg{AgentName: "gps"})
	require.NoError(t, err)
	defer conn.Close()

	srv.Accept(t).Close()
	_, err = conn.ReadObs()
	require.Error(t, err)
}

func TestDial_Refused(t *testing.T) {
	srv := worldtest.NewServer(t)
	url := srv.URL()
	srv.Close()
	_, err := Dial(context.Background(), url, protocol.HelloMsg{AgentName: "gps"})
	require.Error(t, err)
}

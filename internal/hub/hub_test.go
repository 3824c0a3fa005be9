package hub

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biskitgame/biskit-backend/internal/dice"
	"github.com/biskitgame/biskit-backend/internal/game"
	"github.com/biskitgame/biskit-backend/internal/rules"
	"github.com/biskitgame/biskit-backend/pkg/types"
)

type fixedRoller struct{ results []int }

func (f fixedRoller) Roll(count int) []int { return slices.Clone(f.results) }

// quickPipeline is the default rule set with the biskit celebration
// zeroed so tests don't wait on the pacing hold.
func quickPipeline() *rules.Pipeline {
	return rules.NewPipeline(&rules.Biskit{Target: 7}, rules.NewDouble(), rules.NewChicken(), rules.NewNumberCheck())
}

// helper: receive one message with a timeout so tests never hang.
func recvMsg(t *testing.T, ch <-chan types.ServerMessage, within time.Duration) types.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return types.ServerMessage{} // unreachable
	}
}

func recvNoMsg(t *testing.T, ch <-chan types.ServerMessage, within time.Duration) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			// closed channel: no further messages possible, that's fine
			return
		}
		t.Fatalf("expected no message within %v, got %+v", within, msg)
	case <-time.After(within):
	}
}

func recvTypes(t *testing.T, ch <-chan types.ServerMessage, want []string) []types.ServerMessage {
	t.Helper()
	msgs := make([]types.ServerMessage, 0, len(want))
	for i, typ := range want {
		msg := recvMsg(t, ch, time.Second)
		if msg.Type != typ {
			t.Fatalf("message %d: want type %q, got %q (%+v)", i, typ, msg.Type, msg)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func getView(t *testing.T, h *Hub, room string) View {
	t.Helper()
	reply := make(chan View, 1)
	h.Inbox() <- GetView{Room: room, Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func startHub(t *testing.T, roller Roller, p *rules.Pipeline) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, game.NewStore(), p, roller, zap.NewNop())
}

// twoPlayerRoom wires alice (c1, out1) creating "room" and bob (c2, out2)
// joining, and consumes the setup traffic on both outboxes.
func twoPlayerRoom(t *testing.T, h *Hub) (out1, out2 chan types.ServerMessage) {
	t.Helper()
	out1 = make(chan types.ServerMessage, 16)
	out2 = make(chan types.ServerMessage, 16)
	h.Inbox() <- Connect{ConnID: "c1", Outbox: out1}
	h.Inbox() <- Connect{ConnID: "c2", Outbox: out2}
	h.Inbox() <- CreateRoom{ConnID: "c1", RoomName: "room", PlayerName: "alice"}
	recvTypes(t, out1, []string{types.EvtRoomCreated, types.EvtPlayerJoined})
	h.Inbox() <- JoinRoom{ConnID: "c2", RoomName: "room", PlayerName: "bob"}
	recvTypes(t, out1, []string{types.EvtPlayerJoined, types.EvtStartGame, types.EvtUpdateTurn})
	recvTypes(t, out2, []string{types.EvtPlayerJoined, types.EvtStartGame, types.EvtUpdateTurn, types.EvtUpdateHistory})
	return out1, out2
}

func TestCreateRoom_CreatorOnlyAck(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1 := make(chan types.ServerMessage, 16)
	out2 := make(chan types.ServerMessage, 16)
	h.Inbox() <- Connect{ConnID: "c1", Outbox: out1}
	h.Inbox() <- Connect{ConnID: "c2", Outbox: out2}

	h.Inbox() <- CreateRoom{ConnID: "c1", RoomName: "room", PlayerName: "alice"}

	created := recvMsg(t, out1, time.Second)
	require.Equal(t, types.EvtRoomCreated, created.Type)
	require.Equal(t, "room", created.Room)

	joined := recvMsg(t, out1, time.Second)
	require.Equal(t, types.EvtPlayerJoined, joined.Type)
	require.Len(t, joined.Players, 1)
	assert.Equal(t, "alice", joined.Players[0].Name)

	// c2 is not in the room and hears nothing.
	recvNoMsg(t, out2, 50*time.Millisecond)
}

func TestCreateRoom_DuplicateNameIsDropped(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1, out2 := twoPlayerRoom(t, h)

	h.Inbox() <- CreateRoom{ConnID: "c2", RoomName: "room", PlayerName: "mallory"}
	recvNoMsg(t, out1, 50*time.Millisecond)
	recvNoMsg(t, out2, 50*time.Millisecond)

	v := getView(t, h, "room")
	require.True(t, v.Exists)
	assert.Len(t, v.Players, 2)
	assert.Equal(t, "alice", v.Players[0].Name)
}

func TestJoinRoom_SecondPlayerStartsGame(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1 := make(chan types.ServerMessage, 16)
	out2 := make(chan types.ServerMessage, 16)
	h.Inbox() <- Connect{ConnID: "c1", Outbox: out1}
	h.Inbox() <- Connect{ConnID: "c2", Outbox: out2}
	h.Inbox() <- CreateRoom{ConnID: "c1", RoomName: "room", PlayerName: "alice"}
	recvTypes(t, out1, []string{types.EvtRoomCreated, types.EvtPlayerJoined})

	h.Inbox() <- JoinRoom{ConnID: "c2", RoomName: "room", PlayerName: "bob"}

	msgs := recvTypes(t, out2, []string{types.EvtPlayerJoined, types.EvtStartGame, types.EvtUpdateTurn, types.EvtUpdateHistory})
	assert.Len(t, msgs[0].Players, 2)
	assert.Equal(t, "room", msgs[1].Room)
	assert.Equal(t, "c1", msgs[2].PlayerID) // alice still to play
	assert.Empty(t, msgs[3].History)

	// The creator gets the same broadcasts but no history catch-up.
	recvTypes(t, out1, []string{types.EvtPlayerJoined, types.EvtStartGame, types.EvtUpdateTurn})
	recvNoMsg(t, out1, 50*time.Millisecond)
}

func TestJoinRoom_ThirdPlayerGetsNoGameRestart(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1, out2 := twoPlayerRoom(t, h)

	out3 := make(chan types.ServerMessage, 16)
	h.Inbox() <- Connect{ConnID: "c3", Outbox: out3}
	h.Inbox() <- JoinRoom{ConnID: "c3", RoomName: "room", PlayerName: "carol"}

	// startGame fired on the 1->2 transition only.
	msgs := recvTypes(t, out1, []string{types.EvtPlayerJoined, types.EvtUpdateTurn})
	assert.Len(t, msgs[0].Players, 3)
	recvTypes(t, out2, []string{types.EvtPlayerJoined, types.EvtUpdateTurn})

	// The latecomer still gets the catch-up history.
	recvTypes(t, out3, []string{types.EvtPlayerJoined, types.EvtUpdateTurn, types.EvtUpdateHistory})
}

func TestJoinRoom_UnknownRoomIsDropped(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1 := make(chan types.ServerMessage, 16)
	h.Inbox() <- Connect{ConnID: "c1", Outbox: out1}

	h.Inbox() <- JoinRoom{ConnID: "c1", RoomName: "nope", PlayerName: "alice"}
	recvNoMsg(t, out1, 50*time.Millisecond)
}

func TestRollDice_OutOfTurnIsIgnored(t *testing.T) {
	h := startHub(t, fixedRoller{[]int{3, 4}}, quickPipeline())
	out1, out2 := twoPlayerRoom(t, h)

	// bob rolls on alice's turn: nothing happens at all.
	h.Inbox() <- RollDice{ConnID: "c2", Room: "room", NumDice: 2}
	recvNoMsg(t, out1, 50*time.Millisecond)
	recvNoMsg(t, out2, 50*time.Millisecond)

	v := getView(t, h, "room")
	assert.Empty(t, v.History)
	assert.Equal(t, 0, v.CurrentTurn)
}

func TestRollDice_UnknownRoomIsIgnored(t *testing.T) {
	h := startHub(t, fixedRoller{[]int{3, 4}}, quickPipeline())
	out1, _ := twoPlayerRoom(t, h)

	h.Inbox() <- RollDice{ConnID: "c1", Room: "nope", NumDice: 2}
	recvNoMsg(t, out1, 50*time.Millisecond)
}

// A wire-supplied dice count is trusted, not validated; a negative one
// must land as an empty roll, never kill the hub.
func TestRollDice_NegativeDiceCountRollsNothing(t *testing.T) {
	h := startHub(t, dice.New(1), quickPipeline())
	out1, _ := twoPlayerRoom(t, h)

	h.Inbox() <- RollDice{ConnID: "c1", Room: "room", NumDice: -1}

	msgs := recvTypes(t, out1, []string{types.EvtDiceResult, types.EvtUpdateHistory, types.EvtUpdateTurn})
	assert.Empty(t, msgs[0].DiceResults)
	assert.Zero(t, msgs[0].TotalResult)
	require.Len(t, msgs[1].History, 1)
	assert.Equal(t, "c2", msgs[2].PlayerID)

	// The hub is still alive and serving.
	v := getView(t, h, "room")
	require.True(t, v.Exists)
	assert.Equal(t, 1, v.CurrentTurn)
}

func TestRollDice_BiskitRollAdvancesTurn(t *testing.T) {
	h := startHub(t, fixedRoller{[]int{3, 4}}, quickPipeline())
	out1, out2 := twoPlayerRoom(t, h)

	h.Inbox() <- RollDice{ConnID: "c1", Room: "room", NumDice: 2}

	want := []string{types.EvtDiceResult, types.EvtUpdateHistory, types.EvtBiskit, types.EvtChickenStatus, types.EvtUpdateTurn}
	msgs := recvTypes(t, out1, want)
	assert.Equal(t, []int{3, 4}, msgs[0].DiceResults)
	assert.Equal(t, 7, msgs[0].TotalResult)
	require.Len(t, msgs[1].History, 1)
	assert.Equal(t, "alice", msgs[1].History[0].PlayerName)
	assert.Equal(t, "alice", msgs[3].PlayerName)
	assert.Equal(t, "c2", msgs[4].PlayerID) // turn passed to bob

	recvTypes(t, out2, want)

	v := getView(t, h, "room")
	assert.Equal(t, 1, v.CurrentTurn)
	require.Len(t, v.History, 1)
	require.NotNil(t, v.Chicken)
	assert.Equal(t, "alice", v.Chicken.Name)
}

func TestRollDice_DoubleHoldsTurn(t *testing.T) {
	h := startHub(t, fixedRoller{[]int{2, 2}}, quickPipeline())
	out1, _ := twoPlayerRoom(t, h)

	h.Inbox() <- RollDice{ConnID: "c1", Room: "room", NumDice: 2}

	msgs := recvTypes(t, out1, []string{types.EvtDiceResult, types.EvtUpdateHistory, types.EvtDouble, types.EvtUpdateTurn})
	assert.Equal(t, 2, msgs[2].Value)
	assert.Equal(t, "c1", msgs[3].PlayerID) // alice keeps the turn

	v := getView(t, h, "room")
	assert.Equal(t, 0, v.CurrentTurn)
}

func TestRollDice_CelebrationDelaysTurnBroadcastOnly(t *testing.T) {
	p := rules.NewPipeline(&rules.Biskit{Target: 7, Celebration: 80 * time.Millisecond},
		rules.NewDouble(), rules.NewChicken(), rules.NewNumberCheck())
	h := startHub(t, fixedRoller{[]int{3, 4}}, p)
	out1, _ := twoPlayerRoom(t, h)

	h.Inbox() <- RollDice{ConnID: "c1", Room: "room", NumDice: 2}
	recvTypes(t, out1, []string{types.EvtDiceResult, types.EvtUpdateHistory, types.EvtBiskit, types.EvtChickenStatus})

	// Turn state already moved; only the announcement waits out the hold.
	v := getView(t, h, "room")
	assert.Equal(t, 1, v.CurrentTurn)
	recvNoMsg(t, out1, 20*time.Millisecond)

	turn := recvMsg(t, out1, time.Second)
	assert.Equal(t, types.EvtUpdateTurn, turn.Type)
	assert.Equal(t, "c2", turn.PlayerID)
}

func TestDisconnect_SurvivorGetsTurn(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1, out2 := twoPlayerRoom(t, h)

	// alice (the current player) drops.
	h.Inbox() <- Disconnect{ConnID: "c1"}

	msgs := recvTypes(t, out2, []string{types.EvtPlayerJoined, types.EvtUpdateTurn})
	require.Len(t, msgs[0].Players, 1)
	assert.Equal(t, "bob", msgs[0].Players[0].Name)
	assert.Equal(t, "c2", msgs[1].PlayerID)

	v := getView(t, h, "room")
	require.True(t, v.Exists)
	assert.Equal(t, 0, v.CurrentTurn)

	// alice's outbox is closed by the hub.
	select {
	case _, ok := <-out1:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatalf("expected closed outbox")
	}
}

func TestDisconnect_LastPlayerDestroysRoom(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1 := make(chan types.ServerMessage, 16)
	h.Inbox() <- Connect{ConnID: "c1", Outbox: out1}
	h.Inbox() <- CreateRoom{ConnID: "c1", RoomName: "room", PlayerName: "alice"}
	recvTypes(t, out1, []string{types.EvtRoomCreated, types.EvtPlayerJoined})

	h.Inbox() <- Disconnect{ConnID: "c1"}

	v := getView(t, h, "room")
	assert.False(t, v.Exists)
}

func TestShutdown_ClosesClientOutboxes(t *testing.T) {
	h := startHub(t, fixedRoller{}, quickPipeline())
	out1, out2 := twoPlayerRoom(t, h)

	h.Inbox() <- Shutdown{}

	for _, ch := range []chan types.ServerMessage{out1, out2} {
		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatalf("expected closed outbox")
		}
	}
}

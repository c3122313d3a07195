package match

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paddlebounce/server/internal/game"
	"paddlebounce/server/internal/proto"
	"paddlebounce/server/internal/services"
)

// pairUp enqueues both players and returns their clients.
func pairUp(t *testing.T, f *fixture) (*fakeClient, *fakeClient) {
	t.Helper()
	a := f.connect("a", "Alice")
	b := f.connect("b", "Bob")
	require.True(t, f.mm.Enqueue(f.entry("a", "Alice")))
	require.True(t, f.mm.Enqueue(f.entry("b", "Bob")))
	require.Equal(t, 1, f.coord.ActiveRooms())
	return a, b
}

func TestDisconnectForfeitsVersusMatch(t *testing.T) {
	f := newFixture()
	_, b := pairUp(t, f)

	f.coord.HandleDisconnect("a")

	left := b.byType(proto.TypeOpponentLeft)
	require.Len(t, left, 1, "survivor is told the opponent left")

	require.Eventually(t, func() bool { return f.recorder.count() == 1 }, time.Second, 10*time.Millisecond)
	rec := f.recorder.last()
	require.False(t, rec.winnerIsP1, "the disconnecting first player forfeits")
	require.Equal(t, "Alice", rec.p1.Username)
	require.Equal(t, "Bob", rec.p2.Username)
	require.Equal(t, "0 - 0", rec.score, "score frozen at disconnect")

	_, okA := f.registry.RoomOf("a")
	_, okB := f.registry.RoomOf("b")
	require.False(t, okA)
	require.False(t, okB)
	require.Equal(t, 0, f.coord.ActiveRooms())
}

func TestDoubleDisconnectRecordsOnce(t *testing.T) {
	f := newFixture()
	_, b := pairUp(t, f)

	f.coord.HandleDisconnect("a")
	f.coord.HandleDisconnect("a")
	f.coord.HandleDisconnect("b")

	require.Eventually(t, func() bool { return f.recorder.count() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, f.recorder.count(), "one finalization no matter how many signals")
	require.Len(t, b.byType(proto.TypeOpponentLeft), 1)
}

func TestRoomFinishedRecordsWinnerByScore(t *testing.T) {
	f := newFixture()
	pairUp(t, f)

	r, ok := f.coord.RoomByConn("a")
	require.True(t, ok)

	final := game.NewState(game.ModeVersus)
	final.Score = game.Score{Player1: game.WinScore, Player2: 7}
	f.coord.RoomFinished(r, final)

	require.Eventually(t, func() bool { return f.recorder.count() == 1 }, time.Second, 10*time.Millisecond)
	rec := f.recorder.last()
	require.True(t, rec.winnerIsP1)
	require.Equal(t, "11 - 7", rec.score)
	require.Equal(t, 0, f.coord.ActiveRooms())

	// A disconnect arriving after the clean finish finds nothing to finalize.
	f.coord.HandleDisconnect("a")
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, f.recorder.count())
}

func TestTrainingRoomIsCreatedAndNeverRecorded(t *testing.T) {
	f := newFixture()
	a := f.connect("a", "Alice")

	f.coord.CreateTraining(f.entry("a", "Alice"))

	roomID, ok := f.registry.RoomOf("a")
	require.True(t, ok)
	require.Equal(t, "training-a", roomID)

	found := a.byType(proto.TypeMatchFound)
	require.Len(t, found, 1)
	mf := found[0].(proto.MatchFound)
	require.Equal(t, "Alice", mf.Player1)
	require.True(t, strings.HasPrefix(mf.Player2, "Bot "), "opponent slot carries a bot name")

	require.Eventually(t, func() bool {
		return f.presence.status("Alice") == services.StatusInTraining
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(a.byType(proto.TypeGameState)) > 0
	}, time.Second, 10*time.Millisecond)

	f.coord.HandleDisconnect("a")

	_, ok = f.registry.RoomOf("a")
	require.False(t, ok)
	require.Equal(t, 0, f.coord.ActiveRooms())
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, f.recorder.count(), "training sessions never reach the recorder")
}

func TestInviteFlowCreatesRoom(t *testing.T) {
	f := newFixture()
	a := f.connect("a", "Alice")
	b := f.connect("b", "Bob")

	f.coord.Invite("a", "bob")

	invites := b.byType(proto.TypeInviteReceived)
	require.Len(t, invites, 1)
	inv := invites[0].(proto.InviteReceived)
	require.Equal(t, "alice", inv.Player)
	require.Equal(t, "Alice", inv.Name)

	f.coord.AcceptInvite("b", "alice")

	require.Equal(t, 1, f.coord.ActiveRooms())
	foundA := a.byType(proto.TypeMatchFound)
	require.Len(t, foundA, 1)
	mf := foundA[0].(proto.MatchFound)
	require.Equal(t, "Alice", mf.Player1, "the inviter takes the first slot")
	require.Equal(t, "Bob", mf.Player2)
	require.Len(t, b.byType(proto.TypeMatchFound), 1)
}

func TestAcceptWithoutPendingInviteIsDropped(t *testing.T) {
	f := newFixture()
	f.connect("a", "Alice")
	f.connect("b", "Bob")

	f.coord.AcceptInvite("b", "alice")

	require.Equal(t, 0, f.coord.ActiveRooms())
}

func TestInviteRetractedOnDisconnect(t *testing.T) {
	f := newFixture()
	f.connect("a", "Alice")
	b := f.connect("b", "Bob")

	f.coord.Invite("a", "bob")
	f.coord.HandleDisconnect("a")

	retracted := b.byType(proto.TypeInviteRetracted)
	require.Len(t, retracted, 1)
	require.Equal(t, "alice", retracted[0].(proto.InviteRetracted).Player)

	// The stale invitation can no longer be accepted.
	f.coord.AcceptInvite("b", "alice")
	require.Equal(t, 0, f.coord.ActiveRooms())
}

func TestSelfInviteIsDropped(t *testing.T) {
	f := newFixture()
	a := f.connect("a", "Alice")

	f.coord.Invite("a", "alice")

	require.Empty(t, a.byType(proto.TypeInviteReceived))
}

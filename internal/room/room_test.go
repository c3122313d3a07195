package room

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"paddlebounce/server/internal/game"
	"paddlebounce/server/internal/proto"
	"paddlebounce/server/internal/session"
)

type fakeClient struct {
	id string

	mu   sync.Mutex
	msgs []any
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *fakeClient) Close() {}

func (c *fakeClient) gameOvers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if _, ok := m.(proto.GameOver); ok {
			n++
		}
	}
	return n
}

func (c *fakeClient) first() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) == 0 {
		return nil, false
	}
	return c.msgs[0], true
}

type fakeLifecycle struct {
	mu    sync.Mutex
	calls int
	final game.State
}

func (l *fakeLifecycle) RoomFinished(r *Room, final game.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.final = final
}

func (l *fakeLifecycle) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func fastConfig() Config {
	return Config{TickInterval: time.Millisecond, CountdownDelayTicks: 2, CountdownStepTicks: 2}
}

func newTestRoom(cfg Config, lc Lifecycle) (*Room, *fakeClient, *fakeClient) {
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	p1 := Participant{ConnID: "a", Identity: session.Identity{Username: "Alice"}, Client: a}
	p2 := Participant{ConnID: "b", Identity: session.Identity{Username: "Bob"}, Client: b}
	return New("a-b", game.ModeVersus, p1, p2, lc, cfg, zerolog.Nop()), a, b
}

func TestCountdownRunsDownThenPlays(t *testing.T) {
	r, a, _ := newTestRoom(fastConfig(), nil)
	go r.Run()
	defer func() {
		r.Stop()
		<-r.Done()
	}()

	require.Eventually(t, func() bool { return r.Phase() == PhasePlaying }, 2*time.Second, time.Millisecond)

	first, ok := a.first()
	require.True(t, ok)
	gs, isState := first.(proto.GameState)
	require.True(t, isState)
	require.Equal(t, "VS", gs.State.Start, "countdown entry shows VS")
	require.Equal(t, "a-b", gs.RoomID)

	require.Equal(t, "0", r.Snapshot().Start, "display reached zero before play began")
}

func TestPaddlesMoveDuringCountdown(t *testing.T) {
	cfg := Config{TickInterval: time.Millisecond, CountdownDelayTicks: 10000, CountdownStepTicks: 10000}
	r, _, _ := newTestRoom(cfg, nil)

	startY := r.Snapshot().Player1.Y
	r.SetKey("a", "ArrowUp", true)

	go r.Run()
	defer func() {
		r.Stop()
		<-r.Done()
	}()

	require.Eventually(t, func() bool { return r.Snapshot().Player1.Y < startY }, 2*time.Second, time.Millisecond)
	require.Equal(t, PhaseCountdown, r.Phase())
}

func TestFinishBroadcastsGameOverOnce(t *testing.T) {
	lc := &fakeLifecycle{}
	r, a, b := newTestRoom(fastConfig(), lc)

	// One point from the finish, ball already out on the right: the first
	// playing tick awards the point and terminates the match.
	r.phase = PhasePlaying
	r.state.Start = "0"
	r.state.Score.Player1 = game.WinScore - 1
	r.state.Ball.X = game.FieldWidth + 1
	r.internal.DirX = 1

	go r.Run()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room did not finish")
	}

	require.Equal(t, PhaseFinished, r.Phase())
	require.Equal(t, 1, a.gameOvers())
	require.Equal(t, 1, b.gameOvers())
	require.Equal(t, 1, lc.count())
	require.Equal(t, game.WinScore, lc.final.Score.Player1)
}

func TestStopBeforeRunIsSilent(t *testing.T) {
	r, a, b := newTestRoom(fastConfig(), nil)
	r.Stop()
	r.Run()

	select {
	case <-r.Done():
	default:
		t.Fatal("done channel not closed")
	}
	_, got := a.first()
	require.False(t, got, "no broadcast after teardown")
	_, got = b.first()
	require.False(t, got)
}

func TestStopDuringCountdownStopsTicking(t *testing.T) {
	r, a, _ := newTestRoom(fastConfig(), nil)
	go r.Run()

	require.Eventually(t, func() bool {
		_, got := a.first()
		return got
	}, 2*time.Second, time.Millisecond)

	r.Stop()
	<-r.Done()

	a.mu.Lock()
	n := len(a.msgs)
	a.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	a.mu.Lock()
	defer a.mu.Unlock()
	require.Equal(t, n, len(a.msgs), "no broadcast after the loop exits")
}

func TestSetKeyIgnoresUnknownConnAndKey(t *testing.T) {
	r, _, _ := newTestRoom(fastConfig(), nil)

	r.SetKey("nobody", "ArrowUp", true)
	require.False(t, r.inputs.Player1.Up)
	require.False(t, r.inputs.Player2.Up)

	r.SetKey("a", "Space", true)
	require.False(t, r.inputs.Player1.Up)
	require.False(t, r.inputs.Player1.Down)

	r.SetKey("a", "ArrowDown", true)
	require.True(t, r.inputs.Player1.Down)
	r.SetKey("a", "ArrowDown", false)
	require.False(t, r.inputs.Player1.Down)
}

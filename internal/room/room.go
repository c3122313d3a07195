// Package room runs one isolated match: its state machine, its tick
// scheduler, and the broadcast of each tick's snapshot to the participants.
package room

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"paddlebounce/server/internal/game"
	"paddlebounce/server/internal/proto"
	"paddlebounce/server/internal/session"
)

// Phase is where a room is in its life. Respawning is not a phase: the
// scheduler runs continuously from countdown entry to the finish, and only
// the effect of each tick differs.
type Phase int

const (
	PhaseCountdown Phase = iota
	PhasePlaying
	PhaseFinished
)

// Config tunes the scheduler. Timings are expressed in ticks so tests can
// shrink the tick interval without changing behavior.
type Config struct {
	TickInterval time.Duration
	// Ticks of free paddle movement before the countdown display starts.
	CountdownDelayTicks uint64
	// Ticks between countdown display steps (3, 2, 1, 0).
	CountdownStepTicks uint64
}

// DefaultConfig matches the reference behavior: 16 ms ticks, a 2 s
// pre-countdown window, one display step per second.
func DefaultConfig() Config {
	return Config{
		TickInterval:        16 * time.Millisecond,
		CountdownDelayTicks: 125,
		CountdownStepTicks:  62,
	}
}

// Participant is one side of the match. Client is nil for the training bot.
type Participant struct {
	ConnID   string
	Identity session.Identity
	Client   session.Client
}

// Lifecycle is notified exactly once when a room finishes by score. Forfeits
// go the other way around: the coordinator stops the room itself.
type Lifecycle interface {
	RoomFinished(r *Room, final game.State)
}

// Room owns one match's mutable state and timers. Nothing outside the
// lifecycle coordinator holds a long-lived reference to it.
type Room struct {
	id        string
	mode      game.Mode
	cfg       Config
	p1, p2    Participant
	lifecycle Lifecycle
	log       zerolog.Logger

	mu       sync.Mutex
	state    game.State
	internal game.Internal
	inputs   game.Inputs
	phase    Phase

	countdownValue  int
	nextCountdownAt uint64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(id string, mode game.Mode, p1, p2 Participant, lifecycle Lifecycle, cfg Config, log zerolog.Logger) *Room {
	return &Room{
		id:              id,
		mode:            mode,
		cfg:             cfg,
		p1:              p1,
		p2:              p2,
		lifecycle:       lifecycle,
		log:             log.With().Str("system", "room").Str("room", id).Logger(),
		state:           game.NewState(mode),
		internal:        game.NewInternal(),
		phase:           PhaseCountdown,
		countdownValue:  3,
		nextCountdownAt: cfg.CountdownDelayTicks + cfg.CountdownStepTicks,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

func (r *Room) ID() string      { return r.id }
func (r *Room) Mode() game.Mode { return r.mode }

// Participants returns both slots in ordinal order.
func (r *Room) Participants() (Participant, Participant) {
	return r.p1, r.p2
}

// Phase reports the room's current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Snapshot copies the current state. Safe to call concurrently with the tick
// loop, including after Stop.
func (r *Room) Snapshot() game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetKey stores a directional key transition for a participant. Unknown keys
// and unknown connections are dropped silently.
func (r *Room) SetKey(connID, key string, pressed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys *game.Keys
	switch connID {
	case r.p1.ConnID:
		keys = &r.inputs.Player1
	case r.p2.ConnID:
		keys = &r.inputs.Player2
	default:
		return
	}

	switch key {
	case "ArrowUp":
		keys.Up = pressed
	case "ArrowDown":
		keys.Down = pressed
	}
}

// Stop tears the room down. Idempotent; no tick or broadcast happens after
// the loop observes the signal. A tick racing Stop is a lost race, not an
// error: it finishes against the pre-stop state.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Done is closed when the tick loop has exited.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run drives the room from countdown entry to the finish on a single
// repeating ticker with a monotonic tick counter. It returns when the match
// ends or Stop is called; if Stop already happened it returns immediately
// without ticking or broadcasting.
func (r *Room) Run() {
	defer close(r.done)

	select {
	case <-r.stop:
		return
	default:
	}

	// Countdown entry broadcast: clients render "VS" while paddles unlock.
	r.send(proto.NewGameState(r.id, r.Snapshot()))

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			tick++
			switch r.Phase() {
			case PhaseCountdown:
				r.stepCountdown(tick)
			case PhasePlaying:
				if r.stepPlaying() {
					return
				}
			default:
				return
			}
		}
	}
}

// stepCountdown lets players pre-position their paddles and advances the
// 3-2-1-0 display once the delay window has passed. Reaching 0 flips the
// room into the playing phase for the next tick.
func (r *Room) stepCountdown(tick uint64) {
	r.mu.Lock()
	game.MovePaddles(&r.state, r.inputs)
	if tick >= r.nextCountdownAt && r.countdownValue >= 0 {
		r.state.Start = strconv.Itoa(r.countdownValue)
		r.countdownValue--
		r.nextCountdownAt += r.cfg.CountdownStepTicks
		if r.countdownValue < 0 {
			r.phase = PhasePlaying
		}
	}
	snap := r.state
	r.mu.Unlock()

	r.send(proto.NewGameState(r.id, snap))
}

// stepPlaying advances the simulation one tick and broadcasts the result.
// The terminal tick broadcasts gameOver instead of gameState and reports the
// room to the lifecycle coordinator; true means the loop should exit.
func (r *Room) stepPlaying() bool {
	r.mu.Lock()
	out := game.Step(&r.state, &r.internal, r.inputs)
	if out.Finished {
		r.phase = PhaseFinished
	}
	snap := r.state
	r.mu.Unlock()

	if out.Finished {
		r.send(proto.NewGameOver(r.id, snap))
		if r.lifecycle != nil {
			r.lifecycle.RoomFinished(r, snap)
		}
		return true
	}

	r.send(proto.NewGameState(r.id, snap))
	return false
}

func (r *Room) send(v any) {
	for _, p := range [...]Participant{r.p1, r.p2} {
		if p.Client == nil {
			continue
		}
		if err := p.Client.Send(v); err != nil {
			// The read loop on that connection will notice the failure and
			// drive the disconnect path; the room keeps ticking until then.
			r.log.Debug().Err(err).Str("conn", p.ConnID).Msg("broadcast failed")
		}
	}
}

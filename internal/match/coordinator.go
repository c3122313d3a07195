package match

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"paddlebounce/server/internal/game"
	"paddlebounce/server/internal/proto"
	"paddlebounce/server/internal/room"
	"paddlebounce/server/internal/services"
	"paddlebounce/server/internal/session"
)

// Bot opponents borrow a display name from this list.
var botNames = []string{
	"Louis", "Tristan", "Croco", "Manon", "Alice", "Pierre", "Axel", "Fred", "Paul",
}

// Coordinator orchestrates room creation from the matchmaking, invitation and
// training flows, and finalizes rooms on normal end or disconnect. It is the
// sole owner of live room references; everyone else reaches a room by id.
type Coordinator struct {
	registry   *session.Registry
	recorder   services.MatchRecorder
	presence   services.PresenceNotifier
	log        zerolog.Logger
	roomLog    zerolog.Logger
	roomCfg    room.Config
	startDelay time.Duration

	mu      sync.Mutex
	rooms   map[string]*room.Room
	invites map[string]string // pending invites, both directions
}

func NewCoordinator(registry *session.Registry, recorder services.MatchRecorder, presence services.PresenceNotifier, roomCfg room.Config, startDelay time.Duration, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		registry:   registry,
		recorder:   recorder,
		presence:   presence,
		log:        log.With().Str("system", "coordinator").Logger(),
		roomLog:    log,
		roomCfg:    roomCfg,
		startDelay: startDelay,
		rooms:      make(map[string]*room.Room),
		invites:    make(map[string]string),
	}
}

// CreateVersus builds a room for two matched players. The countdown starts
// after a short fixed delay so client UIs can settle on the matchFound event.
func (c *Coordinator) CreateVersus(a, b QueueEntry) {
	c.createVersusRoom(a, b)
}

// Invite forwards a match invitation to another player by identity id. The
// invitation is retracted automatically if either side disconnects.
func (c *Coordinator) Invite(fromConn string, toUser string) {
	fromIdentity, ok := c.registry.Identity(fromConn)
	if !ok || fromIdentity.ID == "" {
		return
	}
	toConn, ok := c.registry.ConnByUser(toUser)
	if !ok || toConn == fromConn {
		return
	}
	target, ok := c.registry.Client(toConn)
	if !ok {
		return
	}

	c.mu.Lock()
	c.invites[fromConn] = toConn
	c.invites[toConn] = fromConn
	c.mu.Unlock()

	c.sendTo(target, proto.InviteReceived{
		Type:   proto.TypeInviteReceived,
		Player: fromIdentity.ID,
		Name:   fromIdentity.Username,
	})
}

// AcceptInvite turns a pending invitation into a room, with the inviter in
// the first slot. Stale invitations (inviter gone, no pending entry) are
// dropped silently.
func (c *Coordinator) AcceptInvite(accepterConn string, inviterUser string) {
	inviterConn, ok := c.registry.ConnByUser(inviterUser)
	if !ok {
		return
	}

	c.mu.Lock()
	pending := c.invites[inviterConn] == accepterConn
	if pending {
		delete(c.invites, inviterConn)
		delete(c.invites, accepterConn)
	}
	c.mu.Unlock()
	if !pending {
		return
	}

	inviterIdentity, ok1 := c.registry.Identity(inviterConn)
	accepterIdentity, ok2 := c.registry.Identity(accepterConn)
	if !ok1 || !ok2 {
		return
	}
	c.createVersusRoom(
		QueueEntry{ConnID: inviterConn, Identity: inviterIdentity},
		QueueEntry{ConnID: accepterConn, Identity: accepterIdentity},
	)
}

// CreateTraining builds a solo room against the bot. Training matches are
// exhibition-only: they never reach the match recorder.
func (c *Coordinator) CreateTraining(e QueueEntry) {
	client, ok := c.registry.Client(e.ConnID)
	if !ok {
		return
	}

	roomID := "training-" + e.ConnID
	if !c.registry.SetRoom(e.ConnID, roomID) {
		return
	}

	p1 := room.Participant{ConnID: e.ConnID, Identity: e.Identity, Client: client}
	bot := room.Participant{
		Identity: session.Identity{Username: "Bot " + botNames[rand.Intn(len(botNames))]},
	}
	r := room.New(roomID, game.ModeTraining, p1, bot, c, c.roomCfg, c.roomLog)

	c.mu.Lock()
	c.rooms[roomID] = r
	c.mu.Unlock()

	c.setStatus(e.Identity, services.StatusInTraining)
	c.sendTo(client, proto.NewMatchFound(roomID, e.Identity.Username, bot.Identity.Username))

	go r.Run()
}

func (c *Coordinator) createVersusRoom(a, b QueueEntry) {
	clientA, okA := c.registry.Client(a.ConnID)
	clientB, okB := c.registry.Client(b.ConnID)
	if !okA || !okB {
		// One side vanished between pairing and creation. Nothing to tear
		// down yet; the survivor simply goes back to online.
		c.log.Warn().Str("player1", a.Identity.Username).Str("player2", b.Identity.Username).
			Msg("pairing lost a connection before room creation")
		if okA {
			c.setStatus(a.Identity, services.StatusOnline)
		}
		if okB {
			c.setStatus(b.Identity, services.StatusOnline)
		}
		return
	}

	roomID := a.ConnID + "-" + b.ConnID
	if !c.registry.SetRoom(a.ConnID, roomID) {
		return
	}
	if !c.registry.SetRoom(b.ConnID, roomID) {
		c.registry.ClearRoom(a.ConnID)
		return
	}

	p1 := room.Participant{ConnID: a.ConnID, Identity: a.Identity, Client: clientA}
	p2 := room.Participant{ConnID: b.ConnID, Identity: b.Identity, Client: clientB}
	r := room.New(roomID, game.ModeVersus, p1, p2, c, c.roomCfg, c.roomLog)

	c.mu.Lock()
	c.rooms[roomID] = r
	c.mu.Unlock()

	c.setStatus(a.Identity, services.StatusInGame)
	c.setStatus(b.Identity, services.StatusInGame)

	found := proto.NewMatchFound(roomID, a.Identity.Username, b.Identity.Username)
	c.sendTo(clientA, found)
	c.sendTo(clientB, found)

	time.AfterFunc(c.startDelay, func() {
		c.mu.Lock()
		_, alive := c.rooms[roomID]
		c.mu.Unlock()
		if alive {
			go r.Run()
		}
	})
}

// RoomFinished finalizes a room that ended by reaching the win score. The
// room has already broadcast its terminal gameOver snapshot.
func (c *Coordinator) RoomFinished(r *room.Room, final game.State) {
	if _, ok := c.claim(r.ID()); !ok {
		return
	}

	p1, p2 := r.Participants()
	c.registry.ClearRoom(p1.ConnID)
	c.registry.ClearRoom(p2.ConnID)

	if r.Mode() == game.ModeVersus {
		c.dispatchRecord(p1.Identity, p2.Identity, final.Score.Player1 >= game.WinScore, final.Score)
	}

	c.setStatus(p1.Identity, services.StatusOnline)
	if p2.Client != nil {
		c.setStatus(p2.Identity, services.StatusOnline)
	}
	c.log.Info().Str("room", r.ID()).Int("score1", final.Score.Player1).Int("score2", final.Score.Player2).
		Msg("room finished")
}

// HandleDisconnect tears down whatever the connection was involved in: a
// pending invitation, a training room, or an active versus match, which the
// disconnecting side forfeits regardless of the score. Idempotent; a second
// signal for an already-gone connection is a no-op.
func (c *Coordinator) HandleDisconnect(connID string) {
	c.retractInvites(connID)

	roomID, ok := c.registry.RoomOf(connID)
	if !ok {
		return
	}
	r, claimed := c.claim(roomID)
	if !claimed {
		c.registry.ClearRoom(connID)
		return
	}

	r.Stop()
	final := r.Snapshot()
	p1, p2 := r.Participants()
	c.registry.ClearRoom(p1.ConnID)
	c.registry.ClearRoom(p2.ConnID)

	if r.Mode() == game.ModeTraining {
		c.setStatus(p1.Identity, services.StatusOnline)
		c.log.Info().Str("room", roomID).Msg("training room abandoned")
		return
	}

	// Forfeit: the remaining side wins with the score frozen at disconnect.
	winnerIsP1 := p2.ConnID == connID
	c.dispatchRecord(p1.Identity, p2.Identity, winnerIsP1, final.Score)

	c.setStatus(p1.Identity, services.StatusOnline)
	c.setStatus(p2.Identity, services.StatusOnline)

	other := p1
	if p1.ConnID == connID {
		other = p2
	}
	if other.Client != nil {
		c.sendTo(other.Client, proto.NewOpponentLeft())
	}
	c.log.Info().Str("room", roomID).Str("conn", connID).Msg("room forfeited on disconnect")
}

// RoomByConn resolves the room a connection is playing in, if any.
func (c *Coordinator) RoomByConn(connID string) (*room.Room, bool) {
	roomID, ok := c.registry.RoomOf(connID)
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	return r, ok
}

// ActiveRooms reports the number of live rooms.
func (c *Coordinator) ActiveRooms() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// claim removes a room from the live map, returning it only to the caller
// that won the removal. Both finalization paths gate on it, so a room is
// finalized at most once no matter how a score end and a disconnect race.
func (c *Coordinator) claim(roomID string) (*room.Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	if !ok {
		return nil, false
	}
	delete(c.rooms, roomID)
	return r, true
}

func (c *Coordinator) retractInvites(connID string) {
	c.mu.Lock()
	peer, ok := c.invites[connID]
	if ok {
		delete(c.invites, connID)
		delete(c.invites, peer)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	identity, _ := c.registry.Identity(connID)
	if client, live := c.registry.Client(peer); live {
		c.sendTo(client, proto.InviteRetracted{Type: proto.TypeInviteRetracted, Player: identity.ID})
	}
}

// dispatchRecord hands the finished match to the recorder without blocking
// the caller. The payload is captured before the room is discarded; recorder
// failures are logged and never affect teardown.
func (c *Coordinator) dispatchRecord(p1, p2 session.Identity, winnerIsP1 bool, score game.Score) {
	text := fmt.Sprintf("%d - %d", score.Player1, score.Player2)
	when := time.Now()
	go func() {
		if err := c.recorder.RecordMatch(p1, p2, winnerIsP1, text, when); err != nil {
			c.log.Error().Err(err).Str("score", text).Msg("match recording failed")
		}
	}()
}

func (c *Coordinator) setStatus(id session.Identity, status services.Status) {
	go func() {
		if err := c.presence.SetStatus(id, status); err != nil {
			c.log.Warn().Err(err).Str("player", id.Username).Msg("presence update failed")
		}
	}()
}

func (c *Coordinator) sendTo(client session.Client, v any) {
	if err := client.Send(v); err != nil {
		c.log.Debug().Err(err).Msg("send failed")
	}
}

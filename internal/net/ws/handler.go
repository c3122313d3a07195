package ws

import (
	nethttp "net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"paddlebounce/server/internal/match"
	"paddlebounce/server/internal/proto"
	"paddlebounce/server/internal/services"
	"paddlebounce/server/internal/session"
)

// Handler upgrades connections, resolves their identity, and pumps inbound
// messages into the matchmaker, the coordinator, and the connection's room.
type Handler struct {
	registry    *session.Registry
	matchmaker  *match.Matchmaker
	coordinator *match.Coordinator
	resolver    services.IdentityResolver
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(registry *session.Registry, matchmaker *match.Matchmaker, coordinator *match.Coordinator, resolver services.IdentityResolver, allowedOrigin string, log zerolog.Logger) *Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	return &Handler{
		registry:    registry,
		matchmaker:  matchmaker,
		coordinator: coordinator,
		resolver:    resolver,
		log:         log.With().Str("system", "ws").Logger(),
		upgrader:    upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	identity := h.resolver.Resolve(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	sess := NewSession(uuid.NewString(), conn, h.log)
	h.registry.Bind(sess, identity)
	h.log.Info().Str("conn", sess.ID()).Str("player", identity.Username).Msg("connected")

	defer h.disconnect(sess)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.Debug().Err(err).Str("conn", sess.ID()).Msg("discarding malformed message")
			continue
		}

		h.dispatch(sess, identity, msg)
	}
}

func (h *Handler) dispatch(sess *Session, identity session.Identity, msg proto.ClientMessage) {
	entry := match.QueueEntry{ConnID: sess.ID(), Identity: identity}

	switch msg.Type {
	case proto.TypeJoinQueue:
		if h.matchmaker.Enqueue(entry) {
			h.ack(sess, proto.TypeQueueJoined)
		}
	case proto.TypeCancelQueue:
		if h.matchmaker.Cancel(sess.ID()) {
			h.ack(sess, proto.TypeQueueLeft)
		}
	case proto.TypeJoinTraining:
		h.coordinator.CreateTraining(entry)
	case proto.TypeLeaveGame:
		// Voluntary leave: same teardown as a dropped socket, but the
		// connection itself stays open.
		h.matchmaker.Cancel(sess.ID())
		h.coordinator.HandleDisconnect(sess.ID())
	case proto.TypeKeyPress:
		room, ok := h.coordinator.RoomByConn(sess.ID())
		if !ok {
			return // key press with no active room: dropped
		}
		room.SetKey(sess.ID(), msg.Key, msg.State)
	case proto.TypeInvite:
		h.coordinator.Invite(sess.ID(), msg.Player)
	case proto.TypeAcceptInvite:
		h.coordinator.AcceptInvite(sess.ID(), msg.Player)
	default:
		h.log.Debug().Str("conn", sess.ID()).Str("type", msg.Type).Msg("unknown message type")
	}
}

func (h *Handler) ack(sess *Session, ackType string) {
	if err := sess.Send(proto.Ack{Type: ackType}); err != nil {
		h.log.Debug().Err(err).Str("conn", sess.ID()).Msg("ack failed")
	}
}

// disconnect funnels every way a connection can end through one path:
// dequeue, room forfeit, invite retraction, then registry removal.
func (h *Handler) disconnect(sess *Session) {
	h.matchmaker.Cancel(sess.ID())
	h.coordinator.HandleDisconnect(sess.ID())
	h.registry.Remove(sess.ID())
	sess.Close()
	h.log.Info().Str("conn", sess.ID()).Msg("disconnected")
}

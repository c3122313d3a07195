package match

import (
	"sync"

	"github.com/rs/zerolog"

	"paddlebounce/server/internal/services"
	"paddlebounce/server/internal/session"
)

// QueueEntry is one waiting player. Insertion order is significant: pairing
// is strict FIFO, oldest two first.
type QueueEntry struct {
	ConnID   string
	Identity session.Identity
}

// roomCreator is the slice of the coordinator the matchmaker needs.
type roomCreator interface {
	CreateVersus(a, b QueueEntry)
}

// Matchmaker is an unbounded FIFO queue of waiting players. It never rejects
// an entry; entries leave only by pairing, cancellation, or disconnect.
type Matchmaker struct {
	registry *session.Registry
	creator  roomCreator
	presence services.PresenceNotifier
	log      zerolog.Logger

	mu      sync.Mutex
	entries []QueueEntry
}

func NewMatchmaker(registry *session.Registry, creator roomCreator, presence services.PresenceNotifier, log zerolog.Logger) *Matchmaker {
	return &Matchmaker{
		registry: registry,
		creator:  creator,
		presence: presence,
		log:      log.With().Str("system", "matchmaker").Logger(),
	}
}

// Enqueue appends a player unless they are already queued or already in a
// room; both make it a no-op. A successful append moves presence to in-queue
// and immediately attempts pairing.
func (m *Matchmaker) Enqueue(e QueueEntry) bool {
	if _, inRoom := m.registry.RoomOf(e.ConnID); inRoom {
		return false
	}

	m.mu.Lock()
	for _, q := range m.entries {
		if q.ConnID == e.ConnID {
			m.mu.Unlock()
			return false
		}
	}
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	m.setStatus(e.Identity, services.StatusInQueue)
	m.tryPair()
	return true
}

// Cancel removes a waiting player, reverting presence to online. A no-op if
// the player is not queued. Disconnect handling funnels through here too.
func (m *Matchmaker) Cancel(connID string) bool {
	m.mu.Lock()
	var removed *QueueEntry
	for i, q := range m.entries {
		if q.ConnID == connID {
			removed = &q
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if removed == nil {
		return false
	}
	m.setStatus(removed.Identity, services.StatusOnline)
	return true
}

// Len reports the queue depth.
func (m *Matchmaker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// tryPair dequeues the two longest-waiting entries and requests a room for
// them, repeating until fewer than two remain.
func (m *Matchmaker) tryPair() {
	for {
		m.mu.Lock()
		if len(m.entries) < 2 {
			m.mu.Unlock()
			return
		}
		a, b := m.entries[0], m.entries[1]
		m.entries = m.entries[2:]
		m.mu.Unlock()

		m.log.Info().Str("player1", a.Identity.Username).Str("player2", b.Identity.Username).Msg("paired")
		m.creator.CreateVersus(a, b)
	}
}

func (m *Matchmaker) setStatus(id session.Identity, status services.Status) {
	go func() {
		if err := m.presence.SetStatus(id, status); err != nil {
			m.log.Warn().Err(err).Str("player", id.Username).Msg("presence update failed")
		}
	}()
}

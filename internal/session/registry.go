// Package session owns the only cross-room shared state: the mapping between
// live connections, player identities, and the room a connection is in.
package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Identity is a resolved player. ID is empty for anonymous guests, which are
// never indexed for reverse lookup.
type Identity struct {
	ID       string
	Username string
}

// Client is the transport handle for one connection. Rooms and the lifecycle
// coordinator only ever talk to connections through this interface.
type Client interface {
	ID() string
	Send(v any) error
	Close()
}

// Registry is a mutex-guarded bidirectional index: connection -> identity,
// identity -> connection, and connection -> room id. All operations are O(1);
// nothing ever scans.
type Registry struct {
	mu         sync.Mutex
	clients    map[string]Client
	identities map[string]Identity
	byUser     map[string]string
	rooms      map[string]string
	log        zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		clients:    make(map[string]Client),
		identities: make(map[string]Identity),
		byUser:     make(map[string]string),
		rooms:      make(map[string]string),
		log:        log.With().Str("system", "session").Logger(),
	}
}

// Bind registers a connection with its resolved identity. A second live
// connection for the same identity displaces the first in the reverse index.
func (r *Registry) Bind(c Client, id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
	r.identities[c.ID()] = id
	if id.ID != "" {
		r.byUser[id.ID] = c.ID()
	}
}

// Identity returns the identity bound to a connection.
func (r *Registry) Identity(connID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.identities[connID]
	return id, ok
}

// Client returns the transport handle for a connection.
func (r *Registry) Client(connID string) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[connID]
	return c, ok
}

// ConnByUser resolves an identity id to its live connection, if any.
func (r *Registry) ConnByUser(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.byUser[userID]
	return connID, ok
}

// Remove forgets a connection entirely. Safe to call twice.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.identities[connID]; ok && id.ID != "" && r.byUser[id.ID] == connID {
		delete(r.byUser, id.ID)
	}
	delete(r.clients, connID)
	delete(r.identities, connID)
	delete(r.rooms, connID)
}

// SetRoom records which room a connection is in. It refuses a second room
// while one is already set: a connection maps to at most one room at a time.
func (r *Registry) SetRoom(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rooms[connID]; ok && existing != roomID {
		r.log.Warn().Str("conn", connID).Str("room", existing).Str("rejected", roomID).
			Msg("connection already in a room")
		return false
	}
	r.rooms[connID] = roomID
	return true
}

// RoomOf returns the room a connection is currently in.
func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.rooms[connID]
	return roomID, ok
}

// ClearRoom detaches a connection from its room. Safe to call twice.
func (r *Registry) ClearRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, connID)
}

// Package services holds the contracts for the server's external
// collaborators: identity resolution, match recording, and presence. The
// live match must stay correct when any of them is slow or failing, so the
// recorder and notifier are strictly fire-and-forget from the caller's side.
package services

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"paddlebounce/server/internal/session"
)

// Status is a player presence state mirrored to the rest of the platform.
type Status string

const (
	StatusOnline     Status = "online"
	StatusInQueue    Status = "in-queue"
	StatusInGame     Status = "in-game"
	StatusInTraining Status = "in-training"
)

// IdentityResolver maps a connecting request to a stable player identity.
// Implementations must amount to a single synchronous lookup; they may not
// block intake of queue or training requests.
type IdentityResolver interface {
	Resolve(r *http.Request) session.Identity
}

// MatchRecorder accepts a finished match. Errors are logged by callers and
// never retried synchronously or surfaced to players.
type MatchRecorder interface {
	RecordMatch(p1, p2 session.Identity, winnerIsP1 bool, score string, when time.Time) error
}

// PresenceNotifier is told about player status transitions so chat and
// friend lists can reflect them. Same fire-and-forget contract.
type PresenceNotifier interface {
	SetStatus(id session.Identity, status Status) error
}

// QueryResolver reads the display name from the request's query string and
// falls back to an anonymous guest. It stands in for the platform's session
// service in development and tests.
type QueryResolver struct{}

func (QueryResolver) Resolve(r *http.Request) session.Identity {
	name := strings.TrimSpace(r.URL.Query().Get("username"))
	if name == "" {
		return session.Identity{Username: "Guest"}
	}
	return session.Identity{ID: strings.ToLower(name), Username: name}
}

// LogRecorder writes finished matches to the log only.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log.With().Str("system", "recorder").Logger()}
}

func (r *LogRecorder) RecordMatch(p1, p2 session.Identity, winnerIsP1 bool, score string, when time.Time) error {
	winner := p1.Username
	if !winnerIsP1 {
		winner = p2.Username
	}
	r.log.Info().
		Str("player1", p1.Username).
		Str("player2", p2.Username).
		Str("winner", winner).
		Str("score", score).
		Time("at", when).
		Msg("match recorded")
	return nil
}

// LogPresence writes status transitions to the log only.
type LogPresence struct {
	log zerolog.Logger
}

func NewLogPresence(log zerolog.Logger) *LogPresence {
	return &LogPresence{log: log.With().Str("system", "presence").Logger()}
}

func (p *LogPresence) SetStatus(id session.Identity, status Status) error {
	p.log.Debug().Str("player", id.Username).Str("status", string(status)).Msg("presence update")
	return nil
}

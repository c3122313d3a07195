// Package proto defines the closed set of messages exchanged with clients.
// Everything on the wire is one of these tagged variants; anything else is
// dropped at the boundary.
package proto

import "paddlebounce/server/internal/game"

// Inbound message types.
const (
	TypeJoinQueue    = "joinQueue"
	TypeCancelQueue  = "cancelQueue"
	TypeJoinTraining = "joinTraining"
	TypeLeaveGame    = "leaveGame"
	TypeKeyPress     = "keyPress"
	TypeInvite       = "invite"
	TypeAcceptInvite = "acceptInvite"
)

// Outbound message types.
const (
	TypeMatchFound      = "matchFound"
	TypeGameState       = "gameState"
	TypeGameOver        = "gameOver"
	TypeOpponentLeft    = "opponentLeft"
	TypeQueueJoined     = "queueJoined"
	TypeQueueLeft       = "queueLeft"
	TypeInviteReceived  = "inviteReceived"
	TypeInviteRetracted = "inviteRetracted"
)

// ClientMessage is the single inbound shape. Type selects the variant; the
// remaining fields are only meaningful for the variants that use them.
type ClientMessage struct {
	Type string `json:"type"`

	// keyPress
	Key   string `json:"key,omitempty"`
	State bool   `json:"state,omitempty"`

	// invite / acceptInvite: the other player's identity id.
	Player string `json:"player,omitempty"`
}

// MatchFound announces a created room to both participants.
type MatchFound struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

func NewMatchFound(roomID, player1, player2 string) MatchFound {
	return MatchFound{Type: TypeMatchFound, RoomID: roomID, Player1: player1, Player2: player2}
}

// GameState carries one tick's full snapshot.
type GameState struct {
	Type   string     `json:"type"`
	RoomID string     `json:"roomId"`
	State  game.State `json:"state"`
}

func NewGameState(roomID string, state game.State) GameState {
	return GameState{Type: TypeGameState, RoomID: roomID, State: state}
}

// GameOver carries the terminal snapshot; the winner is implied by the score.
type GameOver struct {
	Type   string     `json:"type"`
	RoomID string     `json:"roomId"`
	State  game.State `json:"state"`
}

func NewGameOver(roomID string, state game.State) GameOver {
	return GameOver{Type: TypeGameOver, RoomID: roomID, State: state}
}

// OpponentLeft tells the surviving player the match ended by forfeit rather
// than a clean finish.
type OpponentLeft struct {
	Type string `json:"type"`
}

func NewOpponentLeft() OpponentLeft {
	return OpponentLeft{Type: TypeOpponentLeft}
}

// Ack is a minimal typed acknowledgement (queueJoined, queueLeft).
type Ack struct {
	Type string `json:"type"`
}

// InviteReceived forwards a match invitation to the invitee.
type InviteReceived struct {
	Type   string `json:"type"`
	Player string `json:"player"`
	Name   string `json:"name"`
}

// InviteRetracted tells the invitee the inviter is gone.
type InviteRetracted struct {
	Type   string `json:"type"`
	Player string `json:"player"`
}

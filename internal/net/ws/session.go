package ws

import (
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// Session wraps one websocket connection with a write mutex so the room tick
// loop, the coordinator, and the read loop can all send without interleaving
// frames. It implements session.Client.
type Session struct {
	id   string
	conn *websocket.Conn
	log  zerolog.Logger

	mu sync.Mutex
}

func NewSession(id string, conn *websocket.Conn, log zerolog.Logger) *Session {
	return &Session{
		id:   id,
		conn: conn,
		log:  log.With().Str("system", "ws").Str("conn", id).Logger(),
	}
}

func (s *Session) ID() string { return s.id }

// Send marshals v and writes it as a single text frame under a deadline.
func (s *Session) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) Close() {
	s.conn.Close()
}

package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session serializes writes to one connection: the snapshot goroutine and
// the command read loop both write acks, and gorilla connections allow
// only one concurrent writer.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newSession(conn *websocket.Conn) *session {
	return &session{conn: conn}
}

func (s *session) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

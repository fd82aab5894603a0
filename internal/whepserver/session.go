package whepserver

import (
	"io"
	"time"
)

// session holds one answered peer connection.
type session struct {
	ID      string
	Stream  string
	Created time.Time
	peer    io.Closer
}

func newSession(id, stream string, peer io.Closer) *session {
	return &session{
		ID:      id,
		Stream:  stream,
		Created: time.Now(),
		peer:    peer,
	}
}

// Stop releases the peer connection.
func (s *session) Stop() error {
	if s.peer == nil {
		return nil
	}
	return s.peer.Close()
}

package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/becomeliminal/astra/memory"
)

// Session is the state of one conversation: its short-term buffer and the
// long-term memories surfaced so far. Nothing in it is persisted.
type Session struct {
	// ID identifies the session in logs.
	ID string

	// CreatedAt is when the session started.
	CreatedAt time.Time

	// Buffer holds the "User: ..." and "Bot: ..." lines of this session.
	Buffer *memory.ShortTermBuffer

	// Active is the working set of relevant long-term memories.
	Active *memory.ActiveSet

	turns int
}

// NewSession starts an empty session.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Buffer:    &memory.ShortTermBuffer{},
		Active:    memory.NewActiveSet(),
	}
}

// TurnCount returns the number of turns started in this session.
func (s *Session) TurnCount() int {
	return s.turns
}

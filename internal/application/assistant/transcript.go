package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/bref-insight/pkg/types/chat"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      chat.Role `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is the append-only, in-memory message log of a session.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// Append records a message and returns it.
func (t *Transcript) Append(role chat.Role, content string) Message {
	m := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: t.now().UTC(),
	}
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()
	return m
}

// Messages returns a copy of every message.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.messages...)
}

// Turns returns the user and assistant messages, system entries excluded.
func (t *Transcript) Turns() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, 0, len(t.messages))
	for _, m := range t.messages {
		if m.Role != chat.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

//Personal.AI order the ending

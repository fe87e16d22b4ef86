// Package history provides an in-memory conversation store. Durable chat
// history lives with an external collaborator; this implementation backs
// the CLI, the server, and tests.
package history

import (
	"context"
	"sync"

	"github.com/caldrin/answerhub/internal/models"
)

// maxTurnsPerConversation bounds memory growth per conversation.
const maxTurnsPerConversation = 50

// MemoryStore keeps conversation turns in process memory, keyed by tenant,
// user, and conversation. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	turns map[string][]models.Turn
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]models.Turn)}
}

// LastTurns returns up to n most recent turns, oldest first.
func (s *MemoryStore) LastTurns(ctx context.Context, tenant, user string, n int, conversationID string) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.turns[key(tenant, user, conversationID)]
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// SaveTurn appends one completed exchange, evicting the oldest turn once
// the per-conversation bound is reached.
func (s *MemoryStore) SaveTurn(ctx context.Context, tenant, user, userText, assistantText, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(tenant, user, conversationID)
	turns := append(s.turns[k], models.Turn{User: userText, Assistant: assistantText})
	if len(turns) > maxTurnsPerConversation {
		turns = turns[len(turns)-maxTurnsPerConversation:]
	}
	s.turns[k] = turns
	return nil
}

func key(tenant, user, conversationID string) string {
	return tenant + "\x00" + user + "\x00" + conversationID
}

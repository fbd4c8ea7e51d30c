package session

import (
	"context"
	"sync"
	"time"
)

// Store persists conversation state keyed by an opaque user id. Load returns
// (nil, nil) for a user with no stored state.
type Store interface {
	Load(ctx context.Context, userID string) (*ConversationState, error)
	Save(ctx context.Context, userID string, state *ConversationState) error
	Delete(ctx context.Context, userID string) error
}

// memoryStore keeps state in-process for the lifetime of the server. This is
// the default backing: the assistant only needs last-turn state per user.
type memoryStore struct {
	mu     sync.RWMutex
	states map[string]*ConversationState
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		states: make(map[string]*ConversationState),
	}
}

func (m *memoryStore) Load(_ context.Context, userID string) (*ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[userID].Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, userID string, state *ConversationState) error {
	clone := state.Clone()
	clone.UpdatedAt = time.Now().Unix()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = clone
	return nil
}

func (m *memoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// Ensure memoryStore implements Store
var _ Store = (*memoryStore)(nil)

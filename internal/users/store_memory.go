package users

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"moodtunes/internal/core"
)

// MemoryStore keeps users in process memory.
// Data survives across requests but not process restarts.
type MemoryStore struct {
	mu         sync.RWMutex
	byUsername map[string]core.User
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUsername: make(map[string]core.User)}
}

// Create stores a new user. Usernames are compared case-insensitively.
func (s *MemoryStore) Create(_ context.Context, user *core.User) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return fmt.Errorf("user id and username are required")
	}
	key := strings.ToLower(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUsername[key]; exists {
		return ErrExists
	}
	s.byUsername[key] = *user
	return nil
}

// GetByUsername returns a copy of the stored user.
func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	u, ok := s.byUsername[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

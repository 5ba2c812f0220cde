package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"moodtunes/internal/core"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]core.HistoryEntry
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]core.HistoryEntry)}
}

// Append stores a copy of entry.
func (s *MemoryStore) Append(_ context.Context, entry *core.HistoryEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	c := *entry
	c.SongIDs = append([]string(nil), entry.SongIDs...)

	s.mu.Lock()
	s.byUser[c.UserID] = append(s.byUser[c.UserID], c)
	s.mu.Unlock()
	return nil
}

// List returns copies of a user's entries, newest first.
func (s *MemoryStore) List(_ context.Context, userID string, limit int) ([]*core.HistoryEntry, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	entries := s.byUser[userID]
	out := make([]*core.HistoryEntry, 0, len(entries))
	for i := range entries {
		c := entries[i]
		c.SongIDs = append([]string(nil), entries[i].SongIDs...)
		out = append(out, &c)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteBefore drops entries older than cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for user, entries := range s.byUser {
		kept := entries[:0]
		for _, e := range entries {
			if e.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(s.byUser, user)
		} else {
			s.byUser[user] = kept
		}
	}
	return removed, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

package feedback

import (
	"context"
	"sort"
	"sync"

	"moodtunes/internal/core"
)

type ratingKey struct {
	userID string
	songID string
}

// MemoryStore keeps feedback in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	ratings map[ratingKey]core.Feedback
}

// NewMemoryStore creates an empty in-memory feedback store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ratings: make(map[ratingKey]core.Feedback)}
}

// Record stores or replaces the user's rating of a song.
func (s *MemoryStore) Record(_ context.Context, fb *core.Feedback) error {
	if err := validate(fb); err != nil {
		return err
	}
	s.mu.Lock()
	s.ratings[ratingKey{fb.UserID, fb.SongID}] = *fb
	s.mu.Unlock()
	return nil
}

// ListByUser returns a user's ratings, newest first.
func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*core.Feedback, error) {
	s.mu.RLock()
	var out []*core.Feedback
	for k, fb := range s.ratings {
		if k.userID == userID {
			c := fb
			out = append(out, &c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AverageRatings aggregates ratings per song.
func (s *MemoryStore) AverageRatings(_ context.Context, songIDs []string) (map[string]Summary, error) {
	want := make(map[string]bool, len(songIDs))
	for _, id := range songIDs {
		want[id] = true
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	s.mu.RLock()
	for k, fb := range s.ratings {
		if len(want) > 0 && !want[k.songID] {
			continue
		}
		sums[k.songID] += fb.Rating
		counts[k.songID]++
	}
	s.mu.RUnlock()

	out := make(map[string]Summary, len(counts))
	for id, n := range counts {
		out[id] = Summary{Average: float64(sums[id]) / float64(n), Count: n}
	}
	return out, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

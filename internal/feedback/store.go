// Package feedback persists song ratings and aggregates them for ranking.
package feedback

import (
	"context"
	"fmt"

	"moodtunes/internal/core"
)

// Summary aggregates the ratings of one song.
type Summary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Store defines persistence operations for feedback.
type Store interface {
	// Record stores a rating. A user rating the same song again replaces
	// the earlier rating.
	Record(ctx context.Context, fb *core.Feedback) error
	// ListByUser returns a user's ratings, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*core.Feedback, error)
	// AverageRatings returns rating aggregates keyed by song id. An empty songIDs
	// returns every rated song.
	AverageRatings(ctx context.Context, songIDs []string) (map[string]Summary, error)
	Close() error
}

// DefaultListLimit applies when ListByUser is called with a non-positive limit.
const DefaultListLimit = 50

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > 500:
		return 500
	default:
		return limit
	}
}

func validate(fb *core.Feedback) error {
	if fb == nil {
		return fmt.Errorf("feedback is nil")
	}
	if fb.ID == "" {
		return fmt.Errorf("feedback id is required")
	}
	if fb.CreatedAt.IsZero() {
		return fmt.Errorf("feedback created_at is required")
	}
	return fb.Validate()
}

// Package history persists the recommendations served to each user.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"moodtunes/internal/core"
)

// Store defines persistence operations for recommendation history.
type Store interface {
	// Append records an entry. ID and CreatedAt must be set.
	Append(ctx context.Context, entry *core.HistoryEntry) error
	// List returns a user's entries, newest first.
	List(ctx context.Context, userID string, limit int) ([]*core.HistoryEntry, error)
	// DeleteBefore removes entries created before cutoff and reports how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// DefaultListLimit applies when List is called with a non-positive limit.
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

func validateEntry(entry *core.HistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("history entry is nil")
	}
	if entry.ID == "" || entry.UserID == "" {
		return fmt.Errorf("history entry id and user id are required")
	}
	if entry.CreatedAt.IsZero() {
		return fmt.Errorf("history entry created_at is required")
	}
	return nil
}

func encodeSongIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal song ids: %w", err)
	}
	return string(b), nil
}

func decodeSongIDs(raw string) ([]string, error) {
	var ids []string
	if raw == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal song ids: %w", err)
	}
	return ids, nil
}

package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"moodtunes/internal/core"
)

// SQLiteStore stores feedback in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps a migrated SQLite handle.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &SQLiteStore{db: db}, nil
}

// Record upserts the user's rating of a song.
func (s *SQLiteStore) Record(ctx context.Context, fb *core.Feedback) error {
	if err := validate(fb); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, user_id, song_id, rating, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, song_id) DO UPDATE SET
			id = excluded.id,
			rating = excluded.rating,
			created_at = excluded.created_at
	`, fb.ID, fb.UserID, fb.SongID, fb.Rating, fb.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListByUser returns a user's ratings, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit int) ([]*core.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, song_id, rating, created_at
		FROM feedback
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []*core.Feedback
	for rows.Next() {
		var (
			fb        core.Feedback
			createdAt int64
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.SongID, &fb.Rating, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

// AverageRatings aggregates ratings per song.
func (s *SQLiteStore) AverageRatings(ctx context.Context, songIDs []string) (map[string]Summary, error) {
	query := "SELECT song_id, AVG(rating), COUNT(*) FROM feedback"
	args := make([]interface{}, 0, len(songIDs))
	if len(songIDs) > 0 {
		placeholders := make([]string, len(songIDs))
		for i, id := range songIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " WHERE song_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " GROUP BY song_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback summaries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Summary)
	for rows.Next() {
		var (
			id  string
			sum Summary
		)
		if err := rows.Scan(&id, &sum.Average, &sum.Count); err != nil {
			return nil, fmt.Errorf("scan feedback summary: %w", err)
		}
		out[id] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback summaries: %w", err)
	}
	return out, nil
}

// Close is a no-op; the shared connection is owned by storage.
func (s *SQLiteStore) Close() error {
	return nil
}

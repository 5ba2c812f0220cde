package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"moodtunes/internal/core"
)

// PostgreSQLStore stores feedback in PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore wraps a migrated PostgreSQL pool.
func NewPostgreSQLStore(pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	return &PostgreSQLStore{pool: pool}, nil
}

// Record upserts the user's rating of a song.
func (s *PostgreSQLStore) Record(ctx context.Context, fb *core.Feedback) error {
	if err := validate(fb); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback (id, user_id, song_id, rating, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, song_id) DO UPDATE SET
			id = EXCLUDED.id,
			rating = EXCLUDED.rating,
			created_at = EXCLUDED.created_at
	`, fb.ID, fb.UserID, fb.SongID, fb.Rating, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListByUser returns a user's ratings, newest first.
func (s *PostgreSQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]*core.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, song_id, rating, created_at
		FROM feedback
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []*core.Feedback
	for rows.Next() {
		var (
			fb        core.Feedback
			createdAt time.Time
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.SongID, &fb.Rating, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		fb.CreatedAt = createdAt.UTC()
		out = append(out, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

// AverageRatings aggregates ratings per song.
func (s *PostgreSQLStore) AverageRatings(ctx context.Context, songIDs []string) (map[string]Summary, error) {
	query := "SELECT song_id, AVG(rating)::float8, COUNT(*) FROM feedback"
	var args []interface{}
	if len(songIDs) > 0 {
		query += " WHERE song_id = ANY($1)"
		args = append(args, songIDs)
	}
	query += " GROUP BY song_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback summaries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Summary)
	for rows.Next() {
		var (
			id    string
			sum   Summary
			count int64
		)
		if err := rows.Scan(&id, &sum.Average, &count); err != nil {
			return nil, fmt.Errorf("scan feedback summary: %w", err)
		}
		sum.Count = int(count)
		out[id] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback summaries: %w", err)
	}
	return out, nil
}

// Close is a no-op; the shared pool is owned by storage.
func (s *PostgreSQLStore) Close() error {
	return nil
}

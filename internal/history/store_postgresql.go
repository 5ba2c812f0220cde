package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"moodtunes/internal/core"
)

// PostgreSQLStore stores history in PostgreSQL.
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

// Append inserts an entry.
func (s *PostgreSQLStore) Append(ctx context.Context, entry *core.HistoryEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	songs, err := encodeSongIDs(entry.SongIDs)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO history (id, user_id, mood_text, mood, song_ids, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	`, entry.ID, entry.UserID, entry.MoodText, string(entry.Mood), songs, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns a user's entries, newest first.
func (s *PostgreSQLStore) List(ctx context.Context, userID string, limit int) ([]*core.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, mood_text, mood, song_ids::text, created_at
		FROM history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*core.HistoryEntry
	for rows.Next() {
		var (
			e         core.HistoryEntry
			mood      string
			songs     string
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.MoodText, &mood, &songs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if e.SongIDs, err = decodeSongIDs(songs); err != nil {
			return nil, err
		}
		e.Mood = core.Mood(mood)
		e.CreatedAt = createdAt.UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// DeleteBefore removes entries created before cutoff.
func (s *PostgreSQLStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM history WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close is a no-op; the shared pool is owned by storage.
func (s *PostgreSQLStore) Close() error {
	return nil
}

package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"moodtunes/internal/core"
)

// SQLiteStore stores history in SQLite.
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

// Append inserts an entry.
func (s *SQLiteStore) Append(ctx context.Context, entry *core.HistoryEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	songs, err := encodeSongIDs(entry.SongIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, user_id, mood_text, mood, song_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.MoodText, string(entry.Mood), songs, entry.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns a user's entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]*core.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, mood_text, mood, song_ids, created_at
		FROM history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
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
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.MoodText, &mood, &songs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if e.SongIDs, err = decodeSongIDs(songs); err != nil {
			return nil, err
		}
		e.Mood = core.Mood(mood)
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// DeleteBefore removes entries created before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE created_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return res.RowsAffected()
}

// Close is a no-op; the shared connection is owned by storage.
func (s *SQLiteStore) Close() error {
	return nil
}

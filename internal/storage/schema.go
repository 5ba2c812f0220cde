package storage

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// migration is one schema step. Versions are applied in order and recorded in
// schema_migrations; a step is never edited once released, only appended.
type migration struct {
	version  int
	name     string
	sqlite   []string
	postgres []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "users",
		sqlite: []string{`
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL COLLATE NOCASE UNIQUE,
				password_hash TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
		},
		postgres: []string{`
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(LOWER(username))",
		},
	},
	{
		version: 2,
		name:    "history",
		sqlite: []string{`
			CREATE TABLE IF NOT EXISTS history (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				mood_text TEXT NOT NULL,
				mood TEXT NOT NULL,
				song_ids TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			"CREATE INDEX IF NOT EXISTS idx_history_user_created ON history(user_id, created_at DESC)",
			"CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at)",
		},
		postgres: []string{`
			CREATE TABLE IF NOT EXISTS history (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				mood_text TEXT NOT NULL,
				mood TEXT NOT NULL,
				song_ids JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			"CREATE INDEX IF NOT EXISTS idx_history_user_created ON history(user_id, created_at DESC)",
			"CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at)",
		},
	},
	{
		version: 3,
		name:    "feedback",
		sqlite: []string{`
			CREATE TABLE IF NOT EXISTS feedback (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				song_id TEXT NOT NULL,
				rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				created_at INTEGER NOT NULL,
				UNIQUE (user_id, song_id)
			)`,
			"CREATE INDEX IF NOT EXISTS idx_feedback_song ON feedback(song_id)",
		},
		postgres: []string{`
			CREATE TABLE IF NOT EXISTS feedback (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				song_id TEXT NOT NULL,
				rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
				created_at TIMESTAMPTZ NOT NULL,
				UNIQUE (user_id, song_id)
			)`,
			"CREATE INDEX IF NOT EXISTS idx_feedback_song ON feedback(song_id)",
		},
	},
}

// SchemaVersion is the version a fully migrated SQL database reports.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

func pending(current int) []migration {
	for i, m := range migrations {
		if m.version > current {
			return migrations[i:]
		}
	}
	return nil
}

type mongoCollection struct {
	name    string
	indexes []mongo.IndexModel
}

var mongoCollections = []mongoCollection{
	{
		name: "users",
		indexes: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "username_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: "history",
		indexes: []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	},
	{
		name: "feedback",
		indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "song_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "song_id", Value: 1}}},
		},
	},
}

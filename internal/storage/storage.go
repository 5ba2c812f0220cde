// Package storage opens the database that the users, history and feedback
// stores share, and owns its schema.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Backend names accepted by Open.
const (
	TypeSQLite     = "sqlite"
	TypePostgreSQL = "postgresql"
	TypeMongoDB    = "mongodb"
	// TypeMemory has no connection; callers pass a nil *DB to the store
	// factories instead of calling Open.
	TypeMemory = "memory"
)

// DefaultSQLitePath is used when no SQLite path is configured.
const DefaultSQLitePath = "data/moodtunes.db"

// Config selects a backend and its connection settings.
type Config struct {
	Type       string
	SQLite     SQLiteConfig
	PostgreSQL PostgreSQLConfig
	MongoDB    MongoDBConfig
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path string
}

// PostgreSQLConfig holds PostgreSQL settings.
type PostgreSQLConfig struct {
	URL      string
	MaxConns int
}

// MongoDBConfig holds MongoDB settings.
type MongoDBConfig struct {
	URL      string
	Database string
}

// DB is an open, migrated database. Exactly one of the accessors returns a
// non-nil handle, matching Type. Safe for concurrent use.
type DB struct {
	kind   string
	sqlite *sql.DB
	pool   *pgxpool.Pool
	client *mongo.Client
	mongo  *mongo.Database
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	switch cfg.Type {
	case TypeSQLite:
		return OpenSQLite(ctx, cfg.SQLite)
	case TypePostgreSQL:
		return OpenPostgreSQL(ctx, cfg.PostgreSQL)
	case TypeMongoDB:
		return OpenMongoDB(ctx, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb)", cfg.Type)
	}
}

// Type returns the backend name.
func (d *DB) Type() string { return d.kind }

// SQLite returns the SQLite handle, or nil on other backends.
func (d *DB) SQLite() *sql.DB { return d.sqlite }

// Postgres returns the PostgreSQL pool, or nil on other backends.
func (d *DB) Postgres() *pgxpool.Pool { return d.pool }

// Mongo returns the MongoDB database, or nil on other backends.
func (d *DB) Mongo() *mongo.Database { return d.mongo }

// Close releases the connection. Calling it more than once is safe.
func (d *DB) Close() error {
	var errs []error
	if d.sqlite != nil {
		errs = append(errs, d.sqlite.Close())
		d.sqlite = nil
	}
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	if d.client != nil {
		errs = append(errs, d.client.Disconnect(context.Background()))
		d.client = nil
		d.mongo = nil
	}
	return errors.Join(errs...)
}

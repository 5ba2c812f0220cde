package feedback

import (
	"fmt"

	"moodtunes/internal/storage"
)

// NewStore creates a feedback store on the shared database.
// A nil database selects the in-memory store.
func NewStore(db *storage.DB) (Store, error) {
	if db == nil {
		return NewMemoryStore(), nil
	}
	switch db.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(db.SQLite())
	case storage.TypePostgreSQL:
		return NewPostgreSQLStore(db.Postgres())
	case storage.TypeMongoDB:
		return NewMongoDBStore(db.Mongo())
	default:
		return nil, fmt.Errorf("unknown storage type: %s", db.Type())
	}
}

package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// OpenMongoDB connects to MongoDB and ensures collection indexes.
func OpenMongoDB(ctx context.Context, cfg MongoDBConfig) (*DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("MongoDB URL is required")
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = "moodtunes"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URL).SetAppName("moodtunes"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	if err := ensureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &DB{kind: TypeMongoDB, client: client, mongo: database}, nil
}

// ensureIndexes is idempotent; MongoDB ignores an identical existing index.
func ensureIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, coll := range mongoCollections {
		if _, err := database.Collection(coll.name).Indexes().CreateMany(ctx, coll.indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll.name, err)
		}
	}
	return nil
}

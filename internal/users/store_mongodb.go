package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"moodtunes/internal/core"
)

type mongoUserDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	UsernameKey  string    `bson:"username_key"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// MongoDBStore stores users in MongoDB.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore uses the users collection; storage.OpenMongoDB creates its indexes.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection("users")}, nil
}

// Create inserts a new user.
func (s *MongoDBStore) Create(ctx context.Context, user *core.User) error {
	doc := mongoUserDocument{
		ID:           user.ID,
		Username:     user.Username,
		UsernameKey:  strings.ToLower(user.Username),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByUsername returns a user by name, case-insensitively.
func (s *MongoDBStore) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	var doc mongoUserDocument
	err := s.collection.FindOne(ctx, bson.M{"username_key": strings.ToLower(username)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &core.User{
		ID:           doc.ID,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

// Close is a no-op; the shared client is owned by storage.
func (s *MongoDBStore) Close() error {
	return nil
}

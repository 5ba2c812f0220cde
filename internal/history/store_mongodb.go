package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"moodtunes/internal/core"
)

type mongoHistoryDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	MoodText  string    `bson:"mood_text"`
	Mood      string    `bson:"mood"`
	SongIDs   []string  `bson:"song_ids"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoDBStore stores history in MongoDB.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore uses the history collection; storage.OpenMongoDB creates its indexes.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection("history")}, nil
}

// Append inserts an entry.
func (s *MongoDBStore) Append(ctx context.Context, entry *core.HistoryEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	songs := entry.SongIDs
	if songs == nil {
		songs = []string{}
	}
	doc := mongoHistoryDocument{
		ID:        entry.ID,
		UserID:    entry.UserID,
		MoodText:  entry.MoodText,
		Mood:      string(entry.Mood),
		SongIDs:   songs,
		CreatedAt: entry.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns a user's entries, newest first.
func (s *MongoDBStore) List(ctx context.Context, userID string, limit int) ([]*core.HistoryEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*core.HistoryEntry
	for cursor.Next(ctx) {
		var doc mongoHistoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, &core.HistoryEntry{
			ID:        doc.ID,
			UserID:    doc.UserID,
			MoodText:  doc.MoodText,
			Mood:      core.Mood(doc.Mood),
			SongIDs:   doc.SongIDs,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// DeleteBefore removes entries created before cutoff.
func (s *MongoDBStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return res.DeletedCount, nil
}

// Close is a no-op; the shared client is owned by storage.
func (s *MongoDBStore) Close() error {
	return nil
}

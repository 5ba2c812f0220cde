package feedback

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"moodtunes/internal/core"
)

type mongoFeedbackDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	SongID    string    `bson:"song_id"`
	Rating    int       `bson:"rating"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoDBStore stores feedback in MongoDB.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore uses the feedback collection; storage.OpenMongoDB creates its indexes.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection("feedback")}, nil
}

// Record upserts the user's rating of a song. The document _id stays that of
// the first rating; the later id is dropped.
func (s *MongoDBStore) Record(ctx context.Context, fb *core.Feedback) error {
	if err := validate(fb); err != nil {
		return err
	}
	filter := bson.M{"user_id": fb.UserID, "song_id": fb.SongID}
	update := bson.M{
		"$set":         bson.M{"rating": fb.Rating, "created_at": fb.CreatedAt},
		"$setOnInsert": bson.M{"_id": fb.ID},
	}
	if _, err := s.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert feedback: %w", err)
	}
	return nil
}

// ListByUser returns a user's ratings, newest first.
func (s *MongoDBStore) ListByUser(ctx context.Context, userID string, limit int) ([]*core.Feedback, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(normalizeLimit(limit)))

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*core.Feedback
	for cursor.Next(ctx) {
		var doc mongoFeedbackDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
		out = append(out, &core.Feedback{
			ID:        doc.ID,
			UserID:    doc.UserID,
			SongID:    doc.SongID,
			Rating:    doc.Rating,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

// AverageRatings aggregates ratings per song.
func (s *MongoDBStore) AverageRatings(ctx context.Context, songIDs []string) (map[string]Summary, error) {
	pipeline := mongo.Pipeline{}
	if len(songIDs) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"song_id": bson.M{"$in": songIDs}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$song_id"},
		{Key: "average", Value: bson.M{"$avg": "$rating"}},
		{Key: "count", Value: bson.M{"$sum": 1}},
	}}})

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate feedback: %w", err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]Summary)
	for cursor.Next(ctx) {
		var row struct {
			SongID  string  `bson:"_id"`
			Average float64 `bson:"average"`
			Count   int     `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode feedback summary: %w", err)
		}
		out[row.SongID] = Summary{Average: row.Average, Count: row.Count}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback summaries: %w", err)
	}
	return out, nil
}

// Close is a no-op; the shared client is owned by storage.
func (s *MongoDBStore) Close() error {
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"notesapi/log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the indexes the notes collection relies on.
func SetupIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	notesCollection := db.Collection(notesCollectionName)

	enriched := bson.M{
		"summary":         bson.M{"$type": "string"},
		"sentiment_score": bson.M{"$type": "double"},
	}

	noteIndexes := []mongo.IndexModel{
		// Public listing seek
		{
			Keys: bson.D{
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().
				SetName("enriched_notes_created").
				SetPartialFilterExpression(enriched),
		},
		// Author history
		{
			Keys: bson.D{
				{Key: "author_id", Value: 1},
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().
				SetName("author_notes_date"),
		},
	}

	if _, err := notesCollection.Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}

	log.Logger().Infof(nil, "created notes indexes on %s", db.Name())
	return nil
}

package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the store relies on. Safe to call on
// every startup; Mongo treats existing identical indexes as a no-op.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	users := database.Collection("users")

	// unique email backs the registration uniqueness contract
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	if err != nil {
		return err
	}

	tasks := database.Collection("tasks")

	_, err = tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: 1}},
	})

	return err
}

package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectDB initializes and returns a MongoDB client and database instance.
func ConnectDB(uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the primary node
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		// Disconnect if ping fails
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	fmt.Println("Successfully connected to MongoDB!")

	return client, db, nil
}

// DisconnectDB closes the MongoDB client connection.
func DisconnectDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	fmt.Println("MongoDB connection closed.")
	return nil
}

// EnsureIndexes creates the indexes the race engine's correctness depends
// on. The unique (rfq_id, provider_id) index on rfq_responses is what turns
// a same-provider double accept into a duplicate key error instead of a
// second row; broadcasts carry the same pair uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	pairKeys := bson.D{{Key: "rfq_id", Value: 1}, {Key: "provider_id", Value: 1}}

	_, err := db.Collection("rfq_responses").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    pairKeys,
		Options: options.Index().SetUnique(true).SetName("uniq_rfq_provider_response"),
	})
	if err != nil {
		return fmt.Errorf("failed to create rfq_responses index: %w", err)
	}

	_, err = db.Collection("rfq_broadcasts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    pairKeys,
		Options: options.Index().SetUnique(true).SetName("uniq_rfq_provider_broadcast"),
	})
	if err != nil {
		return fmt.Errorf("failed to create rfq_broadcasts index: %w", err)
	}

	_, err = db.Collection("rfqs").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "race_opens_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create rfqs indexes: %w", err)
	}

	return nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when neither the config nor the connection
// string names a database.
const DefaultMongoDatabase = "verso"

// MongoConfig describes how to reach the document store.
type MongoConfig struct {
	URL        string
	Database   string
	Collection string
	// ServerSelectionTimeout bounds the startup ping. Defaults to 5s.
	ServerSelectionTimeout time.Duration
}

// OpenMongo connects, pings the primary and ensures indexes. A failure here
// is meant to abort startup.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Collection, error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("mongodb url is not set")
	}
	timeout := cfg.ServerSelectionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	dbName := cfg.Database
	if dbName == "" {
		cs, err := connstring.ParseAndValidate(cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse mongodb url: %w", err)
		}
		dbName = cs.Database
	}
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}
	collName := cfg.Collection
	if collName == "" {
		collName = "translations"
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetServerSelectionTimeout(timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(dbName).Collection(collName)
	if err := ensureIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, coll, nil
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "source_language", Value: 1}, {Key: "target_language", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create mongodb indexes: %w", err)
	}
	return nil
}

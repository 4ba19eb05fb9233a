package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sessionsCollectionName = "user_sessions"
	quotasCollectionName   = "quota_records"
)

type MongoSessionStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *slog.Logger
}

func NewMongoSessionStorage(uri, database string, log *slog.Logger) (*MongoSessionStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	collection := client.Database(database).Collection(sessionsCollectionName)

	// Create index on user_id for faster lookups
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warn("creating sessions index", slog.String("error", err.Error()))
	}

	return &MongoSessionStorage{
		client:     client,
		collection: collection,
		log:        log,
	}, nil
}

func (m *MongoSessionStorage) GetSession(userId int64) (*UserSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var session UserSession
	err := m.collection.FindOne(ctx, bson.M{"user_id": userId}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &session, nil
}

func (m *MongoSessionStorage) PutSession(session *UserSession) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session.UpdatedAt = time.Now()

	opts := options.Replace().SetUpsert(true)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"user_id": session.UserId}, session, opts)
	return err
}

func (m *MongoSessionStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// GetClient returns the MongoDB client for sharing with other storages
func (m *MongoSessionStorage) GetClient() *mongo.Client {
	return m.client
}

// GetDatabase returns the database name
func (m *MongoSessionStorage) GetDatabase() string {
	return m.collection.Database().Name()
}

type MongoQuotaStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *slog.Logger
}

// NewMongoQuotaStorage reuses an already connected client.
func NewMongoQuotaStorage(client *mongo.Client, database string, log *slog.Logger) (*MongoQuotaStorage, error) {
	collection := client.Database(database).Collection(quotasCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warn("creating quotas index", slog.String("error", err.Error()))
	}

	return &MongoQuotaStorage{
		client:     client,
		collection: collection,
		log:        log,
	}, nil
}

func (m *MongoQuotaStorage) GetQuota(userId int64) (*QuotaRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var record QuotaRecord
	err := m.collection.FindOne(ctx, bson.M{"user_id": userId}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding quota record: %w", err)
	}
	return &record, nil
}

func (m *MongoQuotaStorage) PutQuota(record *QuotaRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record.UpdatedAt = time.Now()

	opts := options.Replace().SetUpsert(true)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"user_id": record.UserId}, record, opts)
	return err
}

// Close is a no-op, the client is owned by the session storage.
func (m *MongoQuotaStorage) Close() error {
	return nil
}

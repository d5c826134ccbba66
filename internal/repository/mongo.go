package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cradoe/onboard/internal/progress"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoCollection = "onboarding_records"

type mongoRecord struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Mongo stores progress records as one document per key.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongo(uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &Mongo{
		client:     client,
		collection: client.Database(dbName).Collection(mongoCollection),
	}, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	return m.client.Disconnect(ctx)
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var record mongoRecord

	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, progress.ErrMissing
	}
	if err != nil {
		return nil, err
	}

	return record.Value, nil
}

func (m *Mongo) Set(ctx context.Context, key string, value []byte) error {
	record := mongoRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}

	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, record, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Delete(ctx context.Context, key string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (m *Mongo) Exists(ctx context.Context, key string) (bool, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": key}, options.Count().SetLimit(1))
	return count > 0, err
}

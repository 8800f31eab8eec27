package benchmark

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDatabase implements the Database interface for MongoDB.
// The driver's client pools connections and is safe for concurrent use.
type MongoDatabase struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDatabase connects to MongoDB and empties the target collection
func NewMongoDatabase(ctx context.Context, cfg DatabaseConfig) (*MongoDatabase, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	coll := client.Database(cfg.DatabaseName).Collection(cfg.Collection)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &MongoDatabase{client: client, collection: coll}, nil
}

// Insert implements Database.Insert for MongoDB
func (m *MongoDatabase) Insert(ctx context.Context, doc Document) error {
	_, err := m.collection.InsertOne(ctx, doc)
	return err
}

// Read implements Database.Read for MongoDB: fetch every test document
func (m *MongoDatabase) Read(ctx context.Context) error {
	cur, err := m.collection.Find(ctx, bson.M{"name": DocumentName})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
	}
	return cur.Err()
}

// Close implements Database.Close for MongoDB
func (m *MongoDatabase) Close() error {
	return m.client.Disconnect(context.Background())
}

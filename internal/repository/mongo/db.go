package mongo

import (
	"context"
	"errors"
	"time"

	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect succeeds lazily, so ping the primary before handing the client out.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// logged; the application keeps running without them.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	ensure := func(collection string, models []mongo.IndexModel) {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			zap.S().Warnw("failed to create indexes", "collection", collection, "error", err)
		}
	}
	ensure(systemUserCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	ensure(memberCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "phone", Value: 1}}},
		{Keys: bson.D{{Key: "membershipEnd", Value: 1}}},
		{Keys: bson.D{{Key: "trainerAssigned", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	ensure(trainerCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	ensure(productCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	ensure(foodCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	ensure(saleCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "invoice_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "time_of_purchase", Value: -1}}},
		{Keys: bson.D{{Key: "service_name", Value: 1}, {Key: "time_of_purchase", Value: 1}}},
		{Keys: bson.D{{Key: "payment_status", Value: 1}}},
	})
	ensure(expenseCollectionName, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "date", Value: 1}}},
	})
}

// findAll runs a query and decodes every document into out.
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, out); err != nil {
		return err
	}
	return cursor.Err()
}

// findOne decodes a single document, mapping "no documents" to ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) error {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

// updateByID applies a $set to one document and reports a missing row as
// ErrNotFound.
func updateByID(ctx context.Context, coll *mongo.Collection, id interface{}, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// deleteByID removes one document.
func deleteByID(ctx context.Context, coll *mongo.Collection, id interface{}) error {
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// insert stores doc and translates duplicate key violations.
func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

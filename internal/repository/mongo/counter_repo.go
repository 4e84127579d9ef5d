package mongo

import (
	"context"

	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterCollectionName = "counters"

type mongoCounterRepository struct {
	collection *mongo.Collection
}

// NewMongoCounterRepository creates a new instance of mongoCounterRepository.
func NewMongoCounterRepository(db *mongo.Database) repository.CounterRepository {
	return &mongoCounterRepository{collection: db.Collection(counterCollectionName)}
}

// Next atomically increments the named sequence and returns the new value.
// The first call for a name returns 1.
func (r *mongoCounterRepository) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

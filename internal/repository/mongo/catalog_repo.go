package mongo

import (
	"context"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	trainerCollectionName = "trainers"
	planCollectionName    = "membership"
	productCollectionName = "products"
	foodCollectionName    = "food"
)

var byCode = options.Find().SetSort(bson.D{{Key: "code", Value: 1}})

// --- Trainers ---

type mongoTrainerRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainerRepository creates a new instance of mongoTrainerRepository.
func NewMongoTrainerRepository(db *mongo.Database) repository.TrainerRepository {
	return &mongoTrainerRepository{collection: db.Collection(trainerCollectionName)}
}

func (r *mongoTrainerRepository) Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error) {
	trainer.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	trainer.CreatedAt, trainer.UpdatedAt = now, now
	if err := insert(ctx, r.collection, trainer); err != nil {
		return primitive.NilObjectID, err
	}
	return trainer.ID, nil
}

func (r *mongoTrainerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	var trainer domain.Trainer
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &trainer); err != nil {
		return nil, err
	}
	return &trainer, nil
}

func (r *mongoTrainerRepository) List(ctx context.Context) ([]domain.Trainer, error) {
	trainers := []domain.Trainer{}
	err := findAll(ctx, r.collection, bson.M{}, &trainers, byCode)
	return trainers, err
}

func (r *mongoTrainerRepository) Update(ctx context.Context, trainer *domain.Trainer) error {
	return updateByID(ctx, r.collection, trainer.ID, bson.M{
		"name":    trainer.Name,
		"email":   trainer.Email,
		"contact": trainer.Contact,
		"age":     trainer.Age,
		"cost":    trainer.Cost,
	})
}

func (r *mongoTrainerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// --- Membership plans ---

type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new instance of mongoPlanRepository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{collection: db.Collection(planCollectionName)}
}

func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.MembershipPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt, plan.UpdatedAt = now, now
	if err := insert(ctx, r.collection, plan); err != nil {
		return primitive.NilObjectID, err
	}
	return plan.ID, nil
}

func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MembershipPlan, error) {
	var plan domain.MembershipPlan
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// List returns plans shortest first.
func (r *mongoPlanRepository) List(ctx context.Context) ([]domain.MembershipPlan, error) {
	plans := []domain.MembershipPlan{}
	opts := options.Find().SetSort(bson.D{{Key: "duration", Value: 1}, {Key: "category", Value: 1}})
	err := findAll(ctx, r.collection, bson.M{}, &plans, opts)
	return plans, err
}

func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.MembershipPlan) error {
	return updateByID(ctx, r.collection, plan.ID, bson.M{
		"duration":    plan.Duration,
		"price":       plan.Price,
		"category":    plan.Category,
		"description": plan.Description,
	})
}

func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// --- Products ---

type mongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new instance of mongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) repository.ProductRepository {
	return &mongoProductRepository{collection: db.Collection(productCollectionName)}
}

func (r *mongoProductRepository) Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error) {
	product.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	if err := insert(ctx, r.collection, product); err != nil {
		return primitive.NilObjectID, err
	}
	return product.ID, nil
}

func (r *mongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *mongoProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := findAll(ctx, r.collection, bson.M{}, &products, byCode)
	return products, err
}

func (r *mongoProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return updateByID(ctx, r.collection, product.ID, bson.M{
		"name":         product.Name,
		"costPrice":    product.CostPrice,
		"sellingPrice": product.SellingPrice,
		"mrp":          product.MRP,
		"stock":        product.Stock,
		"tax":          product.Tax,
		"imgUrl":       product.ImageURL,
	})
}

// AdjustStock applies $inc guarded by the current stock so concurrent
// checkouts cannot oversell.
func (r *mongoProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing product from a short one.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrInsufficientStock
	}
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

// --- Restaurant food ---

type mongoFoodRepository struct {
	collection *mongo.Collection
}

// NewMongoFoodRepository creates a new instance of mongoFoodRepository.
func NewMongoFoodRepository(db *mongo.Database) repository.FoodRepository {
	return &mongoFoodRepository{collection: db.Collection(foodCollectionName)}
}

func (r *mongoFoodRepository) Create(ctx context.Context, item *domain.FoodItem) (primitive.ObjectID, error) {
	item.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if err := insert(ctx, r.collection, item); err != nil {
		return primitive.NilObjectID, err
	}
	return item.ID, nil
}

func (r *mongoFoodRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error) {
	var item domain.FoodItem
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *mongoFoodRepository) List(ctx context.Context) ([]domain.FoodItem, error) {
	items := []domain.FoodItem{}
	err := findAll(ctx, r.collection, bson.M{}, &items, byCode)
	return items, err
}

func (r *mongoFoodRepository) Update(ctx context.Context, item *domain.FoodItem) error {
	return updateByID(ctx, r.collection, item.ID, bson.M{
		"name": item.Name,
		"cost": item.Cost,
		"tax":  item.Tax,
	})
}

func (r *mongoFoodRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

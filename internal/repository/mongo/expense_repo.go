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

const expenseCollectionName = "expenses"

type mongoExpenseRepository struct {
	collection *mongo.Collection
}

// NewMongoExpenseRepository creates a new instance of mongoExpenseRepository.
func NewMongoExpenseRepository(db *mongo.Database) repository.ExpenseRepository {
	return &mongoExpenseRepository{collection: db.Collection(expenseCollectionName)}
}

func (r *mongoExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (primitive.ObjectID, error) {
	expense.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	expense.CreatedAt, expense.UpdatedAt = now, now
	if err := insert(ctx, r.collection, expense); err != nil {
		return primitive.NilObjectID, err
	}
	return expense.ID, nil
}

func (r *mongoExpenseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Expense, error) {
	var expense domain.Expense
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns expenses newest first.
func (r *mongoExpenseRepository) List(ctx context.Context) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	err := findAll(ctx, r.collection, bson.M{}, &expenses, opts)
	return expenses, err
}

func (r *mongoExpenseRepository) ListRange(ctx context.Context, from, to time.Time, category domain.ExpenseCategory) ([]domain.Expense, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lte": to}}
	if category != "" {
		filter["category"] = category
	}
	expenses := []domain.Expense{}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	err := findAll(ctx, r.collection, filter, &expenses, opts)
	return expenses, err
}

func (r *mongoExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	return updateByID(ctx, r.collection, expense.ID, bson.M{
		"name":       expense.Name,
		"amount":     expense.Amount,
		"category":   expense.Category,
		"department": expense.Department,
		"date":       expense.Date,
	})
}

func (r *mongoExpenseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const systemUserCollectionName = "system_users"

// mongoSystemUserRepository implements repository.SystemUserRepository using MongoDB.
type mongoSystemUserRepository struct {
	collection *mongo.Collection
}

// NewMongoSystemUserRepository creates a new instance of mongoSystemUserRepository.
func NewMongoSystemUserRepository(db *mongo.Database) repository.SystemUserRepository {
	return &mongoSystemUserRepository{
		collection: db.Collection(systemUserCollectionName),
	}
}

// Create inserts a new operator account.
func (r *mongoSystemUserRepository) Create(ctx context.Context, user *domain.SystemUser) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := insert(ctx, r.collection, user); err != nil {
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

// GetByEmail retrieves an account by its (case-insensitive) email.
func (r *mongoSystemUserRepository) GetByEmail(ctx context.Context, email string) (*domain.SystemUser, error) {
	var user domain.SystemUser
	if err := findOne(ctx, r.collection, bson.M{"email": strings.ToLower(email)}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoSystemUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SystemUser, error) {
	var user domain.SystemUser
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoSystemUserRepository) List(ctx context.Context) ([]domain.SystemUser, error) {
	users := []domain.SystemUser{}
	err := findAll(ctx, r.collection, bson.M{}, &users, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	return users, err
}

func (r *mongoSystemUserRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

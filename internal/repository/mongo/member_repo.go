package mongo

import (
	"context"
	"errors"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const memberCollectionName = "members"

// mongoMemberRepository implements repository.MemberRepository using MongoDB.
type mongoMemberRepository struct {
	collection *mongo.Collection
}

// NewMongoMemberRepository creates a new instance of mongoMemberRepository.
func NewMongoMemberRepository(db *mongo.Database) repository.MemberRepository {
	return &mongoMemberRepository{
		collection: db.Collection(memberCollectionName),
	}
}

func (r *mongoMemberRepository) Create(ctx context.Context, member *domain.Member) (primitive.ObjectID, error) {
	if member.Code == "" || member.Name == "" {
		return primitive.NilObjectID, errors.New("member code and name are required")
	}
	member.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	if err := insert(ctx, r.collection, member); err != nil {
		return primitive.NilObjectID, err
	}
	return member.ID, nil
}

func (r *mongoMemberRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Member, error) {
	var member domain.Member
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *mongoMemberRepository) GetByCode(ctx context.Context, code string) (*domain.Member, error) {
	var member domain.Member
	if err := findOne(ctx, r.collection, bson.M{"code": code}, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// List returns every member ordered by code.
func (r *mongoMemberRepository) List(ctx context.Context) ([]domain.Member, error) {
	members := []domain.Member{}
	err := findAll(ctx, r.collection, bson.M{}, &members, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	return members, err
}

func (r *mongoMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	return updateByID(ctx, r.collection, member.ID, bson.M{
		"name":     member.Name,
		"phone":    member.Phone,
		"email":    member.Email,
		"address":  member.Address,
		"joinDate": member.JoinDate,
	})
}

func (r *mongoMemberRepository) UpdateMembership(ctx context.Context, id primitive.ObjectID, start, end time.Time, status domain.MembershipStatus) error {
	return updateByID(ctx, r.collection, id, bson.M{
		"membershipStart":  start,
		"membershipEnd":    end,
		"membershipStatus": status,
	})
}

func (r *mongoMemberRepository) UpdateTrainer(ctx context.Context, id, trainerID primitive.ObjectID, start, end time.Time, status domain.TrainerStatus) error {
	return updateByID(ctx, r.collection, id, bson.M{
		"trainerAssigned":        trainerID,
		"trainerAssignStartDate": start,
		"trainerAssignEndDate":   end,
		"trainerStatus":          status,
	})
}

// UpdateStatus rewrites the cached statuses only.
func (r *mongoMemberRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, membership domain.MembershipStatus, trainer domain.TrainerStatus) error {
	return updateByID(ctx, r.collection, id, bson.M{
		"membershipStatus": membership,
		"trainerStatus":    trainer,
	})
}

func (r *mongoMemberRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

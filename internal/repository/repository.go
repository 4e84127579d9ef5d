package repository

import (
	"context"
	"time"

	"tenzinsgym/pos/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound          = RepositoryError("not found")
	ErrUpdateFailed      = RepositoryError("update failed")
	ErrDeleteFailed      = RepositoryError("delete failed")
	ErrDuplicate         = RepositoryError("duplicate key")
	ErrInsufficientStock = RepositoryError("insufficient stock")
	ErrAlreadySettled    = RepositoryError("sale is not unpaid")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SystemUserRepository stores operator accounts.
type SystemUserRepository interface {
	Create(ctx context.Context, user *domain.SystemUser) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.SystemUser, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SystemUser, error)
	List(ctx context.Context) ([]domain.SystemUser, error)
	Count(ctx context.Context) (int64, error)
}

// MemberRepository stores gym members.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Member, error)
	GetByCode(ctx context.Context, code string) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
	// Update overwrites the contact fields only.
	Update(ctx context.Context, member *domain.Member) error
	UpdateMembership(ctx context.Context, id primitive.ObjectID, start, end time.Time, status domain.MembershipStatus) error
	UpdateTrainer(ctx context.Context, id, trainerID primitive.ObjectID, start, end time.Time, status domain.TrainerStatus) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, membership domain.MembershipStatus, trainer domain.TrainerStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TrainerRepository stores trainers.
type TrainerRepository interface {
	Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error)
	List(ctx context.Context) ([]domain.Trainer, error)
	Update(ctx context.Context, trainer *domain.Trainer) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository stores membership plans (collection "membership").
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.MembershipPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MembershipPlan, error)
	List(ctx context.Context) ([]domain.MembershipPlan, error)
	Update(ctx context.Context, plan *domain.MembershipPlan) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductRepository stores retail products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	// AdjustStock applies delta atomically; a negative delta fails with
	// ErrInsufficientStock instead of taking stock below zero.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FoodRepository stores restaurant items.
type FoodRepository interface {
	Create(ctx context.Context, item *domain.FoodItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FoodItem, error)
	List(ctx context.Context) ([]domain.FoodItem, error)
	Update(ctx context.Context, item *domain.FoodItem) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ExpenseRepository stores expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Expense, error)
	List(ctx context.Context) ([]domain.Expense, error)
	// ListRange returns expenses dated within [from, to]; an empty category
	// matches all.
	ListRange(ctx context.Context, from, to time.Time, category domain.ExpenseCategory) ([]domain.Expense, error)
	Update(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SaleFilter narrows a ledger query. Zero values match everything.
type SaleFilter struct {
	Service       domain.ServiceName
	PaymentStatus domain.PaymentStatus
}

// SaleRepository is the append-only sales ledger.
type SaleRepository interface {
	Insert(ctx context.Context, sale *domain.Sale) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Sale, error)
	// List returns the whole ledger, newest first.
	List(ctx context.Context) ([]domain.Sale, error)
	// ListRange returns sales purchased within [from, to], oldest first.
	ListRange(ctx context.Context, from, to time.Time, filter SaleFilter) ([]domain.Sale, error)
	// Settle marks an unpaid sale as paid with the given method. Nothing
	// else on the row changes.
	Settle(ctx context.Context, invoiceID, method string) error
}

// CounterRepository hands out human readable sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

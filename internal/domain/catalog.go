package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Validation errors shared by the catalog entities.
var (
	ErrNameRequired    = errors.New("name is required")
	ErrNegativeAmount  = errors.New("amount can't be negative")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDuration = errors.New("duration must be at least one month")
)

// PlanCategory groups membership plans.
type PlanCategory string

const (
	PlanSingle  PlanCategory = "single"
	PlanCouple  PlanCategory = "couple"
	PlanGroup   PlanCategory = "group"
	PlanStudent PlanCategory = "student"
	PlanSenior  PlanCategory = "senior"
)

func (c PlanCategory) Valid() bool {
	switch c {
	case PlanSingle, PlanCouple, PlanGroup, PlanStudent, PlanSenior:
		return true
	}
	return false
}

// MembershipPlan is a sellable membership. Plans referenced by past sales
// are not rewritten; the sale keeps its own copy of the plan label.
type MembershipPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Duration    int                `bson:"duration" json:"duration"` // months
	Price       float64            `bson:"price" json:"price"`
	Category    PlanCategory       `bson:"category" json:"category"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Label renders the plan as printed on invoices, e.g. "3 months".
func (p *MembershipPlan) Label() string {
	if p.Duration == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", p.Duration)
}

func (p *MembershipPlan) Validate() error {
	if p.Duration < 1 {
		return ErrInvalidDuration
	}
	if p.Price < 0 {
		return ErrNegativeAmount
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Trainer is a personal trainer members can be assigned to.
type Trainer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Contact   string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Age       int                `bson:"age,omitempty" json:"age,omitempty"`
	Cost      float64            `bson:"cost" json:"cost"` // per assignment window
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t *Trainer) Validate() error {
	if t.Name == "" {
		return ErrNameRequired
	}
	if t.Cost < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Product is a retail item (supplements, merchandise) with tracked stock.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code         string             `bson:"code" json:"code"` // e.g. "PR001"
	Name         string             `bson:"name" json:"name"`
	CostPrice    float64            `bson:"costPrice" json:"costPrice"`
	SellingPrice float64            `bson:"sellingPrice" json:"sellingPrice"`
	MRP          float64            `bson:"mrp" json:"mrp"`
	Stock        int                `bson:"stock" json:"stock"`
	Tax          float64            `bson:"tax" json:"tax"` // percent
	ImageURL     string             `bson:"imgUrl,omitempty" json:"imgUrl,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.CostPrice < 0 || p.SellingPrice < 0 || p.MRP < 0 || p.Tax < 0 || p.Stock < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// FoodItem is a restaurant menu item. Food stock is not tracked.
type FoodItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Name      string             `bson:"name" json:"name"`
	Cost      float64            `bson:"cost" json:"cost"`
	Tax       float64            `bson:"tax" json:"tax"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (f *FoodItem) Validate() error {
	if f.Name == "" {
		return ErrNameRequired
	}
	if f.Cost < 0 || f.Tax < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// ExpenseCategory is the ledger an expense is booked against.
type ExpenseCategory string

const (
	ExpenseGym     ExpenseCategory = "gym"
	ExpenseKitchen ExpenseCategory = "kitchen"
	ExpenseOther   ExpenseCategory = "other"
)

func (c ExpenseCategory) Valid() bool {
	return c == ExpenseGym || c == ExpenseKitchen || c == ExpenseOther
}

// Expense is money going out of the business.
type Expense struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Amount     float64            `bson:"amount" json:"amount"`
	Category   ExpenseCategory    `bson:"category" json:"category"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"` // e.g. "electricity", "groceries"
	Date       time.Time          `bson:"date" json:"date"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (e *Expense) Validate() error {
	if e.Name == "" {
		return ErrNameRequired
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

package service

import (
	"context"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/listutil"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ExpenseSortColumns = []string{"date", "amount", "name"}
	ExpenseFilterKeys  = []string{"category"}
)

// Departments per expense category. "other" takes free text.
var expenseDepartments = map[domain.ExpenseCategory][]string{
	domain.ExpenseGym:     {"personal", "electricity", "gym equipment", "water bill", "maintenance"},
	domain.ExpenseKitchen: {"utensils", "groceries"},
}

// ExpenseDepartments lists the known departments of a category.
func ExpenseDepartments(category domain.ExpenseCategory) []string {
	return append([]string(nil), expenseDepartments[category]...)
}

// ExpenseService books money going out.
type ExpenseService interface {
	List(ctx context.Context, params listutil.Params) (listutil.Page[domain.Expense], error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Expense, error)
	Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error)
	Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error)
	Delete(ctx context.Context, caller domain.Session, id primitive.ObjectID) error
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	clock       Clock
}

// NewExpenseService creates a new instance of expenseService.
func NewExpenseService(expenseRepo repository.ExpenseRepository, clock Clock) ExpenseService {
	return &expenseService{expenseRepo: expenseRepo, clock: clock}
}

func validateExpense(e *domain.Expense) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Department = strings.ToLower(strings.TrimSpace(e.Department))
	if err := e.Validate(); err != nil {
		return invalid(err)
	}
	known := expenseDepartments[e.Category]
	if len(known) == 0 || e.Department == "" {
		return nil
	}
	for _, d := range known {
		if d == e.Department {
			return nil
		}
	}
	return invalidf("department %q is not valid for %s expenses", e.Department, e.Category)
}

func (s *expenseService) List(ctx context.Context, params listutil.Params) (listutil.Page[domain.Expense], error) {
	expenses, err := s.expenseRepo.List(ctx)
	if err != nil {
		return listutil.Page[domain.Expense]{}, err
	}
	category := domain.ExpenseCategory(strings.ToLower(params.Filter("category")))
	expenses = listutil.Where(expenses, func(e domain.Expense) bool {
		if category != "" && e.Category != category {
			return false
		}
		return listutil.MatchesAny(params.Search, e.Name, e.Department)
	})
	switch params.Sort {
	case "amount":
		listutil.SortBy(expenses, params.Desc, func(a, b domain.Expense) bool { return a.Amount < b.Amount })
	case "name":
		listutil.SortBy(expenses, params.Desc, func(a, b domain.Expense) bool { return lowerLess(a.Name, b.Name) })
	case "date":
		listutil.SortBy(expenses, params.Desc, func(a, b domain.Expense) bool { return a.Date.Before(b.Date) })
	}
	return listutil.Paginate(expenses, params.Page, params.PerPage), nil
}

func (s *expenseService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Expense, error) {
	e, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrExpenseNotFound)
	}
	return e, nil
}

func (s *expenseService) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if err := validateExpense(expense); err != nil {
		return nil, err
	}
	if expense.Date.IsZero() {
		expense.Date = s.clock.Now()
	}
	if _, err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if err := validateExpense(expense); err != nil {
		return nil, err
	}
	if expense.Date.IsZero() {
		existing, err := s.Get(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
		expense.Date = existing.Date
	}
	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, notFound(err, ErrExpenseNotFound)
	}
	return s.Get(ctx, expense.ID)
}

func (s *expenseService) Delete(ctx context.Context, caller domain.Session, id primitive.ObjectID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrExpenseNotFound)
	}
	return nil
}

// dayRange widens [from, to] to whole days in loc: from midnight to
// 23:59:59 of the last day.
func dayRange(from, to time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	f := from.In(loc)
	t := to.In(loc)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
	return start, end
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository/memory"
	"tenzinsgym/pos/internal/storage"
)

var testNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

// seqInvoiceIDs hands out IN0001, IN0002, ...
type seqInvoiceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqInvoiceIDs) NextInvoiceID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("IN%04d", g.n)
}

// fakeStorage keeps uploaded objects in memory.
type fakeStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	types      map[string]string
	deleted    []string
	presignErr error
}

var _ storage.FileStorage = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) PutObject(_ context.Context, key, contentType string, body io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	f.types[key] = contentType
	return nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://files.test/" + key + "?signed", nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// testEnv wires every service over one in-memory store and a movable clock.
type testEnv struct {
	store *memory.Store
	files *fakeStorage
	now   time.Time

	auth     AuthService
	members  MemberService
	catalog  CatalogService
	expenses ExpenseService
	pos      POSService
	sales    SalesService
	reports  ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{store: memory.NewStore(), files: newFakeStorage(), now: testNow}
	clock := Clock(func() time.Time { return env.now })
	s := env.store

	env.auth = NewAuthService(s.Users, "test-secret", time.Hour, clock)
	env.members = NewMemberService(s.Members, s.Trainers, s.Counters, domain.DefaultExpiringWindowDays, clock)
	env.catalog = NewCatalogService(s.Trainers, s.Plans, s.Products, s.Food, s.Counters, env.files)
	env.expenses = NewExpenseService(s.Expenses, clock)
	env.pos = NewPOSService(s.Members, s.Trainers, s.Plans, s.Products, s.Food, s.Sales, s.Counters, &seqInvoiceIDs{},
		POSSettings{JoiningFee: DefaultJoiningFee, TrainerAssignMonths: 1, ExpiringWindowDays: domain.DefaultExpiringWindowDays},
		clock)
	env.sales = NewSalesService(s.Sales, env.files, time.UTC, clock)
	env.reports = NewReportService(s.Sales, s.Expenses, s.Members, env.files, time.UTC, domain.DefaultExpiringWindowDays, clock)
	return env
}

func (e *testEnv) addPlan(t *testing.T, months int, price float64, category domain.PlanCategory) *domain.MembershipPlan {
	t.Helper()
	plan, err := e.catalog.CreatePlan(context.Background(), &domain.MembershipPlan{Duration: months, Price: price, Category: category})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	return plan
}

func (e *testEnv) addTrainer(t *testing.T, name string, cost float64) *domain.Trainer {
	t.Helper()
	trainer, err := e.catalog.CreateTrainer(context.Background(), &domain.Trainer{Name: name, Cost: cost})
	if err != nil {
		t.Fatalf("CreateTrainer: %v", err)
	}
	return trainer
}

func (e *testEnv) addProduct(t *testing.T, name string, price float64, stock int) *domain.Product {
	t.Helper()
	product, err := e.catalog.CreateProduct(context.Background(), &domain.Product{
		Name: name, CostPrice: price / 2, SellingPrice: price, MRP: price, Stock: stock, Tax: 18,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return product
}

func (e *testEnv) addFood(t *testing.T, name string, cost float64) *domain.FoodItem {
	t.Helper()
	item, err := e.catalog.CreateFood(context.Background(), &domain.FoodItem{Name: name, Cost: cost, Tax: 5})
	if err != nil {
		t.Fatalf("CreateFood: %v", err)
	}
	return item
}

// newMember sells a first plan to a fresh member and returns the receipt.
func (e *testEnv) newMember(t *testing.T, name, phone string, plan *domain.MembershipPlan) *Receipt {
	t.Helper()
	receipt, err := e.pos.SellMembership(context.Background(), MembershipSaleRequest{
		NewMember:     &MemberInput{Name: name, Phone: phone},
		PlanID:        plan.ID,
		PaymentMethod: "Cash",
	})
	if err != nil {
		t.Fatalf("SellMembership(new %s): %v", name, err)
	}
	return receipt
}

var (
	adminSession = domain.Session{UserID: "admin", Email: "owner@tenzins.gym", Role: domain.RoleAdmin}
	staffSession = domain.Session{UserID: "staff", Email: "desk@tenzins.gym", Role: domain.RoleStaff}
)

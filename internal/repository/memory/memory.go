// Package memory holds in-process repository implementations used by tests
// and by the server when no database is configured for a dry run.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store bundles one in-memory repository per collection.
type Store struct {
	Users    *SystemUserRepository
	Members  *MemberRepository
	Trainers *TrainerRepository
	Plans    *PlanRepository
	Products *ProductRepository
	Food     *FoodRepository
	Expenses *ExpenseRepository
	Sales    *SaleRepository
	Counters *CounterRepository
}

func NewStore() *Store {
	return &Store{
		Users:    &SystemUserRepository{rows: map[primitive.ObjectID]domain.SystemUser{}},
		Members:  &MemberRepository{rows: map[primitive.ObjectID]domain.Member{}},
		Trainers: &TrainerRepository{rows: map[primitive.ObjectID]domain.Trainer{}},
		Plans:    &PlanRepository{rows: map[primitive.ObjectID]domain.MembershipPlan{}},
		Products: &ProductRepository{rows: map[primitive.ObjectID]domain.Product{}},
		Food:     &FoodRepository{rows: map[primitive.ObjectID]domain.FoodItem{}},
		Expenses: &ExpenseRepository{rows: map[primitive.ObjectID]domain.Expense{}},
		Sales:    &SaleRepository{},
		Counters: &CounterRepository{seq: map[string]int64{}},
	}
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	*created, *updated = now, now
}

// --- System users ---

type SystemUserRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.SystemUser
}

var _ repository.SystemUserRepository = (*SystemUserRepository)(nil)

func (r *SystemUserRepository) Create(_ context.Context, user *domain.SystemUser) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range r.rows {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	stamp(&user.CreatedAt, &user.UpdatedAt)
	r.rows[user.ID] = *user
	return user.ID, nil
}

func (r *SystemUserRepository) GetByEmail(_ context.Context, email string) (*domain.SystemUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SystemUserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SystemUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *SystemUserRepository) List(_ context.Context) ([]domain.SystemUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SystemUser, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *SystemUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rows)), nil
}

// --- Members ---

type MemberRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.Member
}

var _ repository.MemberRepository = (*MemberRepository)(nil)

func (r *MemberRepository) Create(_ context.Context, member *domain.Member) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.Code == member.Code {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	member.ID = primitive.NewObjectID()
	stamp(&member.CreatedAt, &member.UpdatedAt)
	r.rows[member.ID] = *member
	return member.ID, nil
}

func (r *MemberRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *MemberRepository) GetByCode(_ context.Context, code string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.rows {
		if m.Code == code {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *MemberRepository) List(_ context.Context) ([]domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.rows))
	for _, m := range r.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemberRepository) mutate(id primitive.ObjectID, fn func(m *domain.Member)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&m)
	m.UpdatedAt = time.Now().UTC()
	r.rows[id] = m
	return nil
}

func (r *MemberRepository) Update(_ context.Context, member *domain.Member) error {
	return r.mutate(member.ID, func(m *domain.Member) {
		m.Name, m.Phone, m.Email, m.Address = member.Name, member.Phone, member.Email, member.Address
		m.JoinDate = member.JoinDate
	})
}

func (r *MemberRepository) UpdateMembership(_ context.Context, id primitive.ObjectID, start, end time.Time, status domain.MembershipStatus) error {
	return r.mutate(id, func(m *domain.Member) {
		m.MembershipStart, m.MembershipEnd, m.MembershipStatus = start, end, status
	})
}

func (r *MemberRepository) UpdateTrainer(_ context.Context, id, trainerID primitive.ObjectID, start, end time.Time, status domain.TrainerStatus) error {
	return r.mutate(id, func(m *domain.Member) {
		m.TrainerAssigned = &trainerID
		m.TrainerAssignStartDate, m.TrainerAssignEndDate = &start, &end
		m.TrainerStatus = status
	})
}

func (r *MemberRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, membership domain.MembershipStatus, trainer domain.TrainerStatus) error {
	return r.mutate(id, func(m *domain.Member) {
		m.MembershipStatus, m.TrainerStatus = membership, trainer
	})
}

func (r *MemberRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- Trainers ---

type TrainerRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.Trainer
}

var _ repository.TrainerRepository = (*TrainerRepository)(nil)

func (r *TrainerRepository) Create(_ context.Context, t *domain.Trainer) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = primitive.NewObjectID()
	stamp(&t.CreatedAt, &t.UpdatedAt)
	r.rows[t.ID] = *t
	return t.ID, nil
}

func (r *TrainerRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *TrainerRepository) List(_ context.Context) ([]domain.Trainer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Trainer, 0, len(r.rows))
	for _, t := range r.rows {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *TrainerRepository) Update(_ context.Context, t *domain.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	t.Code, t.CreatedAt, t.UpdatedAt = old.Code, old.CreatedAt, time.Now().UTC()
	r.rows[t.ID] = *t
	return nil
}

func (r *TrainerRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- Plans ---

type PlanRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.MembershipPlan
}

var _ repository.PlanRepository = (*PlanRepository)(nil)

func (r *PlanRepository) Create(_ context.Context, p *domain.MembershipPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	r.rows[p.ID] = *p
	return p.ID, nil
}

func (r *PlanRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MembershipPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *PlanRepository) List(_ context.Context) ([]domain.MembershipPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MembershipPlan, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration < out[j].Duration
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *PlanRepository) Update(_ context.Context, p *domain.MembershipPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, time.Now().UTC()
	r.rows[p.ID] = *p
	return nil
}

func (r *PlanRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- Products ---

type ProductRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.Product
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	r.rows[p.ID] = *p
	return p.ID, nil
}

func (r *ProductRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepository) List(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *ProductRepository) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Code, p.CreatedAt, p.UpdatedAt = old.Code, old.CreatedAt, time.Now().UTC()
	r.rows[p.ID] = *p
	return nil
}

func (r *ProductRepository) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return repository.ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	r.rows[id] = p
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- Food ---

type FoodRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.FoodItem
}

var _ repository.FoodRepository = (*FoodRepository)(nil)

func (r *FoodRepository) Create(_ context.Context, f *domain.FoodItem) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = primitive.NewObjectID()
	stamp(&f.CreatedAt, &f.UpdatedAt)
	r.rows[f.ID] = *f
	return f.ID, nil
}

func (r *FoodRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r *FoodRepository) List(_ context.Context) ([]domain.FoodItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FoodItem, 0, len(r.rows))
	for _, f := range r.rows {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *FoodRepository) Update(_ context.Context, f *domain.FoodItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[f.ID]
	if !ok {
		return repository.ErrNotFound
	}
	f.Code, f.CreatedAt, f.UpdatedAt = old.Code, old.CreatedAt, time.Now().UTC()
	r.rows[f.ID] = *f
	return nil
}

func (r *FoodRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- Expenses ---

type ExpenseRepository struct {
	mu   sync.RWMutex
	rows map[primitive.ObjectID]domain.Expense
}

var _ repository.ExpenseRepository = (*ExpenseRepository)(nil)

func (r *ExpenseRepository) Create(_ context.Context, e *domain.Expense) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = primitive.NewObjectID()
	stamp(&e.CreatedAt, &e.UpdatedAt)
	r.rows[e.ID] = *e
	return e.ID, nil
}

func (r *ExpenseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *ExpenseRepository) List(_ context.Context) ([]domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Expense, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *ExpenseRepository) ListRange(_ context.Context, from, to time.Time, category domain.ExpenseCategory) ([]domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Expense{}
	for _, e := range r.rows {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *ExpenseRepository) Update(_ context.Context, e *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.CreatedAt, e.UpdatedAt = old.CreatedAt, time.Now().UTC()
	r.rows[e.ID] = *e
	return nil
}

func (r *ExpenseRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- Sales ---

// SaleRepository keeps the ledger in insertion order.
type SaleRepository struct {
	mu   sync.RWMutex
	rows []domain.Sale
}

var _ repository.SaleRepository = (*SaleRepository)(nil)

func (r *SaleRepository) Insert(_ context.Context, sale *domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.InvoiceID == sale.InvoiceID {
			return repository.ErrDuplicate
		}
	}
	sale.ID = primitive.NewObjectID().Hex()
	r.rows = append(r.rows, *sale)
	return nil
}

func (r *SaleRepository) GetByInvoiceID(_ context.Context, invoiceID string) (*domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.rows {
		if s.InvoiceID == invoiceID {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SaleRepository) List(_ context.Context) ([]domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]domain.Sale(nil), r.rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeOfPurchase.After(out[j].TimeOfPurchase) })
	return out, nil
}

func (r *SaleRepository) ListRange(_ context.Context, from, to time.Time, filter repository.SaleFilter) ([]domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Sale{}
	for _, s := range r.rows {
		if s.TimeOfPurchase.Before(from) || s.TimeOfPurchase.After(to) {
			continue
		}
		if filter.Service != "" && s.Service != filter.Service {
			continue
		}
		if filter.PaymentStatus != "" && s.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TimeOfPurchase.Before(out[j].TimeOfPurchase) })
	return out, nil
}

func (r *SaleRepository) Settle(_ context.Context, invoiceID, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].InvoiceID != invoiceID {
			continue
		}
		if r.rows[i].PaymentStatus != domain.PaymentUnpaid {
			return repository.ErrAlreadySettled
		}
		r.rows[i].PaymentStatus = domain.PaymentPaid
		r.rows[i].PaymentMethod = method
		return nil
	}
	return repository.ErrNotFound
}

// --- Counters ---

type CounterRepository struct {
	mu  sync.Mutex
	seq map[string]int64
}

var _ repository.CounterRepository = (*CounterRepository)(nil)

func (r *CounterRepository) Next(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq[name]++
	return r.seq[name], nil
}

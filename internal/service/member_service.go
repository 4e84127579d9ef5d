package service

import (
	"context"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/listutil"
	"tenzinsgym/pos/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MemberView is a member with its statuses derived at read time.
type MemberView struct {
	domain.Member
	DaysLeft        int    `json:"daysLeft"`
	DaysLeftLabel   string `json:"daysLeftLabel"`
	TrainerName     string `json:"trainerName,omitempty"`
	TrainerDaysLeft int    `json:"trainerDaysLeft,omitempty"`
}

// Sortable member columns and filter keys.
var (
	MemberSortColumns = []string{"code", "name", "joinDate", "membershipEnd"}
	MemberFilterKeys  = []string{"status", "trainer_status"}
)

// MemberInput carries the editable contact fields of a member.
type MemberInput struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	JoinDate time.Time
}

// ReconcileResult summarises a reconciliation pass.
type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Drifted int `json:"drifted"`
	Fixed   int `json:"fixed"`
	Failed  int `json:"failed"`
}

// MemberService is the member registry plus the lifecycle deriver.
type MemberService interface {
	List(ctx context.Context, params listutil.Params) (listutil.Page[MemberView], error)
	Get(ctx context.Context, id primitive.ObjectID) (*MemberView, error)
	Create(ctx context.Context, input MemberInput) (*MemberView, error)
	Update(ctx context.Context, id primitive.ObjectID, input MemberInput) (*MemberView, error)
	Delete(ctx context.Context, caller domain.Session, id primitive.ObjectID) error
	// Reconcile rewrites cached statuses that no longer match the derived
	// ones. A failed write is logged and skipped.
	Reconcile(ctx context.Context) (ReconcileResult, error)
}

type memberService struct {
	memberRepo  repository.MemberRepository
	trainerRepo repository.TrainerRepository
	counters    repository.CounterRepository
	windowDays  int
	clock       Clock
}

// NewMemberService creates a new instance of memberService.
func NewMemberService(
	memberRepo repository.MemberRepository,
	trainerRepo repository.TrainerRepository,
	counters repository.CounterRepository,
	windowDays int,
	clock Clock,
) MemberService {
	if windowDays <= 0 {
		windowDays = domain.DefaultExpiringWindowDays
	}
	return &memberService{
		memberRepo:  memberRepo,
		trainerRepo: trainerRepo,
		counters:    counters,
		windowDays:  windowDays,
		clock:       clock,
	}
}

// view derives statuses without touching storage.
func (s *memberService) view(m domain.Member, now time.Time, trainerNames map[primitive.ObjectID]string) MemberView {
	lc := m.Lifecycle(now, s.windowDays)
	m.MembershipStatus = lc.MembershipStatus
	m.TrainerStatus = lc.TrainerStatus
	v := MemberView{
		Member:          m,
		DaysLeft:        lc.MembershipDays,
		DaysLeftLabel:   domain.DaysLeftLabel(lc.MembershipStatus, lc.MembershipDays),
		TrainerDaysLeft: lc.TrainerDays,
	}
	if m.TrainerAssigned != nil {
		v.TrainerName = trainerNames[*m.TrainerAssigned]
	}
	return v
}

func (s *memberService) trainerNames(ctx context.Context) (map[primitive.ObjectID]string, error) {
	trainers, err := s.trainerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(trainers))
	for _, t := range trainers {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (s *memberService) List(ctx context.Context, params listutil.Params) (listutil.Page[MemberView], error) {
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return listutil.Page[MemberView]{}, err
	}
	names, err := s.trainerNames(ctx)
	if err != nil {
		return listutil.Page[MemberView]{}, err
	}

	now := s.clock.Now()
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, s.view(m, now, names))
	}

	status := domain.MembershipStatus(strings.ToLower(params.Filter("status")))
	trainerStatus := domain.TrainerStatus(strings.ToLower(params.Filter("trainer_status")))
	views = listutil.Where(views, func(v MemberView) bool {
		if status != "" && v.MembershipStatus != status {
			return false
		}
		if trainerStatus != "" && v.TrainerStatus != trainerStatus {
			return false
		}
		return listutil.MatchesAny(params.Search, v.Name, v.Code, v.Phone)
	})

	switch params.Sort {
	case "name":
		listutil.SortBy(views, params.Desc, func(a, b MemberView) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) })
	case "joinDate":
		listutil.SortBy(views, params.Desc, func(a, b MemberView) bool { return a.JoinDate.Before(b.JoinDate) })
	case "membershipEnd":
		listutil.SortBy(views, params.Desc, func(a, b MemberView) bool { return a.MembershipEnd.Before(b.MembershipEnd) })
	default:
		listutil.SortBy(views, params.Desc, func(a, b MemberView) bool { return a.Code < b.Code })
	}
	return listutil.Paginate(views, params.Page, params.PerPage), nil
}

func (s *memberService) Get(ctx context.Context, id primitive.ObjectID) (*MemberView, error) {
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	names := map[primitive.ObjectID]string{}
	if m.TrainerAssigned != nil {
		if t, err := s.trainerRepo.GetByID(ctx, *m.TrainerAssigned); err == nil {
			names[t.ID] = t.Name
		}
	}
	v := s.view(*m, s.clock.Now(), names)
	return &v, nil
}

func validateMemberInput(in MemberInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid(domain.ErrNameRequired)
	}
	if strings.TrimSpace(in.Phone) == "" {
		return invalidf("phone is required")
	}
	return nil
}

// Create registers a member without a plan. Their membership reads as
// expired until a plan is sold.
func (s *memberService) Create(ctx context.Context, input MemberInput) (*MemberView, error) {
	if err := validateMemberInput(input); err != nil {
		return nil, err
	}
	code, err := nextCode(ctx, s.counters, memberCodePrefix)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	join := input.JoinDate
	if join.IsZero() {
		join = now
	}
	m := &domain.Member{
		Code:             code,
		Name:             strings.TrimSpace(input.Name),
		Phone:            strings.TrimSpace(input.Phone),
		Email:            input.Email,
		Address:          input.Address,
		JoinDate:         join,
		MembershipStatus: domain.MembershipExpired,
		TrainerStatus:    domain.TrainerUnassigned,
	}
	if _, err := s.memberRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	zap.S().Infow("member created", "member_code", m.Code)
	v := s.view(*m, now, nil)
	return &v, nil
}

func (s *memberService) Update(ctx context.Context, id primitive.ObjectID, input MemberInput) (*MemberView, error) {
	if err := validateMemberInput(input); err != nil {
		return nil, err
	}
	m, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	m.Name = strings.TrimSpace(input.Name)
	m.Phone = strings.TrimSpace(input.Phone)
	m.Email = input.Email
	m.Address = input.Address
	if !input.JoinDate.IsZero() {
		m.JoinDate = input.JoinDate
	}
	if err := s.memberRepo.Update(ctx, m); err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	return s.Get(ctx, id)
}

func (s *memberService) Delete(ctx context.Context, caller domain.Session, id primitive.ObjectID) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.memberRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrMemberNotFound)
	}
	zap.S().Infow("member deleted", "member_id", id.Hex(), "by", caller.Email)
	return nil
}

func (s *memberService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return result, err
	}
	now := s.clock.Now()
	for i := range members {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		m := &members[i]
		result.Scanned++
		lc := m.Lifecycle(now, s.windowDays)
		if !m.Drifted(lc) {
			continue
		}
		result.Drifted++
		if err := s.memberRepo.UpdateStatus(ctx, m.ID, lc.MembershipStatus, lc.TrainerStatus); err != nil {
			result.Failed++
			zap.S().Warnw("status correction failed",
				"member_code", m.Code,
				"membership_status", lc.MembershipStatus,
				"trainer_status", lc.TrainerStatus,
				"error", err)
			continue
		}
		result.Fixed++
	}
	return result, nil
}

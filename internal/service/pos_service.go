package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/invoice"
	"tenzinsgym/pos/internal/repository"

	"github.com/bwmarrin/snowflake"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultJoiningFee is charged on a member's first plan.
const DefaultJoiningFee = 5000

// Payment methods accepted at the counter. Due leaves the sale open.
var (
	paidMethods = []string{"Cash", "Card", "UPI"}
	cartMethods = []string{"Cash", "Card", "UPI", domain.PaymentDue}
)

// canonicalMethod matches method case-insensitively against allowed and
// returns the canonical spelling.
func canonicalMethod(method string, allowed []string) (string, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return "", invalid(domain.ErrPaymentMethodReq)
	}
	for _, m := range allowed {
		if strings.EqualFold(m, method) {
			return m, nil
		}
	}
	return "", invalidf("payment method %q is not accepted, use one of %s", method, strings.Join(allowed, ", "))
}

// InvoiceIDGenerator hands out unique invoice ids.
type InvoiceIDGenerator interface {
	NextInvoiceID() string
}

type snowflakeInvoiceIDs struct {
	node *snowflake.Node
}

// NewSnowflakeInvoiceIDs returns a generator producing ids like "IN1A2B3C4D5E6F".
func NewSnowflakeInvoiceIDs(nodeID int64) (InvoiceIDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("invoice id node %d: %w", nodeID, err)
	}
	return &snowflakeInvoiceIDs{node: node}, nil
}

func (g *snowflakeInvoiceIDs) NextInvoiceID() string {
	return "IN" + strings.ToUpper(g.node.Generate().Base36())
}

// POSSettings are the business constants of the sales flows.
type POSSettings struct {
	JoiningFee          float64
	TrainerAssignMonths int
	ExpiringWindowDays  int
}

// MembershipSaleRequest sells a plan to an existing member (MemberID) or
// registers a new one (NewMember).
type MembershipSaleRequest struct {
	MemberID      *primitive.ObjectID
	NewMember     *MemberInput
	PlanID        primitive.ObjectID
	StartDate     time.Time // zero means now
	PaymentMethod string
}

// TrainerAssignmentRequest books a trainer for a member.
type TrainerAssignmentRequest struct {
	MemberID      primitive.ObjectID
	TrainerID     primitive.ObjectID
	StartDate     time.Time // zero means now
	PaymentMethod string
}

// CartLineRequest references a catalog entry by id.
type CartLineRequest struct {
	ID       primitive.ObjectID
	Quantity int
}

// CartSaleRequest is a product or restaurant checkout.
type CartSaleRequest struct {
	CustomerName  string
	CustomerPhone string
	Lines         []CartLineRequest
	Discount      float64 // percent
	PaymentMethod string
}

// Receipt is what a completed POS flow returns.
type Receipt struct {
	Sale    domain.Sale     `json:"sale"`
	Member  *domain.Member  `json:"member,omitempty"`
	Invoice invoice.Invoice `json:"invoice"`
}

// POSService is the sales ledger writer. Each flow performs its writes in
// order and stops at the first failure; earlier writes stay in place.
type POSService interface {
	SellMembership(ctx context.Context, req MembershipSaleRequest) (*Receipt, error)
	AssignTrainer(ctx context.Context, req TrainerAssignmentRequest) (*Receipt, error)
	SellProducts(ctx context.Context, req CartSaleRequest) (*Receipt, error)
	SellFood(ctx context.Context, req CartSaleRequest) (*Receipt, error)
}

type posService struct {
	memberRepo  repository.MemberRepository
	trainerRepo repository.TrainerRepository
	planRepo    repository.PlanRepository
	productRepo repository.ProductRepository
	foodRepo    repository.FoodRepository
	saleRepo    repository.SaleRepository
	counters    repository.CounterRepository
	ids         InvoiceIDGenerator
	settings    POSSettings
	clock       Clock
}

// NewPOSService creates a new instance of posService.
func NewPOSService(
	memberRepo repository.MemberRepository,
	trainerRepo repository.TrainerRepository,
	planRepo repository.PlanRepository,
	productRepo repository.ProductRepository,
	foodRepo repository.FoodRepository,
	saleRepo repository.SaleRepository,
	counters repository.CounterRepository,
	ids InvoiceIDGenerator,
	settings POSSettings,
	clock Clock,
) POSService {
	if settings.TrainerAssignMonths <= 0 {
		settings.TrainerAssignMonths = 1
	}
	if settings.ExpiringWindowDays <= 0 {
		settings.ExpiringWindowDays = domain.DefaultExpiringWindowDays
	}
	if settings.JoiningFee < 0 {
		settings.JoiningFee = 0
	}
	return &posService{
		memberRepo:  memberRepo,
		trainerRepo: trainerRepo,
		planRepo:    planRepo,
		productRepo: productRepo,
		foodRepo:    foodRepo,
		saleRepo:    saleRepo,
		counters:    counters,
		ids:         ids,
		settings:    settings,
		clock:       clock,
	}
}

// RenewalEnd computes the end of a plan bought on start. An existing plan
// still running at start is extended instead of replaced.
func RenewalEnd(existingEnd, start time.Time, months int) time.Time {
	base := start
	if !existingEnd.IsZero() && existingEnd.After(start) {
		base = existingEnd
	}
	return domain.AddMonths(base, months)
}

func (s *posService) SellMembership(ctx context.Context, req MembershipSaleRequest) (*Receipt, error) {
	if (req.MemberID == nil) == (req.NewMember == nil) {
		return nil, invalidf("either an existing member or new member details are required")
	}
	method, err := canonicalMethod(req.PaymentMethod, paidMethods)
	if err != nil {
		return nil, err
	}
	if req.NewMember != nil {
		if err := validateMemberInput(*req.NewMember); err != nil {
			return nil, err
		}
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}

	now := s.clock.Now()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}

	var member *domain.Member
	if req.MemberID != nil {
		member, err = s.memberRepo.GetByID(ctx, *req.MemberID)
		if err != nil {
			return nil, notFound(err, ErrMemberNotFound)
		}
	}

	// The joining fee applies to anyone who never held a plan.
	firstPlan := member == nil || member.MembershipEnd.IsZero()
	var existingEnd time.Time
	if member != nil {
		existingEnd = member.MembershipEnd
	}
	end := RenewalEnd(existingEnd, start, plan.Duration)
	status := domain.MembershipStatusAt(end, now, s.settings.ExpiringWindowDays)

	amount := plan.Price
	fee := 0.0
	if firstPlan {
		fee = s.settings.JoiningFee
		amount += fee
	}

	if member == nil {
		code, err := nextCode(ctx, s.counters, memberCodePrefix)
		if err != nil {
			return nil, err
		}
		in := req.NewMember
		member = &domain.Member{
			Code:             code,
			Name:             strings.TrimSpace(in.Name),
			Phone:            strings.TrimSpace(in.Phone),
			Email:            in.Email,
			Address:          in.Address,
			JoinDate:         now,
			MembershipStart:  start,
			MembershipEnd:    end,
			MembershipStatus: status,
			TrainerStatus:    domain.TrainerUnassigned,
		}
		if !in.JoinDate.IsZero() {
			member.JoinDate = in.JoinDate
		}
		if _, err := s.memberRepo.Create(ctx, member); err != nil {
			return nil, err
		}
	} else {
		if err := s.memberRepo.UpdateMembership(ctx, member.ID, start, end, status); err != nil {
			return nil, notFound(err, ErrMemberNotFound)
		}
		member.MembershipStart, member.MembershipEnd, member.MembershipStatus = start, end, status
	}

	sale := domain.Sale{
		InvoiceID:      s.ids.NextInvoiceID(),
		Service:        domain.ServiceMembership,
		MemberName:     member.Name,
		MemberPhone:    member.Phone,
		AmountPaid:     amount,
		Quantity:       1,
		Category:       string(plan.Category),
		PaymentMethod:  method,
		PaymentStatus:  domain.PaymentPaid,
		TimeOfPurchase: now,
		Payload: domain.MembershipPayload{
			MemberID:   member.ID.Hex(),
			MemberCode: member.Code,
			PlanID:     plan.ID.Hex(),
			Plan:       plan.Label(),
			StartDate:  start,
			EndDate:    end,
			JoiningFee: fee,
			Renewal:    !firstPlan,
		},
	}
	if err := s.saleRepo.Insert(ctx, &sale); err != nil {
		zap.S().Errorw("membership sale not recorded after member write",
			"member_code", member.Code, "invoice_id", sale.InvoiceID, "error", err)
		return nil, err
	}
	zap.S().Infow("membership sold",
		"invoice_id", sale.InvoiceID, "member_code", member.Code, "plan", plan.Label(), "amount", amount)

	return &Receipt{Sale: sale, Member: member, Invoice: invoice.Build(sale)}, nil
}

func (s *posService) AssignTrainer(ctx context.Context, req TrainerAssignmentRequest) (*Receipt, error) {
	method, err := canonicalMethod(req.PaymentMethod, paidMethods)
	if err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByID(ctx, req.MemberID)
	if err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	trainer, err := s.trainerRepo.GetByID(ctx, req.TrainerID)
	if err != nil {
		return nil, notFound(err, ErrTrainerNotFound)
	}

	now := s.clock.Now()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	end := domain.AddMonths(start, s.settings.TrainerAssignMonths)
	status := domain.TrainerStatusAt(&trainer.ID, &end, now)

	if err := s.memberRepo.UpdateTrainer(ctx, member.ID, trainer.ID, start, end, status); err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	member.TrainerAssigned = &trainer.ID
	member.TrainerAssignStartDate, member.TrainerAssignEndDate = &start, &end
	member.TrainerStatus = status

	sale := domain.Sale{
		InvoiceID:      s.ids.NextInvoiceID(),
		Service:        domain.ServiceTrainer,
		MemberName:     member.Name,
		MemberPhone:    member.Phone,
		AmountPaid:     trainer.Cost,
		Quantity:       1,
		Category:       "trainer",
		PaymentMethod:  method,
		PaymentStatus:  domain.PaymentPaid,
		TimeOfPurchase: now,
		Payload: domain.TrainerPayload{
			MemberID:    member.ID.Hex(),
			TrainerID:   trainer.ID.Hex(),
			TrainerName: trainer.Name,
			AssignStart: start,
			AssignEnd:   end,
		},
	}
	if err := s.saleRepo.Insert(ctx, &sale); err != nil {
		zap.S().Errorw("trainer sale not recorded after member write",
			"member_code", member.Code, "invoice_id", sale.InvoiceID, "error", err)
		return nil, err
	}
	zap.S().Infow("trainer assigned",
		"invoice_id", sale.InvoiceID, "member_code", member.Code, "trainer", trainer.Code)

	return &Receipt{Sale: sale, Member: member, Invoice: invoice.Build(sale)}, nil
}

// mergeLines folds repeated catalog ids into one line, keeping first-seen order.
func mergeLines(lines []CartLineRequest) ([]CartLineRequest, error) {
	if len(lines) == 0 {
		return nil, invalid(domain.ErrEmptyCart)
	}
	idx := map[primitive.ObjectID]int{}
	out := make([]CartLineRequest, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, invalid(domain.ErrInvalidQuantity)
		}
		if i, ok := idx[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

func (s *posService) SellProducts(ctx context.Context, req CartSaleRequest) (*Receipt, error) {
	method, err := canonicalMethod(req.PaymentMethod, cartMethods)
	if err != nil {
		return nil, err
	}
	lines, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, l := range lines {
		p, err := s.productRepo.GetByID(ctx, l.ID)
		if err != nil {
			return nil, notFound(err, ErrProductNotFound)
		}
		if l.Quantity > p.Stock {
			return nil, fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, p.Name, p.Stock)
		}
		items = append(items, domain.CartItem{
			RefID:     p.ID.Hex(),
			Name:      p.Name,
			UnitPrice: p.SellingPrice,
			CostPrice: p.CostPrice,
			MRP:       p.MRP,
			Tax:       p.Tax,
			Quantity:  l.Quantity,
		})
	}

	sale, err := s.recordCart(ctx, domain.ServiceProduct, "product", req, method, items)
	if err != nil {
		return nil, err
	}

	// Stock goes down only after the sale is on the ledger.
	for _, l := range lines {
		if err := s.productRepo.AdjustStock(ctx, l.ID, -l.Quantity); err != nil {
			zap.S().Errorw("stock decrement failed after sale was recorded",
				"invoice_id", sale.InvoiceID, "product_id", l.ID.Hex(), "quantity", l.Quantity, "error", err)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: sale %s recorded but stock of %s could not be reduced", ErrInsufficientStock, sale.InvoiceID, l.ID.Hex())
			}
			return nil, err
		}
	}
	return &Receipt{Sale: *sale, Invoice: invoice.Build(*sale)}, nil
}

func (s *posService) SellFood(ctx context.Context, req CartSaleRequest) (*Receipt, error) {
	method, err := canonicalMethod(req.PaymentMethod, cartMethods)
	if err != nil {
		return nil, err
	}
	lines, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, l := range lines {
		f, err := s.foodRepo.GetByID(ctx, l.ID)
		if err != nil {
			return nil, notFound(err, ErrFoodNotFound)
		}
		items = append(items, domain.CartItem{
			RefID:     f.ID.Hex(),
			Name:      f.Name,
			UnitPrice: f.Cost,
			Tax:       f.Tax,
			Quantity:  l.Quantity,
		})
	}

	sale, err := s.recordCart(ctx, domain.ServiceRestaurant, "restaurant", req, method, items)
	if err != nil {
		return nil, err
	}
	return &Receipt{Sale: *sale, Invoice: invoice.Build(*sale)}, nil
}

func (s *posService) recordCart(ctx context.Context, service domain.ServiceName, category string, req CartSaleRequest, method string, items []domain.CartItem) (*domain.Sale, error) {
	totals, err := domain.PriceCart(items, req.Discount)
	if err != nil {
		return nil, invalid(err)
	}
	cart := domain.CartPayload{Items: items, Subtotal: totals.Subtotal}
	var payload domain.Payload = domain.ProductPayload{CartPayload: cart}
	if service == domain.ServiceRestaurant {
		payload = domain.RestaurantPayload{CartPayload: cart}
	}

	sale := &domain.Sale{
		InvoiceID:      s.ids.NextInvoiceID(),
		Service:        service,
		MemberName:     strings.TrimSpace(req.CustomerName),
		MemberPhone:    strings.TrimSpace(req.CustomerPhone),
		AmountPaid:     totals.Total,
		Discount:       totals.Discount,
		Quantity:       domain.TotalQuantity(items),
		Category:       category,
		PaymentMethod:  method,
		PaymentStatus:  domain.PaymentStatusFor(method),
		TimeOfPurchase: s.clock.Now(),
		Payload:        payload,
	}
	if err := s.saleRepo.Insert(ctx, sale); err != nil {
		return nil, err
	}
	zap.S().Infow("cart sale recorded",
		"invoice_id", sale.InvoiceID, "service", service, "amount", sale.AmountPaid, "status", sale.PaymentStatus)
	return sale, nil
}

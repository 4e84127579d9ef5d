package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenzinsgym/pos/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSellMembershipNewMemberPaysJoiningFee(t *testing.T) {
	env := newTestEnv(t)
	plan := env.addPlan(t, 3, 500, domain.PlanSingle)

	receipt := env.newMember(t, "Karma Dorje", "9800000001", plan)

	if receipt.Sale.AmountPaid != 5500 {
		t.Errorf("AmountPaid = %v, want 5500", receipt.Sale.AmountPaid)
	}
	if receipt.Member.Code != "M001" {
		t.Errorf("member code = %q, want M001", receipt.Member.Code)
	}
	wantEnd := testNow.AddDate(0, 3, 0)
	if !receipt.Member.MembershipEnd.Equal(wantEnd) {
		t.Errorf("MembershipEnd = %v, want %v", receipt.Member.MembershipEnd, wantEnd)
	}
	if receipt.Member.MembershipStatus != domain.MembershipActive {
		t.Errorf("status = %q, want active", receipt.Member.MembershipStatus)
	}

	p, ok := receipt.Sale.Payload.(domain.MembershipPayload)
	if !ok {
		t.Fatalf("payload type = %T, want MembershipPayload", receipt.Sale.Payload)
	}
	if p.JoiningFee != 5000 || p.Renewal {
		t.Errorf("payload fee/renewal = %v/%v, want 5000/false", p.JoiningFee, p.Renewal)
	}
	if receipt.Sale.Category != "single" || receipt.Sale.Quantity != 1 {
		t.Errorf("category/quantity = %q/%d", receipt.Sale.Category, receipt.Sale.Quantity)
	}

	inv := receipt.Invoice
	if len(inv.Lines) != 2 {
		t.Fatalf("invoice lines = %d, want plan and joining fee", len(inv.Lines))
	}
	if inv.Lines[0].Amount != 500 || inv.Lines[1].Amount != 5000 || inv.Total != 5500 {
		t.Errorf("invoice lines %v / total %v", inv.Lines, inv.Total)
	}

	stored, err := env.sales.Get(context.Background(), receipt.Sale.InvoiceID)
	if err != nil {
		t.Fatalf("sale not on the ledger: %v", err)
	}
	if stored.PaymentStatus != domain.PaymentPaid {
		t.Errorf("stored status = %q, want paid", stored.PaymentStatus)
	}
}

func TestSellMembershipRenewal(t *testing.T) {
	tests := []struct {
		name     string
		renewAt  time.Time
		wantBase func(firstEnd, renewAt time.Time) time.Time
	}{
		{
			name:     "running plan is extended from its end",
			renewAt:  testNow.AddDate(0, 0, 10),
			wantBase: func(firstEnd, _ time.Time) time.Time { return firstEnd },
		},
		{
			name:     "expired plan restarts today",
			renewAt:  testNow.AddDate(0, 2, 0),
			wantBase: func(_, renewAt time.Time) time.Time { return renewAt },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			monthly := env.addPlan(t, 1, 800, domain.PlanSingle)
			quarterly := env.addPlan(t, 3, 2100, domain.PlanSingle)
			first := env.newMember(t, "Pema Lhamo", "9800000002", monthly)

			env.now = tc.renewAt
			id := first.Member.ID
			receipt, err := env.pos.SellMembership(context.Background(), MembershipSaleRequest{
				MemberID:      &id,
				PlanID:        quarterly.ID,
				PaymentMethod: "upi",
			})
			if err != nil {
				t.Fatalf("renewal: %v", err)
			}

			wantEnd := tc.wantBase(first.Member.MembershipEnd, tc.renewAt).AddDate(0, 3, 0)
			if !receipt.Member.MembershipEnd.Equal(wantEnd) {
				t.Errorf("MembershipEnd = %v, want %v", receipt.Member.MembershipEnd, wantEnd)
			}
			if receipt.Sale.AmountPaid != 2100 {
				t.Errorf("renewal charged %v, want plan price only", receipt.Sale.AmountPaid)
			}
			if receipt.Sale.PaymentMethod != "UPI" {
				t.Errorf("method = %q, want canonical UPI", receipt.Sale.PaymentMethod)
			}
			p := receipt.Sale.Payload.(domain.MembershipPayload)
			if !p.Renewal || p.JoiningFee != 0 {
				t.Errorf("renewal payload = %+v", p)
			}

			stored, err := env.store.Members.GetByID(context.Background(), id)
			if err != nil {
				t.Fatal(err)
			}
			if !stored.MembershipEnd.Equal(wantEnd) {
				t.Errorf("stored end = %v, want %v", stored.MembershipEnd, wantEnd)
			}
		})
	}
}

func TestSellMembershipFirstPlanForRegisteredMember(t *testing.T) {
	env := newTestEnv(t)
	plan := env.addPlan(t, 1, 800, domain.PlanStudent)
	view, err := env.members.Create(context.Background(), MemberInput{Name: "Sonam", Phone: "9800000003"})
	if err != nil {
		t.Fatal(err)
	}
	id := view.ID
	receipt, err := env.pos.SellMembership(context.Background(), MembershipSaleRequest{
		MemberID: &id, PlanID: plan.ID, PaymentMethod: "Card",
	})
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Sale.AmountPaid != 5800 {
		t.Errorf("AmountPaid = %v, want plan plus joining fee", receipt.Sale.AmountPaid)
	}
}

func TestSellMembershipRejects(t *testing.T) {
	env := newTestEnv(t)
	plan := env.addPlan(t, 1, 800, domain.PlanSingle)
	existing := primitive.NewObjectID()

	tests := []struct {
		name string
		req  MembershipSaleRequest
		want error
	}{
		{"due is not accepted", MembershipSaleRequest{NewMember: &MemberInput{Name: "A", Phone: "1"}, PlanID: plan.ID, PaymentMethod: "Due"}, ErrInvalidInput},
		{"missing method", MembershipSaleRequest{NewMember: &MemberInput{Name: "A", Phone: "1"}, PlanID: plan.ID}, ErrInvalidInput},
		{"no member at all", MembershipSaleRequest{PlanID: plan.ID, PaymentMethod: "Cash"}, ErrInvalidInput},
		{"both member forms", MembershipSaleRequest{MemberID: &existing, NewMember: &MemberInput{Name: "A", Phone: "1"}, PlanID: plan.ID, PaymentMethod: "Cash"}, ErrInvalidInput},
		{"new member without phone", MembershipSaleRequest{NewMember: &MemberInput{Name: "A"}, PlanID: plan.ID, PaymentMethod: "Cash"}, ErrInvalidInput},
		{"unknown plan", MembershipSaleRequest{NewMember: &MemberInput{Name: "A", Phone: "1"}, PlanID: primitive.NewObjectID(), PaymentMethod: "Cash"}, ErrPlanNotFound},
		{"unknown member", MembershipSaleRequest{MemberID: &existing, PlanID: plan.ID, PaymentMethod: "Cash"}, ErrMemberNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.pos.SellMembership(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}

	sales, _ := env.store.Sales.List(context.Background())
	if len(sales) != 0 {
		t.Errorf("rejected sales wrote %d ledger entries", len(sales))
	}
}

func TestAssignTrainer(t *testing.T) {
	env := newTestEnv(t)
	plan := env.addPlan(t, 6, 4000, domain.PlanSingle)
	trainer := env.addTrainer(t, "Tashi", 3000)
	member := env.newMember(t, "Dawa", "9800000004", plan).Member

	start := testNow.AddDate(0, 0, 1)
	receipt, err := env.pos.AssignTrainer(context.Background(), TrainerAssignmentRequest{
		MemberID: member.ID, TrainerID: trainer.ID, StartDate: start, PaymentMethod: "Cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Sale.AmountPaid != 3000 || receipt.Sale.Service != domain.ServiceTrainer {
		t.Errorf("sale = %+v", receipt.Sale)
	}
	wantEnd := start.AddDate(0, 1, 0)
	if !receipt.Member.TrainerAssignEndDate.Equal(wantEnd) {
		t.Errorf("assign end = %v, want %v", receipt.Member.TrainerAssignEndDate, wantEnd)
	}

	view, err := env.members.Get(context.Background(), member.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.TrainerStatus != domain.TrainerActive || view.TrainerName != "Tashi" {
		t.Errorf("view trainer = %q/%q, want active/Tashi", view.TrainerStatus, view.TrainerName)
	}
	if receipt.Invoice.Trainer == nil || receipt.Invoice.Trainer.TrainerName != "Tashi" {
		t.Errorf("invoice trainer block = %+v", receipt.Invoice.Trainer)
	}
}

func TestSellProductsAppliesDiscountAndDecrementsStock(t *testing.T) {
	env := newTestEnv(t)
	shaker := env.addProduct(t, "Shaker", 125, 5)

	receipt, err := env.pos.SellProducts(context.Background(), CartSaleRequest{
		CustomerName:  "Walk-in",
		Lines:         []CartLineRequest{{ID: shaker.ID, Quantity: 1}, {ID: shaker.ID, Quantity: 1}},
		Discount:      10,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatal(err)
	}

	sale := receipt.Sale
	if sale.AmountPaid != 225 || sale.Quantity != 2 || sale.Discount != 10 {
		t.Errorf("sale amount/qty/discount = %v/%d/%v, want 225/2/10", sale.AmountPaid, sale.Quantity, sale.Discount)
	}
	p := sale.Payload.(domain.ProductPayload)
	if len(p.Items) != 1 || p.Items[0].Quantity != 2 || p.Subtotal != 250 {
		t.Errorf("merged cart = %+v", p)
	}
	if receipt.Invoice.Subtotal != 250 || receipt.Invoice.DiscountAmount != 25 || receipt.Invoice.Total != 225 {
		t.Errorf("invoice totals = %v/%v/%v", receipt.Invoice.Subtotal, receipt.Invoice.DiscountAmount, receipt.Invoice.Total)
	}

	left, _ := env.store.Products.GetByID(context.Background(), shaker.ID)
	if left.Stock != 3 {
		t.Errorf("stock = %d, want 3", left.Stock)
	}
}

func TestSellProductsInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	whey := env.addProduct(t, "Whey", 2400, 1)

	_, err := env.pos.SellProducts(context.Background(), CartSaleRequest{
		Lines:         []CartLineRequest{{ID: whey.ID, Quantity: 2}},
		PaymentMethod: "Cash",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	sales, _ := env.store.Sales.List(context.Background())
	if len(sales) != 0 {
		t.Errorf("ledger has %d entries after a refused sale", len(sales))
	}
	left, _ := env.store.Products.GetByID(context.Background(), whey.ID)
	if left.Stock != 1 {
		t.Errorf("stock = %d, want untouched 1", left.Stock)
	}
}

func TestSellCartRejects(t *testing.T) {
	env := newTestEnv(t)
	tea := env.addFood(t, "Butter tea", 40)

	tests := []struct {
		name string
		req  CartSaleRequest
		want error
	}{
		{"empty cart", CartSaleRequest{PaymentMethod: "Cash"}, ErrInvalidInput},
		{"zero quantity", CartSaleRequest{Lines: []CartLineRequest{{ID: tea.ID}}, PaymentMethod: "Cash"}, ErrInvalidInput},
		{"discount over 100", CartSaleRequest{Lines: []CartLineRequest{{ID: tea.ID, Quantity: 1}}, Discount: 120, PaymentMethod: "Cash"}, ErrInvalidInput},
		{"unknown method", CartSaleRequest{Lines: []CartLineRequest{{ID: tea.ID, Quantity: 1}}, PaymentMethod: "Cheque"}, ErrInvalidInput},
		{"unknown item", CartSaleRequest{Lines: []CartLineRequest{{ID: primitive.NewObjectID(), Quantity: 1}}, PaymentMethod: "Cash"}, ErrFoodNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.pos.SellFood(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSellFoodOnDueThenSettle(t *testing.T) {
	env := newTestEnv(t)
	momo := env.addFood(t, "Momo", 120)
	ctx := context.Background()

	receipt, err := env.pos.SellFood(ctx, CartSaleRequest{
		Lines:         []CartLineRequest{{ID: momo.ID, Quantity: 2}},
		PaymentMethod: "due",
	})
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Sale.PaymentStatus != domain.PaymentUnpaid || receipt.Sale.PaymentMethod != domain.PaymentDue {
		t.Fatalf("sale status/method = %q/%q, want unpaid/Due", receipt.Sale.PaymentStatus, receipt.Sale.PaymentMethod)
	}
	if receipt.Sale.Service != domain.ServiceRestaurant {
		t.Errorf("service = %q", receipt.Sale.Service)
	}

	id := receipt.Sale.InvoiceID
	if _, err := env.sales.Settle(ctx, id, "Due"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("settle with Due: err = %v, want ErrInvalidInput", err)
	}
	settled, err := env.sales.Settle(ctx, id, "UPI")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.PaymentStatus != domain.PaymentPaid || settled.PaymentMethod != "UPI" {
		t.Errorf("settled = %q/%q", settled.PaymentStatus, settled.PaymentMethod)
	}
	if settled.AmountPaid != receipt.Sale.AmountPaid {
		t.Errorf("settle changed the amount: %v -> %v", receipt.Sale.AmountPaid, settled.AmountPaid)
	}
	if _, err := env.sales.Settle(ctx, id, "Cash"); !errors.Is(err, ErrSaleAlreadyPaid) {
		t.Errorf("second settle: err = %v, want ErrSaleAlreadyPaid", err)
	}
	if _, err := env.sales.Settle(ctx, "IN-missing", "Cash"); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("unknown invoice: err = %v, want ErrSaleNotFound", err)
	}
}

func TestRenewalEnd(t *testing.T) {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		existing time.Time
		want     time.Time
	}{
		{"no plan yet", time.Time{}, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"expired plan", start.AddDate(0, 0, -5), time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"running plan", time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC), time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenewalEnd(tc.existing, start, 3); !got.Equal(tc.want) {
				t.Errorf("RenewalEnd = %v, want %v", got, tc.want)
			}
		})
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/listutil"
)

// seedLedger records one sale per service; the food sale is left on Due.
func seedLedger(t *testing.T, env *testEnv) []string {
	t.Helper()
	ctx := context.Background()
	plan := env.addPlan(t, 3, 2100, domain.PlanSingle)
	trainer := env.addTrainer(t, "Tashi", 1500)
	shaker := env.addProduct(t, "Shaker", 150, 10)
	tea := env.addFood(t, "Tea", 40)

	ids := []string{}
	membership := env.newMember(t, "Pema Lhamo", "9800000002", plan)
	ids = append(ids, membership.Sale.InvoiceID)

	env.now = env.now.Add(time.Minute)
	assigned, err := env.pos.AssignTrainer(ctx, TrainerAssignmentRequest{
		MemberID: membership.Member.ID, TrainerID: trainer.ID, PaymentMethod: "Card",
	})
	if err != nil {
		t.Fatalf("AssignTrainer: %v", err)
	}
	ids = append(ids, assigned.Sale.InvoiceID)

	env.now = env.now.Add(time.Minute)
	cart, err := env.pos.SellProducts(ctx, CartSaleRequest{
		Lines: []CartLineRequest{{ID: shaker.ID, Quantity: 1}}, PaymentMethod: "Cash",
	})
	if err != nil {
		t.Fatalf("SellProducts: %v", err)
	}
	ids = append(ids, cart.Sale.InvoiceID)

	env.now = env.now.Add(time.Minute)
	food, err := env.pos.SellFood(ctx, CartSaleRequest{
		Lines: []CartLineRequest{{ID: tea.ID, Quantity: 2}}, PaymentMethod: "Due",
	})
	if err != nil {
		t.Fatalf("SellFood: %v", err)
	}
	return append(ids, food.Sale.InvoiceID)
}

func TestSalesListFilters(t *testing.T) {
	env := newTestEnv(t)
	ids := seedLedger(t, env)

	tests := []struct {
		name   string
		params listutil.Params
		want   []string
	}{
		{"newest first", listutil.Params{Page: 1}, []string{ids[3], ids[2], ids[1], ids[0]}},
		{"service alias", listutil.Params{Page: 1, Filters: map[string]string{"service": "kitchen"}}, []string{ids[3]}},
		{"unpaid only", listutil.Params{Page: 1, Filters: map[string]string{"status": "unpaid"}}, []string{ids[3]}},
		{"search by invoice", listutil.Params{Page: 1, Search: strings.ToLower(ids[1])}, []string{ids[1]}},
		{"second page", listutil.Params{Page: 2, PerPage: 3}, []string{ids[0]}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := env.sales.List(context.Background(), tc.params)
			if err != nil {
				t.Fatal(err)
			}
			got := make([]string, len(page.Items))
			for i, s := range page.Items {
				got[i] = s.InvoiceID
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("invoices = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSalesListDefaultPageSize(t *testing.T) {
	env := newTestEnv(t)
	tea := env.addFood(t, "Tea", 40)
	for i := 0; i < SalesPerPage+2; i++ {
		env.now = env.now.Add(time.Second)
		if _, err := env.pos.SellFood(context.Background(), CartSaleRequest{
			Lines: []CartLineRequest{{ID: tea.ID, Quantity: 1}}, PaymentMethod: "Cash",
		}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := env.sales.List(context.Background(), listutil.Params{Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != SalesPerPage || page.Info.Total != SalesPerPage+2 || page.Info.TotalPages != 2 {
		t.Errorf("items/total/pages = %d/%d/%d", len(page.Items), page.Info.Total, page.Info.TotalPages)
	}
}

func TestArchiveInvoice(t *testing.T) {
	env := newTestEnv(t)
	ids := seedLedger(t, env)

	doc, err := env.sales.ArchiveInvoice(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("ArchiveInvoice: %v", err)
	}
	if !strings.HasPrefix(doc.Key, "invoices/"+ids[0]+"/") || !strings.HasSuffix(doc.Key, ".pdf") {
		t.Errorf("key = %q", doc.Key)
	}
	if doc.URL != "https://files.test/"+doc.Key+"?signed" {
		t.Errorf("url = %q", doc.URL)
	}
	if !doc.ExpiresAt.After(env.now) {
		t.Errorf("expiresAt %v is not after now", doc.ExpiresAt)
	}
	body := env.files.objects[doc.Key]
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Errorf("stored object is not a PDF")
	}
	if env.files.types[doc.Key] != "application/pdf" {
		t.Errorf("content type = %q", env.files.types[doc.Key])
	}
}

func TestArchiveInvoiceRemovesUnlinkableObject(t *testing.T) {
	env := newTestEnv(t)
	ids := seedLedger(t, env)
	env.files.presignErr = errors.New("signing key rotated")

	if _, err := env.sales.ArchiveInvoice(context.Background(), ids[2]); err == nil {
		t.Fatal("expected presign failure")
	}
	if len(env.files.objects) != 0 {
		t.Errorf("objects left behind: %d", len(env.files.objects))
	}
	if len(env.files.deleted) != 1 {
		t.Errorf("deleted = %v, want one key", env.files.deleted)
	}
}

func TestArchiveInvoiceUnknownSale(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.sales.ArchiveInvoice(context.Background(), "IN-nope"); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("err = %v, want ErrSaleNotFound", err)
	}
	if len(env.files.objects) != 0 {
		t.Error("nothing should be uploaded for a missing sale")
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	ids := seedLedger(t, env)

	var buf bytes.Buffer
	if err := env.sales.ExportCSV(context.Background(), testNow, testNow, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(ids)+1 {
		t.Fatalf("lines = %d, want header plus %d rows", len(lines), len(ids))
	}
	if !strings.HasPrefix(lines[0], "invoice_id,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], ids[0]+",") || !strings.Contains(lines[1], "3 months") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[4], "unpaid") {
		t.Errorf("due row = %q, want unpaid status", lines[4])
	}

	buf.Reset()
	if err := env.sales.ExportCSV(context.Background(), testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 2), &buf); err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(buf.String()), "\n")); n != 1 {
		t.Errorf("empty range exported %d lines, want only the header", n)
	}
}

func TestSaleDetails(t *testing.T) {
	tests := []struct {
		payload domain.Payload
		want    string
	}{
		{domain.MembershipPayload{Plan: "3 months"}, "3 months"},
		{domain.TrainerPayload{TrainerName: "Tashi"}, "Tashi"},
		{domain.ProductPayload{CartPayload: domain.CartPayload{Items: []domain.CartItem{{Name: "Whey"}, {Name: "Shaker"}}}}, "Whey, Shaker"},
		{domain.UnreadablePayload{}, "(unreadable items)"},
	}
	for _, tc := range tests {
		if got := SaleDetails(domain.Sale{Payload: tc.payload}); got != tc.want {
			t.Errorf("SaleDetails(%T) = %q, want %q", tc.payload, got, tc.want)
		}
	}
}

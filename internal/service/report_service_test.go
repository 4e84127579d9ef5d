package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/export"
)

func TestMembershipReportClassifiesRenewals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	monthly := env.addPlan(t, 1, 800, domain.PlanSingle)
	quarterly := env.addPlan(t, 3, 2100, domain.PlanCouple)

	pema := env.newMember(t, "Pema Lhamo", "9800000002", monthly)
	env.newMember(t, "Karma Dorje", "9800000001", monthly)

	env.now = testNow.AddDate(0, 0, 10)
	id := pema.Member.ID
	if _, err := env.pos.SellMembership(ctx, MembershipSaleRequest{MemberID: &id, PlanID: quarterly.ID, PaymentMethod: "Card"}); err != nil {
		t.Fatal(err)
	}

	report, err := env.reports.Memberships(ctx, testNow, env.now)
	if err != nil {
		t.Fatalf("Memberships: %v", err)
	}
	if len(report.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(report.Rows))
	}
	if report.New != 1 || report.Renewals != 2 {
		t.Errorf("new/renewals = %d/%d, want 1/2", report.New, report.Renewals)
	}
	for _, row := range report.Rows {
		want := MembershipNew
		if row.MemberName == "Pema Lhamo" {
			want = MembershipRenewal
		}
		if row.Type != want {
			t.Errorf("%s %s: type = %q, want %q", row.InvoiceID, row.MemberName, row.Type, want)
		}
	}
	if report.Rows[2].Plan != "3 months" || report.Rows[2].Category != "couple" {
		t.Errorf("renewal row plan/category = %q/%q", report.Rows[2].Plan, report.Rows[2].Category)
	}
	if report.Total != 5800+5800+2100 {
		t.Errorf("total = %v, want 13700", report.Total)
	}

	// Narrowed to the first day, each person appears once.
	firstDay, err := env.reports.Memberships(ctx, testNow, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if firstDay.New != 2 || firstDay.Renewals != 0 {
		t.Errorf("first day new/renewals = %d/%d, want 2/0", firstDay.New, firstDay.Renewals)
	}
}

func TestMembershipReportMatchesExactName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	monthly := env.addPlan(t, 1, 800, domain.PlanSingle)
	env.newMember(t, "Pema Lhamo", "9800000002", monthly)
	env.newMember(t, "pema lhamo", "9800000002", monthly)

	report, err := env.reports.Memberships(ctx, testNow, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if report.New != 2 || report.Renewals != 0 {
		t.Errorf("new/renewals = %d/%d, want 2/0", report.New, report.Renewals)
	}
	for _, row := range report.Rows {
		if row.Type != MembershipNew {
			t.Errorf("%s %q: type = %q, want %q", row.InvoiceID, row.MemberName, row.Type, MembershipNew)
		}
	}
}

func TestKitchenReportFlattensPaidSales(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	momo := env.addFood(t, "Momo", 120)
	tea := env.addFood(t, "Tea", 40)

	paid, err := env.pos.SellFood(ctx, CartSaleRequest{
		CustomerName:  "Sonam",
		Lines:         []CartLineRequest{{ID: momo.ID, Quantity: 2}, {ID: tea.ID, Quantity: 1}},
		PaymentMethod: "Cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.pos.SellFood(ctx, CartSaleRequest{
		Lines: []CartLineRequest{{ID: tea.ID, Quantity: 3}}, PaymentMethod: "Due",
	}); err != nil {
		t.Fatal(err)
	}

	report, err := env.reports.Kitchen(ctx, testNow, testNow)
	if err != nil {
		t.Fatalf("Kitchen: %v", err)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("rows = %d, want only the paid sale", len(report.Rows))
	}
	row := report.Rows[0]
	if row.InvoiceID != paid.Sale.InvoiceID || row.Customer != "Sonam" {
		t.Errorf("row = %+v", row)
	}
	if row.Items != "Momo, Tea" || row.Prices != "120 + 40" || row.Quantities != "2 + 1" || row.Taxes != "5% + 5%" {
		t.Errorf("flattened cells = %q | %q | %q | %q", row.Items, row.Prices, row.Quantities, row.Taxes)
	}
	if row.Amount != 280 || report.Total != 280 {
		t.Errorf("amount/total = %v/%v, want 280", row.Amount, report.Total)
	}

	products, err := env.reports.Products(ctx, testNow, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(products.Rows) != 0 {
		t.Errorf("kitchen sales leaked into the product report")
	}
	if title := report.Table(time.UTC).Title; !strings.HasPrefix(title, "Kitchen Sales") {
		t.Errorf("table title = %q", title)
	}
}

func TestCartReportSkipsUnreadableSales(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.store.Sales.Insert(ctx, &domain.Sale{
		InvoiceID:      "IN-broken",
		Service:        domain.ServiceProduct,
		AmountPaid:     99,
		PaymentMethod:  "Cash",
		PaymentStatus:  domain.PaymentPaid,
		TimeOfPurchase: testNow,
		Payload:        domain.UnreadablePayload{Kind: domain.ServiceProduct},
	}); err != nil {
		t.Fatal(err)
	}

	report, err := env.reports.Products(ctx, testNow, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 1 || len(report.Rows) != 0 || report.Total != 0 {
		t.Errorf("skipped/rows/total = %d/%d/%v", report.Skipped, len(report.Rows), report.Total)
	}
}

func TestExpenseReportRangeIsInclusive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := func(d, h int) time.Time { return time.Date(2025, time.June, d, h, 0, 0, 0, time.UTC) }
	for _, e := range []domain.Expense{
		{Name: "Rent", Category: domain.ExpenseGym, Department: "Maintenance", Amount: 30000, Date: day(1, 9)},
		{Name: "Vegetables", Category: domain.ExpenseKitchen, Department: "Groceries", Amount: 1250.5, Date: day(10, 8)},
		{Name: "Gas", Category: domain.ExpenseKitchen, Department: "Utensils", Amount: 900, Date: day(10, 23)},
		{Name: "Printer ink", Category: domain.ExpenseOther, Amount: 450, Date: day(11, 0)},
	} {
		e := e
		if _, err := env.expenses.Create(ctx, &e); err != nil {
			t.Fatalf("Create %s: %v", e.Name, err)
		}
	}

	tests := []struct {
		name     string
		from, to time.Time
		category domain.ExpenseCategory
		rows     int
		total    float64
	}{
		{"whole span", day(1, 0), day(10, 0), "", 3, 32150.5},
		{"last day counts until midnight", day(10, 12), day(10, 12), "", 2, 2150.5},
		{"kitchen only", day(1, 0), day(30, 0), domain.ExpenseKitchen, 2, 2150.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := env.reports.Expenses(ctx, tc.from, tc.to, tc.category)
			if err != nil {
				t.Fatal(err)
			}
			if len(report.Rows) != tc.rows || report.Total != tc.total {
				t.Errorf("rows/total = %d/%v, want %d/%v", len(report.Rows), report.Total, tc.rows, tc.total)
			}
		})
	}
}

func TestReportsRejectBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.reports.Expenses(ctx, testNow, testNow.AddDate(0, 0, -1), ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("reversed range: err = %v, want ErrInvalidInput", err)
	}
	if _, err := env.reports.Expenses(ctx, testNow, testNow, "travel"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown category: err = %v, want ErrInvalidInput", err)
	}
	if _, err := env.reports.Kitchen(ctx, time.Time{}, testNow); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing from: err = %v, want ErrInvalidInput", err)
	}
}

func TestReportArchive(t *testing.T) {
	env := newTestEnv(t)
	table := export.Table{
		Title:  "Expense Report",
		Header: []string{"Name", "Amount"},
		Rows:   [][]interface{}{{"Rent", 30000}},
	}
	doc, err := env.reports.Archive(context.Background(), "Kitchen Sales", table)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !strings.HasPrefix(doc.Key, "reports/kitchen-sales/") || !strings.HasSuffix(doc.Key, ".xlsx") {
		t.Errorf("key = %q", doc.Key)
	}
	if env.files.types[doc.Key] != export.XLSXContentType {
		t.Errorf("content type = %q", env.files.types[doc.Key])
	}
	// XLSX files are zip archives.
	if body := env.files.objects[doc.Key]; len(body) < 2 || string(body[:2]) != "PK" {
		t.Error("archived object is not an xlsx file")
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"day", PeriodDay, false},
		{"Month", PeriodMonth, false},
		{"year", PeriodYear, false},
		{"week", "", true},
	}
	for _, tc := range tests {
		got, err := ParsePeriod(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePeriod(%q) err = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2024, time.February, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		period Period
		start  time.Time
		labels int
		first  string
	}{
		{PeriodDay, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), 24, "00:00"},
		{PeriodMonth, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 29, "Feb 01"},
		{PeriodYear, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 12, "Jan 2024"},
	}
	for _, tc := range tests {
		start, end, labels, bucketOf := periodBounds(tc.period, now)
		if !start.Equal(tc.start) {
			t.Errorf("%s start = %v, want %v", tc.period, start, tc.start)
		}
		if now.Before(start) || now.After(end) {
			t.Errorf("%s window %v..%v does not contain now", tc.period, start, end)
		}
		if len(labels) != tc.labels || labels[0] != tc.first {
			t.Errorf("%s labels = %d starting %q", tc.period, len(labels), labels[0])
		}
		if i := bucketOf(end); i != len(labels)-1 {
			t.Errorf("%s last instant falls in bucket %d", tc.period, i)
		}
	}
}

func TestDashboardDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	plan := env.addPlan(t, 3, 800, domain.PlanSingle)
	tashi := env.addTrainer(t, "Tashi", 1500)
	shaker := env.addProduct(t, "Shaker", 125, 10)
	momo := env.addFood(t, "Momo", 120)

	member := env.newMember(t, "Pema Lhamo", "9800000002", plan)
	if _, err := env.pos.AssignTrainer(ctx, TrainerAssignmentRequest{
		MemberID: member.Member.ID, TrainerID: tashi.ID, PaymentMethod: "Card",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.pos.SellProducts(ctx, CartSaleRequest{
		Lines: []CartLineRequest{{ID: shaker.ID, Quantity: 1}}, PaymentMethod: "Due",
	}); err != nil {
		t.Fatal(err)
	}
	env.now = testNow.Add(4*time.Hour + 30*time.Minute)
	if _, err := env.pos.SellFood(ctx, CartSaleRequest{
		Lines: []CartLineRequest{{ID: momo.ID, Quantity: 2}}, PaymentMethod: "UPI",
	}); err != nil {
		t.Fatal(err)
	}

	dash, err := env.reports.Dashboard(ctx, PeriodDay)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.Transactions != 3 || dash.Revenue != 7540 {
		t.Errorf("transactions/revenue = %d/%v, want 3/7540", dash.Transactions, dash.Revenue)
	}
	if dash.UnpaidCount != 1 || dash.UnpaidAmount != 125 {
		t.Errorf("unpaid = %d/%v, want 1/125", dash.UnpaidCount, dash.UnpaidAmount)
	}
	if dash.MeanTicket != 2513.33 || dash.MedianTicket != 1500 {
		t.Errorf("mean/median = %v/%v", dash.MeanTicket, dash.MedianTicket)
	}
	if len(dash.RevenueSeries) != 24 || dash.RevenueSeries[10].Value != 7300 || dash.RevenueSeries[14].Value != 240 {
		t.Errorf("series 10h/14h = %v/%v", dash.RevenueSeries[10], dash.RevenueSeries[14])
	}
	if dash.RevenueByService[domain.ServiceTrainer] != 1500 || dash.RevenueByService[domain.ServiceProduct] != 0 {
		t.Errorf("by service = %v", dash.RevenueByService)
	}
	if dash.PaymentMethods["Cash"] != 1 || dash.PaymentMethods["Card"] != 1 || dash.PaymentMethods["UPI"] != 1 {
		t.Errorf("payment methods = %v", dash.PaymentMethods)
	}
	if dash.MembershipByPlan["single"] != 1 {
		t.Errorf("membership by plan = %v", dash.MembershipByPlan)
	}
	if dash.TopTrainer == nil || dash.TopTrainer.Name != "Tashi" || dash.TopTrainer.Assignments != 1 {
		t.Errorf("top trainer = %+v", dash.TopTrainer)
	}
	if dash.MemberStatus[domain.MembershipActive] != 1 || dash.NewMembersThisMonth != 1 {
		t.Errorf("member status = %v, joins this month = %d", dash.MemberStatus, dash.NewMembersThisMonth)
	}
	if last := dash.NewMembersByMonth[11]; last.Label != "Jun 2025" || last.Value != 1 {
		t.Errorf("last join bucket = %+v", last)
	}
}

func TestTopTrainerTieBreaks(t *testing.T) {
	got := topTrainer(map[string]*TopTrainer{
		"Tashi":  {Name: "Tashi", Assignments: 2, Revenue: 3000},
		"Dolma":  {Name: "Dolma", Assignments: 2, Revenue: 3000},
		"Norbu":  {Name: "Norbu", Assignments: 2, Revenue: 2000},
		"Tenzin": {Name: "Tenzin", Assignments: 1, Revenue: 9000},
	})
	if got == nil || got.Name != "Dolma" {
		t.Errorf("topTrainer = %+v, want Dolma", got)
	}
	if topTrainer(nil) != nil {
		t.Error("no trainers should give no top trainer")
	}
}

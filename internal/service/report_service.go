package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/export"
	"tenzinsgym/pos/internal/repository"
	"tenzinsgym/pos/internal/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const reportDateLayout = "Jan 02, 2006"

// Membership sale classification labels.
const (
	MembershipNew     = "New"
	MembershipRenewal = "Renewal"
)

// ExpenseRow is one expense line of a report.
type ExpenseRow struct {
	Date       time.Time              `json:"date"`
	Name       string                 `json:"name"`
	Category   domain.ExpenseCategory `json:"category"`
	Department string                 `json:"department"`
	Amount     float64                `json:"amount"`
}

type ExpenseReport struct {
	From     time.Time              `json:"from"`
	To       time.Time              `json:"to"`
	Category domain.ExpenseCategory `json:"category,omitempty"`
	Rows     []ExpenseRow           `json:"rows"`
	Total    float64                `json:"total"`
}

// MembershipRow is one membership sale of a report.
type MembershipRow struct {
	InvoiceID     string    `json:"invoiceId"`
	Date          time.Time `json:"date"`
	MemberName    string    `json:"memberName"`
	MemberPhone   string    `json:"memberPhone"`
	Plan          string    `json:"plan"`
	Category      string    `json:"category"`
	Type          string    `json:"type"` // New or Renewal
	PaymentMethod string    `json:"paymentMethod"`
	Amount        float64   `json:"amount"`
}

type MembershipReport struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Rows     []MembershipRow `json:"rows"`
	New      int             `json:"new"`
	Renewals int             `json:"renewals"`
	Total    float64         `json:"total"`
}

// CartRow flattens one cart sale: per-item values are joined into single
// cells the way the counter staff read them.
type CartRow struct {
	InvoiceID     string    `json:"invoiceId"`
	Date          time.Time `json:"date"`
	Customer      string    `json:"customer,omitempty"`
	Items         string    `json:"items"`      // "Whey, Shaker"
	Prices        string    `json:"prices"`     // "1200 + 150"
	Quantities    string    `json:"quantities"` // "2 + 1"
	Taxes         string    `json:"taxes"`      // "18% + 5%"
	Discount      float64   `json:"discount"`
	PaymentMethod string    `json:"paymentMethod"`
	Amount        float64   `json:"amount"`
}

type CartReport struct {
	Service domain.ServiceName `json:"service"`
	From    time.Time          `json:"from"`
	To      time.Time          `json:"to"`
	Rows    []CartRow          `json:"rows"`
	Skipped int                `json:"skipped"` // unreadable sales left out
	Total   float64            `json:"total"`
}

// ReportService is the reporting aggregator.
type ReportService interface {
	Expenses(ctx context.Context, from, to time.Time, category domain.ExpenseCategory) (*ExpenseReport, error)
	Memberships(ctx context.Context, from, to time.Time) (*MembershipReport, error)
	Products(ctx context.Context, from, to time.Time) (*CartReport, error)
	Kitchen(ctx context.Context, from, to time.Time) (*CartReport, error)
	Dashboard(ctx context.Context, period Period) (*Dashboard, error)
	// Archive uploads a report spreadsheet and returns a presigned link.
	Archive(ctx context.Context, name string, table export.Table) (*ArchivedDocument, error)
}

type reportService struct {
	saleRepo    repository.SaleRepository
	expenseRepo repository.ExpenseRepository
	memberRepo  repository.MemberRepository
	files       storage.FileStorage
	loc         *time.Location
	windowDays  int
	clock       Clock
}

// NewReportService creates a new instance of reportService.
func NewReportService(
	saleRepo repository.SaleRepository,
	expenseRepo repository.ExpenseRepository,
	memberRepo repository.MemberRepository,
	files storage.FileStorage,
	loc *time.Location,
	windowDays int,
	clock Clock,
) ReportService {
	if files == nil {
		files = storage.NewDisabledStorage()
	}
	if loc == nil {
		loc = time.UTC
	}
	if windowDays <= 0 {
		windowDays = domain.DefaultExpiringWindowDays
	}
	return &reportService{
		saleRepo:    saleRepo,
		expenseRepo: expenseRepo,
		memberRepo:  memberRepo,
		files:       files,
		loc:         loc,
		windowDays:  windowDays,
		clock:       clock,
	}
}

func checkRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return invalidf("both from and to dates are required")
	}
	if to.Before(from) {
		return invalidf("from date must not be after to date")
	}
	return nil
}

func sum(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

func (s *reportService) Expenses(ctx context.Context, from, to time.Time, category domain.ExpenseCategory) (*ExpenseReport, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	if category != "" && !category.Valid() {
		return nil, invalid(domain.ErrInvalidCategory)
	}
	start, end := dayRange(from, to, s.loc)
	expenses, err := s.expenseRepo.ListRange(ctx, start, end, category)
	if err != nil {
		return nil, errors.Wrap(err, "load expenses")
	}

	report := &ExpenseReport{From: start, To: end, Category: category, Rows: make([]ExpenseRow, 0, len(expenses))}
	amounts := make([]float64, 0, len(expenses))
	for _, e := range expenses {
		report.Rows = append(report.Rows, ExpenseRow{
			Date: e.Date, Name: e.Name, Category: e.Category, Department: e.Department, Amount: e.Amount,
		})
		amounts = append(amounts, e.Amount)
	}
	report.Total = sum(amounts)
	return report, nil
}

// Table lays the report out for export.
func (r *ExpenseReport) Table(loc *time.Location) export.Table {
	name := "Expense"
	if r.Category != "" {
		c := string(r.Category)
		name = strings.ToUpper(c[:1]) + c[1:] + " Expense"
	}
	t := export.Table{
		Title:  export.ReportTitle(name, r.From.In(loc), r.To.In(loc)),
		Header: []string{"Date", "Name", "Category", "Department", "Amount"},
		Footer: []interface{}{"Total", nil, nil, nil, r.Total},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{
			row.Date.In(loc).Format(reportDateLayout), row.Name, string(row.Category), row.Department, row.Amount,
		})
	}
	return t
}

// memberKey matches a person by the exact name and phone stored on the sale.
func memberKey(name, phone string) string {
	return name + "\x00" + phone
}

func (s *reportService) Memberships(ctx context.Context, from, to time.Time) (*MembershipReport, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	start, end := dayRange(from, to, s.loc)
	sales, err := s.saleRepo.ListRange(ctx, start, end, repository.SaleFilter{Service: domain.ServiceMembership})
	if err != nil {
		return nil, errors.Wrap(err, "load membership sales")
	}

	// More than one entry for the same person within the window marks all
	// of them as renewals.
	counts := map[string]int{}
	for _, sale := range sales {
		counts[memberKey(sale.MemberName, sale.MemberPhone)]++
	}

	report := &MembershipReport{From: start, To: end, Rows: make([]MembershipRow, 0, len(sales))}
	amounts := make([]float64, 0, len(sales))
	for _, sale := range sales {
		row := MembershipRow{
			InvoiceID:     sale.InvoiceID,
			Date:          sale.TimeOfPurchase,
			MemberName:    sale.MemberName,
			MemberPhone:   sale.MemberPhone,
			Category:      sale.Category,
			PaymentMethod: sale.PaymentMethod,
			Amount:        sale.AmountPaid,
			Type:          MembershipNew,
		}
		if p, ok := sale.Payload.(domain.MembershipPayload); ok {
			row.Plan = p.Plan
		}
		if counts[memberKey(sale.MemberName, sale.MemberPhone)] >= 2 {
			row.Type = MembershipRenewal
			report.Renewals++
		} else {
			report.New++
		}
		report.Rows = append(report.Rows, row)
		amounts = append(amounts, sale.AmountPaid)
	}
	report.Total = sum(amounts)
	return report, nil
}

func (r *MembershipReport) Table(loc *time.Location) export.Table {
	t := export.Table{
		Title:  export.ReportTitle("Membership Sales", r.From.In(loc), r.To.In(loc)),
		Header: []string{"Invoice", "Date", "Member", "Phone", "Plan", "Category", "Type", "Payment", "Amount"},
		Footer: []interface{}{"Total", nil, nil, nil, nil, nil, nil, nil, r.Total},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{
			row.InvoiceID, row.Date.In(loc).Format(reportDateLayout), row.MemberName, row.MemberPhone,
			row.Plan, row.Category, row.Type, row.PaymentMethod, row.Amount,
		})
	}
	return t
}

func (s *reportService) Products(ctx context.Context, from, to time.Time) (*CartReport, error) {
	return s.cartReport(ctx, domain.ServiceProduct, from, to)
}

func (s *reportService) Kitchen(ctx context.Context, from, to time.Time) (*CartReport, error) {
	return s.cartReport(ctx, domain.ServiceRestaurant, from, to)
}

func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func (s *reportService) cartReport(ctx context.Context, service domain.ServiceName, from, to time.Time) (*CartReport, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	start, end := dayRange(from, to, s.loc)
	sales, err := s.saleRepo.ListRange(ctx, start, end, repository.SaleFilter{
		Service:       service,
		PaymentStatus: domain.PaymentPaid,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load %s sales", service)
	}

	report := &CartReport{Service: service, From: start, To: end, Rows: make([]CartRow, 0, len(sales))}
	amounts := make([]float64, 0, len(sales))
	for _, sale := range sales {
		var items []domain.CartItem
		switch p := sale.Payload.(type) {
		case domain.ProductPayload:
			items = p.Items
		case domain.RestaurantPayload:
			items = p.Items
		default:
			report.Skipped++
			zap.S().Warnw("skipping sale with unreadable items", "invoice_id", sale.InvoiceID, "service", service)
			continue
		}

		names := make([]string, len(items))
		prices := make([]string, len(items))
		qtys := make([]string, len(items))
		taxes := make([]string, len(items))
		for i, it := range items {
			names[i] = it.Name
			prices[i] = formatNumber(it.UnitPrice)
			qtys[i] = fmt.Sprintf("%d", it.Quantity)
			taxes[i] = formatNumber(it.Tax) + "%"
		}
		report.Rows = append(report.Rows, CartRow{
			InvoiceID:     sale.InvoiceID,
			Date:          sale.TimeOfPurchase,
			Customer:      sale.MemberName,
			Items:         strings.Join(names, ", "),
			Prices:        strings.Join(prices, " + "),
			Quantities:    strings.Join(qtys, " + "),
			Taxes:         strings.Join(taxes, " + "),
			Discount:      sale.Discount,
			PaymentMethod: sale.PaymentMethod,
			Amount:        sale.AmountPaid,
		})
		amounts = append(amounts, sale.AmountPaid)
	}
	report.Total = sum(amounts)
	return report, nil
}

func (r *CartReport) Table(loc *time.Location) export.Table {
	name := "Product Sales"
	if r.Service == domain.ServiceRestaurant {
		name = "Kitchen Sales"
	}
	t := export.Table{
		Title:  export.ReportTitle(name, r.From.In(loc), r.To.In(loc)),
		Header: []string{"Invoice", "Date", "Customer", "Items", "Prices", "Quantities", "Tax", "Discount %", "Payment", "Amount"},
		Footer: []interface{}{"Total", nil, nil, nil, nil, nil, nil, nil, nil, r.Total},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []interface{}{
			row.InvoiceID, row.Date.In(loc).Format(reportDateLayout), row.Customer, row.Items,
			row.Prices, row.Quantities, row.Taxes, row.Discount, row.PaymentMethod, row.Amount,
		})
	}
	return t
}

func (s *reportService) Archive(ctx context.Context, name string, table export.Table) (*ArchivedDocument, error) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, name, table); err != nil {
		return nil, err
	}
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	key := fmt.Sprintf("reports/%s/%s.xlsx", slug, uuid.NewString())
	return archive(ctx, s.files, key, export.XLSXContentType, &buf, s.clock.Now())
}

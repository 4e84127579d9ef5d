package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/export"
	"tenzinsgym/pos/internal/invoice"
	"tenzinsgym/pos/internal/listutil"
	"tenzinsgym/pos/internal/repository"
	"tenzinsgym/pos/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesPerPage is the default ledger page size.
const SalesPerPage = 8

var SaleFilterKeys = []string{"service", "status"}

// ArchivedDocument points at a file uploaded to object storage.
type ArchivedDocument struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SalesService reads the ledger and settles open sales.
type SalesService interface {
	List(ctx context.Context, params listutil.Params) (listutil.Page[domain.Sale], error)
	Get(ctx context.Context, invoiceID string) (*domain.Sale, error)
	// Settle marks an unpaid sale as paid. Only the payment status and
	// method change.
	Settle(ctx context.Context, invoiceID, method string) (*domain.Sale, error)
	Invoice(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
	InvoicePDF(ctx context.Context, invoiceID string, w io.Writer) error
	ArchiveInvoice(ctx context.Context, invoiceID string) (*ArchivedDocument, error)
	ExportCSV(ctx context.Context, from, to time.Time, w io.Writer) error
}

type salesService struct {
	saleRepo repository.SaleRepository
	files    storage.FileStorage
	loc      *time.Location
	clock    Clock
}

// NewSalesService creates a new instance of salesService.
func NewSalesService(saleRepo repository.SaleRepository, files storage.FileStorage, loc *time.Location, clock Clock) SalesService {
	if files == nil {
		files = storage.NewDisabledStorage()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &salesService{saleRepo: saleRepo, files: files, loc: loc, clock: clock}
}

// serviceFilter accepts either the full service name or a short alias.
func serviceFilter(v string) domain.ServiceName {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all":
		return ""
	case "membership", "memberships":
		return domain.ServiceMembership
	case "trainer", "trainer assignment":
		return domain.ServiceTrainer
	case "product", "products", "product purchase":
		return domain.ServiceProduct
	case "restaurant", "food", "kitchen", "restaurant sale":
		return domain.ServiceRestaurant
	}
	return domain.ServiceName(v)
}

func (s *salesService) List(ctx context.Context, params listutil.Params) (listutil.Page[domain.Sale], error) {
	sales, err := s.saleRepo.List(ctx)
	if err != nil {
		return listutil.Page[domain.Sale]{}, err
	}
	service := serviceFilter(params.Filter("service"))
	status := domain.PaymentStatus(strings.ToLower(params.Filter("status")))
	sales = listutil.Where(sales, func(sale domain.Sale) bool {
		if service != "" && sale.Service != service {
			return false
		}
		if status != "" && sale.PaymentStatus != status {
			return false
		}
		return listutil.MatchesAny(params.Search, sale.InvoiceID)
	})
	perPage := params.PerPage
	if perPage < 1 {
		perPage = SalesPerPage
	}
	return listutil.Paginate(sales, params.Page, perPage), nil
}

func (s *salesService) Get(ctx context.Context, invoiceID string) (*domain.Sale, error) {
	sale, err := s.saleRepo.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, notFound(err, ErrSaleNotFound)
	}
	return sale, nil
}

func (s *salesService) Settle(ctx context.Context, invoiceID, method string) (*domain.Sale, error) {
	canonical, err := canonicalMethod(method, paidMethods)
	if err != nil {
		return nil, err
	}
	sale, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if sale.PaymentStatus != domain.PaymentUnpaid {
		return nil, ErrSaleAlreadyPaid
	}
	if err := s.saleRepo.Settle(ctx, invoiceID, canonical); err != nil {
		if errors.Is(err, repository.ErrAlreadySettled) {
			return nil, ErrSaleAlreadyPaid
		}
		return nil, notFound(err, ErrSaleNotFound)
	}
	zap.S().Infow("sale settled", "invoice_id", invoiceID, "method", canonical)
	return s.Get(ctx, invoiceID)
}

func (s *salesService) Invoice(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	sale, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv := invoice.Build(*sale)
	return &inv, nil
}

func (s *salesService) InvoicePDF(ctx context.Context, invoiceID string, w io.Writer) error {
	inv, err := s.Invoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	return invoice.RenderPDF(w, *inv)
}

// ArchiveInvoice uploads the rendered PDF and returns a presigned link.
func (s *salesService) ArchiveInvoice(ctx context.Context, invoiceID string) (*ArchivedDocument, error) {
	var buf bytes.Buffer
	if err := s.InvoicePDF(ctx, invoiceID, &buf); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("invoices/%s/%s.pdf", invoiceID, uuid.NewString())
	return archive(ctx, s.files, key, "application/pdf", &buf, s.clock.Now())
}

// archive uploads body under key and presigns it. An object that cannot be
// linked is removed again.
func archive(ctx context.Context, files storage.FileStorage, key, contentType string, body io.Reader, now time.Time) (*ArchivedDocument, error) {
	if err := files.PutObject(ctx, key, contentType, body); err != nil {
		return nil, err
	}
	url, err := files.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
	if err != nil {
		if delErr := files.DeleteObject(ctx, key); delErr != nil {
			zap.S().Warnw("orphaned archive object", "key", key, "error", delErr)
		}
		return nil, err
	}
	return &ArchivedDocument{Key: key, URL: url, ExpiresAt: now.Add(storage.DefaultPresignedURLExpiry)}, nil
}

// SaleDetails summarises what a sale sold, for listings and exports.
func SaleDetails(sale domain.Sale) string {
	switch p := sale.Payload.(type) {
	case domain.MembershipPayload:
		return p.Plan
	case domain.TrainerPayload:
		return p.TrainerName
	case domain.ProductPayload:
		return itemNames(p.Items)
	case domain.RestaurantPayload:
		return itemNames(p.Items)
	case domain.UnreadablePayload:
		return "(unreadable items)"
	}
	return ""
}

func itemNames(items []domain.CartItem) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, ", ")
}

func (s *salesService) ExportCSV(ctx context.Context, from, to time.Time, w io.Writer) error {
	start, end := dayRange(from, to, s.loc)
	sales, err := s.saleRepo.ListRange(ctx, start, end, repository.SaleFilter{})
	if err != nil {
		return err
	}
	records := make([]export.SaleRecord, 0, len(sales))
	for _, sale := range sales {
		records = append(records, export.SaleRecord{
			InvoiceID:      sale.InvoiceID,
			TimeOfPurchase: sale.TimeOfPurchase.In(s.loc).Format(time.RFC3339),
			Service:        string(sale.Service),
			MemberName:     sale.MemberName,
			MemberPhone:    sale.MemberPhone,
			Details:        SaleDetails(sale),
			Quantity:       sale.Quantity,
			Discount:       sale.Discount,
			AmountPaid:     sale.AmountPaid,
			PaymentMethod:  sale.PaymentMethod,
			PaymentStatus:  string(sale.PaymentStatus),
		})
	}
	return export.WriteSalesCSV(w, records)
}

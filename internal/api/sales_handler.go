package api

import (
	"fmt"
	"net/http"
	"time"

	"tenzinsgym/pos/internal/export"
	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
)

// SalesHandler serves the sales ledger.
type SalesHandler struct {
	salesService service.SalesService
	loc          *time.Location
	clock        service.Clock
}

// NewSalesHandler creates a new SalesHandler.
func NewSalesHandler(salesService service.SalesService, loc *time.Location, clock service.Clock) *SalesHandler {
	return &SalesHandler{salesService: salesService, loc: loc, clock: clock}
}

type SettleRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

// ListSales godoc
// @Summary List sales
// @Description Newest first, eight per page by default. Search by invoice id; filter by service and status.
// @Tags Sales
// @Produce json
// @Success 200 {object} listutil.Page[domain.Sale]
// @Router /sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	params := listParams(c, service.SalesPerPage, nil, service.SaleFilterKeys)
	page, err := h.salesService.List(c.Request.Context(), params)
	reply(c, http.StatusOK, page, err)
}

func (h *SalesHandler) GetSale(c *gin.Context) {
	sale, err := h.salesService.Get(c.Request.Context(), c.Param("invoiceId"))
	reply(c, http.StatusOK, sale, err)
}

// SettleSale godoc
// @Summary Settle an unpaid sale
// @Description Marks a sale bought on "Due" as paid with Cash, Card or UPI.
// @Tags Sales
// @Accept json
// @Produce json
// @Param invoiceId path string true "Invoice ID"
// @Param settle body SettleRequest true "Payment method"
// @Success 200 {object} domain.Sale
// @Failure 404 {object} gin.H "Sale not found"
// @Failure 409 {object} gin.H "Sale already paid"
// @Router /sales/{invoiceId}/settle [post]
func (h *SalesHandler) SettleSale(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sale, err := h.salesService.Settle(c.Request.Context(), c.Param("invoiceId"), req.PaymentMethod)
	reply(c, http.StatusOK, sale, err)
}

func (h *SalesHandler) GetInvoice(c *gin.Context) {
	inv, err := h.salesService.Invoice(c.Request.Context(), c.Param("invoiceId"))
	reply(c, http.StatusOK, inv, err)
}

// InvoicePDF streams the printable invoice. The sale is checked first so a
// miss still answers with a JSON error.
func (h *SalesHandler) InvoicePDF(c *gin.Context) {
	id := c.Param("invoiceId")
	if _, err := h.salesService.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, id+".pdf", "application/pdf")
	if err := h.salesService.InvoicePDF(c.Request.Context(), id, c.Writer); err != nil {
		respondError(c, err)
	}
}

func (h *SalesHandler) ArchiveInvoice(c *gin.Context) {
	doc, err := h.salesService.ArchiveInvoice(c.Request.Context(), c.Param("invoiceId"))
	reply(c, http.StatusCreated, doc, err)
}

// ExportCSV downloads the ledger between from and to (inclusive days).
func (h *SalesHandler) ExportCSV(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, h.clock.Now())
	if !ok {
		return
	}
	if to.Before(from) {
		abortWithError(c, http.StatusBadRequest, "to must not be before from")
		return
	}
	name := fmt.Sprintf("sales-%s-%s.csv", from.Format("20060102"), to.Format("20060102"))
	attachment(c, name, export.CSVContentType)
	if err := h.salesService.ExportCSV(c.Request.Context(), from, to, c.Writer); err != nil {
		respondError(c, err)
	}
}

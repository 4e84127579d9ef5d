package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/export"
	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// ReportHandler serves the owner's reports.
type ReportHandler struct {
	reportService service.ReportService
	loc           *time.Location
	clock         service.Clock
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService, loc *time.Location, clock service.Clock) *ReportHandler {
	return &ReportHandler{reportService: reportService, loc: loc, clock: clock}
}

// tabular is any report that can be laid out as a spreadsheet.
type tabular interface {
	Table(loc *time.Location) export.Table
}

// render answers with JSON by default, an XLSX download for format=xlsx,
// or an archived copy link for archive=true.
func (h *ReportHandler) render(c *gin.Context, name string, report tabular, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if cast.ToBool(c.Query("archive")) {
		doc, err := h.reportService.Archive(c.Request.Context(), name, report.Table(h.loc))
		reply(c, http.StatusCreated, doc, err)
		return
	}
	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		c.JSON(http.StatusOK, report)
	case "xlsx":
		filename := fmt.Sprintf("%s-%s.xlsx", strings.ToLower(strings.ReplaceAll(name, " ", "-")), h.clock.Now().In(h.loc).Format("20060102"))
		attachment(c, filename, export.XLSXContentType)
		if err := export.WriteXLSX(c.Writer, name, report.Table(h.loc)); err != nil {
			respondError(c, err)
		}
	default:
		abortWithError(c, http.StatusBadRequest, "format must be json or xlsx")
	}
}

// ExpenseReport godoc
// @Summary Expense report
// @Description Expenses between from and to (inclusive), optionally one category. Add format=xlsx to download or archive=true to store a copy.
// @Tags Reports
// @Produce json
// @Param from query string false "Start date"
// @Param to query string false "End date"
// @Param category query string false "gym, kitchen or other"
// @Success 200 {object} service.ExpenseReport
// @Router /reports/expenses [get]
func (h *ReportHandler) ExpenseReport(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, h.clock.Now())
	if !ok {
		return
	}
	category := domain.ExpenseCategory(strings.ToLower(c.Query("category")))
	report, err := h.reportService.Expenses(c.Request.Context(), from, to, category)
	h.render(c, "Expenses", report, err)
}

func (h *ReportHandler) MembershipReport(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, h.clock.Now())
	if !ok {
		return
	}
	report, err := h.reportService.Memberships(c.Request.Context(), from, to)
	h.render(c, "Memberships", report, err)
}

func (h *ReportHandler) ProductReport(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, h.clock.Now())
	if !ok {
		return
	}
	report, err := h.reportService.Products(c.Request.Context(), from, to)
	h.render(c, "Products", report, err)
}

func (h *ReportHandler) KitchenReport(c *gin.Context) {
	from, to, ok := dateRange(c, h.loc, h.clock.Now())
	if !ok {
		return
	}
	report, err := h.reportService.Kitchen(c.Request.Context(), from, to)
	h.render(c, "Kitchen", report, err)
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	period, err := service.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	dash, err := h.reportService.Dashboard(c.Request.Context(), period)
	reply(c, http.StatusOK, dash, err)
}

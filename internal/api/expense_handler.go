package api

import (
	"net/http"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseHandler serves the expense book.
type ExpenseHandler struct {
	expenseService service.ExpenseService
	loc            *time.Location
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService service.ExpenseService, loc *time.Location) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, loc: loc}
}

type ExpenseRequest struct {
	Name       string                 `json:"name" binding:"required"`
	Amount     float64                `json:"amount" binding:"min=0"`
	Category   domain.ExpenseCategory `json:"category" binding:"required,oneof=gym kitchen other"`
	Department string                 `json:"department"`
	Date       string                 `json:"date"` // optional, defaults to now
}

func (h *ExpenseHandler) toDomain(c *gin.Context, id primitive.ObjectID, req ExpenseRequest) (*domain.Expense, bool) {
	date, err := parseDate("date", req.Date, h.loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &domain.Expense{
		ID:         id,
		Name:       req.Name,
		Amount:     req.Amount,
		Category:   req.Category,
		Department: req.Department,
		Date:       date,
	}, true
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	page, err := h.expenseService.List(c.Request.Context(), listParams(c, 0, service.ExpenseSortColumns, service.ExpenseFilterKeys))
	reply(c, http.StatusOK, page, err)
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	expense, err := h.expenseService.Get(c.Request.Context(), id)
	reply(c, http.StatusOK, expense, err)
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req ExpenseRequest
	if _, ok := bindBody(c, &req, false); !ok {
		return
	}
	expense, ok := h.toDomain(c, primitive.NilObjectID, req)
	if !ok {
		return
	}
	created, err := h.expenseService.Create(c.Request.Context(), expense)
	reply(c, http.StatusCreated, created, err)
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	var req ExpenseRequest
	id, ok := bindBody(c, &req, true)
	if !ok {
		return
	}
	expense, ok := h.toDomain(c, id, req)
	if !ok {
		return
	}
	updated, err := h.expenseService.Update(c.Request.Context(), expense)
	reply(c, http.StatusOK, updated, err)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, err := sessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.expenseService.Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Departments lists the known departments of a category.
func (h *ExpenseHandler) Departments(c *gin.Context) {
	category := domain.ExpenseCategory(c.Query("category"))
	if !category.Valid() {
		abortWithError(c, http.StatusBadRequest, "category must be gym, kitchen or other")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "departments": service.ExpenseDepartments(category)})
}

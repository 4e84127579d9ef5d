package api

import (
	"fmt"
	"net/http"
	"time"

	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// POSHandler serves the four checkout flows.
type POSHandler struct {
	posService service.POSService
	loc        *time.Location
}

// NewPOSHandler creates a new POSHandler.
func NewPOSHandler(posService service.POSService, loc *time.Location) *POSHandler {
	return &POSHandler{posService: posService, loc: loc}
}

// --- Request Structs ---

// MembershipSaleRequest sells a plan. Exactly one of memberId and
// newMember must be given.
type MembershipSaleRequest struct {
	MemberID      string         `json:"memberId"`
	NewMember     *MemberRequest `json:"newMember"`
	PlanID        string         `json:"planId" binding:"required"`
	StartDate     string         `json:"startDate"`
	PaymentMethod string         `json:"paymentMethod" binding:"required"`
}

type TrainerAssignmentRequest struct {
	MemberID      string `json:"memberId" binding:"required"`
	TrainerID     string `json:"trainerId" binding:"required"`
	StartDate     string `json:"startDate"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

type CartLine struct {
	ID       string `json:"id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type CartSaleRequest struct {
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone"`
	Items         []CartLine `json:"items" binding:"required,min=1,dive"`
	Discount      float64    `json:"discount" binding:"min=0,max=100"`
	PaymentMethod string     `json:"paymentMethod" binding:"required"`
}

// SellMembership godoc
// @Summary Sell or renew a membership
// @Description Registers a new member or extends an existing one, and records the sale. A member's first plan carries the joining fee.
// @Tags POS
// @Accept json
// @Produce json
// @Param sale body MembershipSaleRequest true "Membership sale"
// @Success 201 {object} service.Receipt
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Member or plan not found"
// @Router /pos/membership [post]
func (h *POSHandler) SellMembership(c *gin.Context) {
	var req MembershipSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format")
		return
	}
	memberID, err := parseObjectID("memberId", req.MemberID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseDate("startDate", req.StartDate, h.loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	sale := service.MembershipSaleRequest{
		MemberID:      memberID,
		PlanID:        planID,
		StartDate:     start,
		PaymentMethod: req.PaymentMethod,
	}
	if req.NewMember != nil {
		input, err := req.NewMember.toInput(h.loc)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		sale.NewMember = &input
	}

	receipt, err := h.posService.SellMembership(c.Request.Context(), sale)
	reply(c, http.StatusCreated, receipt, err)
}

func (h *POSHandler) AssignTrainer(c *gin.Context) {
	var req TrainerAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid memberId format")
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId format")
		return
	}
	start, err := parseDate("startDate", req.StartDate, h.loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.posService.AssignTrainer(c.Request.Context(), service.TrainerAssignmentRequest{
		MemberID:      memberID,
		TrainerID:     trainerID,
		StartDate:     start,
		PaymentMethod: req.PaymentMethod,
	})
	reply(c, http.StatusCreated, receipt, err)
}

func (h *POSHandler) bindCart(c *gin.Context) (service.CartSaleRequest, bool) {
	var req CartSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return service.CartSaleRequest{}, false
	}
	lines := make([]service.CartLineRequest, len(req.Items))
	for i, item := range req.Items {
		id, err := primitive.ObjectIDFromHex(item.ID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid item id %q", item.ID))
			return service.CartSaleRequest{}, false
		}
		lines[i] = service.CartLineRequest{ID: id, Quantity: item.Quantity}
	}
	return service.CartSaleRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Lines:         lines,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
	}, true
}

// SellProducts checks out retail items. Paying with "Due" leaves the sale
// open for settlement.
func (h *POSHandler) SellProducts(c *gin.Context) {
	cart, ok := h.bindCart(c)
	if !ok {
		return
	}
	receipt, err := h.posService.SellProducts(c.Request.Context(), cart)
	reply(c, http.StatusCreated, receipt, err)
}

func (h *POSHandler) SellFood(c *gin.Context) {
	cart, ok := h.bindCart(c)
	if !ok {
		return
	}
	receipt, err := h.posService.SellFood(c.Request.Context(), cart)
	reply(c, http.StatusCreated, receipt, err)
}

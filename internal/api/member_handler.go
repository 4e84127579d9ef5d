package api

import (
	"fmt"
	"net/http"
	"time"

	"tenzinsgym/pos/internal/service"

	"github.com/gin-gonic/gin"
)

// MemberHandler serves the member registry.
type MemberHandler struct {
	memberService service.MemberService
	loc           *time.Location
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberService service.MemberService, loc *time.Location) *MemberHandler {
	return &MemberHandler{memberService: memberService, loc: loc}
}

// MemberRequest carries the editable member fields.
type MemberRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Address  string `json:"address"`
	JoinDate string `json:"joinDate"` // optional, defaults to today
}

func (r MemberRequest) toInput(loc *time.Location) (service.MemberInput, error) {
	join, err := parseDate("joinDate", r.JoinDate, loc)
	if err != nil {
		return service.MemberInput{}, err
	}
	return service.MemberInput{
		Name:     r.Name,
		Phone:    r.Phone,
		Email:    r.Email,
		Address:  r.Address,
		JoinDate: join,
	}, nil
}

// ListMembers godoc
// @Summary List members
// @Description Members with statuses derived at read time. Supports q, sort, dir, page, per_page, status and trainer_status.
// @Tags Members
// @Produce json
// @Success 200 {object} listutil.Page[service.MemberView]
// @Router /members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	params := listParams(c, 0, service.MemberSortColumns, service.MemberFilterKeys)
	page, err := h.memberService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MemberHandler) GetMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.memberService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	input, err := req.toInput(h.loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	member, err := h.memberService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// UpdateMember changes contact details only. Plan and trainer dates move
// through the POS flows.
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	input, err := req.toInput(h.loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	member, err := h.memberService.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) DeleteMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller, err := sessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.memberService.Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reconcile runs a status reconciliation pass on demand.
func (h *MemberHandler) Reconcile(c *gin.Context) {
	result, err := h.memberService.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/services"
)

// ChildBudgetHandler lets admins manage children's monthly allowances.
type ChildBudgetHandler struct {
	budgetService services.ChildBudgetServicer
	auditService  services.AuditServicer
}

// NewChildBudgetHandler creates a new ChildBudgetHandler.
func NewChildBudgetHandler(budgetService services.ChildBudgetServicer, auditService services.AuditServicer) *ChildBudgetHandler {
	return &ChildBudgetHandler{budgetService: budgetService, auditService: auditService}
}

// SetChildBudgetRequest creates or replaces a month's budget. Leaving out
// carryover_amount keeps the carryover already stored for that month.
type SetChildBudgetRequest struct {
	UserID          uint             `json:"user_id" binding:"required"`
	Year            int              `json:"year" binding:"required,min=2000,max=2100"`
	Month           int              `json:"month" binding:"required,month"`
	BaseAmount      *decimal.Decimal `json:"base_amount" binding:"required"`
	CarryoverAmount *decimal.Decimal `json:"carryover_amount"`
	IsExceptional   bool             `json:"is_exceptional"`
	Notes           string           `json:"notes" binding:"max=1000"`
}

// UpdateChildBudgetRequest changes an existing month. A version, when given,
// must match the stored one.
type UpdateChildBudgetRequest struct {
	BaseAmount      *decimal.Decimal `json:"base_amount"`
	CarryoverAmount *decimal.Decimal `json:"carryover_amount"`
	IsExceptional   *bool            `json:"is_exceptional"`
	Notes           *string          `json:"notes" binding:"omitempty,max=1000"`
	Version         *int             `json:"version" binding:"omitempty,min=1"`
}

// ApplyCarryoverRequest writes an amount as carryover from one month into another.
type ApplyCarryoverRequest struct {
	UserID    uint             `json:"user_id" binding:"required"`
	FromYear  int              `json:"from_year" binding:"required"`
	FromMonth int              `json:"from_month" binding:"required,month"`
	ToYear    int              `json:"to_year" binding:"required"`
	ToMonth   int              `json:"to_month" binding:"required,month"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
}

// CarryoverResponse is what a month would carry into the next.
type CarryoverResponse struct {
	UserID    uint            `json:"user_id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Carryover decimal.Decimal `json:"carryover"`
}

func requiredUserID(c *gin.Context) (uint, error) {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return 0, err
	}
	if userID == nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "user_id is required")
	}
	return *userID, nil
}

// SetBudget creates or replaces a child's budget for a month.
// @Summary     Set a child's monthly budget
// @Tags        child-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetChildBudgetRequest true "Budget"
// @Success     201 {object} models.ChildMonthlyBudget "Budget stored"
// @Failure     400 {object} ErrorResponse "Invalid input or not a child"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Concurrent write"
// @Router      /child-budgets [post]
func (h *ChildBudgetHandler) SetBudget(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetChildBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	record, err := h.budgetService.SetBudget(services.ChildBudgetInput{
		UserID:          req.UserID,
		Period:          budget.Period{Year: req.Year, Month: req.Month},
		BaseAmount:      *req.BaseAmount,
		CarryoverAmount: req.CarryoverAmount,
		IsExceptional:   req.IsExceptional,
		Notes:           req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "SET_CHILD_BUDGET", "child_budget", record.ID, c.ClientIP(),
		map[string]interface{}{"user_id": req.UserID, "period": record.Period().String(), "base_amount": record.BaseAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"budget": record})
}

// ListBudgets lists a child's budgets, newest month first.
// @Summary     List a child's budgets
// @Tags        child-budgets
// @Produce     json
// @Security    BearerAuth
// @Param       user_id query int true "Child user ID"
// @Success     200 {array} models.ChildMonthlyBudget "Budgets"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /child-budgets [get]
func (h *ChildBudgetHandler) ListBudgets(c *gin.Context) {
	userID, err := requiredUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.ListUserBudgets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetBudget returns one month's budget.
// @Summary     Get a child's monthly budget
// @Tags        child-budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year    path  int true "Year"
// @Param       month   path  int true "Month"
// @Param       user_id query int true "Child user ID"
// @Success     200 {object} models.ChildMonthlyBudget "Budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /child-budgets/{year}/{month} [get]
func (h *ChildBudgetHandler) GetBudget(c *gin.Context) {
	userID, err := requiredUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.budgetService.GetBudget(userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": record})
}

// UpdateBudget changes an existing month's budget.
// @Summary     Update a child's monthly budget
// @Tags        child-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year    path  int true "Year"
// @Param       month   path  int true "Month"
// @Param       user_id query int true "Child user ID"
// @Param       request body UpdateChildBudgetRequest true "Fields to change"
// @Success     200 {object} models.ChildMonthlyBudget "Updated budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Stale version"
// @Router      /child-budgets/{year}/{month} [put]
func (h *ChildBudgetHandler) UpdateBudget(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := requiredUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateChildBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	record, err := h.budgetService.UpdateBudget(userID, period, services.ChildBudgetUpdate{
		BaseAmount:      req.BaseAmount,
		CarryoverAmount: req.CarryoverAmount,
		IsExceptional:   req.IsExceptional,
		Notes:           req.Notes,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "UPDATE_CHILD_BUDGET", "child_budget", record.ID, c.ClientIP(),
		map[string]interface{}{"user_id": userID, "period": period.String(), "version": record.Version})

	c.JSON(http.StatusOK, gin.H{"budget": record})
}

// DeleteBudget removes a month's budget. Purchases linked to it stay and
// are unlinked.
// @Summary     Delete a child's monthly budget
// @Tags        child-budgets
// @Security    BearerAuth
// @Param       year    path  int true "Year"
// @Param       month   path  int true "Month"
// @Param       user_id query int true "Child user ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /child-budgets/{year}/{month} [delete]
func (h *ChildBudgetHandler) DeleteBudget(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := requiredUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, period); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "DELETE_CHILD_BUDGET", "child_budget", 0, c.ClientIP(),
		map[string]interface{}{"user_id": userID, "period": period.String()})

	c.Status(http.StatusNoContent)
}

// CalculateCarryover reports what a month would carry into the next.
// @Summary     Calculate carryover
// @Tags        child-budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year    path  int true "Year"
// @Param       month   path  int true "Month"
// @Param       user_id query int true "Child user ID"
// @Success     200 {object} CarryoverResponse "Carryover"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Router      /child-budgets/{year}/{month}/carryover [get]
func (h *ChildBudgetHandler) CalculateCarryover(c *gin.Context) {
	userID, err := requiredUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	period, err := parsePeriodParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	amount, err := h.budgetService.CalculateCarryover(userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, CarryoverResponse{
		UserID:    userID,
		Year:      period.Year,
		Month:     period.Month,
		Carryover: amount,
	})
}

// ApplyCarryover writes a carryover amount into the target month.
// @Summary     Apply carryover
// @Tags        child-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ApplyCarryoverRequest true "Carryover"
// @Success     200 {object} models.ChildMonthlyBudget "Target budget"
// @Failure     400 {object} ErrorResponse "Source month has no budget"
// @Failure     404 {object} ErrorResponse "Target budget not found"
// @Failure     409 {object} ErrorResponse "Concurrent write"
// @Router      /child-budgets/carryover [post]
func (h *ChildBudgetHandler) ApplyCarryover(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplyCarryoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	from := budget.Period{Year: req.FromYear, Month: req.FromMonth}
	to := budget.Period{Year: req.ToYear, Month: req.ToMonth}
	record, err := h.budgetService.ApplyCarryover(req.UserID, from, to, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, "APPLY_CARRYOVER", "child_budget", record.ID, c.ClientIP(),
		map[string]interface{}{"user_id": req.UserID, "from": from.String(), "to": to.String(), "amount": req.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": record})
}

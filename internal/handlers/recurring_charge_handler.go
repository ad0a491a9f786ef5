package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
	"duobudget/internal/services"
)

// RecurringChargeHandler handles fixed bills used for budget planning.
type RecurringChargeHandler struct {
	chargeService services.RecurringChargeServicer
	auditService  services.AuditServicer
}

// NewRecurringChargeHandler creates a new RecurringChargeHandler.
func NewRecurringChargeHandler(chargeService services.RecurringChargeServicer, auditService services.AuditServicer) *RecurringChargeHandler {
	return &RecurringChargeHandler{chargeService: chargeService, auditService: auditService}
}

// CreateRecurringChargeRequest represents a new recurring charge.
type CreateRecurringChargeRequest struct {
	Name        string                 `json:"name" binding:"required,min=1,max=100"`
	Description string                 `json:"description" binding:"max=500"`
	Amount      *decimal.Decimal       `json:"amount" binding:"required"`
	Frequency   budget.ChargeFrequency `json:"frequency" binding:"omitempty,charge_frequency"`
	CategoryID  uint                   `json:"category_id" binding:"required"`
}

// UpdateRecurringChargeRequest represents a partial recurring charge update.
type UpdateRecurringChargeRequest struct {
	Name        *string                 `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Amount      *decimal.Decimal        `json:"amount"`
	Frequency   *budget.ChargeFrequency `json:"frequency" binding:"omitempty,charge_frequency"`
	CategoryID  *uint                   `json:"category_id"`
	IsActive    *bool                   `json:"is_active"`
}

// ListCharges lists recurring charges.
// @Summary     List recurring charges
// @Tags        recurring-charges
// @Produce     json
// @Security    BearerAuth
// @Param       include_inactive query bool false "Include paused charges"
// @Success     200 {array} models.RecurringCharge "Charges"
// @Router      /recurring-charges [get]
func (h *RecurringChargeHandler) ListCharges(c *gin.Context) {
	charges, err := h.chargeService.ListCharges(c.Query("include_inactive") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"charges": charges})
}

// GetSummary normalizes active charges to monthly and annual totals.
// @Summary     Recurring budget summary
// @Tags        recurring-charges
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} budget.RecurringSummary "Summary"
// @Router      /recurring-charges/summary [get]
func (h *RecurringChargeHandler) GetSummary(c *gin.Context) {
	summary, err := h.chargeService.GetBudgetSummary()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCharge returns one recurring charge.
// @Summary     Get a recurring charge
// @Tags        recurring-charges
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Charge ID"
// @Success     200 {object} models.RecurringCharge "Charge"
// @Failure     404 {object} ErrorResponse "Charge not found"
// @Router      /recurring-charges/{id} [get]
func (h *RecurringChargeHandler) GetCharge(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	charge, err := h.chargeService.GetCharge(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"charge": charge})
}

// CreateCharge adds a recurring charge.
// @Summary     Create a recurring charge
// @Tags        recurring-charges
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringChargeRequest true "Charge"
// @Success     201 {object} models.RecurringCharge "Charge created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /recurring-charges [post]
func (h *RecurringChargeHandler) CreateCharge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	charge, err := h.chargeService.CreateCharge(services.RecurringChargeInput{
		Name:        req.Name,
		Description: req.Description,
		Amount:      *req.Amount,
		Frequency:   req.Frequency,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING_CHARGE", "recurring_charge", charge.ID, c.ClientIP(),
		map[string]interface{}{"name": charge.Name, "amount": charge.Amount.String(), "frequency": charge.Frequency})

	c.JSON(http.StatusCreated, gin.H{"charge": charge})
}

// UpdateCharge changes a recurring charge.
// @Summary     Update a recurring charge
// @Tags        recurring-charges
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Charge ID"
// @Param       request body UpdateRecurringChargeRequest true "Fields to change"
// @Success     200 {object} models.RecurringCharge "Updated charge"
// @Failure     404 {object} ErrorResponse "Charge not found"
// @Router      /recurring-charges/{id} [patch]
func (h *RecurringChargeHandler) UpdateCharge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	charge, err := h.chargeService.UpdateCharge(id, services.RecurringChargeUpdate{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		CategoryID:  req.CategoryID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING_CHARGE", "recurring_charge", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"charge": charge})
}

// DeleteCharge removes a recurring charge.
// @Summary     Delete a recurring charge
// @Tags        recurring-charges
// @Security    BearerAuth
// @Param       id path int true "Charge ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Charge not found"
// @Router      /recurring-charges/{id} [delete]
func (h *RecurringChargeHandler) DeleteCharge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.chargeService.DeleteCharge(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING_CHARGE", "recurring_charge", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

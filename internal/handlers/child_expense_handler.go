package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
	"duobudget/internal/services"
)

// ChildExpenseHandler handles children's purchases. Children only ever see
// their own; parents see everyone's.
type ChildExpenseHandler struct {
	expenseService services.ChildExpenseServicer
	auditService   services.AuditServicer
}

// NewChildExpenseHandler creates a new ChildExpenseHandler.
func NewChildExpenseHandler(expenseService services.ChildExpenseServicer, auditService services.AuditServicer) *ChildExpenseHandler {
	return &ChildExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// CreateChildExpenseRequest records a purchase. user_id defaults to the caller.
type CreateChildExpenseRequest struct {
	UserID       *uint            `json:"user_id"`
	Description  string           `json:"description" binding:"required,min=1,max=200"`
	Amount       *decimal.Decimal `json:"amount" binding:"required"`
	PurchaseDate string           `json:"purchase_date" binding:"required"`
	Notes        string           `json:"notes" binding:"max=1000"`
	ProductURL   string           `json:"product_url" binding:"omitempty,url,max=500"`
	BudgetID     *uint            `json:"budget_id"`
}

// UpdateChildExpenseRequest represents a partial purchase update.
type UpdateChildExpenseRequest struct {
	Description  *string          `json:"description" binding:"omitempty,min=1,max=200"`
	Amount       *decimal.Decimal `json:"amount"`
	PurchaseDate *string          `json:"purchase_date"`
	Notes        *string          `json:"notes" binding:"omitempty,max=1000"`
	ProductURL   *string          `json:"product_url" binding:"omitempty,max=500"`
}

// checkAccess forbids a child from touching another user's purchases.
func checkAccess(c *gin.Context, targetUserID uint) error {
	callerID, err := getUserID(c)
	if err != nil {
		return err
	}
	if getUserRole(c) == models.RoleChild && callerID != targetUserID {
		return apperrors.WithMessage(apperrors.ErrForbidden, "You can only access your own expenses")
	}
	return nil
}

// loadOwned fetches a purchase and checks the caller may touch it.
func (h *ChildExpenseHandler) loadOwned(c *gin.Context) (*models.ChildExpense, error) {
	id, err := parsePathID(c, "id")
	if err != nil {
		return nil, err
	}
	expense, err := h.expenseService.GetChildExpense(id)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(c, expense.UserID); err != nil {
		return nil, err
	}
	return expense, nil
}

// CreateChildExpense records a purchase against a child's allowance.
// @Summary     Create a child expense
// @Tags        child-expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateChildExpenseRequest true "Purchase"
// @Success     201 {object} models.ChildExpense "Purchase recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not your account"
// @Router      /child-expenses [post]
func (h *ChildExpenseHandler) CreateChildExpense(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateChildExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	target := callerID
	if req.UserID != nil {
		target = *req.UserID
	}
	if err := checkAccess(c, target); err != nil {
		respondWithError(c, err)
		return
	}

	date, err := parseDateField(req.PurchaseDate, "purchase_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateChildExpense(services.ChildExpenseInput{
		UserID:       target,
		Description:  req.Description,
		Amount:       *req.Amount,
		PurchaseDate: date,
		Notes:        req.Notes,
		ProductURL:   req.ProductURL,
		BudgetID:     req.BudgetID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "CREATE_CHILD_EXPENSE", "child_expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"user_id": target, "amount": expense.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// ListChildExpenses lists purchases. Without user_id parents get every
// child's purchases and children get their own.
// @Summary     List child expenses
// @Tags        child-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       user_id query int false "Child user ID"
// @Param       year    query int false "Year"
// @Param       month   query int false "Month (1-12)"
// @Success     200 {array} models.ChildExpense "Purchases"
// @Failure     403 {object} ErrorResponse "Not your account"
// @Router      /child-expenses [get]
func (h *ChildExpenseHandler) ListChildExpenses(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := queryUint(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, err := queryInt(c, "year")
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if userID == nil && getUserRole(c) != models.RoleChild {
		all, err := h.expenseService.ListAllChildExpenses()
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"expenses": all})
		return
	}

	target := callerID
	if userID != nil {
		target = *userID
	}
	if err := checkAccess(c, target); err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.expenseService.ListUserChildExpenses(target, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// GetSummary compares a child's budget with their spending for a month.
// @Summary     Child budget summary
// @Tags        child-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       user_id query int false "Child user ID (defaults to the caller)"
// @Param       year    query int false "Year (defaults to current)"
// @Param       month   query int false "Month (defaults to current)"
// @Success     200 {object} services.ChildSummary "Summary"
// @Failure     403 {object} ErrorResponse "Not your account"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /child-expenses/summary [get]
func (h *ChildExpenseHandler) GetSummary(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := queryUint(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, err := queryInt(c, "year")
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	target := callerID
	if userID != nil {
		target = *userID
	}
	if err := checkAccess(c, target); err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.expenseService.GetSummary(target, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetChildExpense returns one purchase.
// @Summary     Get a child expense
// @Tags        child-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Purchase ID"
// @Success     200 {object} models.ChildExpense "Purchase"
// @Failure     403 {object} ErrorResponse "Not your account"
// @Failure     404 {object} ErrorResponse "Purchase not found"
// @Router      /child-expenses/{id} [get]
func (h *ChildExpenseHandler) GetChildExpense(c *gin.Context) {
	expense, err := h.loadOwned(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateChildExpense changes a purchase.
// @Summary     Update a child expense
// @Tags        child-expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Purchase ID"
// @Param       request body UpdateChildExpenseRequest true "Fields to change"
// @Success     200 {object} models.ChildExpense "Updated purchase"
// @Failure     403 {object} ErrorResponse "Not your account"
// @Failure     404 {object} ErrorResponse "Purchase not found"
// @Router      /child-expenses/{id} [put]
func (h *ChildExpenseHandler) UpdateChildExpense(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expense, err := h.loadOwned(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateChildExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseOptionalDateField(req.PurchaseDate, "purchase_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	updated, err := h.expenseService.UpdateChildExpense(expense.ID, services.ChildExpenseUpdate{
		Description:  req.Description,
		Amount:       req.Amount,
		PurchaseDate: date,
		Notes:        req.Notes,
		ProductURL:   req.ProductURL,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "UPDATE_CHILD_EXPENSE", "child_expense", expense.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": updated})
}

// DeleteChildExpense removes a purchase.
// @Summary     Delete a child expense
// @Tags        child-expenses
// @Security    BearerAuth
// @Param       id path int true "Purchase ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "Not your account"
// @Failure     404 {object} ErrorResponse "Purchase not found"
// @Router      /child-expenses/{id} [delete]
func (h *ChildExpenseHandler) DeleteChildExpense(c *gin.Context) {
	callerID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expense, err := h.loadOwned(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteChildExpense(expense.ID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(callerID, "DELETE_CHILD_EXPENSE", "child_expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"user_id": expense.UserID, "amount": expense.Amount.String()})

	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/pagination"
	"duobudget/internal/services"
)

// ExpenseHandler handles shared expense requests and statistics.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// CreateExpenseRequest represents the request body for a shared expense.
// Omitting assigned_to records a common expense.
type CreateExpenseRequest struct {
	Label       string           `json:"label" binding:"required,min=1,max=200"`
	Description string           `json:"description" binding:"max=1000"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Date        string           `json:"date" binding:"required"`
	Frequency   budget.Frequency `json:"frequency" binding:"omitempty,frequency"`
	SplitType   budget.SplitType `json:"split_type" binding:"omitempty,split_type"`
	CategoryID  uint             `json:"category_id" binding:"required"`
	AccountID   uint             `json:"account_id" binding:"required"`
	AssignedTo  *uint            `json:"assigned_to"`
	ProjectID   *uint            `json:"project_id"`
	IsRecurring bool             `json:"is_recurring"`
}

// UpdateExpenseRequest represents a partial expense update.
type UpdateExpenseRequest struct {
	Label       *string           `json:"label" binding:"omitempty,min=1,max=200"`
	Description *string           `json:"description" binding:"omitempty,max=1000"`
	Amount      *decimal.Decimal  `json:"amount"`
	Date        *string           `json:"date"`
	Frequency   *budget.Frequency `json:"frequency" binding:"omitempty,frequency"`
	SplitType   *budget.SplitType `json:"split_type" binding:"omitempty,split_type"`
	CategoryID  *uint             `json:"category_id"`
	AccountID   *uint             `json:"account_id"`
	AssignedTo  *uint             `json:"assigned_to"`
	ProjectID   *uint             `json:"project_id"`
	IsRecurring *bool             `json:"is_recurring"`
	Unassign    bool              `json:"unassign"`
}

// ListExpenses lists shared expenses, newest first.
// @Summary     List shared expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Page size"
// @Param       skip        query int    false "Rows to skip"
// @Param       limit       query int    false "Alias of page_size"
// @Param       category_id query int    false "Category"
// @Param       account_id  query int    false "Account"
// @Param       assigned_to query int    false "Payer"
// @Param       project_id  query int    false "Project"
// @Param       frequency   query string false "Frequency"
// @Param       split_type  query string false "Split type"
// @Param       from_date   query string false "From date (YYYY-MM-DD)"
// @Param       to_date     query string false "To date (YYYY-MM-DD)"
// @Param       min_amount  query string false "Minimum amount"
// @Param       max_amount  query string false "Maximum amount"
// @Success     200 {object} pagination.PageResponse[services.ExpenseDetail] "Expenses"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.ListExpenses(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseExpenseFilter(c *gin.Context) (services.ExpenseFilter, error) {
	var filter services.ExpenseFilter
	var err error

	if filter.CategoryID, err = queryUint(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.AccountID, err = queryUint(c, "account_id"); err != nil {
		return filter, err
	}
	if filter.AssignedTo, err = queryUint(c, "assigned_to"); err != nil {
		return filter, err
	}
	if filter.ProjectID, err = queryUint(c, "project_id"); err != nil {
		return filter, err
	}

	if v := c.Query("frequency"); v != "" {
		f := budget.Frequency(v)
		if !f.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid frequency")
		}
		filter.Frequency = &f
	}
	if v := c.Query("split_type"); v != "" {
		s, err := budget.ParseSplitType(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid split_type")
		}
		filter.SplitType = &s
	}

	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = queryDecimal(c, "min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = queryDecimal(c, "max_amount"); err != nil {
		return filter, err
	}

	return filter, nil
}

// GetExpense returns one shared expense with its names resolved.
// @Summary     Get a shared expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} services.ExpenseDetail "Expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpense(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// CreateExpense records a shared expense.
// @Summary     Create a shared expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense"
// @Success     201 {object} services.ExpenseDetail "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Referenced record not found"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, services.ExpenseInput{
		Label:       req.Label,
		Description: req.Description,
		Amount:      *req.Amount,
		Date:        date,
		Frequency:   req.Frequency,
		SplitType:   req.SplitType,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		AssignedTo:  req.AssignedTo,
		ProjectID:   req.ProjectID,
		IsRecurring: req.IsRecurring,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"label": expense.Label, "amount": expense.Amount.String(), "split_type": expense.SplitType})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// UpdateExpense changes a shared expense.
// @Summary     Update a shared expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} services.ExpenseDetail "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [patch]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
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

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseOptionalDateField(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(id, services.ExpenseUpdate{
		Label:       req.Label,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		Frequency:   req.Frequency,
		SplitType:   req.SplitType,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		AssignedTo:  req.AssignedTo,
		ProjectID:   req.ProjectID,
		IsRecurring: req.IsRecurring,
		Unassign:    req.Unassign,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense removes a shared expense from the ledger.
// @Summary     Delete a shared expense
// @Tags        expenses
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
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

	if err := h.expenseService.DeleteExpense(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// TotalsByCategory sums spending per category.
// @Summary     Spending by category
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "From date (YYYY-MM-DD)"
// @Param       to_date   query string false "To date (YYYY-MM-DD)"
// @Success     200 {array} services.CategorySpend "Totals"
// @Router      /expenses/stats/by-category [get]
func (h *ExpenseHandler) TotalsByCategory(c *gin.Context) {
	from, err := queryDate(c, "from_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := queryDate(c, "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.expenseService.TotalsByCategory(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// MonthlyTotals sums spending per month of a year.
// @Summary     Monthly totals
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       year path int true "Year"
// @Success     200 {array} services.MonthTotal "Totals"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /expenses/stats/monthly/{year} [get]
func (h *ExpenseHandler) MonthlyTotals(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year"))
		return
	}

	totals, err := h.expenseService.MonthlyTotals(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "months": totals})
}

// MonthlyHistory returns every month with spending, newest first.
// @Summary     Spending history
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.MonthHistory "History"
// @Router      /expenses/stats/history [get]
func (h *ExpenseHandler) MonthlyHistory(c *gin.Context) {
	history, err := h.expenseService.MonthlyHistory()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Balance settles shared spending between two adults.
// @Summary     Balance between two users
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       user1_id  query int    true  "First user"
// @Param       user2_id  query int    true  "Second user"
// @Param       from_date query string false "From date (YYYY-MM-DD)"
// @Param       to_date   query string false "To date (YYYY-MM-DD)"
// @Success     200 {object} budget.Balance "Balance"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /expenses/stats/balance [get]
func (h *ExpenseHandler) Balance(c *gin.Context) {
	user1, err := queryUint(c, "user1_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	user2, err := queryUint(c, "user2_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if user1 == nil || user2 == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "user1_id and user2_id are required"))
		return
	}
	from, err := queryDate(c, "from_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := queryDate(c, "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.expenseService.CalculateUserBalance(*user1, *user2, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

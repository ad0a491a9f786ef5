package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"duobudget/internal/budget"
	"duobudget/internal/services"
)

// InternalHandler serves machine-to-machine endpoints behind the service key.
type InternalHandler struct {
	userService   services.UserServicer
	budgetService services.ChildBudgetServicer
	now           func() time.Time
}

// NewInternalHandler creates a new InternalHandler. now decides which month
// counts as the current one.
func NewInternalHandler(userService services.UserServicer, budgetService services.ChildBudgetServicer, now func() time.Time) *InternalHandler {
	if now == nil {
		now = time.Now
	}
	return &InternalHandler{userService: userService, budgetService: budgetService, now: now}
}

// RolloverRequest selects the month to close. Empty fields default to the
// month before the current one; an empty user_id rolls every child over.
type RolloverRequest struct {
	UserID *uint `json:"user_id"`
	Year   int   `json:"year" binding:"omitempty,min=2000,max=2100"`
	Month  int   `json:"month" binding:"omitempty,month"`
}

// RolloverResult is the outcome for one child.
type RolloverResult struct {
	UserID   uint               `json:"user_id"`
	Rollover *services.Rollover `json:"rollover,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// RolloverCarryover computes each child's carryover for a closed month and
// applies it to the following month. One child's failure does not stop the
// others.
// @Summary     Roll carryover into the next month
// @Tags        internal
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Service key"
// @Param       request body RolloverRequest false "Month and child"
// @Success     200 {array} RolloverResult "Per-child results"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Security    ApiKeyAuth
// @Router      /internal/child-budgets/rollover [post]
func (h *InternalHandler) RolloverCarryover(c *gin.Context) {
	var req RolloverRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	from := budget.PeriodOf(h.now()).Previous()
	if req.Year != 0 || req.Month != 0 {
		p, err := budget.ResolvePeriod(req.Year, req.Month, h.now())
		if err != nil {
			respondWithError(c, bindError(err))
			return
		}
		from = p
	}

	outcomes, err := services.RolloverChildren(h.userService, h.budgetService, req.UserID, from)
	if err != nil {
		respondWithError(c, err)
		return
	}

	results := make([]RolloverResult, 0, len(outcomes))
	for _, o := range outcomes {
		result := RolloverResult{UserID: o.UserID, Rollover: o.Rollover}
		if o.Err != nil {
			result.Error = o.Err.Error()
		}
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{"from": from.String(), "results": results})
}

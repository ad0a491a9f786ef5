package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
	"duobudget/internal/services"
)

// --- mock child budget service ---

type mockChildBudgetService struct {
	setBudgetFn          func(in services.ChildBudgetInput) (*models.ChildMonthlyBudget, error)
	getBudgetFn          func(userID uint, period budget.Period) (*models.ChildMonthlyBudget, error)
	listUserBudgetsFn    func(userID uint) ([]models.ChildMonthlyBudget, error)
	updateBudgetFn       func(userID uint, period budget.Period, upd services.ChildBudgetUpdate) (*models.ChildMonthlyBudget, error)
	deleteBudgetFn       func(userID uint, period budget.Period) error
	calculateCarryoverFn func(userID uint, period budget.Period) (decimal.Decimal, error)
	applyCarryoverFn     func(userID uint, from, to budget.Period, amount decimal.Decimal) (*models.ChildMonthlyBudget, error)
	rolloverFn           func(userID uint, from budget.Period) (*services.Rollover, error)
}

func (m *mockChildBudgetService) SetBudget(in services.ChildBudgetInput) (*models.ChildMonthlyBudget, error) {
	if m.setBudgetFn != nil {
		return m.setBudgetFn(in)
	}
	return &models.ChildMonthlyBudget{}, nil
}

func (m *mockChildBudgetService) GetBudget(userID uint, period budget.Period) (*models.ChildMonthlyBudget, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(userID, period)
	}
	return &models.ChildMonthlyBudget{}, nil
}

func (m *mockChildBudgetService) ListUserBudgets(userID uint) ([]models.ChildMonthlyBudget, error) {
	if m.listUserBudgetsFn != nil {
		return m.listUserBudgetsFn(userID)
	}
	return []models.ChildMonthlyBudget{}, nil
}

func (m *mockChildBudgetService) UpdateBudget(userID uint, period budget.Period, upd services.ChildBudgetUpdate) (*models.ChildMonthlyBudget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, period, upd)
	}
	return &models.ChildMonthlyBudget{}, nil
}

func (m *mockChildBudgetService) DeleteBudget(userID uint, period budget.Period) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, period)
	}
	return nil
}

func (m *mockChildBudgetService) CalculateCarryover(userID uint, period budget.Period) (decimal.Decimal, error) {
	if m.calculateCarryoverFn != nil {
		return m.calculateCarryoverFn(userID, period)
	}
	return decimal.Zero, nil
}

func (m *mockChildBudgetService) ApplyCarryover(userID uint, from, to budget.Period, amount decimal.Decimal) (*models.ChildMonthlyBudget, error) {
	if m.applyCarryoverFn != nil {
		return m.applyCarryoverFn(userID, from, to, amount)
	}
	return &models.ChildMonthlyBudget{}, nil
}

func (m *mockChildBudgetService) RolloverCarryover(userID uint, from budget.Period) (*services.Rollover, error) {
	if m.rolloverFn != nil {
		return m.rolloverFn(userID, from)
	}
	return &services.Rollover{UserID: userID, From: from, To: from.Next()}, nil
}

var _ services.ChildBudgetServicer = (*mockChildBudgetService)(nil)

func setupChildBudgetRouter(handler *ChildBudgetHandler) *gin.Engine {
	r := gin.New()
	admin := r.Group("", injectUser(1, models.RoleAdmin))
	admin.POST("/child-budgets", handler.SetBudget)
	admin.GET("/child-budgets", handler.ListBudgets)
	admin.GET("/child-budgets/:year/:month", handler.GetBudget)
	admin.PUT("/child-budgets/:year/:month", handler.UpdateBudget)
	admin.DELETE("/child-budgets/:year/:month", handler.DeleteBudget)
	admin.GET("/child-budgets/:year/:month/carryover", handler.CalculateCarryover)
	admin.POST("/child-budgets/carryover", handler.ApplyCarryover)
	return r
}

func TestChildBudgetHandler_SetBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockChildBudgetService{
			setBudgetFn: func(in services.ChildBudgetInput) (*models.ChildMonthlyBudget, error) {
				if in.UserID != 7 || in.Period != (budget.Period{Year: 2025, Month: 3}) {
					t.Errorf("unexpected input %+v", in)
				}
				if in.CarryoverAmount != nil {
					t.Error("expected carryover to be left alone")
				}
				return &models.ChildMonthlyBudget{
					Base:       models.Base{ID: 11},
					UserID:     in.UserID,
					Year:       in.Period.Year,
					Month:      in.Period.Month,
					BaseAmount: in.BaseAmount,
					Version:    1,
				}, nil
			},
		}
		handler := NewChildBudgetHandler(svc, audit)
		rec := doRequest(setupChildBudgetRouter(handler), "POST", "/child-budgets",
			`{"user_id":7,"year":2025,"month":3,"base_amount":"40"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		record := parseJSON(t, rec)["budget"].(map[string]interface{})
		if record["base_amount"] != "40" {
			t.Errorf("expected base 40, got %v", record["base_amount"])
		}
		if len(audit.calls) != 1 || audit.calls[0].action != "SET_CHILD_BUDGET" {
			t.Errorf("expected SET_CHILD_BUDGET audit, got %+v", audit.calls)
		}
	})

	t.Run("returns 400 on month 13", func(t *testing.T) {
		handler := NewChildBudgetHandler(&mockChildBudgetService{}, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "POST", "/child-budgets",
			`{"user_id":7,"year":2025,"month":13,"base_amount":"40"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 for a non-child user", func(t *testing.T) {
		svc := &mockChildBudgetService{
			setBudgetFn: func(services.ChildBudgetInput) (*models.ChildMonthlyBudget, error) {
				return nil, apperrors.ErrNotAChild
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "POST", "/child-budgets",
			`{"user_id":2,"year":2025,"month":3,"base_amount":"40"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_A_CHILD")
	})
}

func TestChildBudgetHandler_GetAndList(t *testing.T) {
	t.Run("requires user_id", func(t *testing.T) {
		handler := NewChildBudgetHandler(&mockChildBudgetService{}, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "GET", "/child-budgets", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("lists a child's budgets", func(t *testing.T) {
		svc := &mockChildBudgetService{
			listUserBudgetsFn: func(userID uint) ([]models.ChildMonthlyBudget, error) {
				return []models.ChildMonthlyBudget{{UserID: userID, Year: 2025, Month: 2}, {UserID: userID, Year: 2025, Month: 1}}, nil
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "GET", "/child-budgets?user_id=7", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if budgets := parseJSON(t, rec)["budgets"].([]interface{}); len(budgets) != 2 {
			t.Errorf("expected 2 budgets, got %d", len(budgets))
		}
	})

	t.Run("returns 404 for a month without budget", func(t *testing.T) {
		svc := &mockChildBudgetService{
			getBudgetFn: func(uint, budget.Period) (*models.ChildMonthlyBudget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "GET", "/child-budgets/2025/4?user_id=7", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("returns 400 on an invalid month", func(t *testing.T) {
		handler := NewChildBudgetHandler(&mockChildBudgetService{}, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "GET", "/child-budgets/2025/0?user_id=7", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestChildBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("forwards the expected version", func(t *testing.T) {
		svc := &mockChildBudgetService{
			updateBudgetFn: func(_ uint, _ budget.Period, upd services.ChildBudgetUpdate) (*models.ChildMonthlyBudget, error) {
				if upd.ExpectedVersion == nil || *upd.ExpectedVersion != 2 {
					t.Errorf("expected version 2, got %v", upd.ExpectedVersion)
				}
				return &models.ChildMonthlyBudget{Version: 3}, nil
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "PUT", "/child-budgets/2025/3?user_id=7",
			`{"base_amount":"55","version":2}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		record := parseJSON(t, rec)["budget"].(map[string]interface{})
		if record["version"] != float64(3) {
			t.Errorf("expected version 3, got %v", record["version"])
		}
	})

	t.Run("returns 409 on a stale version", func(t *testing.T) {
		svc := &mockChildBudgetService{
			updateBudgetFn: func(uint, budget.Period, services.ChildBudgetUpdate) (*models.ChildMonthlyBudget, error) {
				return nil, apperrors.ErrBudgetConflict
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "PUT", "/child-budgets/2025/3?user_id=7",
			`{"base_amount":"55","version":1}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_CONFLICT")
	})
}

func TestChildBudgetHandler_DeleteBudget(t *testing.T) {
	var gotPeriod budget.Period
	svc := &mockChildBudgetService{
		deleteBudgetFn: func(_ uint, period budget.Period) error {
			gotPeriod = period
			return nil
		},
	}
	handler := NewChildBudgetHandler(svc, &mockAuditService{})
	rec := doRequest(setupChildBudgetRouter(handler), "DELETE", "/child-budgets/2025/3?user_id=7", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotPeriod != (budget.Period{Year: 2025, Month: 3}) {
		t.Errorf("unexpected period %v", gotPeriod)
	}
}

func TestChildBudgetHandler_Carryover(t *testing.T) {
	t.Run("calculates the remaining amount", func(t *testing.T) {
		svc := &mockChildBudgetService{
			calculateCarryoverFn: func(uint, budget.Period) (decimal.Decimal, error) {
				return decimal.RequireFromString("-12.50"), nil
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "GET", "/child-budgets/2025/3/carryover?user_id=7", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["carryover"] != "-12.5" {
			t.Errorf("expected -12.5, got %v", body["carryover"])
		}
		if body["month"] != float64(3) {
			t.Errorf("expected month 3, got %v", body["month"])
		}
	})

	t.Run("returns 400 when the source month has no budget", func(t *testing.T) {
		svc := &mockChildBudgetService{
			calculateCarryoverFn: func(uint, budget.Period) (decimal.Decimal, error) {
				return decimal.Zero, apperrors.ErrSourceBudgetMissing
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "GET", "/child-budgets/2025/3/carryover?user_id=7", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SOURCE_BUDGET_MISSING")
	})

	t.Run("applies carryover across the year boundary", func(t *testing.T) {
		svc := &mockChildBudgetService{
			applyCarryoverFn: func(userID uint, from, to budget.Period, amount decimal.Decimal) (*models.ChildMonthlyBudget, error) {
				if from != (budget.Period{Year: 2024, Month: 12}) || to != (budget.Period{Year: 2025, Month: 1}) {
					t.Errorf("unexpected periods %v -> %v", from, to)
				}
				return &models.ChildMonthlyBudget{UserID: userID, Year: to.Year, Month: to.Month, CarryoverAmount: amount}, nil
			},
		}
		handler := NewChildBudgetHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildBudgetRouter(handler), "POST", "/child-budgets/carryover",
			`{"user_id":7,"from_year":2024,"from_month":12,"to_year":2025,"to_month":1,"amount":"8.75"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		record := parseJSON(t, rec)["budget"].(map[string]interface{})
		if record["carryover_amount"] != "8.75" {
			t.Errorf("expected carryover 8.75, got %v", record["carryover_amount"])
		}
	})
}

package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
	"duobudget/internal/pagination"
	"duobudget/internal/services"
)

// --- mock expense service ---

type mockExpenseService struct {
	createExpenseFn    func(createdBy uint, in services.ExpenseInput) (*services.ExpenseDetail, error)
	getExpenseFn       func(id uint) (*services.ExpenseDetail, error)
	listExpensesFn     func(filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[services.ExpenseDetail], error)
	updateExpenseFn    func(id uint, upd services.ExpenseUpdate) (*services.ExpenseDetail, error)
	deleteExpenseFn    func(id uint) error
	totalsByCategoryFn func(from, to *time.Time) ([]services.CategorySpend, error)
	monthlyTotalsFn    func(year int) ([]services.MonthTotal, error)
	monthlyHistoryFn   func() ([]services.MonthHistory, error)
	balanceFn          func(user1ID, user2ID uint, from, to *time.Time) (*budget.Balance, error)
}

func (m *mockExpenseService) CreateExpense(createdBy uint, in services.ExpenseInput) (*services.ExpenseDetail, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(createdBy, in)
	}
	return &services.ExpenseDetail{}, nil
}

func (m *mockExpenseService) GetExpense(id uint) (*services.ExpenseDetail, error) {
	if m.getExpenseFn != nil {
		return m.getExpenseFn(id)
	}
	return &services.ExpenseDetail{}, nil
}

func (m *mockExpenseService) ListExpenses(filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[services.ExpenseDetail], error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(filter, page)
	}
	resp := pagination.NewPageResponse[services.ExpenseDetail](nil, 1, 50, 0)
	return &resp, nil
}

func (m *mockExpenseService) UpdateExpense(id uint, upd services.ExpenseUpdate) (*services.ExpenseDetail, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(id, upd)
	}
	return &services.ExpenseDetail{}, nil
}

func (m *mockExpenseService) DeleteExpense(id uint) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(id)
	}
	return nil
}

func (m *mockExpenseService) TotalsByCategory(from, to *time.Time) ([]services.CategorySpend, error) {
	if m.totalsByCategoryFn != nil {
		return m.totalsByCategoryFn(from, to)
	}
	return []services.CategorySpend{}, nil
}

func (m *mockExpenseService) MonthlyTotals(year int) ([]services.MonthTotal, error) {
	if m.monthlyTotalsFn != nil {
		return m.monthlyTotalsFn(year)
	}
	return []services.MonthTotal{}, nil
}

func (m *mockExpenseService) MonthlyHistory() ([]services.MonthHistory, error) {
	if m.monthlyHistoryFn != nil {
		return m.monthlyHistoryFn()
	}
	return []services.MonthHistory{}, nil
}

func (m *mockExpenseService) CalculateUserBalance(user1ID, user2ID uint, from, to *time.Time) (*budget.Balance, error) {
	if m.balanceFn != nil {
		return m.balanceFn(user1ID, user2ID, from, to)
	}
	return &budget.Balance{User1ID: user1ID, User2ID: user2ID}, nil
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.GET("/expenses", handler.ListExpenses)
	auth.POST("/expenses", handler.CreateExpense)
	auth.GET("/expenses/stats/by-category", handler.TotalsByCategory)
	auth.GET("/expenses/stats/monthly/:year", handler.MonthlyTotals)
	auth.GET("/expenses/stats/history", handler.MonthlyHistory)
	auth.GET("/expenses/stats/balance", handler.Balance)
	auth.GET("/expenses/:id", handler.GetExpense)
	auth.PATCH("/expenses/:id", handler.UpdateExpense)
	auth.DELETE("/expenses/:id", handler.DeleteExpense)
	return r
}

func TestExpenseHandler_CreateExpense(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockExpenseService{
			createExpenseFn: func(createdBy uint, in services.ExpenseInput) (*services.ExpenseDetail, error) {
				if createdBy != 1 {
					t.Errorf("expected creator 1, got %d", createdBy)
				}
				if !in.Date.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("unexpected date %v", in.Date)
				}
				if in.SplitType != budget.SplitThirdFirst {
					t.Errorf("expected 33_67, got %s", in.SplitType)
				}
				return &services.ExpenseDetail{
					Expense: models.Expense{
						Base:      models.Base{ID: 10},
						Label:     in.Label,
						Amount:    in.Amount,
						SplitType: in.SplitType,
					},
					CategoryName: "Groceries",
				}, nil
			},
		}
		handler := NewExpenseHandler(svc, audit)
		rec := doRequest(setupExpenseRouter(handler), "POST", "/expenses",
			`{"label":"Market","amount":"82.40","date":"2025-03-14","split_type":"33_67","category_id":2,"account_id":1}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		expense := parseJSON(t, rec)["expense"].(map[string]interface{})
		if expense["category_name"] != "Groceries" {
			t.Errorf("expected category name, got %v", expense["category_name"])
		}
		if len(audit.calls) != 1 || audit.calls[0].action != "CREATE_EXPENSE" {
			t.Errorf("expected CREATE_EXPENSE audit, got %+v", audit.calls)
		}
	})

	t.Run("returns 400 on invalid split type", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "POST", "/expenses",
			`{"label":"Market","amount":"10","date":"2025-03-14","split_type":"40_60","category_id":2,"account_id":1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "POST", "/expenses",
			`{"label":"Market","amount":"10","date":"14/03/2025","category_id":2,"account_id":1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when the category is missing", func(t *testing.T) {
		svc := &mockExpenseService{
			createExpenseFn: func(uint, services.ExpenseInput) (*services.ExpenseDetail, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "POST", "/expenses",
			`{"label":"Market","amount":"10","date":"2025-03-14","category_id":99,"account_id":1}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestExpenseHandler_ListExpenses(t *testing.T) {
	t.Run("forwards filters and paging", func(t *testing.T) {
		svc := &mockExpenseService{
			listExpensesFn: func(filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[services.ExpenseDetail], error) {
				if filter.CategoryID == nil || *filter.CategoryID != 3 {
					t.Errorf("expected category 3, got %v", filter.CategoryID)
				}
				if filter.SplitType == nil || *filter.SplitType != budget.SplitEqual {
					t.Errorf("expected split filter, got %v", filter.SplitType)
				}
				if filter.FromDate == nil || filter.MinAmount == nil || !filter.MinAmount.Equal(decimal.NewFromInt(5)) {
					t.Errorf("expected date and amount filters, got %+v", filter)
				}
				if page.Page != 2 || page.PageSize != 10 {
					t.Errorf("unexpected page %+v", page)
				}
				resp := pagination.NewPageResponse([]services.ExpenseDetail{{}}, 2, 10, 11)
				return &resp, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET",
			"/expenses?category_id=3&split_type=50_50&from_date=2025-01-01&min_amount=5&page=2&page_size=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["total_pages"] != float64(2) {
			t.Errorf("expected 2 pages, got %v", body["total_pages"])
		}
	})

	t.Run("returns 400 on invalid frequency", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses?frequency=weekly", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses?page_size=1000", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_UpdateExpense(t *testing.T) {
	t.Run("unassign makes the expense common", func(t *testing.T) {
		svc := &mockExpenseService{
			updateExpenseFn: func(id uint, upd services.ExpenseUpdate) (*services.ExpenseDetail, error) {
				if id != 4 || !upd.Unassign || upd.Label != nil {
					t.Errorf("unexpected update %d %+v", id, upd)
				}
				return &services.ExpenseDetail{}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "PATCH", "/expenses/4", `{"unassign":true}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on unknown expense", func(t *testing.T) {
		svc := &mockExpenseService{
			updateExpenseFn: func(uint, services.ExpenseUpdate) (*services.ExpenseDetail, error) {
				return nil, apperrors.ErrExpenseNotFound
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "PATCH", "/expenses/4", `{"label":"X"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_DeleteExpense(t *testing.T) {
	audit := &mockAuditService{}
	handler := NewExpenseHandler(&mockExpenseService{}, audit)
	rec := doRequest(setupExpenseRouter(handler), "DELETE", "/expenses/4", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(audit.calls) != 1 || audit.calls[0].action != "DELETE_EXPENSE" {
		t.Errorf("expected DELETE_EXPENSE audit, got %+v", audit.calls)
	}
}

func TestExpenseHandler_Stats(t *testing.T) {
	t.Run("monthly totals by year", func(t *testing.T) {
		svc := &mockExpenseService{
			monthlyTotalsFn: func(year int) ([]services.MonthTotal, error) {
				if year != 2025 {
					t.Errorf("expected 2025, got %d", year)
				}
				return []services.MonthTotal{{Month: 1, Total: decimal.NewFromInt(40), Count: 2}}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/monthly/2025", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if months := parseJSON(t, rec)["months"].([]interface{}); len(months) != 1 {
			t.Errorf("expected 1 month, got %d", len(months))
		}
	})

	t.Run("monthly totals reject a bad year", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/monthly/soon", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("by category forwards the range", func(t *testing.T) {
		svc := &mockExpenseService{
			totalsByCategoryFn: func(from, to *time.Time) ([]services.CategorySpend, error) {
				if from == nil || to != nil {
					t.Errorf("expected only from_date, got %v %v", from, to)
				}
				return []services.CategorySpend{{Name: "Food"}}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/by-category?from_date=2025-01-01", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("history", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/history", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, ok := parseJSON(t, rec)["history"]; !ok {
			t.Error("expected history key")
		}
	})
}

func TestExpenseHandler_Balance(t *testing.T) {
	t.Run("returns the settlement", func(t *testing.T) {
		svc := &mockExpenseService{
			balanceFn: func(u1, u2 uint, _, _ *time.Time) (*budget.Balance, error) {
				return &budget.Balance{
					User1ID:      u1,
					User2ID:      u2,
					User1Balance: decimal.NewFromInt(25),
					User2Balance: decimal.NewFromInt(-25),
				}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/balance?user1_id=1&user2_id=2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["user1_balance"] != "25" || body["user2_balance"] != "-25" {
			t.Errorf("unexpected balance %v", body)
		}
	})

	t.Run("returns 400 without both users", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/balance?user1_id=1", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 for an unknown user", func(t *testing.T) {
		svc := &mockExpenseService{
			balanceFn: func(uint, uint, *time.Time, *time.Time) (*budget.Balance, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		handler := NewExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupExpenseRouter(handler), "GET", "/expenses/stats/balance?user1_id=1&user2_id=9", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

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

// --- mock child expense service ---

type mockChildExpenseService struct {
	createFn   func(in services.ChildExpenseInput) (*models.ChildExpense, error)
	getFn      func(id uint) (*models.ChildExpense, error)
	listUserFn func(userID uint, year, month int) ([]models.ChildExpense, error)
	listAllFn  func() ([]services.ChildExpenseDetail, error)
	updateFn   func(id uint, upd services.ChildExpenseUpdate) (*models.ChildExpense, error)
	deleteFn   func(id uint) error
	summaryFn  func(userID uint, year, month int) (*services.ChildSummary, error)
}

func (m *mockChildExpenseService) CreateChildExpense(in services.ChildExpenseInput) (*models.ChildExpense, error) {
	if m.createFn != nil {
		return m.createFn(in)
	}
	return &models.ChildExpense{UserID: in.UserID, Amount: in.Amount}, nil
}

func (m *mockChildExpenseService) GetChildExpense(id uint) (*models.ChildExpense, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return nil, apperrors.ErrChildExpenseNotFound
}

func (m *mockChildExpenseService) ListUserChildExpenses(userID uint, year, month int) ([]models.ChildExpense, error) {
	if m.listUserFn != nil {
		return m.listUserFn(userID, year, month)
	}
	return []models.ChildExpense{}, nil
}

func (m *mockChildExpenseService) ListAllChildExpenses() ([]services.ChildExpenseDetail, error) {
	if m.listAllFn != nil {
		return m.listAllFn()
	}
	return []services.ChildExpenseDetail{}, nil
}

func (m *mockChildExpenseService) UpdateChildExpense(id uint, upd services.ChildExpenseUpdate) (*models.ChildExpense, error) {
	if m.updateFn != nil {
		return m.updateFn(id, upd)
	}
	return &models.ChildExpense{}, nil
}

func (m *mockChildExpenseService) DeleteChildExpense(id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

func (m *mockChildExpenseService) GetSummary(userID uint, year, month int) (*services.ChildSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(userID, year, month)
	}
	return &services.ChildSummary{UserID: userID}, nil
}

var _ services.ChildExpenseServicer = (*mockChildExpenseService)(nil)

func setupChildExpenseRouter(handler *ChildExpenseHandler, uid uint, role models.UserRole) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUser(uid, role))
	auth.GET("/child-expenses", handler.ListChildExpenses)
	auth.POST("/child-expenses", handler.CreateChildExpense)
	auth.GET("/child-expenses/summary", handler.GetSummary)
	auth.GET("/child-expenses/:id", handler.GetChildExpense)
	auth.PUT("/child-expenses/:id", handler.UpdateChildExpense)
	auth.DELETE("/child-expenses/:id", handler.DeleteChildExpense)
	return r
}

// ownedBy returns a getter that serves one purchase belonging to userID.
func ownedBy(userID uint) func(uint) (*models.ChildExpense, error) {
	return func(id uint) (*models.ChildExpense, error) {
		return &models.ChildExpense{Base: models.Base{ID: id}, UserID: userID, Amount: decimal.NewFromInt(12)}, nil
	}
}

func TestChildExpenseHandler_CreateChildExpense(t *testing.T) {
	t.Run("child records for themselves by default", func(t *testing.T) {
		svc := &mockChildExpenseService{
			createFn: func(in services.ChildExpenseInput) (*models.ChildExpense, error) {
				if in.UserID != 7 {
					t.Errorf("expected caller 7, got %d", in.UserID)
				}
				return &models.ChildExpense{Base: models.Base{ID: 1}, UserID: in.UserID, Amount: in.Amount, Description: in.Description}, nil
			},
		}
		handler := NewChildExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "POST", "/child-expenses",
			`{"description":"Comic","amount":"8.50","purchase_date":"2025-03-02"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("child cannot record for a sibling", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{}, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "POST", "/child-expenses",
			`{"user_id":8,"description":"Comic","amount":"8.50","purchase_date":"2025-03-02"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
	})

	t.Run("parent records for a child", func(t *testing.T) {
		svc := &mockChildExpenseService{
			createFn: func(in services.ChildExpenseInput) (*models.ChildExpense, error) {
				if in.UserID != 8 {
					t.Errorf("expected child 8, got %d", in.UserID)
				}
				return &models.ChildExpense{UserID: in.UserID}, nil
			},
		}
		handler := NewChildExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 1, models.RoleAdmin), "POST", "/child-expenses",
			`{"user_id":8,"description":"Shoes","amount":"30","purchase_date":"2025-03-02"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("rejects an invalid product url", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{}, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "POST", "/child-expenses",
			`{"description":"Comic","amount":"8.50","purchase_date":"2025-03-02","product_url":"not a url"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestChildExpenseHandler_ListChildExpenses(t *testing.T) {
	t.Run("parent without user_id sees everyone", func(t *testing.T) {
		called := false
		svc := &mockChildExpenseService{
			listAllFn: func() ([]services.ChildExpenseDetail, error) {
				called = true
				return []services.ChildExpenseDetail{{Username: "leo"}, {Username: "mia"}}, nil
			},
		}
		handler := NewChildExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 1, models.RoleUser), "GET", "/child-expenses", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected the all-children listing")
		}
		if expenses := parseJSON(t, rec)["expenses"].([]interface{}); len(expenses) != 2 {
			t.Errorf("expected 2 expenses, got %d", len(expenses))
		}
	})

	t.Run("child without user_id sees their own month", func(t *testing.T) {
		svc := &mockChildExpenseService{
			listUserFn: func(userID uint, year, month int) ([]models.ChildExpense, error) {
				if userID != 7 || year != 2025 || month != 3 {
					t.Errorf("unexpected listing %d %d-%d", userID, year, month)
				}
				return []models.ChildExpense{{UserID: 7}}, nil
			},
		}
		handler := NewChildExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "GET", "/child-expenses?year=2025&month=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("child cannot list a sibling", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{}, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "GET", "/child-expenses?user_id=8", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestChildExpenseHandler_GetSummary(t *testing.T) {
	t.Run("returns the month summary", func(t *testing.T) {
		svc := &mockChildExpenseService{
			summaryFn: func(userID uint, year, month int) (*services.ChildSummary, error) {
				base := decimal.NewFromInt(40)
				remaining := decimal.NewFromInt(28)
				return &services.ChildSummary{
					UserID:   userID,
					Username: "leo",
					Summary: budget.Summary{
						MonthlyBudget:        &base,
						TotalAvailableBudget: &base,
						TotalSpent:           decimal.NewFromInt(12),
						RemainingBudget:      &remaining,
						CurrentMonth:         "2025-03",
					},
				}, nil
			},
		}
		handler := NewChildExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "GET", "/child-expenses/summary?year=2025&month=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["remaining_budget"] != "28" {
			t.Errorf("expected remaining 28, got %v", body["remaining_budget"])
		}
		if body["username"] != "leo" {
			t.Errorf("expected username leo, got %v", body["username"])
		}
	})

	t.Run("child cannot read a sibling summary", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{}, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "GET", "/child-expenses/summary?user_id=8", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestChildExpenseHandler_ItemAccess(t *testing.T) {
	t.Run("owner reads their purchase", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{getFn: ownedBy(7)}, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "GET", "/child-expenses/3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("child gets 403 on a sibling purchase", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{getFn: ownedBy(8)}, &mockAuditService{})
		r := setupChildExpenseRouter(handler, 7, models.RoleChild)

		for _, method := range []string{"GET", "PUT", "DELETE"} {
			body := ""
			if method == "PUT" {
				body = `{"notes":"mine now"}`
			}
			rec := doRequest(r, method, "/child-expenses/3", body)
			if rec.Code != http.StatusForbidden {
				t.Errorf("%s: expected 403, got %d", method, rec.Code)
			}
		}
	})

	t.Run("returns 404 for a missing purchase", func(t *testing.T) {
		handler := NewChildExpenseHandler(&mockChildExpenseService{}, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 1, models.RoleAdmin), "GET", "/child-expenses/3", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CHILD_EXPENSE_NOT_FOUND")
	})

	t.Run("parent updates a child purchase", func(t *testing.T) {
		svc := &mockChildExpenseService{
			getFn: ownedBy(8),
			updateFn: func(id uint, upd services.ChildExpenseUpdate) (*models.ChildExpense, error) {
				if upd.Amount == nil || !upd.Amount.Equal(decimal.NewFromInt(15)) {
					t.Errorf("expected amount 15, got %v", upd.Amount)
				}
				return &models.ChildExpense{Base: models.Base{ID: id}, Amount: *upd.Amount}, nil
			},
		}
		handler := NewChildExpenseHandler(svc, &mockAuditService{})
		rec := doRequest(setupChildExpenseRouter(handler, 1, models.RoleAdmin), "PUT", "/child-expenses/3", `{"amount":"15"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("owner deletes their purchase", func(t *testing.T) {
		audit := &mockAuditService{}
		deleted := uint(0)
		svc := &mockChildExpenseService{
			getFn:    ownedBy(7),
			deleteFn: func(id uint) error { deleted = id; return nil },
		}
		handler := NewChildExpenseHandler(svc, audit)
		rec := doRequest(setupChildExpenseRouter(handler, 7, models.RoleChild), "DELETE", "/child-expenses/3", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if deleted != 3 {
			t.Errorf("expected purchase 3 deleted, got %d", deleted)
		}
		if len(audit.calls) != 1 || audit.calls[0].action != "DELETE_CHILD_EXPENSE" {
			t.Errorf("expected DELETE_CHILD_EXPENSE audit, got %+v", audit.calls)
		}
	})
}

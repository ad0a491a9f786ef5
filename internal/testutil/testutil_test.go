package testutil_test

import (
	"testing"
	"time"

	"duobudget/internal/budget"
	"duobudget/internal/errors"
	"duobudget/internal/models"
	"duobudget/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "categories", "projects", "project_contributions", "expenses", "recurring_charges", "child_monthly_budgets", "child_expenses", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestUser(t, a)

	var count int64
	b.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected separate databases, found %d users in the second one", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == 0 {
		t.Fatal("user should have a non-zero ID")
	}

	def := testutil.Money(t, "25")
	child := testutil.CreateTestChild(t, db, &def)
	if child.Role != models.RoleChild {
		t.Errorf("expected child role, got %s", child.Role)
	}

	account := testutil.CreateTestAccount(t, db, nil)
	if !account.IsJoint() {
		t.Error("account without owner should be joint")
	}

	category := testutil.CreateTestCategory(t, db)
	expense := testutil.CreateTestExpense(t, db, user.ID, category.ID, account.ID, &user.ID, "12.5", budget.SplitEqual, time.Now())
	if !expense.Amount.Equal(testutil.Money(t, "12.5")) {
		t.Errorf("expected amount 12.5, got %s", expense.Amount)
	}

	record := testutil.CreateTestChildBudget(t, db, child.ID, 2025, 3, "50", "10")
	purchase := testutil.CreateTestChildExpense(t, db, child.ID, "7", testutil.Date(2025, time.March, 4), &record.ID)
	if purchase.BudgetID == nil || *purchase.BudgetID != record.ID {
		t.Error("expected purchase linked to the budget")
	}

	var stored models.ChildMonthlyBudget
	if err := db.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("failed to reload budget: %v", err)
	}
	if !stored.CarryoverAmount.Equal(testutil.Money(t, "10")) {
		t.Errorf("expected carryover 10 after round trip, got %s", stored.CarryoverAmount)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrBudgetNotFound, "custom message")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"duobudget/internal/budget"
	"duobudget/internal/models"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal literal, failing the test on bad input.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates an active adult with a usable password.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleUser)
}

// CreateTestAdmin creates an active admin.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleAdmin)
}

// CreateTestChild creates a child with an optional default monthly budget.
func CreateTestChild(t *testing.T, db *gorm.DB, defaultBudget *decimal.Decimal) *models.User {
	t.Helper()
	user := newUser(t, models.RoleChild)
	user.MonthlyBudget = defaultBudget
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test child: %v", err)
	}
	return user
}

// CreateTestUserWithRole creates an active user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	user := newUser(t, role)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func newUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	return &models.User{
		Email:       fmt.Sprintf("user%d@test.com", n),
		Username:    fmt.Sprintf("user%d", n),
		Password:    string(hash),
		FullName:    fmt.Sprintf("Test User %d", n),
		Role:        role,
		IsActive:    true,
		PasswordSet: true,
	}
}

// CreateTestAccount creates an account; a nil owner makes it joint.
func CreateTestAccount(t *testing.T, db *gorm.DB, ownerID *uint) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeChecking,
		Balance:  decimal.Zero,
		OwnerID:  ownerID,
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates an active category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Color:    models.DefaultCategoryColor,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an active shared expense.
func CreateTestExpense(t *testing.T, db *gorm.DB, creatorID, categoryID, accountID uint, assignedTo *uint, amount string, split budget.SplitType, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		Label:      fmt.Sprintf("Test Expense %d", nextID()),
		Amount:     Money(t, amount),
		Date:       models.DateOnly(date),
		Frequency:  budget.FrequencyOneTime,
		SplitType:  split,
		CategoryID: categoryID,
		AccountID:  accountID,
		AssignedTo: assignedTo,
		CreatedBy:  creatorID,
		IsActive:   true,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestRecurringCharge creates an active recurring charge.
func CreateTestRecurringCharge(t *testing.T, db *gorm.DB, categoryID uint, amount string, freq budget.ChargeFrequency) *models.RecurringCharge {
	t.Helper()

	charge := &models.RecurringCharge{
		Name:       fmt.Sprintf("Test Charge %d", nextID()),
		Amount:     Money(t, amount),
		Frequency:  freq,
		CategoryID: categoryID,
		IsActive:   true,
	}
	if err := db.Create(charge).Error; err != nil {
		t.Fatalf("failed to create test recurring charge: %v", err)
	}
	return charge
}

// CreateTestProject creates an active project with the given target.
func CreateTestProject(t *testing.T, db *gorm.DB, target string) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:          fmt.Sprintf("Test Project %d", nextID()),
		TargetAmount:  Money(t, target),
		CurrentAmount: decimal.Zero,
		IsActive:      true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTestChildBudget stores a monthly budget for a child.
func CreateTestChildBudget(t *testing.T, db *gorm.DB, userID uint, year, month int, base, carryover string) *models.ChildMonthlyBudget {
	t.Helper()

	record := &models.ChildMonthlyBudget{
		UserID:          userID,
		Year:            year,
		Month:           month,
		BaseAmount:      Money(t, base),
		CarryoverAmount: Money(t, carryover),
		Version:         1,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test child budget: %v", err)
	}
	return record
}

// CreateTestChildExpense records a purchase. budgetID may be nil.
func CreateTestChildExpense(t *testing.T, db *gorm.DB, userID uint, amount string, purchased time.Time, budgetID *uint) *models.ChildExpense {
	t.Helper()

	expense := &models.ChildExpense{
		UserID:       userID,
		Description:  fmt.Sprintf("Test Purchase %d", nextID()),
		Amount:       Money(t, amount),
		PurchaseDate: models.DateOnly(purchased),
		BudgetID:     budgetID,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test child expense: %v", err)
	}
	return expense
}

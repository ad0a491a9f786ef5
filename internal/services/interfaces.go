package services

import (
	"time"

	"github.com/shopspring/decimal"

	"duobudget/internal/budget"
	"duobudget/internal/models"
	"duobudget/internal/pagination"
)

// UserUpdate holds optional profile changes. Nil fields are left alone.
type UserUpdate struct {
	Email         *string
	Username      *string
	FullName      *string
	Role          *models.UserRole
	MonthlyBudget *decimal.Decimal
	// ClearMonthlyBudget removes the default allowance.
	ClearMonthlyBudget bool
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, username, password, fullName string, role models.UserRole) (*models.User, error)
	InviteUser(email, username, fullName string, role models.UserRole, monthlyBudget *decimal.Decimal) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers(role *models.UserRole) ([]models.User, error)
	UpdateUser(id uint, upd UserUpdate) (*models.User, error)
	DeactivateUser(id uint) error
	AttemptLogin(login, password string) (*models.User, error)
	SetPassword(userID uint, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// AccountInput is the payload for a new account.
type AccountInput struct {
	Name        string
	Type        models.AccountType
	Description string
	Balance     decimal.Decimal
	OwnerID     *uint
}

// AccountUpdate holds optional account changes.
type AccountUpdate struct {
	Name        *string
	Description *string
	Type        *models.AccountType
}

// AccountServicer defines the contract for account-related business logic.
// Every call is scoped to what userID may see.
type AccountServicer interface {
	ListAccounts(userID uint) ([]models.Account, error)
	GetAccount(userID, accountID uint) (*models.Account, error)
	CreateAccount(in AccountInput) (*models.Account, error)
	UpdateAccount(userID, accountID uint, upd AccountUpdate) (*models.Account, error)
	DeleteAccount(userID, accountID uint) error
	AddFunds(userID, accountID uint, amount decimal.Decimal) (*models.Account, error)
}

// CategoryUpdate holds optional category changes.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	ListCategories(includeInactive bool) ([]models.Category, error)
	GetCategory(id uint) (*models.Category, error)
	CreateCategory(name, description, color, icon string) (*models.Category, error)
	UpdateCategory(id uint, upd CategoryUpdate) (*models.Category, error)
	DeleteCategory(id uint) error
}

// ExpenseInput is the payload for a new shared expense.
type ExpenseInput struct {
	Label       string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Frequency   budget.Frequency
	SplitType   budget.SplitType
	CategoryID  uint
	AccountID   uint
	AssignedTo  *uint
	ProjectID   *uint
	IsRecurring bool
}

// ExpenseUpdate holds optional shared expense changes.
type ExpenseUpdate struct {
	Label       *string
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Frequency   *budget.Frequency
	SplitType   *budget.SplitType
	CategoryID  *uint
	AccountID   *uint
	AssignedTo  *uint
	ProjectID   *uint
	IsRecurring *bool
	// Unassign turns the expense into a common one.
	Unassign bool
}

// ExpenseFilter holds optional filter parameters for listing shared expenses.
type ExpenseFilter struct {
	CategoryID *uint
	AccountID  *uint
	AssignedTo *uint
	ProjectID  *uint
	Frequency  *budget.Frequency
	SplitType  *budget.SplitType
	FromDate   *time.Time
	ToDate     *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// ExpenseDetail is a shared expense joined with the names the UI shows.
type ExpenseDetail struct {
	models.Expense
	CategoryName   string `json:"category_name"`
	CategoryColor  string `json:"category_color"`
	CategoryIcon   string `json:"category_icon"`
	AccountName    string `json:"account_name"`
	AssignedToName string `json:"assigned_to_name"`
}

// CategorySpend is the total spent in one category.
type CategorySpend struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
}

// MonthTotal is the total spent in one month of a year.
type MonthTotal struct {
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// MonthHistory is one month of shared spending with its breakdown.
type MonthHistory struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Period     string          `json:"period"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
	Categories []CategorySpend `json:"categories"`
	Expenses   []ExpenseDetail `json:"expenses"`
}

// ExpenseServicer defines the contract for shared expense business logic.
type ExpenseServicer interface {
	CreateExpense(createdBy uint, in ExpenseInput) (*ExpenseDetail, error)
	GetExpense(id uint) (*ExpenseDetail, error)
	ListExpenses(filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[ExpenseDetail], error)
	UpdateExpense(id uint, upd ExpenseUpdate) (*ExpenseDetail, error)
	DeleteExpense(id uint) error
	TotalsByCategory(from, to *time.Time) ([]CategorySpend, error)
	MonthlyTotals(year int) ([]MonthTotal, error)
	MonthlyHistory() ([]MonthHistory, error)
	CalculateUserBalance(user1ID, user2ID uint, from, to *time.Time) (*budget.Balance, error)
}

// RecurringChargeInput is the payload for a new recurring charge.
type RecurringChargeInput struct {
	Name        string
	Description string
	Amount      decimal.Decimal
	Frequency   budget.ChargeFrequency
	CategoryID  uint
}

// RecurringChargeUpdate holds optional recurring charge changes.
type RecurringChargeUpdate struct {
	Name        *string
	Description *string
	Amount      *decimal.Decimal
	Frequency   *budget.ChargeFrequency
	CategoryID  *uint
	IsActive    *bool
}

// RecurringChargeServicer defines the contract for recurring charge business logic.
type RecurringChargeServicer interface {
	ListCharges(includeInactive bool) ([]models.RecurringCharge, error)
	GetCharge(id uint) (*models.RecurringCharge, error)
	CreateCharge(in RecurringChargeInput) (*models.RecurringCharge, error)
	UpdateCharge(id uint, upd RecurringChargeUpdate) (*models.RecurringCharge, error)
	DeleteCharge(id uint) error
	GetBudgetSummary() (*budget.RecurringSummary, error)
}

// ProjectInput is the payload for a new project.
type ProjectInput struct {
	Name         string
	Description  string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
}

// ProjectUpdate holds optional project changes.
type ProjectUpdate struct {
	Name         *string
	Description  *string
	TargetAmount *decimal.Decimal
	Deadline     *time.Time
	IsCompleted  *bool
}

// ProjectServicer defines the contract for savings project business logic.
type ProjectServicer interface {
	ListProjects(includeCompleted bool) ([]models.Project, error)
	GetProject(id uint) (*models.Project, error)
	CreateProject(in ProjectInput) (*models.Project, error)
	UpdateProject(id uint, upd ProjectUpdate) (*models.Project, error)
	DeleteProject(id uint) error
	AddContribution(projectID, userID uint, amount decimal.Decimal, note string) (*models.ProjectContribution, error)
	ListContributions(projectID uint) ([]models.ProjectContribution, error)
	RemoveContribution(projectID, contributionID uint) error
}

// ChildBudgetInput sets a child's budget for a month. A nil carryover keeps
// whatever carryover the month already has.
type ChildBudgetInput struct {
	UserID          uint
	Period          budget.Period
	BaseAmount      decimal.Decimal
	CarryoverAmount *decimal.Decimal
	IsExceptional   bool
	Notes           string
}

// ChildBudgetUpdate holds optional changes to an existing month. When
// ExpectedVersion is set the write fails with a conflict if the stored
// version differs.
type ChildBudgetUpdate struct {
	BaseAmount      *decimal.Decimal
	CarryoverAmount *decimal.Decimal
	IsExceptional   *bool
	Notes           *string
	ExpectedVersion *int
}

// Rollover reports a calculate-then-apply carryover between two months.
type Rollover struct {
	UserID uint                       `json:"user_id"`
	From   budget.Period              `json:"from"`
	To     budget.Period              `json:"to"`
	Amount decimal.Decimal            `json:"amount"`
	Target *models.ChildMonthlyBudget `json:"target"`
}

// ChildBudgetServicer defines the contract for child monthly budgets.
type ChildBudgetServicer interface {
	SetBudget(in ChildBudgetInput) (*models.ChildMonthlyBudget, error)
	GetBudget(userID uint, period budget.Period) (*models.ChildMonthlyBudget, error)
	ListUserBudgets(userID uint) ([]models.ChildMonthlyBudget, error)
	UpdateBudget(userID uint, period budget.Period, upd ChildBudgetUpdate) (*models.ChildMonthlyBudget, error)
	DeleteBudget(userID uint, period budget.Period) error
	CalculateCarryover(userID uint, period budget.Period) (decimal.Decimal, error)
	ApplyCarryover(userID uint, from, to budget.Period, amount decimal.Decimal) (*models.ChildMonthlyBudget, error)
	RolloverCarryover(userID uint, from budget.Period) (*Rollover, error)
}

// ChildExpenseInput is the payload for a new child purchase.
type ChildExpenseInput struct {
	UserID       uint
	Description  string
	Amount       decimal.Decimal
	PurchaseDate time.Time
	Notes        string
	ProductURL   string
	BudgetID     *uint
}

// ChildExpenseUpdate holds optional purchase changes.
type ChildExpenseUpdate struct {
	Description  *string
	Amount       *decimal.Decimal
	PurchaseDate *time.Time
	Notes        *string
	ProductURL   *string
}

// ChildExpenseDetail is a purchase joined with its owner's username.
type ChildExpenseDetail struct {
	models.ChildExpense
	Username string `json:"username"`
}

// ChildSummary is a child's budget against spend for one month.
type ChildSummary struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	budget.Summary
}

// ChildExpenseServicer defines the contract for child purchases and summaries.
type ChildExpenseServicer interface {
	CreateChildExpense(in ChildExpenseInput) (*models.ChildExpense, error)
	GetChildExpense(id uint) (*models.ChildExpense, error)
	ListUserChildExpenses(userID uint, year, month int) ([]models.ChildExpense, error)
	ListAllChildExpenses() ([]ChildExpenseDetail, error)
	UpdateChildExpense(id uint, upd ChildExpenseUpdate) (*models.ChildExpense, error)
	DeleteChildExpense(id uint) error
	GetSummary(userID uint, year, month int) (*ChildSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}

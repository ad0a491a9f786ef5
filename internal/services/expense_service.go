package services

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
	"duobudget/internal/pagination"
)

// expenseService handles shared household expenses and their statistics.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

const expenseDetailColumns = "expenses.*, " +
	"COALESCE(categories.name, '') AS category_name, " +
	"COALESCE(categories.color, '') AS category_color, " +
	"COALESCE(categories.icon, '') AS category_icon, " +
	"COALESCE(accounts.name, '') AS account_name, " +
	"COALESCE(users.full_name, '') AS assigned_to_name"

// details selects expenses joined with the names the UI shows.
func (s *expenseService) details() *gorm.DB {
	return s.db.Model(&models.Expense{}).
		Select(expenseDetailColumns).
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Joins("LEFT JOIN accounts ON accounts.id = expenses.account_id").
		Joins("LEFT JOIN users ON users.id = expenses.assigned_to").
		Where("expenses.is_active = ?", true)
}

// CreateExpense records a shared expense.
func (s *expenseService) CreateExpense(createdBy uint, in ExpenseInput) (*ExpenseDetail, error) {
	if in.Label == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "label is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if in.Frequency == "" {
		in.Frequency = budget.FrequencyOneTime
	}
	if in.SplitType == "" {
		in.SplitType = budget.SplitEqual
	}
	if !in.Frequency.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown frequency")
	}
	if !in.SplitType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown split type")
	}
	if err := s.checkReferences(in.CategoryID, in.AccountID, in.AssignedTo, in.ProjectID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Label:       in.Label,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        models.DateOnly(in.Date),
		Frequency:   in.Frequency,
		SplitType:   in.SplitType,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   createdBy,
		ProjectID:   in.ProjectID,
		IsRecurring: in.IsRecurring,
		IsActive:    true,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetExpense(expense.ID)
}

// GetExpense retrieves an active expense with its related names.
func (s *expenseService) GetExpense(id uint) (*ExpenseDetail, error) {
	var detail ExpenseDetail
	res := s.details().Where("expenses.id = ?", id).Limit(1).Scan(&detail)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrExpenseNotFound
	}
	return &detail, nil
}

// ListExpenses returns a filtered page of active expenses, newest first.
func (s *expenseService) ListExpenses(filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[ExpenseDetail], error) {
	page.Defaults()

	var totalItems int64
	countQuery := applyExpenseFilters(s.db.Model(&models.Expense{}).Where("expenses.is_active = ?", true), filter)
	if err := countQuery.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []ExpenseDetail
	if err := applyExpenseFilters(s.details(), filter).
		Order("expenses.date DESC, expenses.id DESC").
		Scopes(pagination.Paginate(page)).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rows, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyExpenseFilters(q *gorm.DB, f ExpenseFilter) *gorm.DB {
	if f.CategoryID != nil {
		q = q.Where("expenses.category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("expenses.account_id = ?", *f.AccountID)
	}
	if f.AssignedTo != nil {
		q = q.Where("expenses.assigned_to = ?", *f.AssignedTo)
	}
	if f.ProjectID != nil {
		q = q.Where("expenses.project_id = ?", *f.ProjectID)
	}
	if f.Frequency != nil {
		q = q.Where("expenses.frequency = ?", *f.Frequency)
	}
	if f.SplitType != nil {
		q = q.Where("expenses.split_type = ?", *f.SplitType)
	}
	return applyDateRange(q, "expenses.date", f.FromDate, f.ToDate).
		Scopes(amountRange(f.MinAmount, f.MaxAmount))
}

func applyDateRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", models.DateOnly(*from))
	}
	if to != nil {
		q = q.Where(column+" <= ?", models.DateOnly(*to))
	}
	return q
}

func amountRange(lo, hi *decimal.Decimal) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if lo != nil {
			q = q.Where("expenses.amount >= ?", *lo)
		}
		if hi != nil {
			q = q.Where("expenses.amount <= ?", *hi)
		}
		return q
	}
}

// UpdateExpense applies a partial change to an active expense.
func (s *expenseService) UpdateExpense(id uint, upd ExpenseUpdate) (*ExpenseDetail, error) {
	expense, err := s.findActive(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Label != nil {
		if *upd.Label == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "label is required")
		}
		updates["label"] = *upd.Label
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Date != nil {
		updates["date"] = models.DateOnly(*upd.Date)
	}
	if upd.Frequency != nil {
		if !upd.Frequency.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown frequency")
		}
		updates["frequency"] = *upd.Frequency
	}
	if upd.SplitType != nil {
		if !upd.SplitType.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown split type")
		}
		updates["split_type"] = *upd.SplitType
	}
	if upd.IsRecurring != nil {
		updates["is_recurring"] = *upd.IsRecurring
	}

	categoryID, accountID := expense.CategoryID, expense.AccountID
	if upd.CategoryID != nil {
		categoryID = *upd.CategoryID
		updates["category_id"] = categoryID
	}
	if upd.AccountID != nil {
		accountID = *upd.AccountID
		updates["account_id"] = accountID
	}
	if upd.ProjectID != nil {
		updates["project_id"] = *upd.ProjectID
	}
	switch {
	case upd.Unassign:
		updates["assigned_to"] = nil
	case upd.AssignedTo != nil:
		updates["assigned_to"] = *upd.AssignedTo
	}
	if err := s.checkReferences(categoryID, accountID, upd.AssignedTo, upd.ProjectID); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(expense).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetExpense(id)
}

// DeleteExpense deactivates an expense. Inactive expenses drop out of every
// listing and statistic.
func (s *expenseService) DeleteExpense(id uint) error {
	expense, err := s.findActive(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(expense).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// TotalsByCategory sums active expenses per category over an optional date
// range, largest first.
func (s *expenseService) TotalsByCategory(from, to *time.Time) ([]CategorySpend, error) {
	q := s.db.Model(&models.Expense{}).
		Select("categories.id AS category_id, categories.name AS name, categories.color AS color, " +
			"COALESCE(categories.icon, '') AS icon, COALESCE(SUM(expenses.amount), 0) AS total, COUNT(expenses.id) AS count").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.is_active = ?", true)
	q = applyDateRange(q, "expenses.date", from, to)

	var rows []CategorySpend
	if err := q.Group("categories.id, categories.name, categories.color, categories.icon").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	if rows == nil {
		rows = []CategorySpend{}
	}
	return rows, nil
}

// MonthlyTotals returns spend per month of year for months with expenses.
func (s *expenseService) MonthlyTotals(year int) ([]MonthTotal, error) {
	first, err := budget.NewPeriod(year, 1)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var rows []struct {
		Date   time.Time
		Amount decimal.Decimal
	}
	if err := s.db.Model(&models.Expense{}).
		Select("date, amount").
		Where("is_active = ? AND date >= ? AND date < ?", true, first.Start(), first.Start().AddDate(1, 0, 0)).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var months [12]MonthTotal
	for _, r := range rows {
		m := &months[r.Date.Month()-1]
		m.Total = m.Total.Add(r.Amount)
		m.Count++
	}

	out := []MonthTotal{}
	for i, m := range months {
		if m.Count == 0 {
			continue
		}
		out = append(out, MonthTotal{Month: i + 1, Total: m.Total.Round(2), Count: m.Count})
	}
	return out, nil
}

// MonthlyHistory groups every active expense by month, newest month first,
// with a per-category breakdown.
func (s *expenseService) MonthlyHistory() ([]MonthHistory, error) {
	var rows []ExpenseDetail
	if err := s.details().
		Order("expenses.date DESC, expenses.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := []MonthHistory{}
	index := make(map[budget.Period]int)
	perCategory := make(map[budget.Period]map[uint]*CategorySpend)

	for _, r := range rows {
		p := budget.PeriodOf(r.Date)
		i, ok := index[p]
		if !ok {
			i = len(out)
			index[p] = i
			out = append(out, MonthHistory{Year: p.Year, Month: p.Month, Period: p.String()})
			perCategory[p] = make(map[uint]*CategorySpend)
		}
		h := &out[i]
		h.Total = h.Total.Add(r.Amount)
		h.Count++
		h.Expenses = append(h.Expenses, r)

		c, ok := perCategory[p][r.CategoryID]
		if !ok {
			c = &CategorySpend{CategoryID: r.CategoryID, Name: r.CategoryName, Color: r.CategoryColor, Icon: r.CategoryIcon}
			perCategory[p][r.CategoryID] = c
		}
		c.Total = c.Total.Add(r.Amount)
		c.Count++
	}

	for i := range out {
		h := &out[i]
		h.Total = h.Total.Round(2)
		p := budget.Period{Year: h.Year, Month: h.Month}
		for _, c := range perCategory[p] {
			c.Total = c.Total.Round(2)
			h.Categories = append(h.Categories, *c)
		}
		sort.Slice(h.Categories, func(a, b int) bool {
			if h.Categories[a].Total.Equal(h.Categories[b].Total) {
				return h.Categories[a].CategoryID < h.Categories[b].CategoryID
			}
			return h.Categories[a].Total.GreaterThan(h.Categories[b].Total)
		})
	}
	return out, nil
}

// CalculateUserBalance computes who owes whom between two adults over an
// optional date range. Expenses paid by either of them count toward paid;
// unassigned expenses count only toward each share.
func (s *expenseService) CalculateUserBalance(user1ID, user2ID uint, from, to *time.Time) (*budget.Balance, error) {
	if user1ID == user2ID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance needs two different users")
	}
	for _, id := range []uint{user1ID, user2ID} {
		if err := requireUserExists(s.db, id); err != nil {
			return nil, err
		}
	}

	q := s.db.Model(&models.Expense{}).
		Select("amount, split_type, assigned_to").
		Where("is_active = ?", true).
		Where("(assigned_to IN ? OR assigned_to IS NULL)", []uint{user1ID, user2ID})
	q = applyDateRange(q, "date", from, to)

	var rows []struct {
		Amount     decimal.Decimal
		SplitType  budget.SplitType
		AssignedTo *uint
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	charges := make([]budget.SharedCharge, 0, len(rows))
	for _, r := range rows {
		charges = append(charges, budget.SharedCharge{Amount: r.Amount, Split: r.SplitType, PaidBy: r.AssignedTo})
	}
	balance := budget.SplitBalance(user1ID, user2ID, charges)
	return &balance, nil
}

func (s *expenseService) findActive(id uint) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// checkReferences verifies that the rows an expense points at exist.
func (s *expenseService) checkReferences(categoryID, accountID uint, assignedTo, projectID *uint) error {
	checks := []struct {
		model interface{}
		id    *uint
		err   *apperrors.AppError
	}{
		{&models.Category{}, &categoryID, apperrors.ErrCategoryNotFound},
		{&models.Account{}, &accountID, apperrors.ErrAccountNotFound},
		{&models.User{}, assignedTo, apperrors.ErrUserNotFound},
		{&models.Project{}, projectID, apperrors.ErrProjectNotFound},
	}
	for _, c := range checks {
		if c.id == nil {
			continue
		}
		var count int64
		if err := s.db.Model(c.model).Where("id = ?", *c.id).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return c.err
		}
	}
	return nil
}

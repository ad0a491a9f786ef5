package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// childExpenseService handles child purchases and monthly summaries.
type childExpenseService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewChildExpenseService creates a new ChildExpenseServicer. now supplies the
// current month when a summary or listing omits it; nil means time.Now.
func NewChildExpenseService(db *gorm.DB, now func() time.Time) ChildExpenseServicer {
	if now == nil {
		now = time.Now
	}
	return &childExpenseService{db: db, now: now}
}

// CreateChildExpense records a purchase. Without an explicit budget the
// purchase is linked to the budget of its month, if one exists.
func (s *childExpenseService) CreateChildExpense(in ChildExpenseInput) (*models.ChildExpense, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if in.Description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.PurchaseDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "purchase date is required")
	}
	if err := requireUserExists(s.db, in.UserID); err != nil {
		return nil, err
	}

	expense := &models.ChildExpense{
		UserID:       in.UserID,
		Description:  in.Description,
		Amount:       in.Amount,
		PurchaseDate: models.DateOnly(in.PurchaseDate),
		Notes:        in.Notes,
		ProductURL:   in.ProductURL,
		BudgetID:     in.BudgetID,
	}

	if expense.BudgetID != nil {
		var count int64
		if err := s.db.Model(&models.ChildMonthlyBudget{}).
			Where("id = ? AND user_id = ?", *expense.BudgetID, in.UserID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrBudgetNotFound
		}
	} else {
		id, err := s.budgetFor(in.UserID, budget.PeriodOf(expense.PurchaseDate))
		if err != nil {
			return nil, err
		}
		expense.BudgetID = id
	}

	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetChildExpense retrieves a purchase by ID.
func (s *childExpenseService) GetChildExpense(id uint) (*models.ChildExpense, error) {
	var expense models.ChildExpense
	if err := s.db.First(&expense, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChildExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// ListUserChildExpenses returns a child's purchases, newest first. A month
// without a year is taken in the current year; zero for both lists everything.
func (s *childExpenseService) ListUserChildExpenses(userID uint, year, month int) ([]models.ChildExpense, error) {
	query := s.db.Where("user_id = ?", userID)

	switch {
	case month != 0:
		period, err := budget.ResolvePeriod(year, month, s.now())
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		query = query.Where("purchase_date >= ? AND purchase_date < ?", period.Start(), period.End())
	case year != 0:
		first, err := budget.NewPeriod(year, 1)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		query = query.Where("purchase_date >= ? AND purchase_date < ?",
			first.Start(), first.Start().AddDate(1, 0, 0))
	}

	var expenses []models.ChildExpense
	if err := query.Order("purchase_date DESC, id DESC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// ListAllChildExpenses returns every child's purchases with the owner's
// username, newest first.
func (s *childExpenseService) ListAllChildExpenses() ([]ChildExpenseDetail, error) {
	var rows []ChildExpenseDetail
	if err := s.db.Model(&models.ChildExpense{}).
		Select("child_expenses.*, users.username AS username").
		Joins("JOIN users ON users.id = child_expenses.user_id").
		Order("child_expenses.purchase_date DESC, child_expenses.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rows == nil {
		rows = []ChildExpenseDetail{}
	}
	return rows, nil
}

// UpdateChildExpense applies a partial change. Moving a purchase to another
// month relinks it to that month's budget.
func (s *childExpenseService) UpdateChildExpense(id uint, upd ChildExpenseUpdate) (*models.ChildExpense, error) {
	expense, err := s.GetChildExpense(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Description != nil {
		if *upd.Description == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
		}
		updates["description"] = *upd.Description
	}
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Notes != nil {
		updates["notes"] = *upd.Notes
	}
	if upd.ProductURL != nil {
		updates["product_url"] = *upd.ProductURL
	}
	if upd.PurchaseDate != nil {
		date := models.DateOnly(*upd.PurchaseDate)
		updates["purchase_date"] = date
		if budget.PeriodOf(date) != budget.PeriodOf(expense.PurchaseDate) {
			budgetID, err := s.budgetFor(expense.UserID, budget.PeriodOf(date))
			if err != nil {
				return nil, err
			}
			updates["budget_id"] = budgetID
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(expense).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetChildExpense(id)
}

// DeleteChildExpense removes a purchase.
func (s *childExpenseService) DeleteChildExpense(id uint) error {
	res := s.db.Delete(&models.ChildExpense{}, id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrChildExpenseNotFound
	}
	return nil
}

// GetSummary reports a child's budget against spend for a month. Zero year
// or month means the current one. Spend counts every purchase dated in the
// month, linked to a budget or not.
func (s *childExpenseService) GetSummary(userID uint, year, month int) (*ChildSummary, error) {
	period, err := budget.ResolvePeriod(year, month, s.now())
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	in := budget.SummaryInput{Period: period, DefaultBudget: user.MonthlyBudget}

	var record models.ChildMonthlyBudget
	err = s.db.Where("user_id = ? AND year = ? AND month = ?", userID, period.Year, period.Month).
		First(&record).Error
	switch {
	case err == nil:
		in.Record = &budget.Allocation{
			Base:        record.BaseAmount,
			Carryover:   record.CarryoverAmount,
			Exceptional: record.IsExceptional,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var spend struct {
		Total decimal.Decimal
		Count int64
	}
	if err := s.db.Model(&models.ChildExpense{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("user_id = ? AND purchase_date >= ? AND purchase_date < ?", userID, period.Start(), period.End()).
		Scan(&spend).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	in.Spent = spend.Total
	in.ExpenseCount = spend.Count

	return &ChildSummary{
		UserID:   user.ID,
		Username: user.Username,
		Summary:  budget.BuildSummary(in),
	}, nil
}

// budgetFor returns the ID of the user's budget for period, or nil.
func (s *childExpenseService) budgetFor(userID uint, period budget.Period) (*uint, error) {
	var record models.ChildMonthlyBudget
	err := s.db.Select("id").
		Where("user_id = ? AND year = ? AND month = ?", userID, period.Year, period.Month).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record.ID, nil
}

func requireUserExists(db *gorm.DB, userID uint) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

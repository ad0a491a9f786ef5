package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// childBudgetService handles child monthly budgets and carryover.
type childBudgetService struct {
	db *gorm.DB
}

// NewChildBudgetService creates a new ChildBudgetServicer.
func NewChildBudgetService(db *gorm.DB) ChildBudgetServicer {
	return &childBudgetService{db: db}
}

// SetBudget creates or replaces the budget for a child's month. An existing
// carryover is kept unless the input carries a new one.
func (s *childBudgetService) SetBudget(in ChildBudgetInput) (*models.ChildMonthlyBudget, error) {
	if err := in.Period.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if in.BaseAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "base amount cannot be negative")
	}
	if in.CarryoverAmount != nil && in.CarryoverAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "carryover amount cannot be negative")
	}
	if err := s.requireChild(in.UserID); err != nil {
		return nil, err
	}

	existing, err := s.find(s.db, in.UserID, in.Period)
	if err != nil && !errors.Is(err, apperrors.ErrBudgetNotFound) {
		return nil, err
	}

	if existing == nil {
		record := &models.ChildMonthlyBudget{
			UserID:        in.UserID,
			Year:          in.Period.Year,
			Month:         in.Period.Month,
			BaseAmount:    in.BaseAmount,
			IsExceptional: in.IsExceptional,
			Notes:         in.Notes,
			Version:       1,
		}
		if in.CarryoverAmount != nil {
			record.CarryoverAmount = *in.CarryoverAmount
		}
		if err := s.db.Create(record).Error; err != nil {
			// Lost an insert race against the same month.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrBudgetConflict
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return record, nil
	}

	updates := map[string]interface{}{
		"base_amount":    in.BaseAmount,
		"is_exceptional": in.IsExceptional,
		"notes":          in.Notes,
	}
	if in.CarryoverAmount != nil {
		updates["carryover_amount"] = *in.CarryoverAmount
	}
	return s.save(s.db, existing, existing.Version, updates)
}

// GetBudget returns the budget stored for a child's month.
func (s *childBudgetService) GetBudget(userID uint, period budget.Period) (*models.ChildMonthlyBudget, error) {
	if err := period.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return s.find(s.db, userID, period)
}

// ListUserBudgets returns every month stored for a child, newest first.
func (s *childBudgetService) ListUserBudgets(userID uint) ([]models.ChildMonthlyBudget, error) {
	if err := requireUserExists(s.db, userID); err != nil {
		return nil, err
	}

	var records []models.ChildMonthlyBudget
	if err := s.db.Where("user_id = ?", userID).
		Order("year DESC, month DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return records, nil
}

// UpdateBudget applies a partial change to an existing month.
func (s *childBudgetService) UpdateBudget(userID uint, period budget.Period, upd ChildBudgetUpdate) (*models.ChildMonthlyBudget, error) {
	record, err := s.GetBudget(userID, period)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.BaseAmount != nil {
		if upd.BaseAmount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "base amount cannot be negative")
		}
		updates["base_amount"] = *upd.BaseAmount
	}
	if upd.CarryoverAmount != nil {
		if upd.CarryoverAmount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "carryover amount cannot be negative")
		}
		updates["carryover_amount"] = *upd.CarryoverAmount
	}
	if upd.IsExceptional != nil {
		updates["is_exceptional"] = *upd.IsExceptional
	}
	if upd.Notes != nil {
		updates["notes"] = *upd.Notes
	}

	expected := record.Version
	if upd.ExpectedVersion != nil {
		expected = *upd.ExpectedVersion
	}
	if len(updates) == 0 {
		if expected != record.Version {
			return nil, apperrors.ErrBudgetConflict
		}
		return record, nil
	}
	return s.save(s.db, record, expected, updates)
}

// DeleteBudget removes a month's budget. Purchases linked to it keep their
// rows but lose the link.
func (s *childBudgetService) DeleteBudget(userID uint, period budget.Period) error {
	record, err := s.GetBudget(userID, period)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ChildExpense{}).
			Where("budget_id = ?", record.ID).
			Update("budget_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// CalculateCarryover returns what a month would carry forward: base plus
// carryover minus the purchases linked to that month's record, never below
// zero. A month without a record carries nothing.
func (s *childBudgetService) CalculateCarryover(userID uint, period budget.Period) (decimal.Decimal, error) {
	if err := period.Validate(); err != nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	record, err := s.find(s.db, userID, period)
	if err != nil {
		if errors.Is(err, apperrors.ErrBudgetNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	spent, err := s.linkedSpend(s.db, record.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return budget.Carryover(record.BaseAmount, record.CarryoverAmount, spent), nil
}

// ApplyCarryover writes amount into the target month's carryover. The
// source month must have a record; amount is taken as given.
func (s *childBudgetService) ApplyCarryover(userID uint, from, to budget.Period, amount decimal.Decimal) (*models.ChildMonthlyBudget, error) {
	if err := from.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source "+err.Error())
	}
	if err := to.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target "+err.Error())
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "carryover amount cannot be negative")
	}

	var result *models.ChildMonthlyBudget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.applyCarryover(tx, userID, from, to, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RolloverCarryover computes the carryover of from and writes it into the
// following month in one transaction.
func (s *childBudgetService) RolloverCarryover(userID uint, from budget.Period) (*Rollover, error) {
	if err := from.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	to := from.Next()

	out := &Rollover{UserID: userID, From: from, To: to}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		source, err := s.find(tx, userID, from)
		if err != nil {
			if errors.Is(err, apperrors.ErrBudgetNotFound) {
				return apperrors.ErrSourceBudgetMissing
			}
			return err
		}
		spent, err := s.linkedSpend(tx, source.ID)
		if err != nil {
			return err
		}
		out.Amount = budget.Carryover(source.BaseAmount, source.CarryoverAmount, spent)

		out.Target, err = s.applyCarryover(tx, userID, from, to, out.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *childBudgetService) applyCarryover(tx *gorm.DB, userID uint, from, to budget.Period, amount decimal.Decimal) (*models.ChildMonthlyBudget, error) {
	if _, err := s.find(tx, userID, from); err != nil {
		if errors.Is(err, apperrors.ErrBudgetNotFound) {
			return nil, apperrors.ErrSourceBudgetMissing
		}
		return nil, err
	}

	target, err := s.find(tx, userID, to)
	if err != nil {
		return nil, err
	}
	return s.save(tx, target, target.Version, map[string]interface{}{
		"carryover_amount": amount.Round(2),
	})
}

// save writes updates only if the stored version still equals expected,
// bumping it on success.
func (s *childBudgetService) save(tx *gorm.DB, record *models.ChildMonthlyBudget, expected int, updates map[string]interface{}) (*models.ChildMonthlyBudget, error) {
	updates["version"] = expected + 1

	res := tx.Model(&models.ChildMonthlyBudget{}).
		Where("id = ? AND version = ?", record.ID, expected).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrBudgetConflict
	}

	var fresh models.ChildMonthlyBudget
	if err := tx.First(&fresh, record.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fresh, nil
}

func (s *childBudgetService) find(tx *gorm.DB, userID uint, period budget.Period) (*models.ChildMonthlyBudget, error) {
	var record models.ChildMonthlyBudget
	if err := tx.Where("user_id = ? AND year = ? AND month = ?", userID, period.Year, period.Month).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

func (s *childBudgetService) linkedSpend(tx *gorm.DB, budgetID uint) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := tx.Model(&models.ChildExpense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("budget_id = ?", budgetID).
		Scan(&row).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row.Total, nil
}

func (s *childBudgetService) requireChild(userID uint) error {
	var user models.User
	if err := s.db.Select("id", "role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.Role != models.RoleChild {
		return apperrors.ErrNotAChild
	}
	return nil
}

package services

import (
	"errors"

	"gorm.io/gorm"

	"duobudget/internal/budget"
	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// recurringChargeService handles fixed bills and their monthly normalization.
type recurringChargeService struct {
	db *gorm.DB
}

// NewRecurringChargeService creates a new RecurringChargeServicer.
func NewRecurringChargeService(db *gorm.DB) RecurringChargeServicer {
	return &recurringChargeService{db: db}
}

// ListCharges returns charges ordered by name.
func (s *recurringChargeService) ListCharges(includeInactive bool) ([]models.RecurringCharge, error) {
	q := s.db.Model(&models.RecurringCharge{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var charges []models.RecurringCharge
	if err := q.Order("name ASC").Find(&charges).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return charges, nil
}

// GetCharge retrieves a charge by ID.
func (s *recurringChargeService) GetCharge(id uint) (*models.RecurringCharge, error) {
	var charge models.RecurringCharge
	if err := s.db.First(&charge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringChargeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &charge, nil
}

// CreateCharge records a new recurring charge.
func (s *recurringChargeService) CreateCharge(in RecurringChargeInput) (*models.RecurringCharge, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if in.Frequency == "" {
		in.Frequency = budget.ChargeMonthly
	}
	if !in.Frequency.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown frequency")
	}
	if err := s.requireCategory(in.CategoryID); err != nil {
		return nil, err
	}

	charge := &models.RecurringCharge{
		Name:        in.Name,
		Description: in.Description,
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		CategoryID:  in.CategoryID,
		IsActive:    true,
	}
	if err := s.db.Create(charge).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return charge, nil
}

// UpdateCharge applies a partial change to a charge.
func (s *recurringChargeService) UpdateCharge(id uint, upd RecurringChargeUpdate) (*models.RecurringCharge, error) {
	charge, err := s.GetCharge(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
		}
		updates["name"] = *upd.Name
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
	if upd.Frequency != nil {
		if !upd.Frequency.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown frequency")
		}
		updates["frequency"] = *upd.Frequency
	}
	if upd.CategoryID != nil {
		if err := s.requireCategory(*upd.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *upd.CategoryID
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(charge).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetCharge(id)
}

// DeleteCharge removes a charge.
func (s *recurringChargeService) DeleteCharge(id uint) error {
	res := s.db.Delete(&models.RecurringCharge{}, id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRecurringChargeNotFound
	}
	return nil
}

// GetBudgetSummary normalizes every active charge to a monthly figure.
func (s *recurringChargeService) GetBudgetSummary() (*budget.RecurringSummary, error) {
	var rows []budget.Charge
	if err := s.db.Model(&models.RecurringCharge{}).
		Select("recurring_charges.id AS id, recurring_charges.name AS name, recurring_charges.amount AS amount, " +
			"recurring_charges.frequency AS frequency, COALESCE(categories.name, '') AS category").
		Joins("LEFT JOIN categories ON categories.id = recurring_charges.category_id").
		Where("recurring_charges.is_active = ?", true).
		Order("recurring_charges.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := budget.NormalizeCharges(rows)
	return &summary, nil
}

func (s *recurringChargeService) requireCategory(id uint) error {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

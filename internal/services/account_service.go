package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// visibleTo scopes a query to joint accounts and the user's own.
func visibleTo(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(owner_id IS NULL OR owner_id = ?) AND is_active = ?", userID, true)
	}
}

// ListAccounts returns the active accounts the user may see, joint first.
func (s *accountService) ListAccounts(userID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.Scopes(visibleTo(userID)).
		Order("owner_id IS NOT NULL, name ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccount retrieves an account the user may see.
func (s *accountService) GetAccount(userID, accountID uint) (*models.Account, error) {
	return s.getAccount(s.db, userID, accountID)
}

func (s *accountService) getAccount(tx *gorm.DB, userID, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := tx.Scopes(visibleTo(userID)).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// CreateAccount opens an account. A nil owner makes it joint.
func (s *accountService) CreateAccount(in AccountInput) (*models.Account, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if in.Type == "" {
		in.Type = models.AccountTypeChecking
	}
	if in.Type != models.AccountTypeChecking && in.Type != models.AccountTypeSavings {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown account type")
	}

	account := &models.Account{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Balance:     in.Balance,
		OwnerID:     in.OwnerID,
		IsActive:    true,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// UpdateAccount applies a partial change to an account the user may see.
func (s *accountService) UpdateAccount(userID, accountID uint, upd AccountUpdate) (*models.Account, error) {
	account, err := s.GetAccount(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
		}
		updates["name"] = *upd.Name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Type != nil {
		updates["type"] = *upd.Type
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetAccount(userID, accountID)
}

// DeleteAccount deactivates an account.
func (s *accountService) DeleteAccount(userID, accountID uint) error {
	account, err := s.GetAccount(userID, accountID)
	if err != nil {
		return err
	}
	if err := s.db.Model(account).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AddFunds credits a positive amount to an account's balance.
func (s *accountService) AddFunds(userID, accountID uint, amount decimal.Decimal) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}

	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.getAccount(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, accountID)
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Add(amount)
		if err := tx.Model(account).Update("balance", account.Balance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "duobudget/internal/errors"
	"duobudget/internal/models"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a user with a password.
func (s *userService) CreateUser(email, username, password, fullName string, role models.UserRole) (*models.User, error) {
	if email == "" || username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email, username and password are required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:       strings.ToLower(email),
		Username:    username,
		Password:    string(hashedPassword),
		FullName:    fullName,
		Role:        defaultRole(role),
		IsActive:    true,
		PasswordSet: true,
	}
	if err := s.create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// InviteUser creates an account without a password. The user sets one
// through a magic link.
func (s *userService) InviteUser(email, username, fullName string, role models.UserRole, monthlyBudget *decimal.Decimal) (*models.User, error) {
	if email == "" || username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and username are required")
	}
	if monthlyBudget != nil && monthlyBudget.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget cannot be negative")
	}

	user := &models.User{
		Email:         strings.ToLower(email),
		Username:      username,
		FullName:      fullName,
		Role:          defaultRole(role),
		IsActive:      true,
		MonthlyBudget: monthlyBudget,
	}
	if err := s.create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) create(user *models.User) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateEmail
	}
	if err := s.db.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateUsername
	}

	if err := s.db.Create(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func defaultRole(role models.UserRole) models.UserRole {
	if role == "" {
		return models.RoleUser
	}
	return role
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ListUsers returns active users, optionally of a single role.
func (s *userService) ListUsers(role *models.UserRole) ([]models.User, error) {
	q := s.db.Where("is_active = ?", true)
	if role != nil {
		q = q.Where("role = ?", *role)
	}

	var users []models.User
	if err := q.Order("username ASC").Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return users, nil
}

// UpdateUser applies a partial profile change.
func (s *userService) UpdateUser(id uint, upd UserUpdate) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Email != nil {
		email := strings.ToLower(*upd.Email)
		if email != user.Email {
			if err := s.ensureFree("email", email, apperrors.ErrDuplicateEmail); err != nil {
				return nil, err
			}
			updates["email"] = email
		}
	}
	if upd.Username != nil && *upd.Username != user.Username {
		if err := s.ensureFree("username", *upd.Username, apperrors.ErrDuplicateUsername); err != nil {
			return nil, err
		}
		updates["username"] = *upd.Username
	}
	if upd.FullName != nil {
		updates["full_name"] = *upd.FullName
	}
	if upd.Role != nil {
		updates["role"] = *upd.Role
	}
	switch {
	case upd.ClearMonthlyBudget:
		updates["monthly_budget"] = nil
	case upd.MonthlyBudget != nil:
		if upd.MonthlyBudget.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget cannot be negative")
		}
		updates["monthly_budget"] = *upd.MonthlyBudget
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetUserByID(id)
}

func (s *userService) ensureFree(column, value string, conflict *apperrors.AppError) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return conflict
	}
	return nil
}

// DeactivateUser disables logins for a user and drops their refresh token.
func (s *userService) DeactivateUser(id uint) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"is_active":          false,
		"refresh_token_hash": "",
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AttemptLogin checks credentials given an email or a username.
func (s *userService) AttemptLogin(login, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("(email = ? OR username = ?) AND is_active = ?", strings.ToLower(login), login, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !user.PasswordSet {
		return nil, apperrors.ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

// SetPassword stores a new password and marks it as set.
func (s *userService) SetPassword(userID uint, password string) (*models.User, error) {
	if len(password) < MinPasswordLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"password":     string(hashedPassword),
		"password_set": true,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetUserByID(userID)
}

// StoreRefreshTokenHash saves the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID uint, tokenHash string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(userID uint) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

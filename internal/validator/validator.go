// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"duobudget/internal/budget"
	"duobudget/internal/models"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("split_type", validateSplitType)
		_ = v.RegisterValidation("frequency", validateFrequency)
		_ = v.RegisterValidation("charge_frequency", validateChargeFrequency)
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("account_type", validateAccountType)
		_ = v.RegisterValidation("month", validateMonth)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateSplitType(fl validator.FieldLevel) bool {
	return budget.SplitType(fl.Field().String()).Valid()
}

func validateFrequency(fl validator.FieldLevel) bool {
	return budget.Frequency(fl.Field().String()).Valid()
}

func validateChargeFrequency(fl validator.FieldLevel) bool {
	return budget.ChargeFrequency(fl.Field().String()).Valid()
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleAdmin, models.RoleUser, models.RoleChild:
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch models.AccountType(fl.Field().String()) {
	case models.AccountTypeChecking, models.AccountTypeSavings:
		return true
	}
	return false
}

func validateMonth(fl validator.FieldLevel) bool {
	m := fl.Field().Int()
	return m >= 1 && m <= 12
}

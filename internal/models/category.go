package models

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6B7280"

// Category groups shared expenses and recurring charges.
type Category struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Color       string `gorm:"size:7;not null;default:'#6B7280'" json:"color"`
	Icon        string `json:"icon"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

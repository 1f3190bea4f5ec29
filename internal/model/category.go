package model

import (
	"time"
)

// DefaultCategoryCode is assigned to products created without a category.
const DefaultCategoryCode = 10

// DefaultCategoryName is the display name of the auto-created default category.
const DefaultCategoryName = "Other"

// Category groups a business's products. The code is unique per business, not
// globally.
type Category struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	BusinessID   uint      `json:"business_id" gorm:"not null;uniqueIndex:idx_business_category_code"`
	CategoryCode int       `json:"category_code" gorm:"not null;uniqueIndex:idx_business_category_code"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package model

import (
	"time"
)

// Product units of sale.
const (
	UnitNumber = "number"
	UnitKg     = "kg"
	UnitLiter  = "liter"
	UnitMeter  = "meter"
	UnitBox    = "box"
	UnitPack   = "pack"
)

// ValidUnit reports whether unit is one of the supported units of sale.
func ValidUnit(unit string) bool {
	switch unit {
	case UnitNumber, UnitKg, UnitLiter, UnitMeter, UnitBox, UnitPack:
		return true
	}
	return false
}

// Product represents an item a business sells. Cost and Price are whole
// currency units. The 5-digit code is unique per business only; the same code
// may repeat across businesses.
type Product struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	BusinessID     uint      `json:"business_id" gorm:"not null;uniqueIndex:idx_business_product_code"`
	Code           string    `json:"product_code" gorm:"type:varchar(5);not null;uniqueIndex:idx_business_product_code"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	CategoryID     *uint     `json:"category_id" gorm:"index"`
	Category       *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Unit           string    `json:"unit" gorm:"type:varchar(10);default:'number'"`
	Cost           int64     `json:"cost" gorm:"not null"`
	Price          int64     `json:"price" gorm:"not null"`
	Description    string    `json:"description" gorm:"type:text"`
	UnlimitedStock bool      `json:"unlimited_stock" gorm:"default:false"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

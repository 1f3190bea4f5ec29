package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory tracks on-hand stock for a product (1:1, created together with the
// product). Quantity never goes negative for stock-tracked products; it is
// mutated only through the stock ledger so the invariant holds under
// concurrent writers.
type Inventory struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	ProductID         uint            `json:"product_id" gorm:"uniqueIndex;not null"`
	Quantity          decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);default:0"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold" gorm:"type:decimal(12,3);default:0"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

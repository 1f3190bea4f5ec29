// Package stock owns all inventory quantity mutations. Quantities are only
// changed through conditional UPDATE expressions evaluated by the store, so
// two concurrent writers on the same product serialize at the row and the
// non-negative invariant holds without a read-modify-write race.
package stock

import (
	"errors"

	"ledger-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrNegativeAmount is returned when a caller passes an amount below zero.
	ErrNegativeAmount = errors.New("stock amount must not be negative")

	// ErrInventoryNotFound is returned when the product has no inventory row.
	ErrInventoryNotFound = errors.New("inventory not found")
)

// Ledger performs atomic stock mutations for a single store handle. Build it
// on a transaction to join the caller's atomic unit.
type Ledger struct {
	db *gorm.DB
}

// NewLedger returns a Ledger bound to the given database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Add increases a product's stock by amount. Products with unlimited stock are
// left untouched.
func (l *Ledger) Add(productID uint, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	product, err := l.product(productID)
	if err != nil {
		return err
	}
	if product.UnlimitedStock {
		return nil
	}

	result := l.db.Model(&model.Inventory{}).
		Where("product_id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInventoryNotFound
	}
	return nil
}

// Remove decreases a product's stock by amount, all-or-nothing: when the
// remaining quantity is insufficient it reports false and leaves the quantity
// unchanged, never partially debiting. Unlimited-stock products report
// success without mutation.
func (l *Ledger) Remove(productID uint, amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, ErrNegativeAmount
	}

	product, err := l.product(productID)
	if err != nil {
		return false, err
	}
	if product.UnlimitedStock {
		return true, nil
	}

	// The quantity guard rides in the WHERE clause, so the check and the
	// decrement are a single atomic statement at the store.
	result := l.db.Model(&model.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, amount).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Nothing matched: either the row is missing or the stock is short.
	var count int64
	if err := l.db.Model(&model.Inventory{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrInventoryNotFound
	}
	return false, nil
}

// IsLow reports whether a product's quantity is at or below its low-stock
// threshold. Unlimited-stock products and products without a positive
// threshold are never low.
func (l *Ledger) IsLow(productID uint) (bool, error) {
	product, err := l.product(productID)
	if err != nil {
		return false, err
	}
	if product.UnlimitedStock {
		return false, nil
	}

	inventory, err := l.Inventory(productID)
	if err != nil {
		return false, err
	}
	if !inventory.LowStockThreshold.IsPositive() {
		return false, nil
	}
	return inventory.Quantity.LessThanOrEqual(inventory.LowStockThreshold), nil
}

// Inventory returns the inventory row for a product.
func (l *Ledger) Inventory(productID uint) (*model.Inventory, error) {
	var inventory model.Inventory
	if err := l.db.Where("product_id = ?", productID).First(&inventory).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInventoryNotFound
		}
		return nil, err
	}
	return &inventory, nil
}

func (l *Ledger) product(productID uint) (*model.Product, error) {
	var product model.Product
	if err := l.db.First(&product, productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

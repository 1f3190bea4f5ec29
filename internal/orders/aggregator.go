// Package orders recomputes order line items and totals. Item updates use
// replace-all semantics: the caller supplies the complete desired item set,
// prior items are deleted and the new set inserted, then the total is
// recomputed, all inside one transaction.
package orders

import (
	"errors"
	"fmt"

	"ledger-service/internal/model"
	"ledger-service/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNegativeQuantity is returned when an item carries a quantity below zero.
var ErrNegativeQuantity = errors.New("item quantity must not be negative")

// StockWarning reports a stock decrement that was refused for insufficient
// quantity. A shortfall is surfaced to the caller but does not block item
// creation.
type StockWarning struct {
	ProductID   uint            `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Requested   decimal.Decimal `json:"requested"`
}

// ComputeItem freezes the product's economics into the item and derives its
// subtotal and profit. Price and cost are copied from the product only when
// unset, so snapshots on existing items survive recomputation.
func ComputeItem(item *model.OrderItem, product *model.Product) {
	if item.Price == 0 {
		item.Price = product.Price
	}
	if item.Cost == 0 {
		item.Cost = product.Cost
	}
	item.Subtotal = decimal.NewFromInt(item.Price).Mul(item.Quantity).Round(0)
	item.Profit = decimal.NewFromInt(item.Price - item.Cost).Mul(item.Quantity).Round(0)
}

// Total sums the subtotals of the given items.
func Total(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Aggregator persists item sets and recomputed totals for orders.
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator returns an Aggregator bound to the given database handle.
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// ReplaceItems deletes the order's current items, inserts the supplied set
// with recomputed snapshots and derived fields, debits stock for each
// stock-tracked product, and persists the new total. The whole replacement is
// one transaction: readers never observe a partially replaced set or a stale
// total. Stock shortfalls are returned as warnings, not errors.
func (a *Aggregator) ReplaceItems(order *model.Order, items []model.OrderItem) ([]StockWarning, error) {
	var warnings []StockWarning

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete prior items: %w", err)
		}

		ledger := stock.NewLedger(tx)
		for i := range items {
			item := &items[i]
			if item.Quantity.IsNegative() {
				return ErrNegativeQuantity
			}

			var product model.Product
			if err := tx.Where("business_id = ?", order.BusinessID).First(&product, item.ProductID).Error; err != nil {
				return fmt.Errorf("product %d: %w", item.ProductID, err)
			}

			item.ID = 0
			item.OrderID = order.ID
			item.Product = nil
			ComputeItem(item, &product)

			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to create item for product %d: %w", item.ProductID, err)
			}

			if !product.UnlimitedStock {
				ok, err := ledger.Remove(product.ID, item.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					warnings = append(warnings, StockWarning{
						ProductID:   product.ID,
						ProductCode: product.Code,
						ProductName: product.Name,
						Requested:   item.Quantity,
					})
				}
			}
		}

		return a.recomputeTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	return warnings, nil
}

// RecomputeTotal recalculates and persists the order's total from its current
// items.
func (a *Aggregator) RecomputeTotal(order *model.Order) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		return a.recomputeTotal(tx, order)
	})
}

func (a *Aggregator) recomputeTotal(tx *gorm.DB, order *model.Order) error {
	var items []model.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	total := Total(items)
	if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).
		Update("total_amount", total).Error; err != nil {
		return err
	}

	order.TotalAmount = total
	return nil
}

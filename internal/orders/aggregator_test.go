package orders

import (
	"testing"

	"ledger-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeItemCopiesSnapshotsWhenUnset(t *testing.T) {
	product := model.Product{ID: 1, Price: 150, Cost: 100}
	item := model.OrderItem{ProductID: 1, Quantity: decimal.NewFromInt(2)}

	ComputeItem(&item, &product)

	require.Equal(t, int64(150), item.Price)
	require.Equal(t, int64(100), item.Cost)
	require.True(t, item.Subtotal.Equal(decimal.NewFromInt(300)), "subtotal = %s", item.Subtotal)
	require.True(t, item.Profit.Equal(decimal.NewFromInt(100)), "profit = %s", item.Profit)
}

func TestComputeItemPreservesFrozenSnapshots(t *testing.T) {
	// A later product price change must not rewrite the item's economics.
	product := model.Product{ID: 1, Price: 999, Cost: 888}
	item := model.OrderItem{
		ProductID: 1,
		Quantity:  decimal.NewFromInt(3),
		Price:     100,
		Cost:      60,
	}

	ComputeItem(&item, &product)

	require.Equal(t, int64(100), item.Price)
	require.Equal(t, int64(60), item.Cost)
	require.True(t, item.Subtotal.Equal(decimal.NewFromInt(300)))
	require.True(t, item.Profit.Equal(decimal.NewFromInt(120)))
}

func TestComputeItemFractionalQuantityRounds(t *testing.T) {
	// Quantities are fractional; money columns carry zero decimal places.
	product := model.Product{ID: 1, Price: 1000, Cost: 700}
	item := model.OrderItem{ProductID: 1, Quantity: decimal.RequireFromString("2.5")}

	ComputeItem(&item, &product)

	require.True(t, item.Subtotal.Equal(decimal.NewFromInt(2500)))
	require.True(t, item.Profit.Equal(decimal.NewFromInt(750)))
}

func TestComputeItemIdempotent(t *testing.T) {
	product := model.Product{ID: 1, Price: 150, Cost: 100}
	item := model.OrderItem{ProductID: 1, Quantity: decimal.RequireFromString("1.25")}

	ComputeItem(&item, &product)
	first := item

	ComputeItem(&item, &product)
	require.Equal(t, first, item)
}

func TestTotal(t *testing.T) {
	items := []model.OrderItem{
		{Subtotal: decimal.NewFromInt(500)},
		{Subtotal: decimal.NewFromInt(300)},
	}
	require.True(t, Total(items).Equal(decimal.NewFromInt(800)))
	require.True(t, Total(nil).Equal(decimal.Zero))
}

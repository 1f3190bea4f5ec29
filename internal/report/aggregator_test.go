package report

import (
	"testing"
	"time"

	"ledger-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func order(total int64, createdAt time.Time, items ...model.OrderItem) model.Order {
	return model.Order{
		TotalAmount: decimal.NewFromInt(total),
		CreatedAt:   createdAt,
		Items:       items,
	}
}

func item(productID uint, name string, qty string, price, cost int64) model.OrderItem {
	return model.OrderItem{
		ProductID: productID,
		Product:   &model.Product{ID: productID, Name: name},
		Quantity:  decimal.RequireFromString(qty),
		Price:     price,
		Cost:      cost,
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Now()
	orders := []model.Order{
		order(500, now, item(1, "Tea", "2", 250, 150)),
		order(300, now, item(2, "Coffee", "3", 100, 60)),
	}

	stats := ComputeStats(orders)

	require.True(t, stats.TotalSales.Equal(decimal.NewFromInt(800)), "total = %s", stats.TotalSales)
	require.True(t, stats.AverageOrderValue.Equal(decimal.NewFromInt(400)))
	require.Equal(t, 2, stats.TotalOrders)
	require.NotNil(t, stats.TopProduct)
	require.Equal(t, "Coffee", stats.TopProduct.Name)
	require.True(t, stats.TopProduct.Quantity.Equal(decimal.NewFromInt(3)))
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)

	require.True(t, stats.TotalSales.Equal(decimal.Zero))
	require.True(t, stats.AverageOrderValue.Equal(decimal.Zero))
	require.Equal(t, 0, stats.TotalOrders)
	require.Nil(t, stats.TopProduct)
}

func TestComputeStatsTieBreaksByProductID(t *testing.T) {
	now := time.Now()
	orders := []model.Order{
		order(100, now, item(9, "Later", "2", 50, 30)),
		order(100, now, item(4, "Earlier", "2", 50, 30)),
	}

	stats := ComputeStats(orders)

	require.Equal(t, uint(4), stats.TopProduct.ProductID)
}

func TestParseTimeframe(t *testing.T) {
	require.Equal(t, TimeframeDaily, ParseTimeframe("daily"))
	require.Equal(t, TimeframeWeekly, ParseTimeframe("weekly"))
	require.Equal(t, TimeframeYearly, ParseTimeframe("yearly"))
	require.Equal(t, TimeframeMonthly, ParseTimeframe("monthly"))
	require.Equal(t, TimeframeMonthly, ParseTimeframe(""))
	require.Equal(t, TimeframeMonthly, ParseTimeframe("hourly"))
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	require.Equal(t, now.AddDate(0, 0, -7), WindowStart(TimeframeDaily, now))
	require.Equal(t, now.AddDate(0, 0, -28), WindowStart(TimeframeWeekly, now))
	require.Equal(t, now.AddDate(0, 0, -180), WindowStart(TimeframeMonthly, now))
	require.Equal(t, now.AddDate(0, 0, -365*5), WindowStart(TimeframeYearly, now))
}

func TestBucketStart(t *testing.T) {
	// Wednesday 2025-06-18 14:30
	ts := time.Date(2025, time.June, 18, 14, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC), BucketStart(TimeframeDaily, ts))
	require.Equal(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), BucketStart(TimeframeWeekly, ts))
	require.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), BucketStart(TimeframeMonthly, ts))
	require.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), BucketStart(TimeframeYearly, ts))
}

func TestBucketStartSundayBelongsToPriorWeek(t *testing.T) {
	sunday := time.Date(2025, time.June, 22, 9, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), BucketStart(TimeframeWeekly, sunday))
}

func TestComputeDashboard(t *testing.T) {
	// Two orders in June, one in May. Monthly buckets, empty months omitted.
	june1 := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	june2 := time.Date(2025, time.June, 20, 10, 0, 0, 0, time.UTC)
	may := time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC)

	orders := []model.Order{
		order(500, june1, item(1, "Tea", "2", 250, 150)),  // cost mass 300
		order(300, june2, item(2, "Coffee", "3", 100, 60)), // cost mass 180
		order(200, may, item(1, "Tea", "1", 200, 120)),     // cost mass 120
	}

	dash := ComputeDashboard(orders, TimeframeMonthly)

	require.True(t, dash.Summary.TotalSales.Equal(decimal.NewFromInt(1000)))
	require.True(t, dash.Summary.TotalProfit.Equal(decimal.NewFromInt(400)), "profit = %s", dash.Summary.TotalProfit)
	require.Equal(t, 3, dash.Summary.TotalOrders)

	require.Equal(t, []string{"2025-05-01", "2025-06-01"}, dash.Chart.Labels)
	require.Equal(t, []float64{200, 800}, dash.Chart.Sales)
	require.Equal(t, []float64{80, 320}, dash.Chart.Profit)

	// Tea: 3 total, Coffee: 3 total -> tie broken by product id.
	require.Len(t, dash.TopProducts, 2)
	require.Equal(t, "Tea", dash.TopProducts[0].Name)
	require.True(t, dash.TopProducts[0].Revenue.Equal(decimal.NewFromInt(700)))
}

func TestComputeDashboardTopThreeOnly(t *testing.T) {
	now := time.Now()
	orders := []model.Order{
		order(0, now,
			item(1, "A", "5", 10, 5),
			item(2, "B", "4", 10, 5),
			item(3, "C", "3", 10, 5),
			item(4, "D", "2", 10, 5),
		),
	}

	dash := ComputeDashboard(orders, TimeframeMonthly)

	require.Len(t, dash.TopProducts, 3)
	require.Equal(t, "A", dash.TopProducts[0].Name)
	require.Equal(t, "C", dash.TopProducts[2].Name)
}

func TestComputeDashboardEmpty(t *testing.T) {
	dash := ComputeDashboard(nil, TimeframeDaily)

	require.True(t, dash.Summary.TotalSales.Equal(decimal.Zero))
	require.True(t, dash.Summary.TotalProfit.Equal(decimal.Zero))
	require.Empty(t, dash.Chart.Labels)
	require.Empty(t, dash.TopProducts)
}

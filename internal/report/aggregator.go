// Package report derives sales statistics and dashboard aggregates from
// committed orders. Everything here is read-only and operates on rows already
// fetched for one business; nothing is mutated.
package report

import (
	"sort"
	"time"

	"ledger-service/internal/model"

	"github.com/shopspring/decimal"
)

// Timeframe selects the dashboard lookback window and bucket granularity.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

// ParseTimeframe maps a request parameter onto a Timeframe, defaulting to
// monthly.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(s) {
	case TimeframeDaily, TimeframeWeekly, TimeframeYearly:
		return Timeframe(s)
	default:
		return TimeframeMonthly
	}
}

// WindowStart returns the start of the lookback window for a timeframe:
// 7 days, 4 weeks, 180 days or 5 years back from now.
func WindowStart(tf Timeframe, now time.Time) time.Time {
	switch tf {
	case TimeframeDaily:
		return now.AddDate(0, 0, -7)
	case TimeframeWeekly:
		return now.AddDate(0, 0, -28)
	case TimeframeYearly:
		return now.AddDate(0, 0, -365*5)
	default:
		return now.AddDate(0, 0, -180)
	}
}

// TopProduct is a product ranked by total quantity sold.
type TopProduct struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"qty"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Stats summarizes a filtered order set.
type Stats struct {
	TotalSales        decimal.Decimal `json:"total_sales"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalOrders       int             `json:"total_orders"`
	TopProduct        *TopProduct     `json:"top_product"`
}

// ComputeStats aggregates total sales, the mean order value (zero when the
// set is empty) and the best-selling product over the given orders. Ties on
// quantity break deterministically by product id. Orders must be loaded with
// their items and item products.
func ComputeStats(orders []model.Order) Stats {
	totalSales := decimal.Zero
	for _, order := range orders {
		totalSales = totalSales.Add(order.TotalAmount)
	}

	average := decimal.Zero
	if len(orders) > 0 {
		average = totalSales.Div(decimal.NewFromInt(int64(len(orders)))).Round(0)
	}

	ranked := rankProducts(orders)
	var top *TopProduct
	if len(ranked) > 0 {
		top = &ranked[0]
	}

	return Stats{
		TotalSales:        totalSales,
		AverageOrderValue: average,
		TotalOrders:       len(orders),
		TopProduct:        top,
	}
}

// Summary is the dashboard headline block.
type Summary struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	TotalOrders int             `json:"total_orders"`
}

// Chart is a time-ordered series of per-bucket sales and profit. Buckets with
// no orders are omitted, not zero-filled.
type Chart struct {
	Labels []string  `json:"labels"`
	Sales  []float64 `json:"sales"`
	Profit []float64 `json:"profit"`
}

// Dashboard is the full dashboard payload.
type Dashboard struct {
	Summary     Summary      `json:"summary"`
	TopProducts []TopProduct `json:"top_products"`
	Chart       Chart        `json:"chart"`
}

// ComputeDashboard aggregates the dashboard for orders already filtered to the
// timeframe's window. Sales per bucket come from order totals; profit per
// bucket is bucket sales minus the item cost mass (cost x quantity). Orders
// are bucketed by creation time at the timeframe's granularity.
func ComputeDashboard(orders []model.Order, tf Timeframe) Dashboard {
	totalSales := decimal.Zero
	totalCost := decimal.Zero

	type bucket struct {
		start time.Time
		sales decimal.Decimal
		cost  decimal.Decimal
	}
	buckets := map[time.Time]*bucket{}

	for _, order := range orders {
		totalSales = totalSales.Add(order.TotalAmount)
		orderCost := costMass(order.Items)
		totalCost = totalCost.Add(orderCost)

		start := BucketStart(tf, order.CreatedAt)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{start: start, sales: decimal.Zero, cost: decimal.Zero}
			buckets[start] = b
		}
		b.sales = b.sales.Add(order.TotalAmount)
		b.cost = b.cost.Add(orderCost)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })

	chart := Chart{
		Labels: make([]string, 0, len(ordered)),
		Sales:  make([]float64, 0, len(ordered)),
		Profit: make([]float64, 0, len(ordered)),
	}
	for _, b := range ordered {
		chart.Labels = append(chart.Labels, b.start.Format("2006-01-02"))
		chart.Sales = append(chart.Sales, b.sales.InexactFloat64())
		chart.Profit = append(chart.Profit, b.sales.Sub(b.cost).InexactFloat64())
	}

	ranked := rankProducts(orders)
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	return Dashboard{
		Summary: Summary{
			TotalSales:  totalSales,
			TotalProfit: totalSales.Sub(totalCost),
			TotalOrders: len(orders),
		},
		TopProducts: ranked,
		Chart:       chart,
	}
}

// BucketStart truncates t to the start of its bucket for a timeframe: the day,
// the ISO week (Monday), the month or the year.
func BucketStart(tf Timeframe, t time.Time) time.Time {
	switch tf {
	case TimeframeDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case TimeframeWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case TimeframeYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
}

func costMass(items []model.OrderItem) decimal.Decimal {
	cost := decimal.Zero
	for _, item := range items {
		cost = cost.Add(decimal.NewFromInt(item.Cost).Mul(item.Quantity).Round(0))
	}
	return cost
}

// rankProducts orders products by total quantity sold, descending, ties broken
// by product id ascending.
func rankProducts(orders []model.Order) []TopProduct {
	byProduct := map[uint]*TopProduct{}
	for _, order := range orders {
		for _, item := range order.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				entry = &TopProduct{
					ProductID: item.ProductID,
					Quantity:  decimal.Zero,
					Revenue:   decimal.Zero,
				}
				if item.Product != nil {
					entry.Name = item.Product.Name
				}
				byProduct[item.ProductID] = entry
			}
			entry.Quantity = entry.Quantity.Add(item.Quantity)
			entry.Revenue = entry.Revenue.Add(decimal.NewFromInt(item.Price).Mul(item.Quantity).Round(0))
		}
	}

	ranked := make([]TopProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Quantity.Equal(ranked[j].Quantity) {
			return ranked[i].Quantity.GreaterThan(ranked[j].Quantity)
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	return ranked
}

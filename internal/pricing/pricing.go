// Package pricing classifies product margins and computes repricing
// recommendations after a cost increase. All functions are pure; applying a
// recommendation to a product is a separate, caller-gated operation.
package pricing

import (
	"math"
)

// Margin policy constants. These are fixed server-side and never
// client-supplied.
const (
	TargetMarginPercent = 55
	MinMarginPercent    = 10
)

// Status is a margin classification.
type Status string

const (
	StatusGreen   Status = "green"
	StatusYellow  Status = "yellow"
	StatusRed     Status = "red"
	StatusUnknown Status = "unknown"
)

// Classify returns the margin status for a cost/price pair: unknown when the
// cost is zero, green at or above the target margin, yellow at or above the
// minimum margin, red below it.
func Classify(cost, price int64) Status {
	if cost == 0 {
		return StatusUnknown
	}

	margin := float64(price-cost) / float64(price) * 100

	switch {
	case margin >= TargetMarginPercent:
		return StatusGreen
	case margin >= MinMarginPercent:
		return StatusYellow
	default:
		return StatusRed
	}
}

// RepriceResult is the outcome of a repricing calculation.
type RepriceResult struct {
	CostOld          int64   `json:"cost_old"`
	CostNew          int64   `json:"cost_new"`
	PriceOld         int64   `json:"price_old"`
	RecommendedPrice int64   `json:"recommended_price"`
	CurrentMargin    float64 `json:"current_margin"`
	Status           Status  `json:"status"`
	ShouldUpdate     bool    `json:"should_update"`
}

// RecommendReprice computes the new cost after a percentage increase and the
// price that restores the target margin. The current margin is evaluated
// against the increased cost; ShouldUpdate reports whether it fell below the
// target. Nothing is persisted.
func RecommendReprice(cost, price int64, costIncreasePercent float64) RepriceResult {
	costNew := float64(cost) * (1 + costIncreasePercent/100)

	target := float64(TargetMarginPercent) / 100
	var recommended float64
	if target < 1 {
		recommended = costNew / (1 - target)
	} else {
		recommended = costNew * 2
	}

	var currentMargin float64
	if price > 0 {
		currentMargin = (float64(price) - costNew) / float64(price) * 100
	}

	return RepriceResult{
		CostOld:          cost,
		CostNew:          int64(math.Round(costNew)),
		PriceOld:         price,
		RecommendedPrice: int64(math.Round(recommended)),
		CurrentMargin:    math.Round(currentMargin*10) / 10,
		Status:           Classify(cost, price),
		ShouldUpdate:     currentMargin < TargetMarginPercent,
	}
}

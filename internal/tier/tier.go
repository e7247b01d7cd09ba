// Package tier classifies players into coarse value bands by percentile of
// projected value within the full projection pool.
//
// The banding models the "run on the bank" pattern of auction drafts: elite
// players are few and only a handful of teams can bid on them, middling
// players attract the broadest competitive bidding pressure, and low-end
// players deflate as rosters and budgets fill.
//
// Band thresholds (percentile of projected value, 0 = best):
//   - top:    percentile < 10
//   - middle: percentile < 40
//   - bottom: everything else
package tier

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/model"
)

// Percentile band boundaries.
var (
	TopThreshold    = 10.0
	MiddleThreshold = 40.0
)

// SortValuesDesc extracts projected values from the pool and sorts them
// descending. The calculators sort once per recompute and reuse the slice
// for every classification.
func SortValuesDesc(pool []model.Projection) []decimal.Decimal {
	values := make([]decimal.Decimal, len(pool))
	for i, p := range pool {
		values[i] = p.ProjectedValue
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].GreaterThan(values[j])
	})
	return values
}

// PercentileOf returns the percentile rank of value within the pool:
// (count of values strictly greater than value) / total × 100.
// An empty pool yields 0.
//
// The comparison is deliberately strict: ties at a band boundary resolve
// toward the higher (cheaper-percentile) band.
func PercentileOf(value decimal.Decimal, sortedDesc []decimal.Decimal) float64 {
	if len(sortedDesc) == 0 {
		return 0
	}
	greater := 0
	for _, v := range sortedDesc {
		if !v.GreaterThan(value) {
			// Sorted descending, so nothing later can be greater.
			break
		}
		greater++
	}
	return float64(greater) / float64(len(sortedDesc)) * 100
}

// Assign returns the tier band for a projected value against the pool.
// An empty pool yields the bottom tier as the fail-safe default.
func Assign(value decimal.Decimal, sortedDesc []decimal.Decimal) model.Tier {
	if len(sortedDesc) == 0 {
		return model.TierBottom
	}
	p := PercentileOf(value, sortedDesc)
	switch {
	case p < TopThreshold:
		return model.TierTop
	case p < MiddleThreshold:
		return model.TierMiddle
	default:
		return model.TierBottom
	}
}

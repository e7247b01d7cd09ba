package inflation

import (
	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/model"
)

var (
	// MinDepletionFactor is the multiplier floor: budget exhausted,
	// remaining values collapse.
	MinDepletionFactor = decimal.NewFromFloat(0.1)

	// MaxDepletionFactor is the multiplier ceiling: money far outpacing
	// remaining slots.
	MaxDepletionFactor = decimal.NewFromFloat(2.0)
)

// DepletionFactor computes a bounded multiplier describing whether money is
// being spent faster or slower than roster slots are filling:
//
//	multiplier = (remaining / slotsRemaining) / (totalBudget / totalRosterSpots)
//
// clamped to [MinDepletionFactor, MaxDepletionFactor]. If teams spend faster
// than slots fill, remaining-per-slot drops below the league average and the
// multiplier falls under 1 (values should deflate); the inverse inflates them.
//
// Degenerate inputs return the neutral multiplier 1.0: non-positive total
// budget or roster size, or no slots remaining (draft complete). A fully
// spent budget returns the floor.
func DepletionFactor(b model.BudgetContext) decimal.Decimal {
	one := decimal.NewFromInt(1)

	if b.TotalBudget.LessThanOrEqual(decimal.Zero) || b.TotalRosterSpots <= 0 {
		return one
	}
	if b.SlotsRemaining <= 0 {
		return one
	}

	remaining := b.Remaining()
	if remaining.LessThanOrEqual(decimal.Zero) {
		return MinDepletionFactor
	}

	avgPerSlot := b.TotalBudget.Div(decimal.NewFromInt(int64(b.TotalRosterSpots)))
	currentPerSlot := remaining.Div(decimal.NewFromInt(int64(b.SlotsRemaining)))

	multiplier := currentPerSlot.Div(avgPerSlot).Round(RateScale)
	if multiplier.LessThan(MinDepletionFactor) {
		return MinDepletionFactor
	}
	if multiplier.GreaterThan(MaxDepletionFactor) {
		return MaxDepletionFactor
	}
	return multiplier
}

// BudgetDepleted returns the spent fraction of the total budget, clamped to
// [0, 1]. A nil context or non-positive budget yields 0.
func BudgetDepleted(b *model.BudgetContext) decimal.Decimal {
	if b == nil || b.TotalBudget.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	frac := b.Spent.Div(b.TotalBudget).Round(RateScale)
	if frac.IsNegative() {
		return decimal.Zero
	}
	if frac.GreaterThan(one) {
		return one
	}
	return frac
}

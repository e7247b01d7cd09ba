// Package inflation implements the pure numeric transforms at the heart of
// the draft assistant: overall, per-position, and per-tier inflation rates,
// the budget-depletion multiplier, and adjusted player values.
//
// Inflation is the decimal fraction by which actual auction prices exceed
// (positive) or fall short of (negative) projected value:
//
//	rate = (Σ actual − Σ projected) / Σ projected
//
// All monetary values use shopspring/decimal — never float64 for money.
// Every function here is stateless and total: division-by-zero and
// empty-input paths return 0 instead of NaN/Infinity. That 0 is ambiguous
// between "truly no inflation" and "insufficient data"; callers that need
// to distinguish must inspect input sizes themselves.
package inflation

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/model"
	"github.com/draftdesk/inflation-engine/internal/tier"
)

// RateScale is the number of decimal places rates are rounded to.
const RateScale int32 = 4

// Overall computes the league-wide inflation rate over drafted players only.
// Players missing from the projection pool contribute a projected value of 0.
// Negative auction prices are logged as data-quality warnings but still
// included in the sums.
func Overall(drafted []model.DraftedPlayer, pool []model.Projection) decimal.Decimal {
	if len(drafted) == 0 {
		return decimal.Zero
	}

	projectedBy := projectionLookup(pool)

	actual := decimal.Zero
	projected := decimal.Zero
	for _, dp := range drafted {
		warnNegativePrice(dp)
		actual = actual.Add(dp.AuctionPrice)
		projected = projected.Add(projectedBy[dp.PlayerID])
	}

	return ratio(actual, projected)
}

// ByPosition computes an inflation rate per position code. The returned map
// always contains every known position, defaulting to 0.
//
// A player eligible at k recognized positions contributes 1/k of its auction
// price and 1/k of its matched projected value to each, so its total
// contribution is conserved exactly. Players with no recognized position are
// skipped entirely.
func ByPosition(drafted []model.DraftedPlayer, pool []model.Projection) map[model.Position]decimal.Decimal {
	rates := model.ZeroPositionRates()

	projectedBy := projectionLookup(pool)
	actual := make(map[model.Position]decimal.Decimal, len(model.AllPositions))
	projected := make(map[model.Position]decimal.Decimal, len(model.AllPositions))

	for _, dp := range drafted {
		positions := dp.RecognizedPositions()
		if len(positions) == 0 {
			continue
		}

		k := decimal.NewFromInt(int64(len(positions)))
		priceShare := dp.AuctionPrice.Div(k)
		projShare := projectedBy[dp.PlayerID].Div(k)

		for _, pos := range positions {
			actual[pos] = actual[pos].Add(priceShare)
			projected[pos] = projected[pos].Add(projShare)
		}
	}

	for _, pos := range model.AllPositions {
		if projected[pos].LessThanOrEqual(decimal.Zero) {
			if !actual[pos].IsZero() {
				slog.Warn("spend recorded at position with no projected value",
					"position", pos,
					"actual", actual[pos].String(),
				)
			}
			continue
		}
		rates[pos] = ratio(actual[pos], projected[pos])
	}

	return rates
}

// ByTier computes an inflation rate per value tier. The returned map always
// contains all three tiers, defaulting to 0.
//
// Tier resolution per drafted player, in priority order: the explicit tier on
// the drafted record, the matching projection's tier, then a percentile
// classification against the pool (sorted once up front).
func ByTier(drafted []model.DraftedPlayer, pool []model.Projection) map[model.Tier]decimal.Decimal {
	rates := model.ZeroTierRates()

	projectedBy := projectionLookup(pool)
	tierBy := make(map[string]model.Tier, len(pool))
	for _, p := range pool {
		tierBy[p.PlayerID] = p.Tier
	}
	sortedValues := tier.SortValuesDesc(pool)

	actual := make(map[model.Tier]decimal.Decimal, len(model.AllTiers))
	projected := make(map[model.Tier]decimal.Decimal, len(model.AllTiers))

	for _, dp := range drafted {
		band := dp.Tier
		if !band.Known() {
			band = tierBy[dp.PlayerID]
		}
		if !band.Known() {
			band = tier.Assign(projectedBy[dp.PlayerID], sortedValues)
		}

		actual[band] = actual[band].Add(dp.AuctionPrice)
		projected[band] = projected[band].Add(projectedBy[dp.PlayerID])
	}

	for _, band := range model.AllTiers {
		if projected[band].LessThanOrEqual(decimal.Zero) {
			continue
		}
		rates[band] = ratio(actual[band], projected[band])
	}

	return rates
}

// projectionLookup indexes projected value by player id. Missing or null
// values were already normalized to zero at decode time.
func projectionLookup(pool []model.Projection) map[string]decimal.Decimal {
	byID := make(map[string]decimal.Decimal, len(pool))
	for _, p := range pool {
		byID[p.PlayerID] = p.ProjectedValue
	}
	return byID
}

// ratio computes (actual − projected) / projected rounded to RateScale,
// or 0 when projected ≤ 0.
func ratio(actual, projected decimal.Decimal) decimal.Decimal {
	if projected.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return actual.Sub(projected).Div(projected).Round(RateScale)
}

func warnNegativePrice(dp model.DraftedPlayer) {
	if dp.AuctionPrice.IsNegative() {
		slog.Warn("negative auction price included in inflation sums",
			"player_id", dp.PlayerID,
			"price", dp.AuctionPrice.String(),
		)
	}
}

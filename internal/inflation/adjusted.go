package inflation

import (
	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/model"
)

// AdjustedValue combines the rate maps and depletion multiplier into a
// recommended bid for a single candidate:
//
//	raw = projected × (1 + positionRate) × (1 + tierRate) × depletion
//
// rounded to whole dollars and floored at 0. The position rate is resolved
// from the first recognized position code, defaulting to 0; the tier rate
// from the explicit tier, defaulting to the middle tier's rate.
func AdjustedValue(
	p model.Projection,
	positionRates map[model.Position]decimal.Decimal,
	tierRates map[model.Tier]decimal.Decimal,
	depletion decimal.Decimal,
) int64 {
	one := decimal.NewFromInt(1)

	posRate := decimal.Zero
	if positions := p.RecognizedPositions(); len(positions) > 0 {
		posRate = positionRates[positions[0]]
	}

	band := p.Tier
	if !band.Known() {
		band = model.TierMiddle
	}
	tierRate := tierRates[band]

	raw := p.ProjectedValue.
		Mul(one.Add(posRate)).
		Mul(one.Add(tierRate)).
		Mul(depletion)

	value := raw.Round(0).IntPart()
	if value < 0 {
		return 0
	}
	return value
}

// AdjustedValues runs AdjustedValue over every undrafted entry of the
// projection pool. The single-player form and this batch form agree exactly
// for identical inputs; the batch is defined in terms of the single.
func AdjustedValues(
	pool []model.Projection,
	drafted []model.DraftedPlayer,
	positionRates map[model.Position]decimal.Decimal,
	tierRates map[model.Tier]decimal.Decimal,
	depletion decimal.Decimal,
) model.AdjustedValues {
	taken := make(map[string]bool, len(drafted))
	for _, dp := range drafted {
		taken[dp.PlayerID] = true
	}

	values := make(model.AdjustedValues, len(pool))
	for _, p := range pool {
		if taken[p.PlayerID] {
			continue
		}
		values[p.PlayerID] = AdjustedValue(p, positionRates, tierRates, depletion)
	}
	return values
}

package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AdjustedValues maps playerId → recommended bid value in whole dollars.
// Covers exactly the undrafted subset of the projection pool; every value
// is non-negative. Lookups for unknown ids return 0.
//
// Serializes as an ordered list of [playerId, value] pairs rather than a
// native map literal, so persisted snapshots are byte-stable across runs.
type AdjustedValues map[string]int64

// Lookup returns the adjusted value for id, or 0 when the id is unknown
// (drafted, or not in the projection pool).
func (av AdjustedValues) Lookup(id string) int64 {
	return av[id]
}

// MarshalJSON emits [["playerId", value], ...] sorted by playerId.
func (av AdjustedValues) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(av))
	for id := range av {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pairs := make([][2]any, 0, len(ids))
	for _, id := range ids {
		pairs = append(pairs, [2]any{id, av[id]})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON parses the ordered-pair form produced by MarshalJSON.
func (av *AdjustedValues) UnmarshalJSON(data []byte) error {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	out := make(AdjustedValues, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("model: adjusted values pair %d has %d elements, want 2", i, len(pair))
		}
		var id string
		if err := json.Unmarshal(pair[0], &id); err != nil {
			return fmt.Errorf("model: adjusted values pair %d: %w", i, err)
		}
		var value int64
		if err := json.Unmarshal(pair[1], &value); err != nil {
			return fmt.Errorf("model: adjusted values pair %d: %w", i, err)
		}
		out[id] = value
	}
	*av = out
	return nil
}

// DepletionDetail describes the budget-depletion inputs behind the
// multiplier. Absent from a snapshot when no BudgetContext was supplied.
type DepletionDetail struct {
	Multiplier     decimal.Decimal `json:"multiplier"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	SlotsRemaining int             `json:"slots_remaining"`
}

// InflationSnapshot is the engine's derived output. It is produced fresh on
// every successful recompute and replaced wholesale — never patched in place
// — so equal inputs yield byte-for-byte equal serialized snapshots.
type InflationSnapshot struct {
	OverallRate      decimal.Decimal           `json:"overall_rate"`
	PositionRates    map[Position]decimal.Decimal `json:"position_rates"`
	TierRates        map[Tier]decimal.Decimal  `json:"tier_rates"`
	BudgetDepleted   decimal.Decimal           `json:"budget_depleted"` // fraction 0..1
	Depletion        *DepletionDetail          `json:"depletion,omitempty"`
	PlayersRemaining int                       `json:"players_remaining"`
	AdjustedValues   AdjustedValues            `json:"adjusted_values"`
	IsCalculating    bool                      `json:"is_calculating"`
	LastUpdated      *time.Time                `json:"last_updated"` // RFC 3339 or null
	Err              string                    `json:"error,omitempty"`
}

// DefaultInflationSnapshot returns the zeroed snapshot for a draft that has
// not computed anything yet: every rate map fully keyed at zero, an empty
// adjusted-value map, and a null timestamp.
func DefaultInflationSnapshot(poolSize int) InflationSnapshot {
	return InflationSnapshot{
		OverallRate:      decimal.Zero,
		PositionRates:    ZeroPositionRates(),
		TierRates:        ZeroTierRates(),
		BudgetDepleted:   decimal.Zero,
		PlayersRemaining: poolSize,
		AdjustedValues:   AdjustedValues{},
	}
}

// ZeroPositionRates returns a rate map with every known position at zero.
func ZeroPositionRates() map[Position]decimal.Decimal {
	rates := make(map[Position]decimal.Decimal, len(AllPositions))
	for _, pos := range AllPositions {
		rates[pos] = decimal.Zero
	}
	return rates
}

// ZeroTierRates returns a rate map with every tier at zero.
func ZeroTierRates() map[Tier]decimal.Decimal {
	rates := make(map[Tier]decimal.Decimal, len(AllTiers))
	for _, t := range AllTiers {
		rates[t] = decimal.Zero
	}
	return rates
}

// Clone deep-copies the snapshot so callers can hold it without racing a
// concurrent replacement.
func (s InflationSnapshot) Clone() InflationSnapshot {
	out := s
	out.PositionRates = make(map[Position]decimal.Decimal, len(s.PositionRates))
	for k, v := range s.PositionRates {
		out.PositionRates[k] = v
	}
	out.TierRates = make(map[Tier]decimal.Decimal, len(s.TierRates))
	for k, v := range s.TierRates {
		out.TierRates[k] = v
	}
	out.AdjustedValues = make(AdjustedValues, len(s.AdjustedValues))
	for k, v := range s.AdjustedValues {
		out.AdjustedValues[k] = v
	}
	if s.Depletion != nil {
		d := *s.Depletion
		out.Depletion = &d
	}
	if s.LastUpdated != nil {
		ts := *s.LastUpdated
		out.LastUpdated = &ts
	}
	return out
}

// Package model defines the core domain types shared across the inflation
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Position is a roster position code. The set is closed: codes outside it
// are ignored by the calculators, never treated as errors.
type Position string

const (
	Catcher    Position = "C"
	FirstBase  Position = "1B"
	SecondBase Position = "2B"
	ThirdBase  Position = "3B"
	Shortstop  Position = "SS"
	Outfield   Position = "OF"
	Starter    Position = "SP"
	Reliever   Position = "RP"
	Utility    Position = "UT"
)

// AllPositions lists every recognized position code in display order.
// Rate maps are keyed over exactly this set, never a subset.
var AllPositions = []Position{
	Catcher, FirstBase, SecondBase, ThirdBase, Shortstop,
	Outfield, Starter, Reliever, Utility,
}

var knownPositions = func() map[Position]bool {
	m := make(map[Position]bool, len(AllPositions))
	for _, p := range AllPositions {
		m[p] = true
	}
	return m
}()

// Known reports whether p is one of the recognized position codes.
func (p Position) Known() bool {
	return knownPositions[p]
}

// Tier is a coarse value band assigned by percentile of projected value
// within the full projection pool.
type Tier string

const (
	TierTop    Tier = "top"
	TierMiddle Tier = "middle"
	TierBottom Tier = "bottom"
)

// AllTiers lists the three tiers from most to least valuable.
var AllTiers = []Tier{TierTop, TierMiddle, TierBottom}

// Known reports whether t is one of the three tier bands.
func (t Tier) Known() bool {
	return t == TierTop || t == TierMiddle || t == TierBottom
}

// DraftedPlayer is an immutable record of one completed auction pick as
// supplied by the draft-room collaborator. The engine never mutates it.
// A negative AuctionPrice is a data-quality signal, not an error.
type DraftedPlayer struct {
	PlayerID     string          `json:"player_id"`
	AuctionPrice decimal.Decimal `json:"auction_price"`
	Positions    []Position      `json:"positions"`
	Tier         Tier            `json:"tier,omitempty"`
}

// RecognizedPositions returns the player's positions filtered to the known
// set, preserving order. May be empty.
func (p DraftedPlayer) RecognizedPositions() []Position {
	return recognized(p.Positions)
}

// UnmarshalJSON accepts either a `positions` list or a single `position`
// string, matching what draft-room feeds actually send. A null or absent
// auction price decodes to zero.
func (p *DraftedPlayer) UnmarshalJSON(data []byte) error {
	var raw struct {
		PlayerID     string           `json:"player_id"`
		AuctionPrice *decimal.Decimal `json:"auction_price"`
		Positions    []Position       `json:"positions"`
		Position     Position         `json:"position"`
		Tier         Tier             `json:"tier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.PlayerID = raw.PlayerID
	p.AuctionPrice = decimal.Zero
	if raw.AuctionPrice != nil {
		p.AuctionPrice = *raw.AuctionPrice
	}
	p.Positions = mergePositions(raw.Positions, raw.Position)
	p.Tier = raw.Tier
	return nil
}

// Projection is one entry of the full candidate pool, drafted and undrafted.
// An absent or null projected value is treated as zero.
type Projection struct {
	PlayerID       string          `json:"player_id"`
	ProjectedValue decimal.Decimal `json:"projected_value"`
	Positions      []Position      `json:"positions"`
	Tier           Tier            `json:"tier,omitempty"`
}

// RecognizedPositions returns the projection's positions filtered to the
// known set, preserving order.
func (p Projection) RecognizedPositions() []Position {
	return recognized(p.Positions)
}

// UnmarshalJSON mirrors DraftedPlayer's decoding: `positions` or `position`,
// null projected value → 0.
func (p *Projection) UnmarshalJSON(data []byte) error {
	var raw struct {
		PlayerID       string           `json:"player_id"`
		ProjectedValue *decimal.Decimal `json:"projected_value"`
		Positions      []Position       `json:"positions"`
		Position       Position         `json:"position"`
		Tier           Tier             `json:"tier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.PlayerID = raw.PlayerID
	p.ProjectedValue = decimal.Zero
	if raw.ProjectedValue != nil {
		p.ProjectedValue = *raw.ProjectedValue
	}
	p.Positions = mergePositions(raw.Positions, raw.Position)
	p.Tier = raw.Tier
	return nil
}

func recognized(positions []Position) []Position {
	out := make([]Position, 0, len(positions))
	for _, pos := range positions {
		if pos.Known() {
			out = append(out, pos)
		}
	}
	return out
}

func mergePositions(positions []Position, single Position) []Position {
	if len(positions) == 0 && single != "" {
		return []Position{single}
	}
	return positions
}

// Pick is an immutable ledger record of one recorded auction pick.
// Once created, these are never modified; undoing a pick deletes the record.
type Pick struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	Player     DraftedPlayer `json:"player"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// BudgetContext is a point-in-time snapshot of league budget state, not a
// running ledger. The caller recomputes it on every call.
type BudgetContext struct {
	TotalBudget      decimal.Decimal `json:"total_budget"`
	Spent            decimal.Decimal `json:"spent"`
	TotalRosterSpots int             `json:"total_roster_spots"`
	SlotsRemaining   int             `json:"slots_remaining"`
}

// Remaining returns TotalBudget − Spent.
func (b BudgetContext) Remaining() decimal.Decimal {
	return b.TotalBudget.Sub(b.Spent)
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// --- Position decoding tests ---

func TestDraftedPlayer_DecodePositionsList(t *testing.T) {
	var p DraftedPlayer
	err := json.Unmarshal([]byte(`{"player_id":"p1","auction_price":30,"positions":["2B","SS"]}`), &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Positions) != 2 || p.Positions[0] != SecondBase || p.Positions[1] != Shortstop {
		t.Errorf("unexpected positions: %v", p.Positions)
	}
	if !p.AuctionPrice.Equal(d(30)) {
		t.Errorf("expected price 30, got %s", p.AuctionPrice)
	}
}

func TestDraftedPlayer_DecodeSinglePosition(t *testing.T) {
	var p DraftedPlayer
	err := json.Unmarshal([]byte(`{"player_id":"p1","auction_price":30,"position":"SS"}`), &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Positions) != 1 || p.Positions[0] != Shortstop {
		t.Errorf("single position should decode into the list: %v", p.Positions)
	}
}

func TestDraftedPlayer_ListWinsOverSingle(t *testing.T) {
	var p DraftedPlayer
	err := json.Unmarshal([]byte(`{"player_id":"p1","positions":["OF"],"position":"SS"}`), &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Positions) != 1 || p.Positions[0] != Outfield {
		t.Errorf("positions list should take precedence: %v", p.Positions)
	}
}

func TestDraftedPlayer_NullPriceDecodesToZero(t *testing.T) {
	var p DraftedPlayer
	err := json.Unmarshal([]byte(`{"player_id":"p1","auction_price":null}`), &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.AuctionPrice.IsZero() {
		t.Errorf("null price should decode to 0, got %s", p.AuctionPrice)
	}
}

func TestProjection_AbsentValueDecodesToZero(t *testing.T) {
	var p Projection
	err := json.Unmarshal([]byte(`{"player_id":"p1","position":"C"}`), &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.ProjectedValue.IsZero() {
		t.Errorf("absent value should decode to 0, got %s", p.ProjectedValue)
	}
}

func TestRecognizedPositions_FiltersUnknown(t *testing.T) {
	p := DraftedPlayer{Positions: []Position{"DH", Shortstop, "LF", Catcher}}
	got := p.RecognizedPositions()
	if len(got) != 2 || got[0] != Shortstop || got[1] != Catcher {
		t.Errorf("expected [SS C], got %v", got)
	}
}

func TestPositionKnown(t *testing.T) {
	for _, pos := range AllPositions {
		if !pos.Known() {
			t.Errorf("position %s should be known", pos)
		}
	}
	if Position("DH").Known() {
		t.Error("DH should not be known")
	}
}

// --- Budget tests ---

func TestBudgetContext_Remaining(t *testing.T) {
	b := BudgetContext{TotalBudget: d(2600), Spent: d(650)}
	if !b.Remaining().Equal(d(1950)) {
		t.Errorf("expected remaining 1950, got %s", b.Remaining())
	}
}

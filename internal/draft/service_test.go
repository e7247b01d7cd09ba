package draft_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/draft"
	"github.com/draftdesk/inflation-engine/internal/model"
	"github.com/draftdesk/inflation-engine/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// newTestEnv creates a test Service with in-memory store, a short debounce,
// and a chi router mirroring the server's route layout.
func newTestEnv(t *testing.T) (*draft.Service, *store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	svc := draft.NewService(ms, nil, nil, draft.WithDebounce(time.Millisecond))

	r := chi.NewRouter()
	r.Route("/api/v1/sessions/{sessionID}", func(r chi.Router) {
		r.Put("/projections", svc.ReplaceProjections)
		r.Get("/projections", svc.GetProjections)
		r.Post("/picks", svc.RecordPick)
		r.Get("/picks", svc.ListPicks)
		r.Delete("/picks/{pickID}", svc.DeletePick)
		r.Put("/budget", svc.SetBudget)
		r.Get("/snapshot", svc.GetSnapshot)
		r.Get("/values/{playerID}", svc.GetAdjustedValue)
		r.Get("/trend", svc.GetTrend)
		r.Post("/reset", svc.ResetDraft)
		r.Delete("/error", svc.ClearError)
	})

	return svc, ms, r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedProjections(t *testing.T, router chi.Router, session string) {
	t.Helper()
	pool := []map[string]any{
		{"player_id": "p1", "projected_value": 25, "positions": []string{"SS"}},
		{"player_id": "p2", "projected_value": 20, "positions": []string{"OF"}},
		{"player_id": "p3", "projected_value": 15, "positions": []string{"SP"}},
	}
	w := doJSON(t, router, "PUT", "/api/v1/sessions/"+session+"/projections", pool)
	if w.Code != http.StatusOK {
		t.Fatalf("seed projections failed: %d %s", w.Code, w.Body.String())
	}
}

// waitForSnapshot polls the snapshot endpoint until cond passes or the
// deadline lapses, absorbing the debounce window.
func waitForSnapshot(t *testing.T, router chi.Router, session string, cond func(model.InflationSnapshot) bool) model.InflationSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var snap model.InflationSnapshot
	for time.Now().Before(deadline) {
		w := doJSON(t, router, "GET", "/api/v1/sessions/"+session+"/snapshot", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("snapshot request failed: %d %s", w.Code, w.Body.String())
		}
		if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if cond(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("snapshot never reached expected state; last: %+v", snap)
	return snap
}

// --- Pick recording tests ---

func TestRecordPick_UpdatesSnapshot(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id":     "p1",
		"auction_price": 30,
		"positions":     []string{"SS"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var pick model.Pick
	json.Unmarshal(w.Body.Bytes(), &pick)
	if pick.ID == "" {
		t.Error("expected non-empty pick id")
	}
	if pick.RecordedAt.IsZero() {
		t.Error("expected non-zero recorded_at")
	}

	snap := waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return !s.OverallRate.IsZero()
	})
	if !snap.OverallRate.Equal(d(0.2)) {
		t.Errorf("expected overall rate 0.2, got %s", snap.OverallRate)
	}
	if snap.PlayersRemaining != 2 {
		t.Errorf("expected 2 players remaining, got %d", snap.PlayersRemaining)
	}
}

func TestRecordPick_MissingPlayerID(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"auction_price": 30,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing player_id, got %d", w.Code)
	}
}

func TestRecordPick_InvalidBody(t *testing.T) {
	_, _, router := newTestEnv(t)

	req := httptest.NewRequest("POST", "/api/v1/sessions/s1/picks", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestRecordPick_DuplicatePlayer(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	body := map[string]any{"player_id": "p1", "auction_price": 30}
	if w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", body); w.Code != http.StatusCreated {
		t.Fatalf("first pick failed: %d", w.Code)
	}
	if w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", body); w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate player, got %d", w.Code)
	}
}

func TestRecordPick_PriceOverLeagueBudget(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	w := doJSON(t, router, "PUT", "/api/v1/sessions/s1/budget", map[string]any{
		"total_budget":       100,
		"spent":              90,
		"total_roster_spots": 10,
		"slots_remaining":    2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("budget update failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id":     "p1",
		"auction_price": 50,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for price over remaining budget, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecordPick_NegativePriceAllowed(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id":     "p1",
		"auction_price": -5,
	})
	if w.Code != http.StatusCreated {
		t.Errorf("negative price is data-quality, not an error: got %d", w.Code)
	}
}

func TestRecordPick_SinglePositionForm(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id":     "p1",
		"auction_price": 30,
		"position":      "SS",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var pick model.Pick
	json.Unmarshal(w.Body.Bytes(), &pick)
	if len(pick.Player.Positions) != 1 || pick.Player.Positions[0] != model.Shortstop {
		t.Errorf("single position form should decode: %v", pick.Player.Positions)
	}
}

// --- Undo tests ---

func TestDeletePick_RecomputesSnapshot(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	w := doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id": "p1", "auction_price": 30,
	})
	var pick model.Pick
	json.Unmarshal(w.Body.Bytes(), &pick)

	waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return !s.OverallRate.IsZero()
	})

	w = doJSON(t, router, "DELETE", "/api/v1/sessions/s1/picks/"+pick.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	snap := waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return s.OverallRate.IsZero() && s.PlayersRemaining == 3
	})
	if snap.PlayersRemaining != 3 {
		t.Errorf("undo should restore the full pool, got %d remaining", snap.PlayersRemaining)
	}
}

func TestDeletePick_NotFound(t *testing.T) {
	_, _, router := newTestEnv(t)
	w := doJSON(t, router, "DELETE", "/api/v1/sessions/s1/picks/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// --- Budget tests ---

func TestSetBudget_NarrowUpdate(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id": "p1", "auction_price": 30, "positions": []string{"SS"},
	})
	before := waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return !s.OverallRate.IsZero()
	})

	w := doJSON(t, router, "PUT", "/api/v1/sessions/s1/budget", map[string]any{
		"total_budget":       2600,
		"spent":              650,
		"total_roster_spots": 230,
		"slots_remaining":    180,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var snap model.InflationSnapshot
	json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Depletion == nil {
		t.Fatal("expected depletion detail after budget update")
	}
	if !snap.BudgetDepleted.Equal(d(0.25)) {
		t.Errorf("expected budget depleted 0.25, got %s", snap.BudgetDepleted)
	}
	if !snap.OverallRate.Equal(before.OverallRate) {
		t.Errorf("budget-only update must not move rates: %s vs %s",
			snap.OverallRate, before.OverallRate)
	}
}

// --- Adjusted value endpoint tests ---

func TestGetAdjustedValue(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id": "p1", "auction_price": 30, "positions": []string{"SS"},
	})
	waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return len(s.AdjustedValues) > 0
	})

	w := doJSON(t, router, "GET", "/api/v1/sessions/s1/values/p2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		PlayerID string `json:"player_id"`
		Value    int64  `json:"value"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.PlayerID != "p2" || resp.Value <= 0 {
		t.Errorf("expected positive value for p2, got %+v", resp)
	}

	// Drafted player reports 0.
	w = doJSON(t, router, "GET", "/api/v1/sessions/s1/values/p1", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Value != 0 {
		t.Errorf("drafted player should report 0, got %d", resp.Value)
	}
}

// --- Trend endpoint tests ---

func TestGetTrend_EarlyDraft(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	w := doJSON(t, router, "GET", "/api/v1/sessions/s1/trend", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Direction  string `json:"direction"`
		PickWindow int    `json:"pick_window"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Direction != "stable" {
		t.Errorf("empty history should read stable, got %s", resp.Direction)
	}
}

func TestGetTrend_InvalidWindow(t *testing.T) {
	_, _, router := newTestEnv(t)
	w := doJSON(t, router, "GET", "/api/v1/sessions/s1/trend?window=zero", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric window, got %d", w.Code)
	}
	w = doJSON(t, router, "GET", "/api/v1/sessions/s1/trend?window=-3", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative window, got %d", w.Code)
	}
}

// --- Reset tests ---

func TestResetDraft_ClearsEverything(t *testing.T) {
	_, ms, router := newTestEnv(t)
	seedProjections(t, router, "s1")

	doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id": "p1", "auction_price": 30,
	})
	waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return !s.OverallRate.IsZero()
	})

	w := doJSON(t, router, "POST", "/api/v1/sessions/s1/reset", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	snap := waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return s.OverallRate.IsZero()
	})
	if snap.PlayersRemaining != 0 {
		t.Errorf("reset snapshot should report an empty pool, got %d", snap.PlayersRemaining)
	}

	picks, _ := ms.ListPicks(context.Background(), "s1")
	if len(picks) != 0 {
		t.Errorf("reset should clear the pick ledger, got %d picks", len(picks))
	}
	pool, _ := ms.GetProjections(context.Background(), "s1")
	if len(pool) != 0 {
		t.Errorf("reset should clear projections, got %d", len(pool))
	}
}

// --- Session isolation and persistence tests ---

func TestSessions_Isolated(t *testing.T) {
	_, _, router := newTestEnv(t)
	seedProjections(t, router, "s1")
	seedProjections(t, router, "s2")

	doJSON(t, router, "POST", "/api/v1/sessions/s1/picks", map[string]any{
		"player_id": "p1", "auction_price": 30,
	})
	waitForSnapshot(t, router, "s1", func(s model.InflationSnapshot) bool {
		return !s.OverallRate.IsZero()
	})

	w := doJSON(t, router, "GET", "/api/v1/sessions/s2/snapshot", nil)
	var snap model.InflationSnapshot
	json.Unmarshal(w.Body.Bytes(), &snap)
	if !snap.OverallRate.IsZero() {
		t.Errorf("session s2 should be untouched by s1's picks, got rate %s", snap.OverallRate)
	}
}

func TestSnapshot_RestoredFromPersistedState(t *testing.T) {
	ms := store.NewMemoryStore()
	persisted := model.DefaultInflationSnapshot(7)
	persisted.OverallRate = d(0.1234)
	if err := ms.SaveSnapshot(context.Background(), "s1", persisted); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	// A fresh service (new process) should serve the persisted snapshot
	// before any recompute has run.
	svc := draft.NewService(ms, nil, nil)
	r := chi.NewRouter()
	r.Get("/api/v1/sessions/{sessionID}/snapshot", svc.GetSnapshot)

	req := httptest.NewRequest("GET", "/api/v1/sessions/s1/snapshot", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var snap model.InflationSnapshot
	json.Unmarshal(w.Body.Bytes(), &snap)
	if !snap.OverallRate.Equal(d(0.1234)) {
		t.Errorf("expected restored rate 0.1234, got %s", snap.OverallRate)
	}
	if snap.PlayersRemaining != 7 {
		t.Errorf("expected restored pool size 7, got %d", snap.PlayersRemaining)
	}
}

func TestGetProjections_EmptyList(t *testing.T) {
	_, _, router := newTestEnv(t)
	w := doJSON(t, router, "GET", "/api/v1/sessions/none/projections", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
		t.Errorf("expected empty JSON list, got %s", body)
	}
}

// Package draft provides the HTTP handlers and session orchestration for the
// auction draft assistant: recording picks, managing the projection pool and
// budget, and serving the derived inflation snapshot.
//
// The service owns one inflation Engine per draft session, feeds it the full
// session state from the store on every change notification, and maintains
// the per-session rate history consumed by the trend analyzer.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftdesk/inflation-engine/internal/engine"
	"github.com/draftdesk/inflation-engine/internal/metrics"
	"github.com/draftdesk/inflation-engine/internal/model"
	"github.com/draftdesk/inflation-engine/internal/pubsub"
	"github.com/draftdesk/inflation-engine/internal/store"
	"github.com/draftdesk/inflation-engine/internal/trend"
)

var (
	// ErrDuplicatePick is returned when a player is drafted twice.
	ErrDuplicatePick = errors.New("draft: player already drafted")

	// ErrPriceOverBudget is returned when a pick's price exceeds the
	// league's remaining budget.
	ErrPriceOverBudget = errors.New("draft: auction price exceeds remaining league budget")
)

// Service handles draft session operations.
// Pass nil for hub if WebSocket broadcasting is not needed.
type Service struct {
	store    store.Store
	pub      pubsub.Publisher
	wsHub    *WSHub
	debounce time.Duration
	reporter engine.Reporter

	mu      sync.Mutex
	engines map[string]*engine.Engine
	history map[string][]trend.Entry
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDebounce sets the engines' change-notification debounce window.
func WithDebounce(d time.Duration) ServiceOption {
	return func(s *Service) { s.debounce = d }
}

// WithReporter attaches an instrumentation reporter to every engine.
func WithReporter(r engine.Reporter) ServiceOption {
	return func(s *Service) { s.reporter = r }
}

// NewService creates a new draft service.
func NewService(st store.Store, pub pubsub.Publisher, hub *WSHub, opts ...ServiceOption) *Service {
	s := &Service{
		store:    st,
		pub:      pub,
		wsHub:    hub,
		debounce: engine.DefaultDebounce,
		reporter: metrics.RecalcReporter{},
		engines:  make(map[string]*engine.Engine),
		history:  make(map[string][]trend.Entry),
	}
	if s.pub == nil {
		s.pub = pubsub.Noop{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sessionEngine returns the session's engine, creating and seeding it on
// first use. A snapshot persisted by a previous process is restored;
// absent or unreadable persisted state falls back to the zeroed default.
func (s *Service) sessionEngine(sessionID string) *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eng, ok := s.engines[sessionID]; ok {
		return eng
	}

	ctx := context.Background()
	pool, err := s.store.GetProjections(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load projections for new session", "session", sessionID, "err", err)
	}

	eng := engine.New(len(pool),
		func() ([]model.DraftedPlayer, []model.Projection, *model.BudgetContext) {
			return s.sessionState(sessionID)
		},
		engine.WithDebounce(s.debounce),
		engine.WithReporter(s.reporter),
		engine.WithOnUpdate(func(snap model.InflationSnapshot) {
			s.snapshotUpdated(sessionID, snap)
		}),
	)

	if persisted, err := s.store.GetSnapshot(ctx, sessionID); err == nil && persisted != nil {
		eng.Restore(*persisted)
	}

	s.engines[sessionID] = eng
	return eng
}

// sessionState reads the entire current session state for a recompute.
func (s *Service) sessionState(sessionID string) ([]model.DraftedPlayer, []model.Projection, *model.BudgetContext) {
	ctx := context.Background()

	picks, err := s.store.ListPicks(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load picks for recompute", "session", sessionID, "err", err)
	}
	drafted := make([]model.DraftedPlayer, len(picks))
	for i, p := range picks {
		drafted[i] = p.Player
	}

	pool, err := s.store.GetProjections(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load projections for recompute", "session", sessionID, "err", err)
	}

	budget, err := s.store.GetBudget(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load budget for recompute", "session", sessionID, "err", err)
	}

	return drafted, pool, budget
}

// snapshotUpdated runs after every successful recompute: persist the new
// snapshot, extend the session's rate history, and fan the update out.
func (s *Service) snapshotUpdated(sessionID string, snap model.InflationSnapshot) {
	ctx := context.Background()

	if err := s.store.SaveSnapshot(ctx, sessionID, snap); err != nil {
		slog.Error("failed to persist snapshot", "session", sessionID, "err", err)
	}

	picks, err := s.store.ListPicks(ctx, sessionID)
	if err != nil {
		slog.Error("failed to count picks for rate history", "session", sessionID, "err", err)
	}

	// Trend history is kept in percentage points, not fractions.
	entry := trend.Entry{
		PickNumber: len(picks),
		Rate:       snap.OverallRate.InexactFloat64() * 100,
		Timestamp:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.history[sessionID] = append(s.history[sessionID], entry)
	s.mu.Unlock()

	lastUpdated := ""
	if snap.LastUpdated != nil {
		lastUpdated = snap.LastUpdated.UTC().Format(time.RFC3339)
	}
	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:             "inflation_updated",
			SessionID:        sessionID,
			OverallRate:      snap.OverallRate.String(),
			PlayersRemaining: snap.PlayersRemaining,
			BudgetDepleted:   snap.BudgetDepleted.String(),
			LastUpdated:      lastUpdated,
		})
	}
	s.pub.Publish(pubsub.Event{
		Type:      pubsub.EventInflationUpdated,
		SessionID: sessionID,
		Payload: map[string]any{
			"overall_rate":      snap.OverallRate.String(),
			"players_remaining": snap.PlayersRemaining,
		},
	})
}

// --- Request types ---

// PickRequest is the JSON body for POST /picks. Decoding accepts either a
// `positions` list or a single `position` code.
type PickRequest struct {
	Player model.DraftedPlayer
}

func (r *PickRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Player)
}

// --- HTTP Handlers ---

// ReplaceProjections handles PUT /api/v1/sessions/{sessionID}/projections.
// The body is the complete candidate pool; it replaces whatever was loaded
// before and triggers a recompute.
func (s *Service) ReplaceProjections(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var pool []model.Projection
	if err := json.NewDecoder(r.Body).Decode(&pool); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.ReplaceProjections(r.Context(), sessionID, pool); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("projections replaced", "session", sessionID, "players", len(pool))
	s.sessionEngine(sessionID).NotifyChange()

	writeJSON(w, http.StatusOK, map[string]int{"players": len(pool)})
}

// GetProjections handles GET /api/v1/sessions/{sessionID}/projections.
func (s *Service) GetProjections(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	pool, err := s.store.GetProjections(r.Context(), sessionID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if pool == nil {
		pool = []model.Projection{}
	}
	writeJSON(w, http.StatusOK, pool)
}

// RecordPick handles POST /api/v1/sessions/{sessionID}/picks.
func (s *Service) RecordPick(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Player.PlayerID == "" {
		writeError(w, "player_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if err := s.validatePick(ctx, sessionID, req.Player); err != nil {
		if errors.Is(err, ErrDuplicatePick) || errors.Is(err, ErrPriceOverBudget) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pick := &model.Pick{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Player:     req.Player,
		RecordedAt: time.Now().UTC(),
	}

	if err := s.store.InsertPick(ctx, pick); err != nil {
		writeError(w, "failed to record pick", http.StatusInternalServerError)
		return
	}

	metrics.PicksRecorded.WithLabelValues(sessionID).Inc()
	slog.Info("pick recorded",
		"pick_id", pick.ID,
		"session", sessionID,
		"player", pick.Player.PlayerID,
		"price", pick.Player.AuctionPrice.String(),
	)

	s.pub.Publish(pubsub.Event{
		Type:      pubsub.EventPickRecorded,
		SessionID: sessionID,
		Payload: map[string]any{
			"pick_id":   pick.ID,
			"player_id": pick.Player.PlayerID,
			"price":     pick.Player.AuctionPrice.String(),
		},
	})
	s.sessionEngine(sessionID).NotifyChange()

	writeJSON(w, http.StatusCreated, pick)
}

// validatePick rejects structurally impossible picks before they enter the
// ledger. A negative price is a data-quality signal and is allowed through;
// a duplicate player or a price beyond the league's remaining budget is not.
func (s *Service) validatePick(ctx context.Context, sessionID string, player model.DraftedPlayer) error {
	picks, err := s.store.ListPicks(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, p := range picks {
		if p.Player.PlayerID == player.PlayerID {
			return ErrDuplicatePick
		}
	}

	budget, err := s.store.GetBudget(ctx, sessionID)
	if err != nil {
		return err
	}
	if budget != nil && player.AuctionPrice.GreaterThan(budget.Remaining()) {
		return ErrPriceOverBudget
	}
	return nil
}

// ListPicks handles GET /api/v1/sessions/{sessionID}/picks.
func (s *Service) ListPicks(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	picks, err := s.store.ListPicks(r.Context(), sessionID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if picks == nil {
		picks = []model.Pick{}
	}
	writeJSON(w, http.StatusOK, picks)
}

// DeletePick handles DELETE /api/v1/sessions/{sessionID}/picks/{pickID}.
// Undoing a pick removes it from the ledger and triggers a full recompute;
// the engine never patches incrementally, so undo needs no special casing.
func (s *Service) DeletePick(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	pickID := chi.URLParam(r, "pickID")

	if err := s.store.DeletePick(r.Context(), sessionID, pickID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "pick not found", http.StatusNotFound)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("pick deleted", "pick_id", pickID, "session", sessionID)
	s.pub.Publish(pubsub.Event{
		Type:      pubsub.EventPickDeleted,
		SessionID: sessionID,
		Payload:   map[string]any{"pick_id": pickID},
	})
	s.sessionEngine(sessionID).NotifyChange()

	w.WriteHeader(http.StatusNoContent)
}

// SetBudget handles PUT /api/v1/sessions/{sessionID}/budget.
// Only the depletion fields of the snapshot are recomputed; the rate maps
// are untouched until the next pick lands.
func (s *Service) SetBudget(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var budget model.BudgetContext
	if err := json.NewDecoder(r.Body).Decode(&budget); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.SetBudget(r.Context(), sessionID, budget); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	eng := s.sessionEngine(sessionID)
	eng.UpdateBudgetDepletion(budget)

	snap := eng.Snapshot()
	if err := s.store.SaveSnapshot(r.Context(), sessionID, snap); err != nil {
		slog.Error("failed to persist snapshot after budget update",
			"session", sessionID, "err", err)
	}

	writeJSON(w, http.StatusOK, snap)
}

// GetSnapshot handles GET /api/v1/sessions/{sessionID}/snapshot.
func (s *Service) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	writeJSON(w, http.StatusOK, s.sessionEngine(sessionID).Snapshot())
}

// GetAdjustedValue handles GET /api/v1/sessions/{sessionID}/values/{playerID}.
// Unknown or drafted players report value 0.
func (s *Service) GetAdjustedValue(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	playerID := chi.URLParam(r, "playerID")

	value := s.sessionEngine(sessionID).AdjustedValue(playerID)
	writeJSON(w, http.StatusOK, map[string]any{
		"player_id": playerID,
		"value":     value,
	})
}

// GetTrend handles GET /api/v1/sessions/{sessionID}/trend?window=N.
func (s *Service) GetTrend(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	window := trend.DefaultWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, "window must be a positive integer", http.StatusBadRequest)
			return
		}
		window = parsed
	}

	picks, err := s.store.ListPicks(r.Context(), sessionID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	history := make([]trend.Entry, len(s.history[sessionID]))
	copy(history, s.history[sessionID])
	s.mu.Unlock()

	result := trend.Calculate(history, len(picks), window)
	writeJSON(w, http.StatusOK, map[string]any{
		"direction":   result.Direction,
		"change":      result.Change,
		"pick_window": result.PickWindow,
		"label":       result.Direction.Label(),
		"icon":        result.Direction.Icon(),
		"color":       result.Direction.Color(),
		"summary":     trend.Describe(result),
	})
}

// ResetDraft handles POST /api/v1/sessions/{sessionID}/reset. All session
// state is discarded; the projection pool must be re-uploaded afterwards.
func (s *Service) ResetDraft(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.store.ClearSession(r.Context(), sessionID); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.sessionEngine(sessionID).Reset(0)

	s.mu.Lock()
	delete(s.history, sessionID)
	s.mu.Unlock()

	slog.Info("draft reset", "session", sessionID)
	s.pub.Publish(pubsub.Event{
		Type:      pubsub.EventDraftReset,
		SessionID: sessionID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// ClearError handles DELETE /api/v1/sessions/{sessionID}/error.
func (s *Service) ClearError(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.sessionEngine(sessionID).ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// --- Response helpers ---

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

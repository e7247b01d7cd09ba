package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/draftdesk/inflation-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	picks       map[string][]model.Pick
	projections map[string][]model.Projection
	budgets     map[string]*model.BudgetContext
	snapshots   map[string]*model.InflationSnapshot
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		picks:       make(map[string][]model.Pick),
		projections: make(map[string][]model.Projection),
		budgets:     make(map[string]*model.BudgetContext),
		snapshots:   make(map[string]*model.InflationSnapshot),
	}
}

func (s *MemoryStore) InsertPick(_ context.Context, pick *model.Pick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.picks[pick.SessionID] {
		if existing.ID == pick.ID {
			return fmt.Errorf("pick %s already exists", pick.ID)
		}
	}
	s.picks[pick.SessionID] = append(s.picks[pick.SessionID], *pick)
	return nil
}

func (s *MemoryStore) ListPicks(_ context.Context, sessionID string) ([]model.Pick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	picks := make([]model.Pick, len(s.picks[sessionID]))
	copy(picks, s.picks[sessionID])
	return picks, nil
}

func (s *MemoryStore) DeletePick(_ context.Context, sessionID, pickID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	picks := s.picks[sessionID]
	for i, p := range picks {
		if p.ID == pickID {
			s.picks[sessionID] = append(picks[:i], picks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("pick %s: %w", pickID, ErrNotFound)
}

func (s *MemoryStore) ReplaceProjections(_ context.Context, sessionID string, pool []model.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.Projection, len(pool))
	copy(copied, pool)
	s.projections[sessionID] = copied
	return nil
}

func (s *MemoryStore) GetProjections(_ context.Context, sessionID string) ([]model.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool := make([]model.Projection, len(s.projections[sessionID]))
	copy(pool, s.projections[sessionID])
	return pool, nil
}

func (s *MemoryStore) SetBudget(_ context.Context, sessionID string, budget model.BudgetContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets[sessionID] = &budget
	return nil
}

func (s *MemoryStore) GetBudget(_ context.Context, sessionID string) (*model.BudgetContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, sessionID string, snap model.InflationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := snap.Clone()
	s.snapshots[sessionID] = &copied
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, sessionID string) (*model.InflationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, nil
	}
	copied := snap.Clone()
	return &copied, nil
}

func (s *MemoryStore) ClearSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.picks, sessionID)
	delete(s.projections, sessionID)
	delete(s.budgets, sessionID)
	delete(s.snapshots, sessionID)
	return nil
}

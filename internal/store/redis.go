package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftdesk/inflation-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
//
// Snapshot reads dominate during a live draft (every connected assistant
// polls between picks), so the snapshot and projection pool are the cached
// entities; the pick ledger and budget pass through.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) InsertPick(ctx context.Context, pick *model.Pick) error {
	if err := s.primary.InsertPick(ctx, pick); err != nil {
		return err
	}
	// The derived snapshot is stale the moment a pick lands.
	s.rdb.Del(ctx, snapshotKey(pick.SessionID))
	return nil
}

func (s *CachedStore) DeletePick(ctx context.Context, sessionID, pickID string) error {
	if err := s.primary.DeletePick(ctx, sessionID, pickID); err != nil {
		return err
	}
	s.rdb.Del(ctx, snapshotKey(sessionID))
	return nil
}

func (s *CachedStore) ReplaceProjections(ctx context.Context, sessionID string, pool []model.Projection) error {
	if err := s.primary.ReplaceProjections(ctx, sessionID, pool); err != nil {
		return err
	}
	s.rdb.Del(ctx, projectionsKey(sessionID), snapshotKey(sessionID))
	return nil
}

func (s *CachedStore) SaveSnapshot(ctx context.Context, sessionID string, snap model.InflationSnapshot) error {
	if err := s.primary.SaveSnapshot(ctx, sessionID, snap); err != nil {
		return err
	}
	if data, err := json.Marshal(snap); err == nil {
		s.rdb.Set(ctx, snapshotKey(sessionID), data, s.ttl)
	}
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetProjections(ctx context.Context, sessionID string) ([]model.Projection, error) {
	data, err := s.rdb.Get(ctx, projectionsKey(sessionID)).Bytes()
	if err == nil {
		var pool []model.Projection
		if json.Unmarshal(data, &pool) == nil {
			return pool, nil
		}
	}

	pool, err := s.primary.GetProjections(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pool); err == nil {
		s.rdb.Set(ctx, projectionsKey(sessionID), data, s.ttl)
	}
	return pool, nil
}

func (s *CachedStore) GetSnapshot(ctx context.Context, sessionID string) (*model.InflationSnapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(sessionID)).Bytes()
	if err == nil {
		var snap model.InflationSnapshot
		if json.Unmarshal(data, &snap) == nil {
			return &snap, nil
		}
	}

	snap, err := s.primary.GetSnapshot(ctx, sessionID)
	if err != nil || snap == nil {
		return snap, err
	}

	if data, err := json.Marshal(snap); err == nil {
		s.rdb.Set(ctx, snapshotKey(sessionID), data, s.ttl)
	}
	return snap, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListPicks(ctx context.Context, sessionID string) ([]model.Pick, error) {
	return s.primary.ListPicks(ctx, sessionID)
}

func (s *CachedStore) SetBudget(ctx context.Context, sessionID string, budget model.BudgetContext) error {
	return s.primary.SetBudget(ctx, sessionID, budget)
}

func (s *CachedStore) GetBudget(ctx context.Context, sessionID string) (*model.BudgetContext, error) {
	return s.primary.GetBudget(ctx, sessionID)
}

func (s *CachedStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.primary.ClearSession(ctx, sessionID); err != nil {
		return err
	}
	s.rdb.Del(ctx, projectionsKey(sessionID), snapshotKey(sessionID))
	return nil
}

// --- Cache keys ---

func projectionsKey(sessionID string) string { return fmt.Sprintf("projections:%s", sessionID) }
func snapshotKey(sessionID string) string    { return fmt.Sprintf("snapshot:%s", sessionID) }

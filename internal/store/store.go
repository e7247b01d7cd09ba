// Package store defines the persistence interface for draft session state.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
//
// The engine itself is persistence-free; the store is the caller-side
// collaborator that owns durability of picks, projections, budget snapshots,
// and the latest derived InflationSnapshot.
package store

import (
	"context"
	"errors"

	"github.com/draftdesk/inflation-engine/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface, keyed by draft session id.
type Store interface {
	// --- Pick ledger (immutable; undo deletes the record) ---

	// InsertPick appends a pick to the session's ledger.
	InsertPick(ctx context.Context, pick *model.Pick) error

	// ListPicks returns the session's picks in recording order.
	ListPicks(ctx context.Context, sessionID string) ([]model.Pick, error)

	// DeletePick removes one pick (undo). Returns ErrNotFound when absent.
	DeletePick(ctx context.Context, sessionID, pickID string) error

	// --- Projection pool ---

	// ReplaceProjections replaces the session's full candidate pool.
	ReplaceProjections(ctx context.Context, sessionID string, pool []model.Projection) error

	// GetProjections returns the session's candidate pool.
	GetProjections(ctx context.Context, sessionID string) ([]model.Projection, error)

	// --- Budget snapshot ---

	// SetBudget stores the session's latest budget context.
	SetBudget(ctx context.Context, sessionID string, budget model.BudgetContext) error

	// GetBudget returns the session's budget context, nil when never set.
	GetBudget(ctx context.Context, sessionID string) (*model.BudgetContext, error)

	// --- Derived snapshot ---

	// SaveSnapshot persists the latest derived snapshot.
	SaveSnapshot(ctx context.Context, sessionID string, snap model.InflationSnapshot) error

	// GetSnapshot returns the persisted snapshot, nil when absent or
	// unreadable — callers fall back to the in-memory default.
	GetSnapshot(ctx context.Context, sessionID string) (*model.InflationSnapshot, error)

	// ClearSession removes all state for a session (draft reset).
	ClearSession(ctx context.Context, sessionID string) error
}

// Package engine holds the recalculation orchestrator: one Engine instance
// per draft session, owning the current InflationSnapshot and re-deriving it
// wholesale as draft events arrive.
//
// Every recompute is a full, stateless re-derivation over the entire supplied
// state — never an incremental patch — so coalesced change notifications are
// safe: the result depends only on the final state, not on how many events
// fired in between.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/draftdesk/inflation-engine/internal/inflation"
	"github.com/draftdesk/inflation-engine/internal/model"
)

// DefaultDebounce is the window over which bursts of change notifications
// collapse into a single trailing recompute.
const DefaultDebounce = 100 * time.Millisecond

// StateFunc supplies the entire current draft state at the moment a debounced
// recompute actually runs. It must return a consistent snapshot of immutable
// records; the engine never mutates what it receives.
type StateFunc func() (drafted []model.DraftedPlayer, pool []model.Projection, budget *model.BudgetContext)

// Reporter receives fire-and-forget timing records for each recompute.
// Implementations must tolerate concurrent calls; failures (including
// panics) never reach the calculation path.
type Reporter interface {
	ObserveRecalc(elapsed time.Duration, candidates int, err error)
}

// Engine orchestrates recalculation for one draft session. The snapshot is
// replaced atomically under the mutex; there is never a partial or
// interleaved update of the rate maps.
type Engine struct {
	mu   sync.RWMutex
	snap model.InflationSnapshot

	state    StateFunc
	sched    Scheduler
	debounce time.Duration
	reporter Reporter
	onUpdate func(model.InflationSnapshot)
	now      func() time.Time

	timerMu sync.Mutex
	pending CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler replaces the default timer-backed scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithDebounce sets the notification debounce window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithReporter attaches a recompute instrumentation reporter.
func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithOnUpdate registers an observer invoked with a copy of each snapshot
// produced by a successful recompute.
func WithOnUpdate(fn func(model.InflationSnapshot)) Option {
	return func(e *Engine) { e.onUpdate = fn }
}

// WithClock overrides the timestamp source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine for a draft with poolSize candidates, starting from
// the zeroed default snapshot. state may be nil when the caller drives
// Update directly instead of through NotifyChange.
func New(poolSize int, state StateFunc, opts ...Option) *Engine {
	e := &Engine{
		snap:     model.DefaultInflationSnapshot(poolSize),
		state:    state,
		sched:    NewTimerScheduler(),
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a deep copy of the current snapshot.
func (e *Engine) Snapshot() model.InflationSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap.Clone()
}

// AdjustedValue returns the recommended bid for a player id, or 0 when the
// player is drafted or unknown.
func (e *Engine) AdjustedValue(playerID string) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap.AdjustedValues.Lookup(playerID)
}

// NotifyChange schedules a debounced recompute. A still-pending (not yet
// started) timer is cancelled and replaced; a recompute that has already
// started runs to completion and its result is still applied, so overlapping
// computations resolve last-completed-wins rather than last-requested-wins.
func (e *Engine) NotifyChange() {
	if e.state == nil {
		return
	}
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if e.pending != nil {
		e.pending()
	}
	e.pending = e.sched.Schedule(e.debounce, func() {
		e.timerMu.Lock()
		e.pending = nil
		e.timerMu.Unlock()
		e.recalc()
	})
}

// recalc gathers the current state and re-derives the snapshot. A panic in
// the state supplier itself is captured the same way as one in the
// calculation: surfaced through the snapshot's error field, never allowed to
// kill the timer goroutine.
func (e *Engine) recalc() {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.snap.IsCalculating = false
			e.snap.Err = fmt.Sprintf("recalculation failed: %v", r)
			e.mu.Unlock()
		}
	}()

	drafted, pool, budget := e.state()
	// Errors surface through the snapshot's error field.
	_ = e.Update(drafted, pool, budget)
}

// Update re-derives the snapshot from the full supplied inputs. On success
// the snapshot is replaced wholesale with a fresh timestamp. On failure the
// previous snapshot survives untouched except IsCalculating, and the error
// is surfaced through the snapshot's error field as well as the return.
func (e *Engine) Update(drafted []model.DraftedPlayer, pool []model.Projection, budget *model.BudgetContext) (err error) {
	e.mu.Lock()
	e.snap.IsCalculating = true
	e.snap.Err = ""
	e.mu.Unlock()

	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: recalculation failed: %v", r)
			e.mu.Lock()
			e.snap.IsCalculating = false
			e.snap.Err = fmt.Sprintf("recalculation failed: %v", r)
			e.mu.Unlock()
		}
		e.report(e.now().Sub(start), len(pool), err)
	}()

	next := derive(drafted, pool, budget)
	ts := e.now()
	next.LastUpdated = &ts

	e.mu.Lock()
	e.snap = next
	e.mu.Unlock()

	if e.onUpdate != nil {
		e.onUpdate(next.Clone())
	}
	return nil
}

// UpdateBudgetDepletion recomputes only the depletion fields and timestamp,
// leaving the rate maps and adjusted values untouched. Used when only the
// budget context changed.
func (e *Engine) UpdateBudgetDepletion(budget model.BudgetContext) {
	detail := depletionDetail(budget)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Depletion = detail
	e.snap.BudgetDepleted = inflation.BudgetDepleted(&budget)
	ts := e.now()
	e.snap.LastUpdated = &ts
}

// Reset discards the snapshot and replaces it with the zeroed default for a
// pool of the given size.
func (e *Engine) Reset(poolSize int) {
	e.timerMu.Lock()
	if e.pending != nil {
		e.pending()
		e.pending = nil
	}
	e.timerMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = model.DefaultInflationSnapshot(poolSize)
}

// Restore seeds the engine with a previously persisted snapshot, e.g. when
// an assistant process rejoins a draft in progress. A stale in-flight flag
// from the persisted copy is dropped.
func (e *Engine) Restore(snap model.InflationSnapshot) {
	restored := snap.Clone()
	restored.IsCalculating = false

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = restored
}

// ClearError clears the snapshot's error field.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Err = ""
}

// derive is the full pure recomputation: rates, depletion, adjusted values.
func derive(drafted []model.DraftedPlayer, pool []model.Projection, budget *model.BudgetContext) model.InflationSnapshot {
	positionRates := inflation.ByPosition(drafted, pool)
	tierRates := inflation.ByTier(drafted, pool)

	depletion := decimal.NewFromInt(1)
	var detail *model.DepletionDetail
	if budget != nil {
		detail = depletionDetail(*budget)
		depletion = detail.Multiplier
	}

	values := inflation.AdjustedValues(pool, drafted, positionRates, tierRates, depletion)

	return model.InflationSnapshot{
		OverallRate:      inflation.Overall(drafted, pool),
		PositionRates:    positionRates,
		TierRates:        tierRates,
		BudgetDepleted:   inflation.BudgetDepleted(budget),
		Depletion:        detail,
		PlayersRemaining: len(values),
		AdjustedValues:   values,
	}
}

func depletionDetail(budget model.BudgetContext) *model.DepletionDetail {
	return &model.DepletionDetail{
		Multiplier:     inflation.DepletionFactor(budget),
		Spent:          budget.Spent,
		Remaining:      budget.Remaining(),
		SlotsRemaining: budget.SlotsRemaining,
	}
}

// report forwards a timing record to the reporter without ever letting the
// reporter interfere with the calculation path.
func (e *Engine) report(elapsed time.Duration, candidates int, err error) {
	if e.reporter == nil {
		return
	}
	go func() {
		defer func() { _ = recover() }()
		e.reporter.ObserveRecalc(elapsed, candidates, err)
	}()
}

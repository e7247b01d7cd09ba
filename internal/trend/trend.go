// Package trend analyzes a sparse, pick-indexed history of overall inflation
// rate snapshots and reports whether the market is heating, cooling, or
// stable over a backward-looking pick window.
//
// Rates here are percentage points (5.0 = 5%), not the decimal fractions the
// calculators produce. The mismatch is deliberate: history entries come from
// display-side collaborators that already scaled the rate, and the ±2-point
// thresholds are calibrated against that unit. Callers convert before
// appending to history.
package trend

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Direction is the qualitative read of the rate trend.
type Direction string

const (
	Heating Direction = "heating"
	Cooling Direction = "cooling"
	Stable  Direction = "stable"
)

// DefaultWindow is the default backward-looking span in picks.
const DefaultWindow = 10

// changeThreshold is the percentage-point move, in either direction, that
// separates heating/cooling from stable.
const changeThreshold = 2.0

// Entry is one caller-maintained history point: the overall rate observed
// after a given pick.
type Entry struct {
	PickNumber int       `json:"pick_number"`
	Rate       float64   `json:"rate"` // percentage points, not a fraction
	Timestamp  time.Time `json:"timestamp"`
}

// Result describes the rate change over the window actually used.
type Result struct {
	Direction  Direction `json:"direction"`
	Change     float64   `json:"change"`      // percentage points
	PickWindow int       `json:"pick_window"` // actual pick distance used
}

// Calculate compares the most recent rate against the rate windowSize picks
// back. When no entry sits exactly at currentPick − windowSize, it falls
// back to the closest earlier entry, then to the very first entry, and
// reports the pick distance it actually used.
//
// Fewer than two entries, or a draft still inside the window, yield a stable
// result with PickWindow set to currentPick.
func Calculate(history []Entry, currentPick, windowSize int) Result {
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	if len(history) < 2 || currentPick < windowSize {
		return Result{Direction: Stable, Change: 0, PickWindow: currentPick}
	}

	entries := make([]Entry, len(history))
	copy(entries, history)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PickNumber < entries[j].PickNumber
	})

	current := entries[len(entries)-1]
	target := currentPick - windowSize

	previous := entries[0]
	for _, e := range entries {
		if e.PickNumber > target {
			break
		}
		// Exact match or the closest entry at/before the target.
		previous = e
	}

	change := current.Rate - previous.Rate

	direction := Stable
	switch {
	case change >= changeThreshold:
		direction = Heating
	case change <= -changeThreshold:
		direction = Cooling
	}

	return Result{
		Direction:  direction,
		Change:     change,
		PickWindow: currentPick - previous.PickNumber,
	}
}

// Icon returns a compact glyph for the direction.
func (d Direction) Icon() string {
	switch d {
	case Heating:
		return "🔥"
	case Cooling:
		return "❄️"
	default:
		return "→"
	}
}

// Color returns the display color name for the direction.
func (d Direction) Color() string {
	switch d {
	case Heating:
		return "red"
	case Cooling:
		return "blue"
	default:
		return "gray"
	}
}

// Label returns the human-readable name for the direction.
func (d Direction) Label() string {
	switch d {
	case Heating:
		return "Heating up"
	case Cooling:
		return "Cooling down"
	default:
		return "Stable"
	}
}

// Describe renders a one-line sentence for the result: the percentage-point
// magnitude to one decimal place over the window actually used.
func Describe(r Result) string {
	if r.PickWindow < DefaultWindow {
		return fmt.Sprintf("Not enough draft history yet (%d picks in)", r.PickWindow)
	}
	switch r.Direction {
	case Heating:
		return fmt.Sprintf("Inflation up %.1f points over the last %d picks", math.Abs(r.Change), r.PickWindow)
	case Cooling:
		return fmt.Sprintf("Inflation down %.1f points over the last %d picks", math.Abs(r.Change), r.PickWindow)
	default:
		return fmt.Sprintf("Inflation steady over the last %d picks", r.PickWindow)
	}
}

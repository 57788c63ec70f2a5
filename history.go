package microcap

import (
	"fmt"
	"iter"
	"slices"

	"github.com/petard/microcap/date"
)

// EquityHistory is the ordered series of end-of-day snapshots. It holds at
// most one snapshot per date: appending a day that already exists replaces
// it, which is what makes a daily run safe to repeat.
type EquityHistory struct {
	snapshots []EquitySnapshot
}

// Append inserts the snapshot in date order, replacing any snapshot
// already recorded for the same day.
func (h *EquityHistory) Append(s EquitySnapshot) {
	i, found := slices.BinarySearchFunc(h.snapshots, s, func(a, b EquitySnapshot) int {
		return a.Date.Compare(b.Date)
	})
	if found {
		h.snapshots[i] = s
		return
	}
	h.snapshots = slices.Insert(h.snapshots, i, s)
}

// Len returns the number of recorded days.
func (h *EquityHistory) Len() int { return len(h.snapshots) }

// Latest returns the most recent snapshot.
func (h *EquityHistory) Latest() (EquitySnapshot, bool) {
	if len(h.snapshots) == 0 {
		return EquitySnapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// LatestBefore returns the most recent snapshot strictly before a day. It
// is the opening state for processing that day, so re-running an already
// recorded day starts from the same book it started from the first time.
func (h *EquityHistory) LatestBefore(on date.Date) (EquitySnapshot, bool) {
	for i := len(h.snapshots) - 1; i >= 0; i-- {
		if h.snapshots[i].Date.Before(on) {
			return h.snapshots[i], true
		}
	}
	return EquitySnapshot{}, false
}

// Get returns the snapshot recorded for a day, if any.
func (h *EquityHistory) Get(on date.Date) (EquitySnapshot, bool) {
	i, found := slices.BinarySearchFunc(h.snapshots, EquitySnapshot{Date: on}, func(a, b EquitySnapshot) int {
		return a.Date.Compare(b.Date)
	})
	if !found {
		return EquitySnapshot{}, false
	}
	return h.snapshots[i], true
}

// Snapshots iterates the snapshots in chronological order.
func (h *EquityHistory) Snapshots() iter.Seq[EquitySnapshot] {
	return func(yield func(EquitySnapshot) bool) {
		for _, s := range h.snapshots {
			if !yield(s) {
				return
			}
		}
	}
}

// Equity returns the total-equity curve, the input to the performance
// statistics.
func (h *EquityHistory) Equity() *date.History[float64] {
	curve := &date.History[float64]{}
	for _, s := range h.snapshots {
		curve.Append(s.Date, s.TotalEquity.InexactFloat64())
	}
	return curve
}

// StartingEquity returns the first recorded total equity.
func (h *EquityHistory) StartingEquity() (Money, error) {
	if len(h.snapshots) == 0 {
		return Money{}, fmt.Errorf("equity history is empty")
	}
	return h.snapshots[0].TotalEquity, nil
}

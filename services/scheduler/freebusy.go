// File: services/scheduler/freebusy.go
package scheduler

import (
	"sort"
	"time"
)

// BusyInterval is a range already occupied on the user's calendar.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FreeGap is a maximal stretch of the window not covered by busy time.
type FreeGap struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Minutes returns the gap length in whole minutes, floored.
func (g FreeGap) Minutes() int {
	return int(g.End.Sub(g.Start) / time.Minute)
}

func clampToWindow(t time.Time, w TimeWindow) time.Time {
	if t.Before(w.Start) {
		return w.Start
	}
	if t.After(w.End) {
		return w.End
	}
	return t
}

// mergeBusy sorts intervals by start and folds overlapping or touching ones together.
func mergeBusy(slots []BusyInterval) []BusyInterval {
	sorted := make([]BusyInterval, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]BusyInterval, 0, len(sorted))
	for _, s := range sorted {
		if n := len(merged); n > 0 && !s.Start.After(merged[n-1].End) {
			if s.End.After(merged[n-1].End) {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// ComputeFreeGaps returns the window minus the union of busy, in chronological order.
//
// Busy intervals may be unsorted, overlapping, empty or outside the window. An
// inverted or empty window has no free time.
func ComputeFreeGaps(window TimeWindow, busy []BusyInterval) []FreeGap {
	gaps := make([]FreeGap, 0)
	if window.Empty() {
		return gaps
	}

	inside := make([]BusyInterval, 0, len(busy))
	for _, b := range busy {
		if !b.End.After(window.Start) || !b.Start.Before(window.End) {
			continue
		}
		c := BusyInterval{Start: clampToWindow(b.Start, window), End: clampToWindow(b.End, window)}
		if !c.End.After(c.Start) {
			continue
		}
		inside = append(inside, c)
	}

	cursor := window.Start
	for _, b := range mergeBusy(inside) {
		if b.Start.After(cursor) {
			gaps = append(gaps, FreeGap{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		gaps = append(gaps, FreeGap{Start: cursor, End: window.End})
	}
	return gaps
}

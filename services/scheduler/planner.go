// File: services/scheduler/planner.go
package scheduler

import "time"

// DefaultMinBlockMinutes is the smallest block the planner emits when splitting.
const DefaultMinBlockMinutes = 30

// ScheduleBlock is one proposed focus interval in a generated batch.
type ScheduleBlock struct {
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	BlockIndex  int       `json:"blockIndex"`
	TotalBlocks int       `json:"totalBlocks"`
}

// Minutes returns the block length in whole minutes.
func (b ScheduleBlock) Minutes() int {
	return int(b.EndTime.Sub(b.StartTime) / time.Minute)
}

// PlanBlocks places durationMinutes of focus time into gaps.
//
// The earliest gap that holds the whole duration wins and produces a single
// block. Otherwise the duration is split across gaps of at least
// minBlockMinutes, each piece rounded down to a multiple of minBlockMinutes but
// never below it. That rounding can over-allocate on the last gap; callers rely
// on the current behaviour, so keep it.
//
// An empty result means no feasible schedule. durationMinutes <= 0 yields an
// empty plan and minBlockMinutes < 1 is treated as 1.
func PlanBlocks(gaps []FreeGap, durationMinutes, minBlockMinutes int) []ScheduleBlock {
	blocks := make([]ScheduleBlock, 0)
	if durationMinutes <= 0 {
		return blocks
	}
	if minBlockMinutes < 1 {
		minBlockMinutes = 1
	}

	for _, g := range gaps {
		if g.Minutes() >= durationMinutes {
			return append(blocks, ScheduleBlock{
				StartTime:   g.Start,
				EndTime:     g.Start.Add(time.Duration(durationMinutes) * time.Minute),
				BlockIndex:  1,
				TotalBlocks: 1,
			})
		}
	}

	remaining := durationMinutes
	for _, g := range gaps {
		if remaining <= 0 {
			break
		}
		gapMinutes := g.Minutes()
		if gapMinutes < minBlockMinutes {
			continue
		}

		take := min(remaining, gapMinutes)
		rounded := max(minBlockMinutes, (take/minBlockMinutes)*minBlockMinutes)

		blocks = append(blocks, ScheduleBlock{
			StartTime: g.Start,
			EndTime:   g.Start.Add(time.Duration(rounded) * time.Minute),
		})
		remaining -= rounded
	}

	for i := range blocks {
		blocks[i].BlockIndex = i + 1
		blocks[i].TotalBlocks = len(blocks)
	}
	return blocks
}

// BuildPreview runs the merger and the planner over one window.
func BuildPreview(window TimeWindow, busy []BusyInterval, durationMinutes, minBlockMinutes int) []ScheduleBlock {
	return PlanBlocks(ComputeFreeGaps(window, busy), durationMinutes, minBlockMinutes)
}

package reflection

import (
	"context"
	"fmt"
	"strings"

	"morningfocus/models"
	"morningfocus/services"
	"morningfocus/services/calendar"
	"morningfocus/services/scheduler"
	"morningfocus/utils"

	"go.uber.org/zap"
)

// DefaultTitle names blocks of a reflection without a top task.
const DefaultTitle = "Focus"

// TitleBase is the top task, or DefaultTitle when none is set.
func TitleBase(r *models.Reflection) string {
	if t := strings.TrimSpace(r.TopTask); t != "" {
		return t
	}
	return DefaultTitle
}

// EventSummary renders the calendar title of block i of n.
func EventSummary(title string, blockIndex, totalBlocks int, split bool) string {
	if split {
		return fmt.Sprintf("[Focus %d/%d] %s", blockIndex, totalBlocks, title)
	}
	return "[Focus] " + title
}

// Preview proposes focus blocks on req.ScheduleDate around the active
// provider's busy time. Hours default to the saved schedulable hours.
// An end hour at or before the start hour is rejected rather than
// previewed as an empty schedule.
func (s *DefaultReflectionService) Preview(ctx context.Context, id string, req models.PreviewScheduleRequest) (*models.PreviewScheduleResponse, error) {
	date, err := scheduler.ParseDate(strings.TrimSpace(req.ScheduleDate))
	if err != nil {
		return nil, services.Invalid("scheduleDate", "scheduleDate must be YYYY-MM-DD")
	}
	if req.DurationMinutes <= 0 {
		return nil, services.Invalid("durationMinutes", "durationMinutes must be a positive integer")
	}

	reflection, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	hourStart, hourEnd := st.SchedulableHoursStart, st.SchedulableHoursEnd
	if req.SchedulableHoursStart != nil {
		hourStart = *req.SchedulableHoursStart
	}
	if req.SchedulableHoursEnd != nil {
		hourEnd = *req.SchedulableHoursEnd
	}
	if hourStart < 0 || hourStart > 23 {
		return nil, services.Invalid("schedulableHoursStart", "schedulableHoursStart must be between 0 and 23")
	}
	if hourEnd < 1 || hourEnd > 24 {
		return nil, services.Invalid("schedulableHoursEnd", "schedulableHoursEnd must be between 1 and 24")
	}
	if hourEnd <= hourStart {
		return nil, services.Invalid("schedulableHoursEnd", "schedulableHoursEnd must be after schedulableHoursStart")
	}

	provider, err := s.Calendars.ProviderFor(st)
	if err != nil {
		return nil, err
	}

	window := scheduler.BuildWindow(date, hourStart, hourEnd, s.UTCOffsetMinutes)
	busy, err := provider.FetchBusy(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch busy time from %s: %w", provider.Name(), err)
	}

	planned := scheduler.BuildPreview(window, busy, req.DurationMinutes, s.MinBlockMinutes)
	blocks := make([]models.PreviewScheduleBlock, 0, len(planned))
	for _, b := range planned {
		blocks = append(blocks, models.PreviewScheduleBlock{
			StartTimeISO: utils.FormatISO(b.StartTime),
			EndTimeISO:   utils.FormatISO(b.EndTime),
			BlockIndex:   b.BlockIndex,
			TotalBlocks:  b.TotalBlocks,
		})
	}

	s.Logger.Debug("schedule preview",
		zap.String("reflectionId", id),
		zap.String("date", date.String()),
		zap.Int("busy", len(busy)),
		zap.Int("blocks", len(blocks)),
	)

	return &models.PreviewScheduleResponse{
		Provider:  provider.Name(),
		TitleBase: TitleBase(reflection),
		Blocks:    blocks,
	}, nil
}

// Confirm creates one calendar event per block and replaces the stored
// blocks of the reflection with the new batch. Confirms of the same
// reflection run one at a time.
func (s *DefaultReflectionService) Confirm(ctx context.Context, id string, req models.ConfirmScheduleRequest) (*models.ConfirmScheduleResponse, error) {
	if len(req.Blocks) == 0 {
		return nil, services.Invalid("blocks", "at least one block is required")
	}

	pending := make([]models.ScheduledBlock, 0, len(req.Blocks))
	for i, b := range req.Blocks {
		start, err := utils.ParseISO(b.StartTimeISO)
		if err != nil {
			return nil, services.Invalid("blocks", "blocks[%d].startTimeIso must be an ISO 8601 instant", i)
		}
		end, err := utils.ParseISO(b.EndTimeISO)
		if err != nil {
			return nil, services.Invalid("blocks", "blocks[%d].endTimeIso must be an ISO 8601 instant", i)
		}
		if !end.After(start) {
			return nil, services.Invalid("blocks", "blocks[%d] must end after it starts", i)
		}
		if b.BlockIndex < 1 {
			return nil, services.Invalid("blocks", "blocks[%d].blockIndex must be a positive integer", i)
		}
		if b.TotalBlocks < 1 {
			return nil, services.Invalid("blocks", "blocks[%d].totalBlocks must be a positive integer", i)
		}
		pending = append(pending, models.ScheduledBlock{
			ReflectionID: id,
			StartTime:    start.UTC(),
			EndTime:      end.UTC(),
			BlockIndex:   b.BlockIndex,
			TotalBlocks:  b.TotalBlocks,
		})
	}

	unlock := s.confirmLocks.Lock(id)
	defer unlock()

	reflection, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	provider, err := s.Calendars.ProviderFor(st)
	if err != nil {
		return nil, err
	}

	title := TitleBase(reflection)
	split := len(pending) > 1
	created := make([]string, 0, len(pending))
	for i := range pending {
		b := &pending[i]
		eventID, err := provider.CreateEvent(ctx, calendar.Event{
			Summary:     EventSummary(title, b.BlockIndex, b.TotalBlocks, split),
			Description: calendar.DefaultEventDescription,
			Start:       b.StartTime,
			End:         b.EndTime,
		})
		if err != nil {
			s.Logger.Error("failed to create calendar event",
				zap.String("reflectionId", id),
				zap.String("provider", provider.Name()),
				zap.Int("blockIndex", b.BlockIndex),
				zap.Strings("createdEventIds", created),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to create %s event for block %d: %w", provider.Name(), b.BlockIndex, err)
		}
		b.CalendarEventID = eventID
		created = append(created, eventID)
	}

	saved, err := s.BlockStore.ReplaceForReflection(ctx, id, pending)
	if err != nil {
		return nil, err
	}
	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ConfirmScheduleResponse{Reflection: updated, SavedBlocks: saved}, nil
}

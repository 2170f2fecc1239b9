package reflection

import (
	"context"
	"errors"
	"strings"

	"morningfocus/database"
	blocksRepo "morningfocus/database/repository/blocks"
	reflectionRepo "morningfocus/database/repository/reflection"
	"morningfocus/models"
	"morningfocus/services"
	"morningfocus/services/calendar"
	"morningfocus/services/intelligence"
	"morningfocus/services/scheduler"
	"morningfocus/services/settings"

	"go.uber.org/zap"
)

// ErrReflectionNotFound is returned for an unknown reflection id.
var ErrReflectionNotFound = errors.New("reflection not found")

// ReflectionService runs the evening flow: journal, plan, preview, confirm.
type ReflectionService interface {
	Create(ctx context.Context, req models.CreateReflectionRequest) (*models.Reflection, error)
	List(ctx context.Context) ([]models.ReflectionHistoryItem, error)
	Streak(ctx context.Context) (*models.StreakResponse, error)
	Get(ctx context.Context, id string) (*models.Reflection, error)
	Blocks(ctx context.Context, id string) (*models.Reflection, []models.ScheduledBlock, error)
	Plan(ctx context.Context, id string, req models.PlanTaskRequest) (*models.PlanTaskResponse, error)
	Preview(ctx context.Context, id string, req models.PreviewScheduleRequest) (*models.PreviewScheduleResponse, error)
	Confirm(ctx context.Context, id string, req models.ConfirmScheduleRequest) (*models.ConfirmScheduleResponse, error)
	SetCompleted(ctx context.Context, id string, completed bool) (*models.Reflection, error)
}

// ProviderSelector picks the calendar provider named by settings.
type ProviderSelector interface {
	ProviderFor(st *models.UserSettings) (calendar.Provider, error)
}

type DefaultReflectionService struct {
	Reflections reflectionRepo.ReflectionRepository
	BlockStore  blocksRepo.BlocksRepository
	Settings    settings.SettingsService
	Calendars   ProviderSelector
	Feedback    intelligence.FeedbackService
	Logger      *zap.Logger

	UTCOffsetMinutes int
	MinBlockMinutes  int

	confirmLocks keyedMutex
}

func NewDefaultReflectionService(
	reflections reflectionRepo.ReflectionRepository,
	blocks blocksRepo.BlocksRepository,
	settingsSvc settings.SettingsService,
	calendars ProviderSelector,
	feedback intelligence.FeedbackService,
	utcOffsetMinutes, minBlockMinutes int,
	logger *zap.Logger,
) *DefaultReflectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minBlockMinutes <= 0 {
		minBlockMinutes = scheduler.DefaultMinBlockMinutes
	}
	return &DefaultReflectionService{
		Reflections:      reflections,
		BlockStore:       blocks,
		Settings:         settingsSvc,
		Calendars:        calendars,
		Feedback:         feedback,
		Logger:           logger,
		UTCOffsetMinutes: utcOffsetMinutes,
		MinBlockMinutes:  minBlockMinutes,
	}
}

// Create upserts the reflection for req.Date.
func (s *DefaultReflectionService) Create(ctx context.Context, req models.CreateReflectionRequest) (*models.Reflection, error) {
	date, err := scheduler.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return nil, services.Invalid("date", "date must be YYYY-MM-DD")
	}
	text := strings.TrimSpace(req.ReflectionText)
	if text == "" {
		return nil, services.Invalid("reflectionText", "reflectionText is required")
	}
	return s.Reflections.UpsertByDate(ctx, date.String(), text)
}

func (s *DefaultReflectionService) Get(ctx context.Context, id string) (*models.Reflection, error) {
	r, err := s.Reflections.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrReflectionNotFound
	}
	return r, err
}

// List returns every reflection, newest first, each with its blocks.
func (s *DefaultReflectionService) List(ctx context.Context) ([]models.ReflectionHistoryItem, error) {
	rows, err := s.Reflections.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	grouped, err := s.BlockStore.ListByReflections(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.ReflectionHistoryItem, 0, len(rows))
	for _, r := range rows {
		blocks := grouped[r.ID]
		if blocks == nil {
			blocks = []models.ScheduledBlock{}
		}
		items = append(items, models.ReflectionHistoryItem{Reflection: r, Blocks: blocks})
	}
	return items, nil
}

// Streak counts consecutive calendar days with a reflection, ending at the latest one.
func (s *DefaultReflectionService) Streak(ctx context.Context) (*models.StreakResponse, error) {
	rows, err := s.Reflections.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	return computeStreak(rows), nil
}

func computeStreak(rows []models.Reflection) *models.StreakResponse {
	seen := make(map[string]bool, len(rows))
	latest := ""
	for _, r := range rows {
		seen[r.Date] = true
		if r.Date > latest {
			latest = r.Date
		}
	}
	if latest == "" {
		return &models.StreakResponse{}
	}

	cursor, err := scheduler.ParseDate(latest)
	if err != nil {
		return &models.StreakResponse{LatestDate: latest}
	}
	streak := 0
	for seen[cursor.String()] {
		streak++
		cursor = cursor.AddDays(-1)
	}
	return &models.StreakResponse{Streak: streak, LatestDate: latest}
}

// Blocks returns the reflection and its confirmed blocks ordered by index.
func (s *DefaultReflectionService) Blocks(ctx context.Context, id string) (*models.Reflection, []models.ScheduledBlock, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := s.BlockStore.ListByReflection(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return r, blocks, nil
}

func (s *DefaultReflectionService) SetCompleted(ctx context.Context, id string, completed bool) (*models.Reflection, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	r, err := s.Reflections.SetCompleted(ctx, id, completed)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrReflectionNotFound
	}
	return r, err
}

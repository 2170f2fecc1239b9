package reflection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"morningfocus/database"
	"morningfocus/models"
	"morningfocus/services"
	"morningfocus/services/calendar"
	"morningfocus/services/scheduler"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memReflections struct {
	mu   sync.Mutex
	rows map[string]*models.Reflection
}

func newMemReflections() *memReflections {
	return &memReflections{rows: map[string]*models.Reflection{}}
}

func (m *memReflections) UpsertByDate(_ context.Context, date, text string) (*models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Date == date {
			r.ReflectionText = text
			cp := *r
			return &cp, nil
		}
	}
	r := &models.Reflection{
		ID:                       uuid.NewString(),
		Date:                     date,
		ReflectionText:           text,
		EstimatedDurationMinutes: models.DefaultDurationMinutes,
		CreatedAt:                time.Now(),
	}
	m.rows[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *memReflections) GetByID(_ context.Context, id string) (*models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReflections) List(_ context.Context, limit int) ([]models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Reflection, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReflections) SetPlannedTask(_ context.Context, id, topTask, feedback string, duration int) (*models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	r.TopTask, r.AIFeedback, r.EstimatedDurationMinutes = topTask, feedback, duration
	cp := *r
	return &cp, nil
}

func (m *memReflections) SetCompleted(_ context.Context, id string, completed bool) (*models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	r.Completed = completed
	cp := *r
	return &cp, nil
}

func (m *memReflections) add(date, topTask string) *models.Reflection {
	r, _ := m.UpsertByDate(context.Background(), date, "text for "+date)
	if topTask != "" {
		r, _ = m.SetPlannedTask(context.Background(), r.ID, topTask, "", 60)
	}
	return r
}

type memBlocks struct {
	mu       sync.Mutex
	byRef    map[string][]models.ScheduledBlock
	replaces int
}

func newMemBlocks() *memBlocks {
	return &memBlocks{byRef: map[string][]models.ScheduledBlock{}}
}

func (m *memBlocks) ReplaceForReflection(_ context.Context, id string, blocks []models.ScheduledBlock) ([]models.ScheduledBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	out := make([]models.ScheduledBlock, len(blocks))
	for i, b := range blocks {
		b.ID = uuid.NewString()
		b.ReflectionID = id
		out[i] = b
	}
	m.byRef[id] = out
	return out, nil
}

func (m *memBlocks) ListByReflection(_ context.Context, id string) ([]models.ScheduledBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ScheduledBlock{}, m.byRef[id]...), nil
}

func (m *memBlocks) ListByReflections(_ context.Context, ids []string) (map[string][]models.ScheduledBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]models.ScheduledBlock{}
	for _, id := range ids {
		if b, ok := m.byRef[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

type fakeSettings struct {
	st models.UserSettings
}

func (f *fakeSettings) Get(context.Context) (*models.UserSettings, error) {
	cp := f.st
	return &cp, nil
}
func (f *fakeSettings) Update(context.Context, models.SettingsPatch) (*models.UserSettings, error) {
	return nil, errors.New("not used")
}
func (f *fakeSettings) SetLarkCredentials(context.Context, string, string) error { return nil }
func (f *fakeSettings) SetGoogleDisabled(context.Context, bool) error           { return nil }
func (f *fakeSettings) SetCalendarProvider(context.Context, string) error       { return nil }
func (f *fakeSettings) LarkCredentials(context.Context) (string, string, error) {
	return "", "", nil
}

type fakeProvider struct {
	name     string
	busy     []scheduler.BusyInterval
	busyErr  error
	eventErr error
	// failAfter makes CreateEvent fail once that many events exist.
	failAfter int

	mu         sync.Mutex
	gotMin     time.Time
	gotMax     time.Time
	events     []calendar.Event
	inFlight   int32
	overlapped bool
}

func (p *fakeProvider) Name() string                   { return p.name }
func (p *fakeProvider) Connected(context.Context) bool { return true }

func (p *fakeProvider) FetchBusy(_ context.Context, min, max time.Time) ([]scheduler.BusyInterval, error) {
	p.gotMin, p.gotMax = min, max
	return p.busy, p.busyErr
}

func (p *fakeProvider) CreateEvent(_ context.Context, ev calendar.Event) (string, error) {
	if atomic.AddInt32(&p.inFlight, 1) > 1 {
		p.overlapped = true
	}
	defer atomic.AddInt32(&p.inFlight, -1)
	time.Sleep(time.Millisecond)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.eventErr != nil && (p.failAfter == 0 || len(p.events) >= p.failAfter) {
		return "", p.eventErr
	}
	p.events = append(p.events, ev)
	return fmt.Sprintf("evt-%d", len(p.events)), nil
}

type fakeSelector struct {
	provider *fakeProvider
}

func (f fakeSelector) ProviderFor(st *models.UserSettings) (calendar.Provider, error) {
	if st.CalendarProvider == models.ProviderGoogle && st.GoogleDisabled {
		return nil, calendar.ErrProviderDisabled
	}
	return f.provider, nil
}

type fakeFeedback struct {
	in  models.PlanInput
	out models.PlanOutput
	err error
}

func (f *fakeFeedback) GeneratePlan(_ context.Context, in models.PlanInput) (*models.PlanOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	out := f.out
	return &out, nil
}

type fixture struct {
	svc         *DefaultReflectionService
	reflections *memReflections
	blocks      *memBlocks
	settings    *fakeSettings
	provider    *fakeProvider
	feedback    *fakeFeedback
}

func newFixture() *fixture {
	f := &fixture{
		reflections: newMemReflections(),
		blocks:      newMemBlocks(),
		settings:    &fakeSettings{st: models.DefaultSettings()},
		provider:    &fakeProvider{name: models.ProviderGoogle},
		feedback: &fakeFeedback{out: models.PlanOutput{
			AIFeedback:               "Good day.",
			FollowUpQuestion:         "How long?",
			SuggestedDurationMinutes: 90,
		}},
	}
	f.svc = NewDefaultReflectionService(
		f.reflections, f.blocks, f.settings, fakeSelector{provider: f.provider}, f.feedback,
		scheduler.DefaultUTCOffsetMinutes, 30, nil,
	)
	return f
}

func intPtr(i int) *int { return &i }

func requireInvalid(t *testing.T, err error, field string) {
	t.Helper()
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, field, verr.Field)
}

func utc(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC)
}

func TestCreate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, models.CreateReflectionRequest{Date: "2024-3-1", ReflectionText: "x"})
	requireInvalid(t, err, "date")

	_, err = f.svc.Create(ctx, models.CreateReflectionRequest{Date: "2024-03-01", ReflectionText: "   "})
	requireInvalid(t, err, "reflectionText")

	first, err := f.svc.Create(ctx, models.CreateReflectionRequest{Date: "2024-03-01", ReflectionText: "first"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, models.CreateReflectionRequest{Date: "2024-03-01", ReflectionText: "second"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "second", second.ReflectionText)
}

func TestStreak(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.Streak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Streak)
	assert.Empty(t, resp.LatestDate)

	for _, d := range []string{"2024-02-27", "2024-02-29", "2024-03-01", "2024-03-02"} {
		f.reflections.add(d, "")
	}
	resp, err = f.svc.Streak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Streak)
	assert.Equal(t, "2024-03-02", resp.LatestDate)
}

func TestListIncludesBlocks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	older := f.reflections.add("2024-02-29", "")
	newer := f.reflections.add("2024-03-01", "")
	_, _ = f.blocks.ReplaceForReflection(ctx, older.ID, []models.ScheduledBlock{{BlockIndex: 1, TotalBlocks: 1}})

	items, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.NotNil(t, items[0].Blocks)
	assert.Empty(t, items[0].Blocks)
	assert.Len(t, items[1].Blocks, 1)
}

func TestPlan(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.reflections.add("2024-02-28", "old task")
	r := f.reflections.add("2024-03-01", "")

	_, err := f.svc.Plan(ctx, "missing", models.PlanTaskRequest{TopTask: "x"})
	assert.ErrorIs(t, err, ErrReflectionNotFound)

	_, err = f.svc.Plan(ctx, r.ID, models.PlanTaskRequest{TopTask: " "})
	requireInvalid(t, err, "topTask")

	_, err = f.svc.Plan(ctx, r.ID, models.PlanTaskRequest{TopTask: "x", DurationMinutes: intPtr(0)})
	requireInvalid(t, err, "durationMinutes")

	resp, err := f.svc.Plan(ctx, r.ID, models.PlanTaskRequest{TopTask: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, 90, resp.SuggestedDurationMinutes)
	assert.Equal(t, "Good day.", resp.AIFeedback)
	assert.Equal(t, "How long?", resp.FollowUpQuestion)
	assert.Equal(t, "Write report", resp.Reflection.TopTask)
	assert.Equal(t, 90, resp.Reflection.EstimatedDurationMinutes)

	assert.Equal(t, models.LanguageKorean, f.feedback.in.Language)
	assert.Equal(t, "text for 2024-03-01", f.feedback.in.ReflectionText)
	require.Len(t, f.feedback.in.RecentReflections, 2)
	assert.Equal(t, "2024-03-01", f.feedback.in.RecentReflections[0].Date)

	resp, err = f.svc.Plan(ctx, r.ID, models.PlanTaskRequest{TopTask: "Write report", DurationMinutes: intPtr(45)})
	require.NoError(t, err)
	assert.Equal(t, 45, resp.SuggestedDurationMinutes)
	assert.Equal(t, 45, resp.Reflection.EstimatedDurationMinutes)
}

func TestPlanFeedbackError(t *testing.T) {
	f := newFixture()
	r := f.reflections.add("2024-03-01", "")
	f.feedback.err = errors.New("model unavailable")

	_, err := f.svc.Plan(context.Background(), r.ID, models.PlanTaskRequest{TopTask: "x"})
	require.Error(t, err)
	stored, _ := f.reflections.GetByID(context.Background(), r.ID)
	assert.Empty(t, stored.TopTask)
}

func TestPreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")

	// 09:00-10:00 KST free, 10:00-11:00 KST busy.
	f.provider.busy = []scheduler.BusyInterval{{Start: utc(1, 0), End: utc(2, 0)}}

	resp, err := f.svc.Preview(ctx, r.ID, models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 60})
	require.NoError(t, err)

	assert.True(t, f.provider.gotMin.Equal(utc(0, 0)))
	assert.True(t, f.provider.gotMax.Equal(utc(10, 0)))
	assert.Equal(t, models.ProviderGoogle, resp.Provider)
	assert.Equal(t, DefaultTitle, resp.TitleBase)
	require.Len(t, resp.Blocks, 1)
	assert.Equal(t, models.PreviewScheduleBlock{
		StartTimeISO: "2024-03-01T00:00:00.000Z",
		EndTimeISO:   "2024-03-01T01:00:00.000Z",
		BlockIndex:   1,
		TotalBlocks:  1,
	}, resp.Blocks[0])
}

func TestPreviewSplitsAndOverridesHours(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "Deep work")

	// Window 09:00-12:00 KST with 10:00-11:00 busy leaves two one-hour gaps.
	f.provider.busy = []scheduler.BusyInterval{{Start: utc(1, 0), End: utc(2, 0)}}
	resp, err := f.svc.Preview(ctx, r.ID, models.PreviewScheduleRequest{
		ScheduleDate:          "2024-03-01",
		DurationMinutes:       120,
		SchedulableHoursStart: intPtr(9),
		SchedulableHoursEnd:   intPtr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "Deep work", resp.TitleBase)
	require.Len(t, resp.Blocks, 2)
	assert.Equal(t, "2024-03-01T02:00:00.000Z", resp.Blocks[1].StartTimeISO)
	assert.Equal(t, 2, resp.Blocks[1].TotalBlocks)
}

func TestPreviewInfeasibleIsEmpty(t *testing.T) {
	f := newFixture()
	r := f.reflections.add("2024-02-29", "")
	f.provider.busy = []scheduler.BusyInterval{{Start: utc(0, 0), End: utc(10, 0)}}

	resp, err := f.svc.Preview(context.Background(), r.ID, models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 30})
	require.NoError(t, err)
	assert.NotNil(t, resp.Blocks)
	assert.Empty(t, resp.Blocks)
}

func TestPreviewValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")

	cases := []struct {
		name  string
		req   models.PreviewScheduleRequest
		field string
	}{
		{"bad date", models.PreviewScheduleRequest{ScheduleDate: "tomorrow", DurationMinutes: 30}, "scheduleDate"},
		{"zero duration", models.PreviewScheduleRequest{ScheduleDate: "2024-03-01"}, "durationMinutes"},
		{"start out of range", models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 30, SchedulableHoursStart: intPtr(24)}, "schedulableHoursStart"},
		{"end out of range", models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 30, SchedulableHoursEnd: intPtr(25)}, "schedulableHoursEnd"},
		{"inverted", models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 30, SchedulableHoursStart: intPtr(12), SchedulableHoursEnd: intPtr(12)}, "schedulableHoursEnd"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.svc.Preview(ctx, r.ID, c.req)
			requireInvalid(t, err, c.field)
		})
	}

	_, err := f.svc.Preview(ctx, "missing", models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrReflectionNotFound)
}

func TestPreviewProviderFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")
	req := models.PreviewScheduleRequest{ScheduleDate: "2024-03-01", DurationMinutes: 30}

	f.provider.busyErr = calendar.ErrNotConnected
	_, err := f.svc.Preview(ctx, r.ID, req)
	assert.ErrorIs(t, err, calendar.ErrNotConnected)

	f.settings.st.GoogleDisabled = true
	_, err = f.svc.Preview(ctx, r.ID, req)
	assert.ErrorIs(t, err, calendar.ErrProviderDisabled)
}

func TestConfirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "Write report")

	resp, err := f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T00:00:00.000Z", EndTimeISO: "2024-03-01T01:00:00.000Z", BlockIndex: 1, TotalBlocks: 2},
		{StartTimeISO: "2024-03-01T11:00:00+09:00", EndTimeISO: "2024-03-01T12:00:00+09:00", BlockIndex: 2, TotalBlocks: 2},
	}})
	require.NoError(t, err)

	require.Len(t, f.provider.events, 2)
	assert.Equal(t, "[Focus 1/2] Write report", f.provider.events[0].Summary)
	assert.Equal(t, "[Focus 2/2] Write report", f.provider.events[1].Summary)
	assert.Equal(t, calendar.DefaultEventDescription, f.provider.events[0].Description)
	assert.True(t, f.provider.events[1].Start.Equal(utc(2, 0)))

	require.Len(t, resp.SavedBlocks, 2)
	assert.Equal(t, "evt-1", resp.SavedBlocks[0].CalendarEventID)
	assert.Equal(t, "evt-2", resp.SavedBlocks[1].CalendarEventID)
	assert.Equal(t, r.ID, resp.Reflection.ID)

	// A second confirm replaces the first batch.
	resp, err = f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T03:00:00Z", EndTimeISO: "2024-03-01T04:00:00Z", BlockIndex: 1, TotalBlocks: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, "[Focus] Write report", f.provider.events[2].Summary)
	stored, _ := f.blocks.ListByReflection(ctx, r.ID)
	assert.Len(t, stored, 1)
	assert.Equal(t, resp.SavedBlocks, stored)
}

func TestConfirmValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")

	_, err := f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{})
	requireInvalid(t, err, "blocks")

	_, err = f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "nine", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: 1},
	}})
	requireInvalid(t, err, "blocks")

	_, err = f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T01:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: 1},
	}})
	requireInvalid(t, err, "blocks")

	for _, b := range []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 0, TotalBlocks: 1},
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: -1, TotalBlocks: 0},
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: 0},
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: -3},
	} {
		_, err = f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{b}})
		requireInvalid(t, err, "blocks")
	}

	_, err = f.svc.Confirm(ctx, "missing", models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: 1},
	}})
	assert.ErrorIs(t, err, ErrReflectionNotFound)
	assert.Empty(t, f.provider.events)
}

func TestConfirmFailureLogsCreatedEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	core, logs := observer.New(zap.ErrorLevel)
	f.svc.Logger = zap.New(core)
	r := f.reflections.add("2024-02-29", "")
	f.provider.eventErr = errors.New("lark api error")
	f.provider.failAfter = 1

	_, err := f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T00:30:00Z", BlockIndex: 1, TotalBlocks: 2},
		{StartTimeISO: "2024-03-01T02:00:00Z", EndTimeISO: "2024-03-01T02:30:00Z", BlockIndex: 2, TotalBlocks: 2},
	}})
	require.Error(t, err)

	entries := logs.FilterMessage("failed to create calendar event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"evt-1"}, entries[0].ContextMap()["createdEventIds"])
	stored, _ := f.blocks.ListByReflection(ctx, r.ID)
	assert.Empty(t, stored)
}

func TestConfirmProviderErrorKeepsPreviousBlocks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")
	_, _ = f.blocks.ReplaceForReflection(ctx, r.ID, []models.ScheduledBlock{{CalendarEventID: "old", BlockIndex: 1, TotalBlocks: 1}})
	f.provider.eventErr = errors.New("lark api error")

	_, err := f.svc.Confirm(ctx, r.ID, models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: 1},
	}})
	require.Error(t, err)
	stored, _ := f.blocks.ListByReflection(ctx, r.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, "old", stored[0].CalendarEventID)
}

func TestConfirmSerialisesSameReflection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")
	req := models.ConfirmScheduleRequest{Blocks: []models.PreviewScheduleBlock{
		{StartTimeISO: "2024-03-01T00:00:00Z", EndTimeISO: "2024-03-01T01:00:00Z", BlockIndex: 1, TotalBlocks: 1},
	}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Confirm(ctx, r.ID, req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, f.provider.overlapped)
	assert.Equal(t, 8, f.blocks.replaces)
	stored, _ := f.blocks.ListByReflection(ctx, r.ID)
	assert.Len(t, stored, 1)
}

func TestSetCompleted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	r := f.reflections.add("2024-02-29", "")

	updated, err := f.svc.SetCompleted(ctx, r.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	_, err = f.svc.SetCompleted(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrReflectionNotFound)
}

func TestKeyedMutexForgetsReleasedKeys(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock("a")
	unlock()
	assert.Empty(t, k.locks)
}

package cron

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"morningfocus/services/notification"
	"morningfocus/services/scheduler"
	"morningfocus/services/settings"
	"morningfocus/services/tasks"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SyncSpec is how often the scheduler re-reads notificationTime.
const SyncSpec = "@every 1m"

// ReminderScheduler fires the evening reminder at the user's notificationTime
// in the fixed offset and hands it to the asynq queue.
type ReminderScheduler struct {
	Settings         settings.SettingsService
	Queue            tasks.Enqueuer
	UTCOffsetMinutes int
	Logger           *zap.Logger
	Now              func() time.Time

	mu      sync.Mutex
	cron    *robfig.Cron
	entry   robfig.EntryID
	current string
}

func NewReminderScheduler(settingsSvc settings.SettingsService, queue tasks.Enqueuer, utcOffsetMinutes int, logger *zap.Logger) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{
		Settings:         settingsSvc,
		Queue:            queue,
		UTCOffsetMinutes: utcOffsetMinutes,
		Logger:           logger,
		Now:              time.Now,
		cron:             robfig.New(robfig.WithLocation(scheduler.Zone(utcOffsetMinutes))),
	}
}

// DailySpec turns "HH:MM" into a five-field cron spec.
func DailySpec(notificationTime string) (string, error) {
	parts := strings.Split(notificationTime, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid notification time %q", notificationTime)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid notification hour %q", notificationTime)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("invalid notification minute %q", notificationTime)
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

// Start schedules the reminder and a periodic resync, then runs the cron
// loop until ctx is done.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		s.Logger.Warn("reminder schedule not set", zap.Error(err))
	}
	if _, err := s.cron.AddFunc(SyncSpec, func() {
		if err := s.Sync(ctx); err != nil {
			s.Logger.Warn("reminder resync failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		s.Logger.Info("reminder scheduler stopped")
	}()
	return nil
}

// Sync reschedules the reminder when notificationTime changed.
func (s *ReminderScheduler) Sync(ctx context.Context) error {
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return err
	}
	spec, err := DailySpec(st.NotificationTime)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if spec == s.current {
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.Fire(ctx); err != nil {
			s.Logger.Error("failed to enqueue reminder", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry, s.current = id, spec
	s.Logger.Info("reminder scheduled", zap.String("time", st.NotificationTime), zap.String("spec", spec))
	return nil
}

// Fire enqueues today's reminder for immediate delivery.
func (s *ReminderScheduler) Fire(ctx context.Context) error {
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return err
	}
	now := s.Now()
	today := scheduler.Today(now, s.UTCOffsetMinutes)
	payload := notification.ReminderFor(st.Language, today.String())

	queued, err := tasks.EnqueueReminder(ctx, s.Queue, payload, now)
	if err != nil {
		return err
	}
	if !queued {
		s.Logger.Debug("reminder already queued", zap.String("reminderId", payload.ReminderID))
	}
	return nil
}

// Spec reports the active reminder spec.
func (s *ReminderScheduler) Spec() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

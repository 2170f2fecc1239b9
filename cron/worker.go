package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"morningfocus/config"
	"morningfocus/services/notification"
	"morningfocus/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisQueueOpt points asynq at the queue database.
func RedisQueueOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitReminderWorker runs the async worker in background and returns it for shutdown.
func InitReminderWorker(notifSvc notification.NotificationService, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisQueueOpt(),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(notifSvc, logger))

	go func() {
		logger.Info("starting reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Warn("reminder worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err),
			)
			if attempts == maxAttempts {
				logger.Error("reminder worker disabled after max retry attempts")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleReminderTask delivers one reminder. Reminders that can never be
// delivered are not retried.
func HandleReminderTask(notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderPayload(task)
		if err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}

		logger.Info("triggering reminder", zap.String("reminderId", p.ReminderID), zap.String("fireDate", p.FireDate))

		err = notifSvc.SendReminder(ctx, p)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, notification.ErrNoPushToken), errors.Is(err, notification.ErrPushDisabled):
			logger.Warn("reminder skipped", zap.String("reminderId", p.ReminderID), zap.Error(err))
			return nil
		default:
			logger.Error("failed to send reminder", zap.String("reminderId", p.ReminderID), zap.Error(err))
			return err
		}
	}
}

package notification

import (
	"context"
	"errors"
	"fmt"

	"morningfocus/models"
	"morningfocus/services/settings"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

var (
	// ErrNoPushToken means no device has registered for reminders.
	ErrNoPushToken = errors.New("no push token registered")
	// ErrPushDisabled means the FCM client is not configured.
	ErrPushDisabled = errors.New("push notifications are not configured")
)

// Sender is the part of *messaging.Client used to deliver pushes.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService delivers the evening reminder push.
type NotificationService interface {
	SendReminder(ctx context.Context, payload models.ReminderPayload) error
}

type DefaultNotificationService struct {
	Settings settings.SettingsService
	Sender   Sender
	Logger   *zap.Logger
}

func NewDefaultNotificationService(settingsSvc settings.SettingsService, sender Sender, logger *zap.Logger) *DefaultNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{Settings: settingsSvc, Sender: sender, Logger: logger}
}

// SendReminder pushes payload to the registered device.
func (s *DefaultNotificationService) SendReminder(ctx context.Context, payload models.ReminderPayload) error {
	if s.Sender == nil {
		return ErrPushDisabled
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("SendReminder: failed to load settings: %w", err)
	}
	if st.PushToken == "" {
		return ErrNoPushToken
	}

	msg := &messaging.Message{
		Token: st.PushToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: map[string]string{
			"type":       "evening_reminder",
			"reminderId": payload.ReminderID,
			"fireDate":   payload.FireDate,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := s.Sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("SendReminder: failed to send FCM message: %w", err)
	}
	s.Logger.Info("reminder sent", zap.String("reminderId", payload.ReminderID), zap.String("messageId", id))
	return nil
}

// ReminderFor builds the evening reminder for fireDate in the user's language.
func ReminderFor(language, fireDate string) models.ReminderPayload {
	p := models.ReminderPayload{
		ReminderID: "evening-" + fireDate,
		FireDate:   fireDate,
	}
	if language == models.LanguageEnglish {
		p.Title = "Time to reflect"
		p.Body = "How did today go? Write a short reflection and pick tomorrow's one thing."
	} else {
		p.Title = "회고할 시간이에요"
		p.Body = "오늘 하루는 어땠나요? 짧게 돌아보고 내일의 한 가지를 정해보세요."
	}
	return p
}

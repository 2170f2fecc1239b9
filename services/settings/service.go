package settings

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	settingsRepo "morningfocus/database/repository/settings"
	"morningfocus/models"
	"morningfocus/services"
	"morningfocus/utils"
)

var hhmm = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// SettingsService reads and updates the single settings document.
type SettingsService interface {
	Get(ctx context.Context) (*models.UserSettings, error)
	Update(ctx context.Context, patch models.SettingsPatch) (*models.UserSettings, error)
	SetLarkCredentials(ctx context.Context, appID, appSecret string) error
	SetGoogleDisabled(ctx context.Context, disabled bool) error
	SetCalendarProvider(ctx context.Context, provider string) error
	// LarkCredentials returns the saved app credentials, falling back to the configured ones.
	LarkCredentials(ctx context.Context) (appID, appSecret string, err error)
}

// DefaultSettingsService serialises read-modify-write cycles on the settings document.
type DefaultSettingsService struct {
	Repo   settingsRepo.SettingsRepository
	Sealer *utils.Sealer

	// Fallbacks used when no credentials are saved.
	FallbackLarkAppID     string
	FallbackLarkAppSecret string

	mu sync.Mutex
}

func (s *DefaultSettingsService) Get(ctx context.Context) (*models.UserSettings, error) {
	return s.Repo.Get(ctx)
}

// Update validates patch against the merged result and saves it.
// A larkAppSecret equal to the masked placeholder is ignored.
func (s *DefaultSettingsService) Update(ctx context.Context, patch models.SettingsPatch) (*models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := *current

	if patch.NotificationTime != nil {
		if !hhmm.MatchString(*patch.NotificationTime) {
			return nil, services.Invalid("notificationTime", "notificationTime must be HH:MM")
		}
		next.NotificationTime = *patch.NotificationTime
	}
	if patch.CalendarProvider != nil {
		if err := validateProvider(*patch.CalendarProvider); err != nil {
			return nil, err
		}
		next.CalendarProvider = *patch.CalendarProvider
	}
	if patch.SchedulableHoursStart != nil {
		v := *patch.SchedulableHoursStart
		if v < 0 || v > 23 {
			return nil, services.Invalid("schedulableHoursStart", "schedulableHoursStart must be between 0 and 23")
		}
		next.SchedulableHoursStart = v
	}
	if patch.SchedulableHoursEnd != nil {
		v := *patch.SchedulableHoursEnd
		if v < 1 || v > 24 {
			return nil, services.Invalid("schedulableHoursEnd", "schedulableHoursEnd must be between 1 and 24")
		}
		next.SchedulableHoursEnd = v
	}
	if next.SchedulableHoursEnd <= next.SchedulableHoursStart {
		return nil, services.Invalid("schedulableHoursEnd", "schedulableHoursEnd must be after schedulableHoursStart")
	}
	if patch.Language != nil {
		if *patch.Language != models.LanguageKorean && *patch.Language != models.LanguageEnglish {
			return nil, services.Invalid("language", "language must be one of ko, en")
		}
		next.Language = *patch.Language
	}
	if patch.LarkAppID != nil {
		next.LarkAppID = strings.TrimSpace(*patch.LarkAppID)
	}
	if patch.LarkAppSecret != nil && *patch.LarkAppSecret != models.MaskedSecret {
		sealed, err := s.Sealer.Seal(strings.TrimSpace(*patch.LarkAppSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to seal lark app secret: %w", err)
		}
		next.LarkAppSecret = sealed
	}
	if patch.GoogleDisabled != nil {
		next.GoogleDisabled = *patch.GoogleDisabled
	}
	if patch.PushToken != nil {
		next.PushToken = strings.TrimSpace(*patch.PushToken)
	}

	if err := s.Repo.Save(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *DefaultSettingsService) SetLarkCredentials(ctx context.Context, appID, appSecret string) error {
	appID = strings.TrimSpace(appID)
	appSecret = strings.TrimSpace(appSecret)
	if appID == "" {
		return services.Invalid("larkAppId", "larkAppId is required")
	}
	if appSecret == "" {
		return services.Invalid("larkAppSecret", "larkAppSecret is required")
	}
	_, err := s.Update(ctx, models.SettingsPatch{LarkAppID: &appID, LarkAppSecret: &appSecret})
	return err
}

func (s *DefaultSettingsService) SetGoogleDisabled(ctx context.Context, disabled bool) error {
	_, err := s.Update(ctx, models.SettingsPatch{GoogleDisabled: &disabled})
	return err
}

func (s *DefaultSettingsService) SetCalendarProvider(ctx context.Context, provider string) error {
	_, err := s.Update(ctx, models.SettingsPatch{CalendarProvider: &provider})
	return err
}

func (s *DefaultSettingsService) LarkCredentials(ctx context.Context) (string, string, error) {
	current, err := s.Repo.Get(ctx)
	if err != nil {
		return "", "", err
	}

	appID := current.LarkAppID
	if appID == "" {
		appID = s.FallbackLarkAppID
	}
	appSecret := s.FallbackLarkAppSecret
	if current.LarkAppSecret != "" {
		opened, err := s.Sealer.Open(current.LarkAppSecret)
		if err != nil {
			return "", "", fmt.Errorf("failed to open lark app secret: %w", err)
		}
		appSecret = opened
	}

	if appID == "" {
		return "", "", fmt.Errorf("lark app id is not configured")
	}
	if appSecret == "" {
		return "", "", fmt.Errorf("lark app secret is not configured")
	}
	return appID, appSecret, nil
}

func validateProvider(p string) error {
	if p != models.ProviderGoogle && p != models.ProviderLark {
		return services.Invalid("calendarProvider", "calendarProvider must be one of google, lark")
	}
	return nil
}

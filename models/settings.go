package models

import "time"

const (
	ProviderGoogle = "google"
	ProviderLark   = "lark"

	LanguageKorean  = "ko"
	LanguageEnglish = "en"

	// SettingsID is the id of the single settings document.
	SettingsID = "default"

	// MaskedSecret replaces the Lark app secret in every response.
	MaskedSecret = "••••••••"
)

// UserSettings is the single-row configuration of the app.
// LarkAppSecret holds the sealed value; it is never returned as stored.
type UserSettings struct {
	ID                    string    `bson:"id" json:"id"`
	NotificationTime      string    `bson:"notificationTime" json:"notificationTime"`
	CalendarProvider      string    `bson:"calendarProvider" json:"calendarProvider"`
	SchedulableHoursStart int       `bson:"schedulableHoursStart" json:"schedulableHoursStart"`
	SchedulableHoursEnd   int       `bson:"schedulableHoursEnd" json:"schedulableHoursEnd"`
	Language              string    `bson:"language" json:"language"`
	LarkAppID             string    `bson:"larkAppId,omitempty" json:"larkAppId"`
	LarkAppSecret         string    `bson:"larkAppSecret,omitempty" json:"larkAppSecret"`
	GoogleDisabled        bool      `bson:"googleDisabled" json:"googleDisabled"`
	PushToken             string    `bson:"pushToken,omitempty" json:"pushToken,omitempty"`
	UpdatedAt             time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() UserSettings {
	return UserSettings{
		ID:                    SettingsID,
		NotificationTime:      "21:00",
		CalendarProvider:      ProviderGoogle,
		SchedulableHoursStart: 9,
		SchedulableHoursEnd:   19,
		Language:              LanguageKorean,
	}
}

// HasLarkCredentials reports whether both app id and secret are saved.
func (s UserSettings) HasLarkCredentials() bool {
	return s.LarkAppID != "" && s.LarkAppSecret != ""
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	NotificationTime      *string `json:"notificationTime"`
	CalendarProvider      *string `json:"calendarProvider"`
	SchedulableHoursStart *int    `json:"schedulableHoursStart"`
	SchedulableHoursEnd   *int    `json:"schedulableHoursEnd"`
	Language              *string `json:"language"`
	LarkAppID             *string `json:"larkAppId"`
	LarkAppSecret         *string `json:"larkAppSecret"`
	GoogleDisabled        *bool   `json:"googleDisabled"`
	PushToken             *string `json:"pushToken"`
}

// SettingsResponse is UserSettings as rendered to clients, with nullable Lark fields.
type SettingsResponse struct {
	ID                    string  `json:"id"`
	NotificationTime      string  `json:"notificationTime"`
	CalendarProvider      string  `json:"calendarProvider"`
	SchedulableHoursStart int     `json:"schedulableHoursStart"`
	SchedulableHoursEnd   int     `json:"schedulableHoursEnd"`
	Language              string  `json:"language"`
	LarkAppID             *string `json:"larkAppId"`
	LarkAppSecret         *string `json:"larkAppSecret"`
	GoogleDisabled        bool    `json:"googleDisabled"`
	PushTokenSet          bool    `json:"pushTokenSet"`
}

// Masked renders s for clients: the secret becomes MaskedSecret (or null) and
// the push token is reduced to a flag.
func (s UserSettings) Masked() SettingsResponse {
	resp := SettingsResponse{
		ID:                    s.ID,
		NotificationTime:      s.NotificationTime,
		CalendarProvider:      s.CalendarProvider,
		SchedulableHoursStart: s.SchedulableHoursStart,
		SchedulableHoursEnd:   s.SchedulableHoursEnd,
		Language:              s.Language,
		GoogleDisabled:        s.GoogleDisabled,
		PushTokenSet:          s.PushToken != "",
	}
	if s.LarkAppID != "" {
		id := s.LarkAppID
		resp.LarkAppID = &id
	}
	if s.LarkAppSecret != "" {
		masked := MaskedSecret
		resp.LarkAppSecret = &masked
	}
	return resp
}

// LarkCredentialsRequest saves the Lark app credentials.
type LarkCredentialsRequest struct {
	LarkAppID     string `json:"larkAppId"`
	LarkAppSecret string `json:"larkAppSecret"`
}

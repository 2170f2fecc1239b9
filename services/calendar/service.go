package calendar

import (
	"context"
	"errors"
	"fmt"

	"morningfocus/models"
	"morningfocus/services/settings"

	"go.uber.org/zap"
)

var (
	// ErrInvalidState is returned when an OAuth callback carries an unknown, expired or reused state.
	ErrInvalidState = errors.New("invalid or expired authorization state")
	// ErrMissingCode is returned when an OAuth callback has no authorization code.
	ErrMissingCode = errors.New("authorization code is missing")
)

// LarkConnector is the Lark provider plus its OAuth flow.
type LarkConnector interface {
	Provider
	AuthURL(ctx context.Context, state string) (string, error)
	ExchangeCode(ctx context.Context, code string) error
	Disconnect(ctx context.Context) error
}

// StateStore issues and consumes one-time OAuth states.
type StateStore interface {
	Issue(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, provider, state string) (bool, error)
}

// CalendarService selects the configured provider and runs the connection flows.
type CalendarService struct {
	Settings settings.SettingsService
	Google   Provider
	Lark     LarkConnector
	States   StateStore
	Logger   *zap.Logger
}

// Active returns the provider named in settings.
func (s *CalendarService) Active(ctx context.Context) (Provider, error) {
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ProviderFor(st)
}

// ProviderFor returns the provider named by st.CalendarProvider.
func (s *CalendarService) ProviderFor(st *models.UserSettings) (Provider, error) {
	switch st.CalendarProvider {
	case models.ProviderLark:
		return s.Lark, nil
	case models.ProviderGoogle, "":
		if st.GoogleDisabled {
			return nil, fmt.Errorf("google: %w", ErrProviderDisabled)
		}
		return s.Google, nil
	default:
		return nil, fmt.Errorf("unknown calendar provider %q", st.CalendarProvider)
	}
}

// Status reports the connection state of both providers. It never fails;
// anything it cannot determine reads as disconnected.
func (s *CalendarService) Status(ctx context.Context) models.CalendarStatusResponse {
	var resp models.CalendarStatusResponse
	hasCreds := false
	googleDisabled := false

	if st, err := s.Settings.Get(ctx); err != nil {
		s.Logger.Warn("calendar status: failed to load settings", zap.Error(err))
	} else {
		googleDisabled = st.GoogleDisabled
		hasCreds = st.HasLarkCredentials()
	}

	if !googleDisabled {
		resp.Google.Connected = s.Google.Connected(ctx)
	}
	resp.Lark.Connected = s.Lark.Connected(ctx)
	resp.Lark.HasCredentials = &hasCreds
	return resp
}

// LarkAuthURL issues a fresh state and returns the Lark authorization URL.
func (s *CalendarService) LarkAuthURL(ctx context.Context) (string, error) {
	state, err := s.States.Issue(ctx, models.ProviderLark)
	if err != nil {
		return "", err
	}
	return s.Lark.AuthURL(ctx, state)
}

// CompleteLarkAuth validates and consumes state, exchanges code, and makes Lark the active provider.
func (s *CalendarService) CompleteLarkAuth(ctx context.Context, code, state string) error {
	if code == "" {
		return ErrMissingCode
	}
	ok, err := s.States.Consume(ctx, models.ProviderLark, state)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}

	if err := s.Lark.ExchangeCode(ctx, code); err != nil {
		return err
	}
	return s.Settings.SetCalendarProvider(ctx, models.ProviderLark)
}

func (s *CalendarService) DisconnectLark(ctx context.Context) error {
	return s.Lark.Disconnect(ctx)
}

// SetGoogleEnabled flips the user's Google opt-out.
func (s *CalendarService) SetGoogleEnabled(ctx context.Context, enabled bool) error {
	return s.Settings.SetGoogleDisabled(ctx, !enabled)
}

package calendar

import (
	"context"
	"fmt"
	"time"

	"morningfocus/models"
	"morningfocus/services/scheduler"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	googleCalendarID = "primary"
	// googleFocusColorID is "Blueberry" in the Google Calendar event palette.
	googleFocusColorID = "9"
)

// GoogleConfig holds the installed-app OAuth client and the user's refresh token.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// TokenURL overrides google.Endpoint.TokenURL.
	TokenURL string
}

// GoogleProvider talks to the user's primary Google Calendar.
type GoogleProvider struct {
	svc    *gcal.Service
	tokens oauth2.TokenSource
	logger *zap.Logger
}

// NewGoogleProvider builds a provider from cfg. Without a refresh token the
// provider reports itself as not connected and every call fails with ErrNotConnected.
// extra options are appended to the calendar client options.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, logger *zap.Logger, extra ...option.ClientOption) (*GoogleProvider, error) {
	p := &GoogleProvider{logger: logger}
	if cfg.RefreshToken == "" || cfg.ClientID == "" {
		return p, nil
	}

	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{gcal.CalendarScope},
	}
	p.tokens = oauth2.ReuseTokenSource(nil, oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken}))

	opts := append([]option.ClientOption{option.WithTokenSource(p.tokens)}, extra...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google calendar client: %w", err)
	}
	p.svc = svc
	return p, nil
}

func (p *GoogleProvider) Name() string { return models.ProviderGoogle }

// Connected reports whether the refresh token still yields an access token.
func (p *GoogleProvider) Connected(ctx context.Context) bool {
	if p.svc == nil {
		return false
	}
	if _, err := p.tokens.Token(); err != nil {
		p.logger.Debug("google token unavailable", zap.Error(err))
		return false
	}
	return true
}

func (p *GoogleProvider) FetchBusy(ctx context.Context, timeMin, timeMax time.Time) ([]scheduler.BusyInterval, error) {
	if p.svc == nil {
		return nil, ErrNotConnected
	}

	req := &gcal.FreeBusyRequest{
		TimeMin: timeMin.UTC().Format(time.RFC3339),
		TimeMax: timeMax.UTC().Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: googleCalendarID}},
	}
	resp, err := p.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google freebusy query failed: %w", err)
	}

	cal, ok := resp.Calendars[googleCalendarID]
	if !ok {
		return []scheduler.BusyInterval{}, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("google freebusy query failed: %s", cal.Errors[0].Reason)
	}

	busy := make([]scheduler.BusyInterval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		if b.Start == "" || b.End == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return nil, fmt.Errorf("google freebusy: bad start %q: %w", b.Start, err)
		}
		end, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return nil, fmt.Errorf("google freebusy: bad end %q: %w", b.End, err)
		}
		busy = append(busy, scheduler.BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, ev Event) (string, error) {
	if p.svc == nil {
		return "", ErrNotConnected
	}

	created, err := p.svc.Events.Insert(googleCalendarID, &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		ColorId:     googleFocusColorID,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.UTC().Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.UTC().Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google event insert failed: %w", err)
	}
	return created.Id, nil
}

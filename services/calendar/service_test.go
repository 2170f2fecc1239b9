package calendar

import (
	"context"
	"net/url"
	"testing"
	"time"

	"morningfocus/models"
	"morningfocus/services/scheduler"
	"morningfocus/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSettings struct {
	st models.UserSettings
}

func (f *fakeSettings) Get(context.Context) (*models.UserSettings, error) {
	cp := f.st
	return &cp, nil
}

func (f *fakeSettings) Update(_ context.Context, p models.SettingsPatch) (*models.UserSettings, error) {
	if p.CalendarProvider != nil {
		f.st.CalendarProvider = *p.CalendarProvider
	}
	if p.GoogleDisabled != nil {
		f.st.GoogleDisabled = *p.GoogleDisabled
	}
	return f.Get(context.Background())
}

func (f *fakeSettings) SetLarkCredentials(context.Context, string, string) error { return nil }

func (f *fakeSettings) SetGoogleDisabled(ctx context.Context, d bool) error {
	_, err := f.Update(ctx, models.SettingsPatch{GoogleDisabled: &d})
	return err
}

func (f *fakeSettings) SetCalendarProvider(ctx context.Context, p string) error {
	_, err := f.Update(ctx, models.SettingsPatch{CalendarProvider: &p})
	return err
}

func (f *fakeSettings) LarkCredentials(context.Context) (string, string, error) {
	return "cli_app", "secret", nil
}

type stubProvider struct {
	name      string
	connected bool
}

func (s *stubProvider) Name() string                     { return s.name }
func (s *stubProvider) Connected(context.Context) bool { return s.connected }
func (s *stubProvider) FetchBusy(context.Context, time.Time, time.Time) ([]scheduler.BusyInterval, error) {
	return nil, nil
}
func (s *stubProvider) CreateEvent(context.Context, Event) (string, error) { return "", nil }

type stubLark struct {
	stubProvider
	exchanged    []string
	disconnected bool
}

func (s *stubLark) AuthURL(_ context.Context, state string) (string, error) {
	return "https://open.larksuite.com/open-apis/authen/v1/authorize?state=" + state, nil
}

func (s *stubLark) ExchangeCode(_ context.Context, code string) error {
	s.exchanged = append(s.exchanged, code)
	s.connected = true
	return nil
}

func (s *stubLark) Disconnect(context.Context) error {
	s.disconnected = true
	s.connected = false
	return nil
}

func newCalendarService(t *testing.T) (*CalendarService, *fakeSettings, *stubLark) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := &fakeSettings{st: models.DefaultSettings()}
	lark := &stubLark{stubProvider: stubProvider{name: models.ProviderLark}}
	return &CalendarService{
		Settings: st,
		Google:   &stubProvider{name: models.ProviderGoogle, connected: true},
		Lark:     lark,
		States:   utils.NewOAuthStateStore(client, time.Minute),
		Logger:   zap.NewNop(),
	}, st, lark
}

func TestActiveProviderFollowsSettings(t *testing.T) {
	svc, st, _ := newCalendarService(t)
	ctx := context.Background()

	p, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, p.Name())

	st.st.CalendarProvider = models.ProviderLark
	p, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderLark, p.Name())

	st.st.CalendarProvider = models.ProviderGoogle
	st.st.GoogleDisabled = true
	_, err = svc.Active(ctx)
	assert.ErrorIs(t, err, ErrProviderDisabled)
}

func TestStatus(t *testing.T) {
	svc, st, _ := newCalendarService(t)
	ctx := context.Background()

	resp := svc.Status(ctx)
	assert.True(t, resp.Google.Connected)
	assert.False(t, resp.Lark.Connected)
	require.NotNil(t, resp.Lark.HasCredentials)
	assert.False(t, *resp.Lark.HasCredentials)

	st.st.GoogleDisabled = true
	st.st.LarkAppID = "cli_app"
	st.st.LarkAppSecret = "sealed"
	resp = svc.Status(ctx)
	assert.False(t, resp.Google.Connected, "disabled google reads as disconnected")
	assert.True(t, *resp.Lark.HasCredentials)
}

func TestLarkAuthFlow(t *testing.T) {
	svc, st, lark := newCalendarService(t)
	ctx := context.Background()

	raw, err := svc.LarkAuthURL(ctx)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.Len(t, state, 32)

	require.NoError(t, svc.CompleteLarkAuth(ctx, "code-1", state))
	assert.Equal(t, []string{"code-1"}, lark.exchanged)
	assert.Equal(t, models.ProviderLark, st.st.CalendarProvider)

	// A state can be used once.
	err = svc.CompleteLarkAuth(ctx, "code-2", state)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, lark.exchanged, 1)
}

func TestCompleteLarkAuthRejectsBadInput(t *testing.T) {
	svc, st, lark := newCalendarService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.CompleteLarkAuth(ctx, "", "whatever"), ErrMissingCode)
	assert.ErrorIs(t, svc.CompleteLarkAuth(ctx, "code", "forged"), ErrInvalidState)
	assert.ErrorIs(t, svc.CompleteLarkAuth(ctx, "code", ""), ErrInvalidState)

	assert.Empty(t, lark.exchanged)
	assert.Equal(t, models.ProviderGoogle, st.st.CalendarProvider)
}

func TestDisconnectAndGoogleToggle(t *testing.T) {
	svc, st, lark := newCalendarService(t)
	ctx := context.Background()

	require.NoError(t, svc.DisconnectLark(ctx))
	assert.True(t, lark.disconnected)

	require.NoError(t, svc.SetGoogleEnabled(ctx, false))
	assert.True(t, st.st.GoogleDisabled)
	require.NoError(t, svc.SetGoogleEnabled(ctx, true))
	assert.False(t, st.st.GoogleDisabled)
}

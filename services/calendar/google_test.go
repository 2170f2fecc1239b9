package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func newGoogle(t *testing.T, handler http.HandlerFunc) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewGoogleProvider(context.Background(), GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		TokenURL:     srv.URL + "/token",
	}, zap.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return p
}

func TestGoogleFetchBusy(t *testing.T) {
	var req map[string]interface{}
	p := newGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/freeBusy", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"kind": "calendar#freeBusy",
			"calendars": {"primary": {"busy": [
				{"start": "2024-03-01T01:00:00Z", "end": "2024-03-01T02:00:00Z"},
				{"start": "2024-03-01T14:00:00+09:00", "end": "2024-03-01T15:30:00+09:00"}
			]}}
		}`))
	})

	min := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	busy, err := p.FetchBusy(context.Background(), min, min.Add(10*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01T00:00:00Z", req["timeMin"])
	assert.Equal(t, "2024-03-01T10:00:00Z", req["timeMax"])
	items := req["items"].([]interface{})
	assert.Equal(t, "primary", items[0].(map[string]interface{})["id"])

	require.Len(t, busy, 2)
	assert.True(t, busy[0].Start.Equal(time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)))
	assert.True(t, busy[1].End.Equal(time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC)))
}

func TestGoogleFetchBusyCalendarError(t *testing.T) {
	p := newGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"calendars": {"primary": {"errors": [{"domain": "global", "reason": "notFound"}]}}}`))
	})

	_, err := p.FetchBusy(context.Background(), fixedNow, fixedNow.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notFound")
}

func TestGoogleCreateEvent(t *testing.T) {
	var ev map[string]interface{}
	p := newGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "gcal-evt-1"}`))
	})

	id, err := p.CreateEvent(context.Background(), Event{
		Summary:     "[Focus 1/2] Write report",
		Description: DefaultEventDescription,
		Start:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "gcal-evt-1", id)
	assert.Equal(t, "[Focus 1/2] Write report", ev["summary"])
	assert.Equal(t, DefaultEventDescription, ev["description"])
	assert.Equal(t, "9", ev["colorId"])
	assert.Equal(t, "2024-03-01T00:00:00Z", ev["start"].(map[string]interface{})["dateTime"])
	assert.Equal(t, "2024-03-01T00:30:00Z", ev["end"].(map[string]interface{})["dateTime"])
}

func TestGoogleConnectedUsesRefreshToken(t *testing.T) {
	p := newGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token": "ya29.x", "token_type": "Bearer", "expires_in": 3600}`))
			return
		}
		http.NotFound(w, r)
	})

	assert.True(t, p.Connected(context.Background()))
}

func TestGoogleRevokedRefreshTokenIsDisconnected(t *testing.T) {
	p := newGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	})

	assert.False(t, p.Connected(context.Background()))
}

func TestGoogleWithoutRefreshToken(t *testing.T) {
	p, err := NewGoogleProvider(context.Background(), GoogleConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Connected(context.Background()))
	_, err = p.FetchBusy(context.Background(), fixedNow, fixedNow.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = p.CreateEvent(context.Background(), Event{})
	assert.ErrorIs(t, err, ErrNotConnected)
}

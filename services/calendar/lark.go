package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	larkTokenRepo "morningfocus/database/repository/larktoken"
	"morningfocus/models"
	"morningfocus/services/scheduler"
	"morningfocus/utils"

	"go.uber.org/zap"
)

const (
	larkAuthorizePath = "/open-apis/authen/v1/authorize"
	larkTokenPath     = "/open-apis/authen/v1/oidc/access_token"
	larkRefreshPath   = "/open-apis/authen/v1/oidc/refresh_access_token"
	larkFreeBusyPath  = "/open-apis/calendar/v4/freebusy/list"
	larkEventsPath    = "/open-apis/calendar/v4/calendars/primary/events"

	larkScope = "calendar:calendar offline_access"

	// larkRefreshSkew refreshes access tokens that expire within this window.
	larkRefreshSkew = 60 * time.Second
)

// CredentialSource yields the Lark app id and secret.
type CredentialSource interface {
	LarkCredentials(ctx context.Context) (appID, appSecret string, err error)
}

// LarkAPIError is a non-zero "code" in a Lark open API response, or a non-2xx status.
type LarkAPIError struct {
	Op     string
	Status int
	Code   int
	Msg    string
}

func (e *LarkAPIError) Error() string {
	return fmt.Sprintf("lark %s failed: status=%d code=%d msg=%s", e.Op, e.Status, e.Code, e.Msg)
}

// LarkProvider implements Provider and the Lark OAuth flow over the Lark open API.
type LarkProvider struct {
	BaseURL     string
	RedirectURI string
	Timezone    string

	HTTP        *http.Client
	Tokens      larkTokenRepo.LarkTokenRepository
	Credentials CredentialSource
	Sealer      *utils.Sealer
	Logger      *zap.Logger

	Now func() time.Time
}

func (p *LarkProvider) Name() string { return models.ProviderLark }

func (p *LarkProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *LarkProvider) client() *http.Client {
	if p.HTTP != nil {
		return p.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// AuthURL builds the authorization URL the user is redirected to.
func (p *LarkProvider) AuthURL(ctx context.Context, state string) (string, error) {
	appID, _, err := p.Credentials.LarkCredentials(ctx)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("app_id", appID)
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("scope", larkScope)
	q.Set("state", state)
	return strings.TrimRight(p.BaseURL, "/") + larkAuthorizePath + "?" + q.Encode(), nil
}

type larkTokenData struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	OpenID           string `json:"open_id"`
}

// ExchangeCode trades an authorization code for a user token and stores it.
func (p *LarkProvider) ExchangeCode(ctx context.Context, code string) error {
	appID, appSecret, err := p.Credentials.LarkCredentials(ctx)
	if err != nil {
		return err
	}

	var data larkTokenData
	err = p.call(ctx, "token exchange", larkTokenPath, "", nil, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     appID,
		"client_secret": appSecret,
		"code":          code,
		"redirect_uri":  p.RedirectURI,
	}, &data)
	if err != nil {
		return err
	}
	_, err = p.saveToken(ctx, data, "")
	return err
}

// Disconnect forgets the stored user token.
func (p *LarkProvider) Disconnect(ctx context.Context) error {
	return p.Tokens.Delete(ctx)
}

// Connected reports whether a token is stored whose refresh token has not expired.
// An expired token is deleted.
func (p *LarkProvider) Connected(ctx context.Context) bool {
	tok, err := p.Tokens.Get(ctx)
	if err != nil || tok == nil {
		return false
	}
	if tok.RefreshExpiresAt.Before(p.now()) {
		if err := p.Tokens.Delete(ctx); err != nil {
			p.Logger.Warn("failed to delete expired lark token", zap.Error(err))
		}
		return false
	}
	return true
}

func (p *LarkProvider) saveToken(ctx context.Context, data larkTokenData, fallbackOpenID string) (string, error) {
	access, err := p.Sealer.Seal(data.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to seal lark access token: %w", err)
	}
	refresh, err := p.Sealer.Seal(data.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to seal lark refresh token: %w", err)
	}

	openID := data.OpenID
	if openID == "" {
		openID = fallbackOpenID
	}
	now := p.now()
	tok := &models.LarkToken{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        now.Add(time.Duration(data.ExpiresIn) * time.Second).UTC(),
		RefreshExpiresAt: now.Add(time.Duration(data.RefreshExpiresIn) * time.Second).UTC(),
		OpenID:           openID,
	}
	if err := p.Tokens.Save(ctx, tok); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

// accessToken returns a usable access token and the user's open id,
// refreshing the token when it expires within larkRefreshSkew.
func (p *LarkProvider) accessToken(ctx context.Context) (string, string, error) {
	tok, err := p.Tokens.Get(ctx)
	if err != nil {
		return "", "", err
	}
	if tok == nil {
		return "", "", ErrNotConnected
	}

	now := p.now()
	if tok.ExpiresAt.After(now.Add(larkRefreshSkew)) {
		access, err := p.Sealer.Open(tok.AccessToken)
		if err != nil {
			return "", "", fmt.Errorf("failed to open lark access token: %w", err)
		}
		return access, tok.OpenID, nil
	}

	if tok.RefreshExpiresAt.Before(now) {
		if err := p.Tokens.Delete(ctx); err != nil {
			p.Logger.Warn("failed to delete expired lark token", zap.Error(err))
		}
		return "", "", fmt.Errorf("lark refresh token expired, reconnect required: %w", ErrNotConnected)
	}

	refresh, err := p.Sealer.Open(tok.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to open lark refresh token: %w", err)
	}
	appID, appSecret, err := p.Credentials.LarkCredentials(ctx)
	if err != nil {
		return "", "", err
	}

	var data larkTokenData
	err = p.call(ctx, "token refresh", larkRefreshPath, "", nil, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     appID,
		"client_secret": appSecret,
		"refresh_token": refresh,
	}, &data)
	if err != nil {
		return "", "", err
	}

	access, err := p.saveToken(ctx, data, tok.OpenID)
	if err != nil {
		return "", "", err
	}
	openID := data.OpenID
	if openID == "" {
		openID = tok.OpenID
	}
	return access, openID, nil
}

type larkFreeBusyData struct {
	FreeBusyList []struct {
		StartTime larkTime `json:"start_time"`
		EndTime   larkTime `json:"end_time"`
	} `json:"freebusy_list"`
}

func (p *LarkProvider) FetchBusy(ctx context.Context, timeMin, timeMax time.Time) ([]scheduler.BusyInterval, error) {
	access, openID, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"time_min": timeMin.UTC().Format(time.RFC3339),
		"time_max": timeMax.UTC().Format(time.RFC3339),
	}
	var query url.Values
	if openID != "" {
		body["user_id"] = openID
		query = url.Values{"user_id_type": {"open_id"}}
	}

	var data larkFreeBusyData
	if err := p.call(ctx, "freebusy", larkFreeBusyPath, access, query, body, &data); err != nil {
		return nil, err
	}

	busy := make([]scheduler.BusyInterval, 0, len(data.FreeBusyList))
	for _, e := range data.FreeBusyList {
		if e.StartTime.IsZero() || e.EndTime.IsZero() {
			continue
		}
		busy = append(busy, scheduler.BusyInterval{Start: e.StartTime.Time, End: e.EndTime.Time})
	}
	return busy, nil
}

type larkEventTime struct {
	Timestamp string `json:"timestamp"`
	Timezone  string `json:"timezone"`
}

type larkEventRequest struct {
	Summary        string        `json:"summary"`
	Description    string        `json:"description"`
	StartTime      larkEventTime `json:"start_time"`
	EndTime        larkEventTime `json:"end_time"`
	FreeBusyStatus string        `json:"free_busy_status"`
	Visibility     string        `json:"visibility"`
}

type larkEventData struct {
	Event struct {
		EventID string `json:"event_id"`
	} `json:"event"`
}

func (p *LarkProvider) CreateEvent(ctx context.Context, ev Event) (string, error) {
	access, _, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}

	description := ev.Description
	if description == "" {
		description = DefaultEventDescription
	}
	tz := p.Timezone
	if tz == "" {
		tz = "Asia/Seoul"
	}

	req := larkEventRequest{
		Summary:        ev.Summary,
		Description:    description,
		StartTime:      larkEventTime{Timestamp: strconv.FormatInt(ev.Start.Unix(), 10), Timezone: tz},
		EndTime:        larkEventTime{Timestamp: strconv.FormatInt(ev.End.Unix(), 10), Timezone: tz},
		FreeBusyStatus: "busy",
		Visibility:     "default",
	}

	var data larkEventData
	if err := p.call(ctx, "create event", larkEventsPath, access, nil, req, &data); err != nil {
		return "", err
	}
	return data.Event.EventID, nil
}

type larkEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// call POSTs body as JSON and decodes the "data" member of the envelope into out.
func (p *LarkProvider) call(ctx context.Context, op, path, bearer string, query url.Values, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("lark %s: failed to encode request: %w", op, err)
	}

	endpoint := strings.TrimRight(p.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("lark %s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("lark %s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	var env larkEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || env.Code != 0 {
		apiErr := &LarkAPIError{Op: op, Status: resp.StatusCode, Code: env.Code, Msg: env.Msg}
		if decodeErr != nil && apiErr.Msg == "" {
			apiErr.Msg = decodeErr.Error()
		}
		p.Logger.Error("lark api call failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Int("code", env.Code),
			zap.String("msg", apiErr.Msg))
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("lark %s: failed to decode data: %w", op, err)
		}
	}
	return nil
}

// larkTime accepts unix seconds (as a string or a number) or an RFC 3339 string.
type larkTime struct {
	time.Time
}

func (t *larkTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("lark time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

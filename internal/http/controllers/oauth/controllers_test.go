package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/crossposter/internal/config"
	"github.com/dropDatabas3/crossposter/internal/threads"
)

// fakeClient implementa Client con respuestas programables.
type fakeClient struct {
	exchangeErr error
	resolveErr  error
	token       *threads.Token
	user        *threads.User

	exchangeCalls int
}

func (f *fakeClient) BuildAuthorizeURL(state, redirectURI string) string {
	return "https://threads.net/oauth/authorize?state=" + url.QueryEscape(state) +
		"&redirect_uri=" + url.QueryEscape(redirectURI)
}

func (f *fakeClient) ExchangeCode(_ context.Context, code, redirectURI string) (*threads.Token, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.token != nil {
		return f.token, nil
	}
	return &threads.Token{AccessToken: "tok-" + code, APIVersion: "v1.0", IsLongLived: true}, nil
}

func (f *fakeClient) ResolveUser(_ context.Context, accessToken string) (*threads.User, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if f.user != nil {
		return f.user, nil
	}
	return &threads.User{ID: "1789", Username: "alice"}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.BaseURL = "https://relay.example"
	cfg.Threads.AppID = "app-id"
	cfg.Threads.AppSecret = "app-secret"
	return cfg
}

func newTestControllers(t *testing.T, cfg *config.Config, client Client) *Controllers {
	t.Helper()
	codec, err := NewResultCodec("")
	require.NoError(t, err)
	return NewControllers(cfg, client, codec, gocache.New(time.Hour, time.Hour))
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decodeResultCookie(t *testing.T, rec *httptest.ResponseRecorder) *Result {
	t.Helper()
	ck := cookieByName(t, rec, ResultCookie)
	require.NotNil(t, ck, "expected a result cookie")
	codec, err := NewResultCodec("")
	require.NoError(t, err)
	res, err := codec.Decode(ck.Value)
	require.NoError(t, err)
	return res
}

func TestStart_RedirectsWithStateCookie(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/threads/oauth/start", nil)
	rec := httptest.NewRecorder()
	ctrl.Start.Start(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	state := cookieByName(t, rec, StateCookie)
	require.NotNil(t, state)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, state.SameSite)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "threads.net", loc.Host)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, "https://relay.example/api/threads/oauth/callback", loc.Query().Get("redirect_uri"))
}

func TestStart_StateIsUniquePerRequest(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	values := map[string]bool{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		ctrl.Start.Start(rec, httptest.NewRequest(http.MethodGet, "/api/threads/oauth/start", nil))
		ck := cookieByName(t, rec, StateCookie)
		require.NotNil(t, ck)
		values[ck.Value] = true
	}
	assert.Len(t, values, 3)
}

func TestStart_MissingAppConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Threads.AppID = ""
	ctrl := newTestControllers(t, cfg, &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.Start.Start(rec, httptest.NewRequest(http.MethodGet, "/api/threads/oauth/start", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Nil(t, cookieByName(t, rec, StateCookie))

	res := decodeResultCookie(t, rec)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "THREADS_APP_ID and THREADS_APP_SECRET")
}

func callbackRequest(target string, state string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: StateCookie, Value: state})
	}
	return req
}

func TestCallback_Success(t *testing.T) {
	expires := int64(5183944)
	client := &fakeClient{
		token: &threads.Token{AccessToken: "long-lived", APIVersion: "", IsLongLived: true, ExpiresIn: &expires},
		user:  &threads.User{ID: "1789", Username: "alice"},
	}
	ctrl := newTestControllers(t, testConfig(), client)

	req := callbackRequest("/api/threads/oauth/callback?code=abc&state=st-1", "st-1")
	rec := httptest.NewRecorder()
	ctrl.Callback.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// el state cookie queda borrado pase lo que pase
	cleared := cookieByName(t, rec, StateCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	res := decodeResultCookie(t, rec)
	assert.True(t, res.OK)
	assert.Equal(t, "Connected with Threads OAuth as @alice.", res.Message)
	assert.Equal(t, "long-lived", res.AccessToken)
	require.NotNil(t, res.TokenMeta)
	assert.Equal(t, "app-default", res.TokenMeta.APIVersion)
	assert.True(t, res.TokenMeta.IsLongLived)
	require.NotNil(t, res.TokenMeta.ExpiresIn)
	assert.Equal(t, expires, *res.TokenMeta.ExpiresIn)
}

func TestCallback_FailurePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		cookie    string
		client    *fakeClient
		wantError string
	}{
		{
			name:      "provider error wins over everything",
			target:    "/cb?error=access_denied&error_description=User+denied&state=bad&code=",
			cookie:    "other",
			client:    &fakeClient{},
			wantError: "Threads OAuth returned an error: User denied",
		},
		{
			name:      "provider error without description",
			target:    "/cb?error=access_denied",
			cookie:    "",
			client:    &fakeClient{},
			wantError: "Threads OAuth returned an error: access_denied",
		},
		{
			name:      "missing state cookie",
			target:    "/cb?code=abc&state=st-1",
			cookie:    "",
			client:    &fakeClient{},
			wantError: "Threads OAuth security check failed (invalid state).",
		},
		{
			name:      "state mismatch",
			target:    "/cb?code=abc&state=st-1",
			cookie:    "st-2",
			client:    &fakeClient{},
			wantError: "Threads OAuth security check failed (invalid state).",
		},
		{
			name:      "missing returned state",
			target:    "/cb?code=abc",
			cookie:    "st-1",
			client:    &fakeClient{},
			wantError: "Threads OAuth security check failed (invalid state).",
		},
		{
			name:      "missing code",
			target:    "/cb?state=st-1",
			cookie:    "st-1",
			client:    &fakeClient{},
			wantError: "Threads OAuth did not return a code.",
		},
		{
			name:      "exchange failure",
			target:    "/cb?code=abc&state=st-1",
			cookie:    "st-1",
			client:    &fakeClient{exchangeErr: errors.New("threads code exchange failed: boom")},
			wantError: "threads code exchange failed: boom",
		},
		{
			name:      "identity failure",
			target:    "/cb?code=abc&state=st-1",
			cookie:    "st-1",
			client:    &fakeClient{resolveErr: errors.New("threads identity lookup failed: nope")},
			wantError: "threads identity lookup failed: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestControllers(t, testConfig(), tt.client)
			rec := httptest.NewRecorder()
			ctrl.Callback.Callback(rec, callbackRequest(tt.target, tt.cookie))

			require.Equal(t, http.StatusFound, rec.Code)
			res := decodeResultCookie(t, rec)
			assert.False(t, res.OK)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Empty(t, res.AccessToken)
		})
	}
}

func TestCallback_StateCheckBeforeExchange(t *testing.T) {
	client := &fakeClient{}
	ctrl := newTestControllers(t, testConfig(), client)

	rec := httptest.NewRecorder()
	ctrl.Callback.Callback(rec, callbackRequest("/cb?code=abc&state=st-1", "st-2"))

	assert.Zero(t, client.exchangeCalls, "exchange must not run on state mismatch")
}

func TestCallback_MissingAppConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Threads.AppSecret = ""
	ctrl := newTestControllers(t, cfg, &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.Callback.Callback(rec, callbackRequest("/cb?code=abc&state=st-1", "st-1"))

	res := decodeResultCookie(t, rec)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "not configured on the server")
}

func TestSession_EmptyWhenNoCookie(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.Session.Get(rec, httptest.NewRequest(http.MethodGet, "/api/threads/oauth/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, true, body["empty"])
}

func TestSession_SingleConsumption(t *testing.T) {
	cfg := testConfig()
	ctrl := newTestControllers(t, cfg, &fakeClient{})
	codec, err := NewResultCodec("")
	require.NoError(t, err)

	value, err := codec.Encode(Result{OK: true, Message: "Connected with Threads OAuth as @alice."})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/threads/oauth/session", nil)
	req.AddCookie(&http.Cookie{Name: ResultCookie, Value: value})
	rec := httptest.NewRecorder()
	ctrl.Session.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.OK)
	assert.Equal(t, "Connected with Threads OAuth as @alice.", res.Message)

	// la lectura consume la cookie
	cleared := cookieByName(t, rec, ResultCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// un segundo poll sin cookie vuelve vacío
	rec2 := httptest.NewRecorder()
	ctrl.Session.Get(rec2, httptest.NewRequest(http.MethodGet, "/api/threads/oauth/session", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &body))
	assert.Equal(t, true, body["empty"])
}

func TestSession_FailureResultIs400(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})
	codec, err := NewResultCodec("")
	require.NoError(t, err)

	value, err := codec.Encode(Result{OK: false, Error: "Threads OAuth did not return a code."})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/threads/oauth/session", nil)
	req.AddCookie(&http.Cookie{Name: ResultCookie, Value: value})
	rec := httptest.NewRecorder()
	ctrl.Session.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_UndecodableCookie(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/threads/oauth/session", nil)
	req.AddCookie(&http.Cookie{Name: ResultCookie, Value: "garbage"})
	rec := httptest.NewRecorder()
	ctrl.Session.Get(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Could not read the Threads OAuth result.", body["error"])

	// consumo igual: la cookie rota también se borra
	cleared := cookieByName(t, rec, ResultCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func signRequest(t *testing.T, secret string, payload map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encoded))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return sig + "." + encoded
}

func dataDeletionRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/threads/oauth/data-deletion", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDataDeletion_ValidSignedRequest(t *testing.T) {
	cfg := testConfig()
	ctrl := newTestControllers(t, cfg, &fakeClient{})

	signed := signRequest(t, cfg.Threads.AppSecret, map[string]any{
		"algorithm": "HMAC-SHA256",
		"user_id":   "1789",
		"issued_at": 1724800000,
	})
	rec := httptest.NewRecorder()
	ctrl.DataDeletion.Create(rec, dataDeletionRequest("signed_request="+url.QueryEscape(signed)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body dataDeletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.ConfirmationCode, 24)

	u, err := url.Parse(body.URL)
	require.NoError(t, err)
	assert.Equal(t, "relay.example", u.Host)
	assert.Equal(t, "/threads/data-deletion", u.Path)
	assert.Equal(t, body.ConfirmationCode, u.Query().Get("code"))
	assert.Equal(t, "1789", u.Query().Get("user_id"))

	// el código recién emitido aparece confirmado en el status endpoint
	recStatus := httptest.NewRecorder()
	ctrl.DataDeletion.Status(recStatus, httptest.NewRequest(http.MethodGet,
		"/api/threads/oauth/data-deletion/status?code="+body.ConfirmationCode, nil))
	require.Equal(t, http.StatusOK, recStatus.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(recStatus.Body.Bytes(), &status))
	assert.Equal(t, true, status["confirmed"])
}

func TestDataDeletion_RejectsBadSignature(t *testing.T) {
	cfg := testConfig()
	ctrl := newTestControllers(t, cfg, &fakeClient{})

	signed := signRequest(t, "wrong-secret", map[string]any{"algorithm": "HMAC-SHA256", "user_id": "1789"})
	rec := httptest.NewRecorder()
	ctrl.DataDeletion.Create(rec, dataDeletionRequest("signed_request="+url.QueryEscape(signed)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed_request invalid")
}

func TestDataDeletion_MissingSignedRequest(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.DataDeletion.Create(rec, dataDeletionRequest(""))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed_request missing")
}

func TestDataDeletion_MissingAppSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Threads.AppSecret = ""
	ctrl := newTestControllers(t, cfg, &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.DataDeletion.Create(rec, dataDeletionRequest("signed_request=x.y"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDataDeletion_StatusUnknownCode(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.DataDeletion.Status(rec, httptest.NewRequest(http.MethodGet,
		"/api/threads/oauth/data-deletion/status?code=deadbeefdeadbeefdeadbeef", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, false, status["confirmed"])
}

func TestDeauthorize_AlwaysOK(t *testing.T) {
	ctrl := newTestControllers(t, testConfig(), &fakeClient{})

	rec := httptest.NewRecorder()
	ctrl.Deauthorize.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/threads/oauth/deauthorize", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

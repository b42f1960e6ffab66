package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"speakcraft-social/domain/model"
	httpHandler "speakcraft-social/interfaces/http"
)

type MockAccountUsecase struct {
	mock.Mock
}

func (m *MockAccountUsecase) ConnectAccount(ctx context.Context, state *model.OAuthState, accessToken, refreshToken string, expiresAt *time.Time) (*model.SocialAccount, error) {
	args := m.Called(ctx, state, accessToken, refreshToken, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialAccount), args.Error(1)
}

func (m *MockAccountUsecase) ListAccounts(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SocialAccount), args.Error(1)
}

func newAuthRouter(t *testing.T, uc *MockAccountUsecase, tokenURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://gateway.example/oauth/callback",
		Scopes:       []string{"scope-a"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://provider.example/auth",
			TokenURL: tokenURL,
		},
	}
	handler := httpHandler.NewSocialAuthHandler(
		map[string]*oauth2.Config{"youtube": cfg},
		uc,
		"https://gateway.example/oauth/callback",
		"apikey",
		"default-anon-key",
	)

	router := gin.New()
	router.GET("/oauth/start", handler.Start)
	router.GET("/oauth/callback", handler.Callback)
	return router
}

func TestStartRejectsMissingParameters(t *testing.T) {
	router := newAuthRouter(t, new(MockAccountUsecase), "")

	cases := []string{
		"/oauth/start",
		"/oauth/start?platform=youtube",
		"/oauth/start?platform=youtube&user_id=u-1",
		"/oauth/start?user_id=u-1&redirect_uri=https://app.example/settings",
	}
	for _, path := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.JSONEq(t, `{"error":"Missing parameters"}`, w.Body.String(), path)
	}
}

func TestStartRedirectsToConsentScreen(t *testing.T) {
	router := newAuthRouter(t, new(MockAccountUsecase), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/oauth/start?platform=youtube&user_id=u-1&redirect_uri="+url.QueryEscape("https://app.example/settings?tab=social")+"&apikey=echoed-key", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)

	assert.Equal(t, "provider.example", loc.Host)
	q := loc.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "https://gateway.example/oauth/callback?apikey=echoed-key", q.Get("redirect_uri"))

	state, err := model.DecodeOAuthState(q.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", state.UserID)
	assert.Equal(t, "youtube", state.Platform)
	assert.Equal(t, "https://app.example/settings?tab=social", state.OrigRedirect)
	assert.Equal(t, "echoed-key", state.GatewayKey)
}

func TestStartFallsBackToConfiguredCredential(t *testing.T) {
	router := newAuthRouter(t, new(MockAccountUsecase), "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/oauth/start?platform=youtube&user_id=u-1&redirect_uri=https://app.example/settings", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state, err := model.DecodeOAuthState(loc.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "default-anon-key", state.GatewayKey)
}

func TestCallbackRejectsMissingState(t *testing.T) {
	uc := new(MockAccountUsecase)
	router := newAuthRouter(t, uc, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "ConnectAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCallbackRejectsMalformedState(t *testing.T) {
	uc := new(MockAccountUsecase)
	router := newAuthRouter(t, uc, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=abc&state=not-valid-base64!!", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "ConnectAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCallbackRejectsMissingCode(t *testing.T) {
	uc := new(MockAccountUsecase)
	router := newAuthRouter(t, uc, "")

	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       "u-1",
		Platform:     "youtube",
		OrigRedirect: "https://app.example/settings",
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?state="+url.QueryEscape(state.Encode()), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "ConnectAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCallbackCompletesConnection(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.Form.Get("code"))
		assert.Equal(t, "https://gateway.example/oauth/callback?apikey=echoed-key", r.Form.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	uc := new(MockAccountUsecase)
	uc.On("ConnectAccount", mock.Anything, mock.MatchedBy(func(s *model.OAuthState) bool {
		return s.UserID == "u-1" && s.Platform == "youtube"
	}), "at-1", "rt-1", mock.Anything).Return(&model.SocialAccount{ID: 5}, nil)

	router := newAuthRouter(t, uc, tokenServer.URL)

	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       "u-1",
		Platform:     "youtube",
		OrigRedirect: "https://app.example/settings",
		GatewayKey:   "echoed-key",
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/oauth/callback?code=auth-code&state="+url.QueryEscape(state.Encode()), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/settings?auth_success=true", w.Header().Get("Location"))
	uc.AssertExpectations(t)
}

func TestCallbackRedirectsWithErrorWhenConnectionFails(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	uc := new(MockAccountUsecase)
	uc.On("ConnectAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	router := newAuthRouter(t, uc, tokenServer.URL)

	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       "u-1",
		Platform:     "youtube",
		OrigRedirect: "https://app.example/settings?tab=social",
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/oauth/callback?code=auth-code&state="+url.QueryEscape(state.Encode()), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/settings?tab=social&auth_error=true", w.Header().Get("Location"))
}

func TestCallbackRedirectsWithErrorWhenProviderDenies(t *testing.T) {
	uc := new(MockAccountUsecase)
	router := newAuthRouter(t, uc, "")

	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       "u-1",
		Platform:     "youtube",
		OrigRedirect: "https://app.example/settings",
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/oauth/callback?error=access_denied&state="+url.QueryEscape(state.Encode()), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example/settings?auth_error=true", w.Header().Get("Location"))
	uc.AssertNotCalled(t, "ConnectAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

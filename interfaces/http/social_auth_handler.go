package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"speakcraft-social/domain/model"
	"speakcraft-social/infrastructure/logger"
	"speakcraft-social/usecase"
)

// ISocialAuthHandler covers the two legs of the platform connect flow.
type ISocialAuthHandler interface {
	Start(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

// SocialAuthHandler drives the OAuth authorization-code flow for connecting
// social accounts. The callback endpoint sits behind the hosting gateway,
// which requires its pass-through credential as a query parameter, so the
// redirect URI is rebuilt identically on both legs from the credential echoed
// through the state envelope.
type SocialAuthHandler struct {
	oauthConfigs    map[string]*oauth2.Config
	accountUsecase  usecase.ISocialAccountUsecase
	callbackURL     string
	credentialParam string
	credential      string
}

func NewSocialAuthHandler(
	oauthConfigs map[string]*oauth2.Config,
	accountUsecase usecase.ISocialAccountUsecase,
	callbackURL, credentialParam, credential string,
) ISocialAuthHandler {
	return &SocialAuthHandler{
		oauthConfigs:    oauthConfigs,
		accountUsecase:  accountUsecase,
		callbackURL:     callbackURL,
		credentialParam: credentialParam,
		credential:      credential,
	}
}

// Start handles GET /oauth/start. It validates the request, packs the flow
// context into the state parameter, and redirects the browser to the
// provider's consent screen. Offline access plus forced consent guarantees a
// refresh token on first connect.
func (h *SocialAuthHandler) Start(ctx *gin.Context) {
	platform := ctx.Query("platform")
	userID := ctx.Query("user_id")
	origRedirect := ctx.Query("redirect_uri")
	if platform == "" || userID == "" || origRedirect == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing parameters"})
		return
	}
	cfg, ok := h.oauthConfigs[platform]
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported platform: " + platform})
		return
	}

	credential := ctx.Query(h.credentialParam)
	if credential == "" {
		credential = h.credential
	}

	state := model.OAuthState{
		Version:      model.OAuthStateVersion,
		UserID:       userID,
		Platform:     platform,
		OrigRedirect: origRedirect,
		GatewayKey:   credential,
	}
	authURL := cfg.AuthCodeURL(state.Encode(),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("redirect_uri", h.redirectURLFor(credential)),
	)
	ctx.Redirect(http.StatusFound, authURL)
}

// Callback handles GET /oauth/callback: the provider redirect with code and
// state. On success the browser lands back on the page it started from with
// auth_success=true appended; recoverable failures land there with
// auth_error=true instead.
func (h *SocialAuthHandler) Callback(ctx *gin.Context) {
	lg := logger.GetLogger()

	code := ctx.Query("code")
	rawState := ctx.Query("state")
	if rawState == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing state parameter"})
		return
	}
	state, err := model.DecodeOAuthState(rawState)
	if err != nil {
		lg.WithField("error", err).Warn("OAuth callback carried an undecodable state")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state parameter"})
		return
	}

	if errParam := ctx.Query("error"); errParam != "" {
		lg.WithField("platform", state.Platform).WithField("oauth_error", errParam).Warn("Provider denied authorization")
		h.redirectBack(ctx, state.OrigRedirect, false)
		return
	}
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing code parameter"})
		return
	}

	cfg, ok := h.oauthConfigs[state.Platform]
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported platform: " + state.Platform})
		return
	}

	// The exchange must present the exact redirect_uri used on the authorize
	// leg, gateway credential included.
	token, err := cfg.Exchange(context.Background(), code,
		oauth2.SetAuthURLParam("redirect_uri", h.redirectURLFor(state.GatewayKey)))
	if err != nil {
		lg.WithField("error", err).Error("Code exchange failed")
		h.redirectBack(ctx, state.OrigRedirect, false)
		return
	}

	expiry := token.Expiry
	account, err := h.accountUsecase.ConnectAccount(ctx.Request.Context(), state, token.AccessToken, token.RefreshToken, &expiry)
	if err != nil {
		lg.WithField("error", err).Error("Completing account connection failed")
		h.redirectBack(ctx, state.OrigRedirect, false)
		return
	}

	lg.WithField("account_id", account.ID).WithField("platform", state.Platform).Info("OAuth connection completed")
	h.redirectBack(ctx, state.OrigRedirect, true)
}

// redirectURLFor appends the gateway pass-through credential to the
// registered callback URL. An empty credential leaves the URL untouched.
func (h *SocialAuthHandler) redirectURLFor(credential string) string {
	if credential == "" || h.credentialParam == "" {
		return h.callbackURL
	}
	sep := "?"
	if strings.Contains(h.callbackURL, "?") {
		sep = "&"
	}
	return h.callbackURL + sep + h.credentialParam + "=" + url.QueryEscape(credential)
}

func (h *SocialAuthHandler) redirectBack(ctx *gin.Context, origRedirect string, success bool) {
	param := "auth_error=true"
	if success {
		param = "auth_success=true"
	}
	sep := "?"
	if strings.Contains(origRedirect, "?") {
		sep = "&"
	}
	ctx.Redirect(http.StatusFound, origRedirect+sep+param)
}

package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"speakcraft-social/domain/model"
	"speakcraft-social/domain/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrNoMedia is returned when a post targets the video platform without a
// media reference to upload.
var ErrNoMedia = errors.New("youtube publish requires a media attachment")

// Config represents the YouTube OAuth client configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewOAuthConfig builds the oauth2.Config used for the connect flow, the code
// exchange, and worker-side token refresh. The redirect URL must match the
// provider-registered callback exactly.
func NewOAuthConfig(cfg *Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			youtube.YoutubeUploadScope,
			youtube.YoutubeReadonlyScope,
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// Client implements profile fetching and publishing against the YouTube Data API.
type Client struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

func NewClient(oauthConfig *oauth2.Config) *Client {
	return &Client{oauthConfig: oauthConfig, httpClient: http.DefaultClient}
}

// FetchProfile loads the authenticated user's channel (snippet + statistics).
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.ChannelProfile, error) {
	service, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := service.Channels.List([]string{"snippet", "statistics"}).Mine(true).Do()
	if err != nil {
		return nil, fmt.Errorf("channel fetch failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, errors.New("no channel found for this account")
	}
	ch := resp.Items[0]
	profile := &model.ChannelProfile{
		ID:       ch.Id,
		Title:    ch.Snippet.Title,
		Username: ch.Snippet.CustomUrl,
	}
	if profile.Username == "" {
		profile.Username = ch.Snippet.Title
	}
	if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.High != nil {
		profile.AvatarURL = ch.Snippet.Thumbnails.High.Url
	}
	if ch.Statistics != nil {
		profile.Subscribers = int64(ch.Statistics.SubscriberCount)
		profile.Views = int64(ch.Statistics.ViewCount)
	}
	return profile, nil
}

// Platform identifies this adapter in the worker's publisher map.
func (c *Client) Platform() string { return "youtube" }

// Publish uploads the post's first media reference as a public video; the
// post content becomes title and description. Text-only posts are rejected
// because YouTube has no text-post endpoint.
func (c *Client) Publish(ctx context.Context, account *model.SocialAccount, post *model.SocialPost) (*model.PublishResult, error) {
	if len(post.MediaURLs) == 0 {
		return nil, ErrNoMedia
	}
	service, err := c.newService(ctx, account.AccessToken)
	if err != nil {
		return nil, err
	}

	mediaURL := post.MediaURLs[0]
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid media reference: %w", err)
	}
	mediaResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media fetch failed: %w", err)
	}
	defer mediaResp.Body.Close()
	if mediaResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch returned status %d", mediaResp.StatusCode)
	}

	title, description := splitContent(post.Content)
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}
	inserted, err := service.Videos.Insert([]string{"snippet", "status"}, video).Media(mediaResp.Body).Do()
	if err != nil {
		return nil, fmt.Errorf("video insert failed: %w", err)
	}

	return &model.PublishResult{
		PlatformPostID:  inserted.Id,
		PlatformPostURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", inserted.Id),
		HTTPStatus:      http.StatusOK,
		ResponsePayload: []byte(fmt.Sprintf(`{"id":%q}`, inserted.Id)),
	}, nil
}

// Refresh exchanges the stored refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	src := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token refresh failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", time.Time{}, errors.New("token refresh returned no access token")
	}
	return tok.AccessToken, tok.Expiry, nil
}

func (c *Client) newService(ctx context.Context, accessToken string) (*youtube.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	service, err := youtube.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// splitContent derives a video title from the first line of the post content;
// everything else becomes the description.
func splitContent(content string) (string, string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "Untitled", ""
	}
	parts := strings.SplitN(content, "\n", 2)
	title := strings.TrimSpace(parts[0])
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	if len(parts) == 1 {
		return title, content
	}
	return title, strings.TrimSpace(parts[1])
}

var (
	_ repository.IPublisher      = (*Client)(nil)
	_ repository.IProfileFetcher = (*Client)(nil)
	_ repository.ITokenRefresher = (*Client)(nil)
)

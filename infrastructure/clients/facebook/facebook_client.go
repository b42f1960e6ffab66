package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"speakcraft-social/domain/model"
	"speakcraft-social/domain/repository"

	"github.com/google/go-querystring/query"
)

const graphBase = "https://graph.facebook.com/v19.0"

// ErrNoPage is returned when the linked account carries no page token; feed
// publishing always targets a page.
var ErrNoPage = errors.New("facebook publish requires a linked page")

// Client publishes posts to a Facebook page feed via the Graph API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{httpClient: http.DefaultClient, baseURL: graphBase}
}

func (c *Client) Platform() string { return "facebook" }

// feedParams is the Graph API /feed form body.
type feedParams struct {
	Message     string `url:"message"`
	Link        string `url:"link,omitempty"`
	AccessToken string `url:"access_token"`
}

func (c *Client) Publish(ctx context.Context, account *model.SocialAccount, post *model.SocialPost) (*model.PublishResult, error) {
	if account.PageID == nil || *account.PageID == "" {
		return nil, ErrNoPage
	}
	params := feedParams{
		Message:     post.Content,
		AccessToken: account.AccessToken,
	}
	if len(post.MediaURLs) > 0 {
		params.Link = post.MediaURLs[0]
	}
	form, err := query.Values(params)
	if err != nil {
		return nil, err
	}

	postURL := fmt.Sprintf("%s/%s/feed", c.baseURL, url.PathEscape(*account.PageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook post request failed: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook post failed with status %d: %s", resp.StatusCode, string(body))
	}

	var fbResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &fbResp); err != nil || fbResp.ID == "" {
		return nil, fmt.Errorf("facebook response missing post id: %s", string(body))
	}

	return &model.PublishResult{
		PlatformPostID:  fbResp.ID,
		PlatformPostURL: fmt.Sprintf("https://www.facebook.com/%s", fbResp.ID),
		HTTPStatus:      resp.StatusCode,
		ResponsePayload: body,
	}, nil
}

var _ repository.IPublisher = (*Client)(nil)

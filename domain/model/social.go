package model

import (
	"encoding/json"
	"time"
)

// SocialAccount statuses
const (
	AccountStatusActive  = "active"
	AccountStatusExpired = "expired"
	AccountStatusRevoked = "revoked"
)

// SocialPost statuses; transitions only run scheduled -> publishing -> published|failed
const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// AccountMetrics is the opaque metrics blob stored alongside a linked account.
// The dashboard renders it as-is; the core never interprets it beyond persistence.
type AccountMetrics struct {
	Followers  int64 `json:"followers"`
	Engagement int64 `json:"engagement"`
	Views      int64 `json:"views"`
}

// SocialAccount is a user's linked external platform account plus its
// credential material. One row per (user_id, platform, platform_account_id);
// upsert-on-conflict is the only legal write path for connection data.
type SocialAccount struct {
	ID                int64          `json:"id"`
	UserID            string         `json:"user_id"`
	Platform          string         `json:"platform"`
	PlatformAccountID string         `json:"platform_account_id"`
	AccountName       string         `json:"account_name"`
	Username          string         `json:"username"`
	AvatarURL         string         `json:"avatar_url"`
	Metrics           AccountMetrics `json:"metrics"`
	AccessToken       string         `json:"-"`
	RefreshToken      string         `json:"-"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	Status            string         `json:"status"`
	// PageID/PageName carry the selected page for page-scoped platforms (facebook).
	PageID    *string   `json:"page_id,omitempty"`
	PageName  *string   `json:"page_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenExpiring reports whether the access token expires within margin of now.
// Accounts without a recorded expiry are treated as non-expiring.
func (a *SocialAccount) TokenExpiring(now time.Time, margin time.Duration) bool {
	if a.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.Before(now.Add(margin))
}

// SocialPost is a queued piece of content scheduled for future publication.
type SocialPost struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	AccountID       int64      `json:"account_id"`
	Content         string     `json:"content"`
	MediaURLs       []string   `json:"media_urls,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	Status          string     `json:"status"`
	PlatformPostID  *string    `json:"platform_post_id,omitempty"`
	PlatformPostURL *string    `json:"platform_post_url,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
}

// DuePost is a due scheduled post joined with its linked account.
type DuePost struct {
	Post    SocialPost
	Account SocialAccount
}

// PublishLog is an append-only record of one publish attempt.
type PublishLog struct {
	ID              int64           `json:"id"`
	PostID          int64           `json:"post_id"`
	Status          string          `json:"status"`
	HTTPStatus      *int            `json:"http_status,omitempty"`
	ErrorDetails    *string         `json:"error_details,omitempty"`
	RequestPayload  json.RawMessage `json:"request_payload,omitempty"`
	ResponsePayload json.RawMessage `json:"response_payload,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PublishResult is what a platform adapter returns on a successful publish.
type PublishResult struct {
	PlatformPostID  string
	PlatformPostURL string
	HTTPStatus      int
	RequestPayload  json.RawMessage
	ResponsePayload json.RawMessage
}

// ChannelProfile is the public profile of a platform account, fetched right
// after the OAuth code exchange.
type ChannelProfile struct {
	ID          string
	Title       string
	Username    string
	AvatarURL   string
	Subscribers int64
	Views       int64
}

package repository

import (
	"context"
	"time"

	"speakcraft-social/domain/model"
)

// ISocialAccount is the Account Store: linked platform accounts and their
// credential material.
type ISocialAccount interface {
	// Upsert inserts or overwrites the row keyed by
	// (user_id, platform, platform_account_id). The only write path for
	// connection data.
	Upsert(ctx context.Context, a *model.SocialAccount) error
	GetByID(ctx context.Context, id int64) (*model.SocialAccount, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error)
	// UpdateTokens persists a refreshed access token and expiry without
	// touching profile data.
	UpdateTokens(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// ISocialPost is the Post Queue Store.
type ISocialPost interface {
	Create(ctx context.Context, p *model.SocialPost) error
	GetByID(ctx context.Context, id int64) (*model.SocialPost, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SocialPost, error)
	// FetchDue returns scheduled posts whose scheduled_at <= now, joined with
	// their linked accounts, oldest first.
	FetchDue(ctx context.Context, now time.Time) ([]*model.DuePost, error)
	// Claim atomically moves a post from scheduled to publishing. Returns
	// false when another worker run already claimed it.
	Claim(ctx context.Context, id int64) (bool, error)
	MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

// IPublishLog is the append-only publish-attempt audit log.
type IPublishLog interface {
	Append(ctx context.Context, l *model.PublishLog) error
	ListByPost(ctx context.Context, postID int64) ([]*model.PublishLog, error)
}

// IPublisher publishes one post to one platform. Implementations live under
// infrastructure/clients; adding a platform means adding an implementation,
// not touching the worker.
type IPublisher interface {
	Platform() string
	Publish(ctx context.Context, account *model.SocialAccount, post *model.SocialPost) (*model.PublishResult, error)
}

// IProfileFetcher retrieves the public profile of the account that just
// completed the OAuth code exchange.
type IProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*model.ChannelProfile, error)
}

// ITokenRefresher exchanges a refresh token for a fresh access token.
type ITokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiresAt time.Time, err error)
}

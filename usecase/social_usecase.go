package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"speakcraft-social/domain/model"
	"speakcraft-social/domain/repository"
	"speakcraft-social/infrastructure/cache"
	"speakcraft-social/infrastructure/logger"
)

var (
	ErrAccountNotFound = errors.New("social account not found")
	ErrPostNotFound    = errors.New("social post not found")
	ErrNotOwner        = errors.New("resource does not belong to user")
)

type ISocialAccountUsecase interface {
	ConnectAccount(ctx context.Context, state *model.OAuthState, accessToken, refreshToken string, expiresAt *time.Time) (*model.SocialAccount, error)
	ListAccounts(ctx context.Context, userID string) ([]*model.SocialAccount, error)
}

type ISocialPostUsecase interface {
	SchedulePost(ctx context.Context, userID string, accountID int64, content string, mediaURLs []string, scheduledAt *time.Time) (*model.SocialPost, error)
	ListPosts(ctx context.Context, userID string) ([]*model.SocialPost, error)
	GetPostLogs(ctx context.Context, userID string, postID int64) ([]*model.PublishLog, error)
}

type socialAccountUsecase struct {
	accountRepo repository.ISocialAccount
	fetchers    map[string]repository.IProfileFetcher
	socialCache cache.ISocialCache
}

func NewSocialAccountUsecase(accountRepo repository.ISocialAccount, fetchers map[string]repository.IProfileFetcher, socialCache cache.ISocialCache) ISocialAccountUsecase {
	return &socialAccountUsecase{accountRepo: accountRepo, fetchers: fetchers, socialCache: socialCache}
}

// ConnectAccount finishes an OAuth connection: the platform profile is
// fetched with the fresh access token and the account row upserted, so
// reconnecting the same channel updates credentials in place.
func (u *socialAccountUsecase) ConnectAccount(ctx context.Context, state *model.OAuthState, accessToken, refreshToken string, expiresAt *time.Time) (*model.SocialAccount, error) {
	fetcher, ok := u.fetchers[state.Platform]
	if !ok {
		return nil, fmt.Errorf("no profile fetcher for platform %s", state.Platform)
	}
	profile, err := fetcher.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetching %s profile: %w", state.Platform, err)
	}

	account := &model.SocialAccount{
		UserID:            state.UserID,
		Platform:          state.Platform,
		PlatformAccountID: profile.ID,
		AccountName:       profile.Title,
		Username:          profile.Username,
		AvatarURL:         profile.AvatarURL,
		Metrics: model.AccountMetrics{
			Followers: profile.Subscribers,
			Views:     profile.Views,
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Status:       model.AccountStatusActive,
	}
	if err := u.accountRepo.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("upserting social account: %w", err)
	}
	if u.socialCache != nil {
		u.socialCache.SetAccountMetrics(ctx, account.ID, account.Metrics)
	}
	logger.GetLogger().
		WithField("user_id", state.UserID).
		WithField("platform", state.Platform).
		WithField("platform_account_id", profile.ID).
		Info("Social account connected")
	return account, nil
}

func (u *socialAccountUsecase) ListAccounts(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	accounts, err := u.accountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.socialCache != nil {
		for _, a := range accounts {
			if m, err := u.socialCache.GetAccountMetrics(ctx, a.ID); err == nil && m != nil {
				a.Metrics = *m
			}
		}
	}
	return accounts, nil
}

type socialPostUsecase struct {
	postRepo    repository.ISocialPost
	accountRepo repository.ISocialAccount
	logRepo     repository.IPublishLog
}

func NewSocialPostUsecase(postRepo repository.ISocialPost, accountRepo repository.ISocialAccount, logRepo repository.IPublishLog) ISocialPostUsecase {
	return &socialPostUsecase{postRepo: postRepo, accountRepo: accountRepo, logRepo: logRepo}
}

// SchedulePost creates a post against one of the caller's connected
// accounts. A post without a scheduled time stays a draft; the worker only
// picks up scheduled posts whose time has passed.
func (u *socialPostUsecase) SchedulePost(ctx context.Context, userID string, accountID int64, content string, mediaURLs []string, scheduledAt *time.Time) (*model.SocialPost, error) {
	if content == "" && len(mediaURLs) == 0 {
		return nil, errors.New("post needs content or media")
	}
	account, err := u.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if account.UserID != userID {
		return nil, ErrNotOwner
	}

	post := &model.SocialPost{
		UserID:    userID,
		AccountID: accountID,
		Content:   content,
		MediaURLs: mediaURLs,
		Status:    model.PostStatusDraft,
	}
	if scheduledAt != nil {
		post.ScheduledAt = *scheduledAt
		post.Status = model.PostStatusScheduled
	}
	if err := u.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating social post: %w", err)
	}
	return post, nil
}

func (u *socialPostUsecase) ListPosts(ctx context.Context, userID string) ([]*model.SocialPost, error) {
	return u.postRepo.ListByUser(ctx, userID)
}

func (u *socialPostUsecase) GetPostLogs(ctx context.Context, userID string, postID int64) ([]*model.PublishLog, error) {
	post, err := u.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, ErrNotOwner
	}
	return u.logRepo.ListByPost(ctx, postID)
}

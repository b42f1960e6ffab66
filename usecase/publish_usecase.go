package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"speakcraft-social/domain/model"
	"speakcraft-social/domain/repository"
	"speakcraft-social/infrastructure/cache"
	"speakcraft-social/infrastructure/logger"
	"speakcraft-social/infrastructure/persistence"
	"speakcraft-social/infrastructure/pubsub"
	"speakcraft-social/infrastructure/servicebus"
)

// IPublishUsecase drains the scheduled-post queue: due posts are claimed,
// credentials refreshed when expiring, the platform publish call made, and
// the outcome written back to the queue and the audit log.
type IPublishUsecase interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

type publishUsecase struct {
	postRepo    repository.ISocialPost
	accountRepo repository.ISocialAccount
	logRepo     repository.IPublishLog
	publishers  map[string]repository.IPublisher
	refresher   repository.ITokenRefresher
	socialCache cache.ISocialCache

	refreshMargin time.Duration
	callTimeout   time.Duration
	lockTTL       time.Duration

	// Optional fan-out; all nil-safe.
	events      pubsub.IPublishEvents
	eventsTopic string
	bus         servicebus.IPublishEvents
	busQueue    string
	archive     persistence.IPayloadArchive
	broadcast   func(post *model.SocialPost, platform string)
}

func NewPublishUsecase(
	postRepo repository.ISocialPost,
	accountRepo repository.ISocialAccount,
	logRepo repository.IPublishLog,
	publishers []repository.IPublisher,
	refresher repository.ITokenRefresher,
	socialCache cache.ISocialCache,
) *publishUsecase {
	m := make(map[string]repository.IPublisher, len(publishers))
	for _, p := range publishers {
		m[p.Platform()] = p
	}
	return &publishUsecase{
		postRepo:      postRepo,
		accountRepo:   accountRepo,
		logRepo:       logRepo,
		publishers:    m,
		refresher:     refresher,
		socialCache:   socialCache,
		refreshMargin: 5 * time.Minute,
		callTimeout:   60 * time.Second,
		lockTTL:       4 * time.Minute,
	}
}

// WithTimings overrides the refresh margin and per-call publish timeout.
func (u *publishUsecase) WithTimings(refreshMargin, callTimeout time.Duration) *publishUsecase {
	if refreshMargin > 0 {
		u.refreshMargin = refreshMargin
	}
	if callTimeout > 0 {
		u.callTimeout = callTimeout
	}
	return u
}

// WithEvents attaches the Pub/Sub and Service Bus outcome fan-out.
func (u *publishUsecase) WithEvents(events pubsub.IPublishEvents, topic string, bus servicebus.IPublishEvents, queue string) *publishUsecase {
	u.events = events
	u.eventsTopic = topic
	u.bus = bus
	u.busQueue = queue
	return u
}

// WithArchive attaches the raw payload archive.
func (u *publishUsecase) WithArchive(archive persistence.IPayloadArchive) *publishUsecase {
	u.archive = archive
	return u
}

// WithBroadcaster attaches the live status stream for dashboard subscribers.
func (u *publishUsecase) WithBroadcaster(fn func(post *model.SocialPost, platform string)) *publishUsecase {
	u.broadcast = fn
	return u
}

// ProcessDue runs one worker batch. Every due post ends in published or
// failed; one post's failure never aborts the rest of the batch.
func (u *publishUsecase) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	lg := logger.GetLogger()

	if u.socialCache != nil {
		ok, release := u.socialCache.TryRunLock(ctx, u.lockTTL)
		if !ok {
			lg.Info("Publish worker run lock held elsewhere - skipping this invocation")
			return 0, nil
		}
		defer release()
	}

	due, err := u.postRepo.FetchDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("fetching due posts: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	processed := 0
	for _, d := range due {
		if u.processOne(ctx, d, now) {
			processed++
		}
	}
	lg.WithField("due", len(due)).WithField("processed", processed).Info("Publish batch completed")
	return processed, nil
}

// processOne drives a single post to a terminal state. Returns false only
// when the post was already claimed by an overlapping run.
func (u *publishUsecase) processOne(ctx context.Context, d *model.DuePost, now time.Time) (handled bool) {
	lg := logger.GetLogger().WithField("post_id", d.Post.ID).WithField("platform", d.Account.Platform)

	defer func() {
		// A panic inside one post's processing must not take down the batch.
		if r := recover(); r != nil {
			lg.WithField("panic", r).Error("Publish attempt panicked")
			u.fail(ctx, &d.Post, fmt.Sprintf("internal error: %v", r), nil)
			handled = true
		}
	}()

	claimed, err := u.postRepo.Claim(ctx, d.Post.ID)
	if err != nil {
		lg.WithField("error", err).Error("Claim failed")
		return true
	}
	if !claimed {
		lg.Debug("Post already claimed - skipping")
		return false
	}

	account := &d.Account
	if account.TokenExpiring(now, u.refreshMargin) {
		if account.RefreshToken == "" {
			u.fail(ctx, &d.Post, "access token expired and no refresh token on file", nil)
			_ = u.accountRepo.UpdateStatus(ctx, account.ID, model.AccountStatusExpired)
			return true
		}
		accessToken, expiresAt, err := u.refresher.Refresh(ctx, account.RefreshToken)
		if err != nil {
			u.fail(ctx, &d.Post, fmt.Sprintf("token refresh failed: %v", err), nil)
			_ = u.accountRepo.UpdateStatus(ctx, account.ID, model.AccountStatusExpired)
			return true
		}
		if err := u.accountRepo.UpdateTokens(ctx, account.ID, accessToken, expiresAt); err != nil {
			u.fail(ctx, &d.Post, fmt.Sprintf("persisting refreshed token failed: %v", err), nil)
			return true
		}
		account.AccessToken = accessToken
		account.ExpiresAt = &expiresAt
		lg.Info("Access token refreshed before publish")
	}

	publisher, ok := u.publishers[account.Platform]
	if !ok {
		u.fail(ctx, &d.Post, fmt.Sprintf("unsupported platform: %s", account.Platform), nil)
		return true
	}

	callCtx, cancel := context.WithTimeout(ctx, u.callTimeout)
	result, err := publisher.Publish(callCtx, account, &d.Post)
	cancel()
	if err != nil {
		u.fail(ctx, &d.Post, err.Error(), result)
		return true
	}

	if err := u.postRepo.MarkPublished(ctx, d.Post.ID, result.PlatformPostID, result.PlatformPostURL); err != nil {
		lg.WithField("error", err).Error("Marking post published failed")
	}
	httpStatus := result.HTTPStatus
	entry := &model.PublishLog{
		PostID:          d.Post.ID,
		Status:          model.PostStatusPublished,
		HTTPStatus:      &httpStatus,
		RequestPayload:  result.RequestPayload,
		ResponsePayload: result.ResponsePayload,
	}
	if err := u.logRepo.Append(ctx, entry); err != nil {
		lg.WithField("error", err).Error("Appending publish log failed")
	}
	if u.archive != nil {
		u.archive.Archive(ctx, d.Post.ID, model.PostStatusPublished, result.RequestPayload, result.ResponsePayload)
	}
	u.emit(ctx, d.Post.ID, account.Platform, model.PostStatusPublished, result.PlatformPostID)
	if u.broadcast != nil {
		d.Post.Status = model.PostStatusPublished
		d.Post.PlatformPostID = &result.PlatformPostID
		u.broadcast(&d.Post, account.Platform)
	}
	lg.WithField("platform_post_id", result.PlatformPostID).Info("Post published")
	return true
}

// fail moves the post to its terminal failed state and appends the audit row.
func (u *publishUsecase) fail(ctx context.Context, post *model.SocialPost, message string, result *model.PublishResult) {
	lg := logger.GetLogger().WithField("post_id", post.ID)
	if err := u.postRepo.MarkFailed(ctx, post.ID, message); err != nil {
		lg.WithField("error", err).Error("Marking post failed errored")
	}
	entry := &model.PublishLog{
		PostID:       post.ID,
		Status:       model.PostStatusFailed,
		ErrorDetails: &message,
	}
	if result != nil {
		if result.HTTPStatus != 0 {
			s := result.HTTPStatus
			entry.HTTPStatus = &s
		}
		entry.RequestPayload = result.RequestPayload
		entry.ResponsePayload = result.ResponsePayload
	}
	if err := u.logRepo.Append(ctx, entry); err != nil {
		lg.WithField("error", err).Error("Appending publish log failed")
	}
	if u.archive != nil {
		u.archive.Archive(ctx, post.ID, model.PostStatusFailed, entry.RequestPayload, entry.ResponsePayload)
	}
	u.emit(ctx, post.ID, "", model.PostStatusFailed, "")
	if u.broadcast != nil {
		post.Status = model.PostStatusFailed
		post.ErrorMessage = &message
		u.broadcast(post, "")
	}
	lg.WithField("error", message).Warn("Post publish failed")
}

type publishEvent struct {
	PostID         int64  `json:"post_id"`
	Platform       string `json:"platform,omitempty"`
	Status         string `json:"status"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
}

func (u *publishUsecase) emit(ctx context.Context, postID int64, platform, status, platformPostID string) {
	if u.events == nil && u.bus == nil {
		return
	}
	payload, err := json.Marshal(publishEvent{PostID: postID, Platform: platform, Status: status, PlatformPostID: platformPostID})
	if err != nil {
		return
	}
	if u.events != nil && u.eventsTopic != "" {
		if _, err := u.events.Publish(ctx, u.eventsTopic, payload); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Pub/Sub outcome event failed")
		}
	}
	if u.bus != nil && u.busQueue != "" {
		if err := u.bus.SendMessage(ctx, u.busQueue, payload); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Service Bus outcome event failed")
		}
	}
}

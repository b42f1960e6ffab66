package persistence

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speakcraft-social/domain/model"
)

func TestSocialAccountRepositoryUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialAccountRepository(db)

	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	account := &model.SocialAccount{
		UserID:            "user-1",
		Platform:          "youtube",
		PlatformAccountID: "UC123",
		AccountName:       "Speech Practice Channel",
		Username:          "@speechpractice",
		AvatarURL:         "https://img.example/avatar.png",
		Metrics:           model.AccountMetrics{Followers: 1500, Views: 90000},
		AccessToken:       "at-1",
		RefreshToken:      "rt-1",
		ExpiresAt:         &expiry,
		Status:            model.AccountStatusActive,
	}
	metrics, _ := json.Marshal(account.Metrics)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO social_accounts`)).
		WithArgs("user-1", "youtube", "UC123", "Speech Practice Channel", "@speechpractice",
			"https://img.example/avatar.png", metrics, "at-1", "rt-1", &expiry,
			model.AccountStatusActive, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, repo.Upsert(context.Background(), account))
	assert.Equal(t, int64(7), account.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialAccountRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+socialAccountColumns+` FROM social_accounts WHERE id=$1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	account, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, account)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialAccountRepositoryListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialAccountRepository(db)

	now := time.Now().UTC()
	metrics, _ := json.Marshal(model.AccountMetrics{Followers: 10})
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "platform", "platform_account_id", "account_name", "username", "avatar_url",
		"metrics", "access_token", "refresh_token", "expires_at", "status", "page_id", "page_name",
		"created_at", "updated_at",
	}).AddRow(int64(1), "user-1", "youtube", "UC1", "Channel", "@ch", "", metrics,
		"at", "rt", now.Add(time.Hour), model.AccountStatusActive, nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM social_accounts WHERE user_id=$1`)).
		WithArgs("user-1").
		WillReturnRows(rows)

	accounts, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(10), accounts[0].Metrics.Followers)
	assert.Equal(t, "rt", accounts[0].RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialPostRepositoryClaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE social_posts SET status='publishing', updated_at=$1 WHERE id=$2 AND status='scheduled'`)).
		WithArgs(sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.Claim(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialPostRepositoryClaimLosesRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialPostRepository(db)

	// Another worker already flipped the row out of scheduled.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE social_posts`)).
		WithArgs(sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.Claim(context.Background(), 11)
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialPostRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialPostRepository(db)

	post := &model.SocialPost{
		UserID:      "user-1",
		AccountID:   7,
		Content:     "New practice video is up",
		MediaURLs:   []string{"https://media.example/v1.mp4"},
		ScheduledAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	media, _ := json.Marshal(post.MediaURLs)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO social_posts`)).
		WithArgs("user-1", int64(7), "New practice video is up", media, post.ScheduledAt,
			model.PostStatusScheduled, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, model.PostStatusScheduled, post.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialPostRepositoryFetchDueJoinsAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSocialPostRepository(db)

	now := time.Now().UTC()
	media, _ := json.Marshal([]string{"https://media.example/v1.mp4"})
	metrics, _ := json.Marshal(model.AccountMetrics{Followers: 5})

	rows := sqlmock.NewRows([]string{
		"p_id", "p_user_id", "p_account_id", "p_content", "p_media_urls", "p_scheduled_at", "p_status",
		"p_platform_post_id", "p_platform_post_url", "p_error_message", "p_created_at", "p_updated_at", "p_published_at",
		"a_id", "a_user_id", "a_platform", "a_platform_account_id", "a_account_name", "a_username", "a_avatar_url",
		"a_metrics", "a_access_token", "a_refresh_token", "a_expires_at", "a_status", "a_page_id", "a_page_name",
		"a_created_at", "a_updated_at",
	}).AddRow(
		int64(11), "user-1", int64(7), "content", media, now.Add(-time.Minute), model.PostStatusScheduled,
		nil, nil, nil, now, now, nil,
		int64(7), "user-1", "youtube", "UC1", "Channel", "@ch", "",
		metrics, "at", "rt", now.Add(time.Hour), model.AccountStatusActive, nil, nil, now, now,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`JOIN social_accounts a ON a.id = p.account_id`)).
		WithArgs(now).
		WillReturnRows(rows)

	due, err := repo.FetchDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(11), due[0].Post.ID)
	assert.Equal(t, []string{"https://media.example/v1.mp4"}, due[0].Post.MediaURLs)
	assert.Equal(t, "youtube", due[0].Account.Platform)
	assert.Equal(t, "rt", due[0].Account.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishLogRepositoryAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPublishLogRepository(db)

	status := 200
	entry := &model.PublishLog{
		PostID:          11,
		Status:          model.PostStatusPublished,
		HTTPStatus:      &status,
		RequestPayload:  json.RawMessage(`{"title":"t"}`),
		ResponsePayload: json.RawMessage(`{"id":"vid-1"}`),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO social_publish_logs`)).
		WithArgs(int64(11), model.PostStatusPublished, &status, nil,
			[]byte(`{"title":"t"}`), []byte(`{"id":"vid-1"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Append(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

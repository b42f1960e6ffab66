package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"speakcraft-social/domain/model"
)

// SocialPostRepository is the PostgreSQL Post Queue Store.
type SocialPostRepository struct{ db *sql.DB }

func NewSocialPostRepository(db *sql.DB) *SocialPostRepository {
	return &SocialPostRepository{db: db}
}

const socialPostColumns = `id, user_id, account_id, content, media_urls, scheduled_at, status, platform_post_id, platform_post_url, error_message, created_at, updated_at, published_at`

func (r *SocialPostRepository) Create(ctx context.Context, p *model.SocialPost) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = model.PostStatusScheduled
	}
	media, err := json.Marshal(p.MediaURLs)
	if err != nil {
		return err
	}
	q := `INSERT INTO social_posts (user_id, account_id, content, media_urls, scheduled_at, status, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`
	return r.db.QueryRowContext(ctx, q, p.UserID, p.AccountID, p.Content, media, p.ScheduledAt, p.Status, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *SocialPostRepository) GetByID(ctx context.Context, id int64) (*model.SocialPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+socialPostColumns+` FROM social_posts WHERE id=$1`, id)
	return scanSocialPost(row)
}

func (r *SocialPostRepository) ListByUser(ctx context.Context, userID string) ([]*model.SocialPost, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+socialPostColumns+` FROM social_posts WHERE user_id=$1 ORDER BY scheduled_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.SocialPost
	for rows.Next() {
		p, err := scanSocialPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// FetchDue returns scheduled posts whose scheduled_at has passed, joined with
// their linked accounts, oldest first.
func (r *SocialPostRepository) FetchDue(ctx context.Context, now time.Time) ([]*model.DuePost, error) {
	q := `SELECT p.id, p.user_id, p.account_id, p.content, p.media_urls, p.scheduled_at, p.status,
				 p.platform_post_id, p.platform_post_url, p.error_message, p.created_at, p.updated_at, p.published_at,
				 a.id, a.user_id, a.platform, a.platform_account_id, a.account_name, a.username, a.avatar_url,
				 a.metrics, a.access_token, a.refresh_token, a.expires_at, a.status, a.page_id, a.page_name, a.created_at, a.updated_at
		  FROM social_posts p
		  JOIN social_accounts a ON a.id = p.account_id
		  WHERE p.status = 'scheduled' AND p.scheduled_at <= $1
		  ORDER BY p.scheduled_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var due []*model.DuePost
	for rows.Next() {
		d := &model.DuePost{}
		var media []byte
		var postID, postURL, errMsg sql.NullString
		var publishedAt, accExp sql.NullTime
		var metrics []byte
		var refresh, pageID, pageName sql.NullString
		if err := rows.Scan(
			&d.Post.ID, &d.Post.UserID, &d.Post.AccountID, &d.Post.Content, &media, &d.Post.ScheduledAt, &d.Post.Status,
			&postID, &postURL, &errMsg, &d.Post.CreatedAt, &d.Post.UpdatedAt, &publishedAt,
			&d.Account.ID, &d.Account.UserID, &d.Account.Platform, &d.Account.PlatformAccountID, &d.Account.AccountName,
			&d.Account.Username, &d.Account.AvatarURL, &metrics, &d.Account.AccessToken, &refresh, &accExp,
			&d.Account.Status, &pageID, &pageName, &d.Account.CreatedAt, &d.Account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(media) > 0 {
			_ = json.Unmarshal(media, &d.Post.MediaURLs)
		}
		if postID.Valid {
			v := postID.String
			d.Post.PlatformPostID = &v
		}
		if postURL.Valid {
			v := postURL.String
			d.Post.PlatformPostURL = &v
		}
		if errMsg.Valid {
			v := errMsg.String
			d.Post.ErrorMessage = &v
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			d.Post.PublishedAt = &t
		}
		if len(metrics) > 0 {
			_ = json.Unmarshal(metrics, &d.Account.Metrics)
		}
		if refresh.Valid {
			d.Account.RefreshToken = refresh.String
		}
		if accExp.Valid {
			t := accExp.Time
			d.Account.ExpiresAt = &t
		}
		if pageID.Valid {
			v := pageID.String
			d.Account.PageID = &v
		}
		if pageName.Valid {
			v := pageName.String
			d.Account.PageName = &v
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// Claim moves a post from scheduled to publishing. The status filter makes the
// claim atomic: an overlapping worker run gets zero affected rows and skips
// the post.
func (r *SocialPostRepository) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE social_posts SET status='publishing', updated_at=$1 WHERE id=$2 AND status='scheduled'`,
		time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SocialPostRepository) MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_posts SET status='published', platform_post_id=$1, platform_post_url=$2, error_message=NULL, published_at=$3, updated_at=$3 WHERE id=$4`,
		platformPostID, platformPostURL, now, id)
	return err
}

func (r *SocialPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_posts SET status='failed', error_message=$1, updated_at=$2 WHERE id=$3`,
		errorMessage, time.Now().UTC(), id)
	return err
}

func scanSocialPost(row rowScanner) (*model.SocialPost, error) {
	p := &model.SocialPost{}
	var media []byte
	var postID, postURL, errMsg sql.NullString
	var publishedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &p.AccountID, &p.Content, &media, &p.ScheduledAt, &p.Status,
		&postID, &postURL, &errMsg, &p.CreatedAt, &p.UpdatedAt, &publishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(media) > 0 {
		_ = json.Unmarshal(media, &p.MediaURLs)
	}
	if postID.Valid {
		v := postID.String
		p.PlatformPostID = &v
	}
	if postURL.Valid {
		v := postURL.String
		p.PlatformPostURL = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		p.ErrorMessage = &v
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return p, nil
}

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"speakcraft-social/domain/model"
)

// SocialPostRepositoryMSSQL is the Post Queue Store backed by Azure SQL / SQL Server.
type SocialPostRepositoryMSSQL struct{ db *sql.DB }

func NewSocialPostRepositoryMSSQL(db *sql.DB) *SocialPostRepositoryMSSQL {
	return &SocialPostRepositoryMSSQL{db: db}
}

func (r *SocialPostRepositoryMSSQL) Create(ctx context.Context, p *model.SocialPost) error {
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
	q := `INSERT INTO dbo.[social_posts] (user_id, account_id, content, media_urls, scheduled_at, status, created_at, updated_at)
		  OUTPUT INSERTED.id
		  VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8)`
	return r.db.QueryRowContext(ctx, q, p.UserID, p.AccountID, p.Content, string(media), p.ScheduledAt, p.Status, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *SocialPostRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.SocialPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+socialPostColumns+` FROM dbo.[social_posts] WHERE id=@p1`, id)
	return scanSocialPost(row)
}

func (r *SocialPostRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.SocialPost, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+socialPostColumns+` FROM dbo.[social_posts] WHERE user_id=@p1 ORDER BY scheduled_at DESC`, userID)
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

func (r *SocialPostRepositoryMSSQL) FetchDue(ctx context.Context, now time.Time) ([]*model.DuePost, error) {
	q := `SELECT p.id, p.user_id, p.account_id, p.content, p.media_urls, p.scheduled_at, p.status,
				 p.platform_post_id, p.platform_post_url, p.error_message, p.created_at, p.updated_at, p.published_at,
				 a.id, a.user_id, a.platform, a.platform_account_id, a.account_name, a.username, a.avatar_url,
				 a.metrics, a.access_token, a.refresh_token, a.expires_at, a.status, a.page_id, a.page_name, a.created_at, a.updated_at
		  FROM dbo.[social_posts] p
		  JOIN dbo.[social_accounts] a ON a.id = p.account_id
		  WHERE p.status = 'scheduled' AND p.scheduled_at <= @p1
		  ORDER BY p.scheduled_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var due []*model.DuePost
	for rows.Next() {
		d := &model.DuePost{}
		var media, metrics []byte
		var postID, postURL, errMsg, refresh, pageID, pageName sql.NullString
		var publishedAt, accExp sql.NullTime
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
		if len(metrics) > 0 {
			_ = json.Unmarshal(metrics, &d.Account.Metrics)
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

func (r *SocialPostRepositoryMSSQL) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[social_posts] SET status='publishing', updated_at=@p1 WHERE id=@p2 AND status='scheduled'`,
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

func (r *SocialPostRepositoryMSSQL) MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[social_posts] SET status='published', platform_post_id=@p1, platform_post_url=@p2, error_message=NULL, published_at=@p3, updated_at=@p3 WHERE id=@p4`,
		platformPostID, platformPostURL, now, id)
	return err
}

func (r *SocialPostRepositoryMSSQL) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[social_posts] SET status='failed', error_message=@p1, updated_at=@p2 WHERE id=@p3`,
		errorMessage, time.Now().UTC(), id)
	return err
}

// PublishLogRepositoryMSSQL is the append-only audit log for SQL Server.
type PublishLogRepositoryMSSQL struct{ db *sql.DB }

func NewPublishLogRepositoryMSSQL(db *sql.DB) *PublishLogRepositoryMSSQL {
	return &PublishLogRepositoryMSSQL{db: db}
}

func (r *PublishLogRepositoryMSSQL) Append(ctx context.Context, l *model.PublishLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	var httpStatus sql.NullInt64
	if l.HTTPStatus != nil {
		httpStatus.Valid = true
		httpStatus.Int64 = int64(*l.HTTPStatus)
	}
	var errDetails sql.NullString
	if l.ErrorDetails != nil {
		errDetails.Valid = true
		errDetails.String = *l.ErrorDetails
	}
	q := `INSERT INTO dbo.[social_publish_logs] (post_id, status, http_status, error_details, request_payload, response_payload, created_at)
		  VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7)`
	_, err := r.db.ExecContext(ctx, q, l.PostID, l.Status, httpStatus, errDetails,
		nullableJSONString(l.RequestPayload), nullableJSONString(l.ResponsePayload), l.CreatedAt)
	return err
}

func (r *PublishLogRepositoryMSSQL) ListByPost(ctx context.Context, postID int64) ([]*model.PublishLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, status, http_status, error_details, request_payload, response_payload, created_at
		 FROM dbo.[social_publish_logs] WHERE post_id=@p1 ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.PublishLog
	for rows.Next() {
		l := &model.PublishLog{}
		var httpStatus sql.NullInt64
		var errDetails, reqPayload, respPayload sql.NullString
		if err := rows.Scan(&l.ID, &l.PostID, &l.Status, &httpStatus, &errDetails, &reqPayload, &respPayload, &l.CreatedAt); err != nil {
			return nil, err
		}
		if httpStatus.Valid {
			v := int(httpStatus.Int64)
			l.HTTPStatus = &v
		}
		if errDetails.Valid {
			v := errDetails.String
			l.ErrorDetails = &v
		}
		if reqPayload.Valid {
			l.RequestPayload = []byte(reqPayload.String)
		}
		if respPayload.Valid {
			l.ResponsePayload = []byte(respPayload.String)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func nullableJSONString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

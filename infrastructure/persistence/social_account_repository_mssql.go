package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"speakcraft-social/domain/model"
)

// SocialAccountRepositoryMSSQL is the Account Store backed by Azure SQL / SQL Server.
type SocialAccountRepositoryMSSQL struct{ db *sql.DB }

func NewSocialAccountRepositoryMSSQL(db *sql.DB) *SocialAccountRepositoryMSSQL {
	return &SocialAccountRepositoryMSSQL{db: db}
}

// EnsureSocialSchemaMSSQL creates the social tables for SQL Server if they do not exist.
func EnsureSocialSchemaMSSQL(db *sql.DB) error {
	ddls := []string{
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_accounts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_accounts] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(64) NOT NULL,
        platform_account_id NVARCHAR(128) NOT NULL,
        account_name NVARCHAR(255) NOT NULL DEFAULT '',
        username NVARCHAR(255) NOT NULL DEFAULT '',
        avatar_url NVARCHAR(MAX) NOT NULL DEFAULT '',
        metrics NVARCHAR(MAX) NULL,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NULL,
        expires_at DATETIME2 NULL,
        status NVARCHAR(32) NOT NULL DEFAULT 'active',
        page_id NVARCHAR(128) NULL,
        page_name NVARCHAR(255) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_accounts_identity ON dbo.[social_accounts](user_id, platform, platform_account_id);
END`,
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_posts') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_posts] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        user_id NVARCHAR(128) NOT NULL,
        account_id BIGINT NOT NULL,
        content NVARCHAR(MAX) NOT NULL,
        media_urls NVARCHAR(MAX) NULL,
        scheduled_at DATETIME2 NOT NULL,
        status NVARCHAR(32) NOT NULL DEFAULT 'scheduled',
        platform_post_id NVARCHAR(255) NULL,
        platform_post_url NVARCHAR(MAX) NULL,
        error_message NVARCHAR(MAX) NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL,
        published_at DATETIME2 NULL
    );
    CREATE INDEX IX_social_posts_due ON dbo.[social_posts](status, scheduled_at);
END`,
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_publish_logs') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_publish_logs] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        post_id BIGINT NOT NULL,
        status NVARCHAR(32) NOT NULL,
        http_status INT NULL,
        error_details NVARCHAR(MAX) NULL,
        request_payload NVARCHAR(MAX) NULL,
        response_payload NVARCHAR(MAX) NULL,
        created_at DATETIME2 NOT NULL
    );
    CREATE INDEX IX_social_publish_logs_post ON dbo.[social_publish_logs](post_id, created_at);
END`,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create social schema (mssql): %w", err)
		}
	}
	return nil
}

func (r *SocialAccountRepositoryMSSQL) Upsert(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return err
	}
	// Normalize nullable values for the MSSQL driver
	var exp sql.NullTime
	if a.ExpiresAt != nil {
		exp.Valid = true
		exp.Time = *a.ExpiresAt
	}
	var pageID sql.NullString
	if a.PageID != nil {
		pageID.Valid = true
		pageID.String = *a.PageID
	}
	var pageName sql.NullString
	if a.PageName != nil {
		pageName.Valid = true
		pageName.String = *a.PageName
	}
	// MERGE upsert by (user_id, platform, platform_account_id)
	q := `MERGE dbo.[social_accounts] AS target
USING (VALUES (@p1, @p2, @p3)) AS src(user_id, platform, platform_account_id)
ON target.user_id = src.user_id AND target.platform = src.platform AND target.platform_account_id = src.platform_account_id
WHEN MATCHED THEN UPDATE SET
    account_name=@p4,
    username=@p5,
    avatar_url=@p6,
    metrics=@p7,
    access_token=@p8,
    refresh_token=@p9,
    expires_at=@p10,
    status=@p11,
    page_id=@p12,
    page_name=@p13,
    updated_at=@p15
WHEN NOT MATCHED THEN
    INSERT (user_id, platform, platform_account_id, account_name, username, avatar_url, metrics, access_token, refresh_token, expires_at, status, page_id, page_name, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12,@p13,@p14,@p15)
OUTPUT INSERTED.id;`
	return r.db.QueryRowContext(ctx, q,
		a.UserID, a.Platform, a.PlatformAccountID,
		a.AccountName, a.Username, a.AvatarURL, string(metrics),
		a.AccessToken, a.RefreshToken, exp, a.Status, pageID, pageName,
		a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (r *SocialAccountRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+socialAccountColumns+` FROM dbo.[social_accounts] WHERE id=@p1`, id)
	return scanSocialAccount(row)
}

func (r *SocialAccountRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+socialAccountColumns+` FROM dbo.[social_accounts] WHERE user_id=@p1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.SocialAccount
	for rows.Next() {
		a, err := scanSocialAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *SocialAccountRepositoryMSSQL) UpdateTokens(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[social_accounts] SET access_token=@p1, expires_at=@p2, status=@p3, updated_at=@p4 WHERE id=@p5`,
		accessToken, expiresAt, model.AccountStatusActive, time.Now().UTC(), id)
	return err
}

func (r *SocialAccountRepositoryMSSQL) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dbo.[social_accounts] SET status=@p1, updated_at=@p2 WHERE id=@p3`,
		status, time.Now().UTC(), id)
	return err
}

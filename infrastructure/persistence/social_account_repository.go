package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"speakcraft-social/domain/model"
)

// SocialAccountRepository is the PostgreSQL Account Store.
type SocialAccountRepository struct{ db *sql.DB }

func NewSocialAccountRepository(db *sql.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: db}
}

const socialAccountColumns = `id, user_id, platform, platform_account_id, account_name, username, avatar_url, metrics, access_token, refresh_token, expires_at, status, page_id, page_name, created_at, updated_at`

// Upsert writes the connection row keyed by (user_id, platform,
// platform_account_id). Repeated callbacks for the same platform account
// overwrite credentials instead of duplicating rows.
func (r *SocialAccountRepository) Upsert(ctx context.Context, a *model.SocialAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return err
	}
	q := `INSERT INTO social_accounts (user_id, platform, platform_account_id, account_name, username, avatar_url, metrics, access_token, refresh_token, expires_at, status, page_id, page_name, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		  ON CONFLICT (user_id, platform, platform_account_id) DO UPDATE SET
			account_name=EXCLUDED.account_name,
			username=EXCLUDED.username,
			avatar_url=EXCLUDED.avatar_url,
			metrics=EXCLUDED.metrics,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			status=EXCLUDED.status,
			page_id=EXCLUDED.page_id,
			page_name=EXCLUDED.page_name,
			updated_at=EXCLUDED.updated_at
		  RETURNING id`
	return r.db.QueryRowContext(ctx, q,
		a.UserID, a.Platform, a.PlatformAccountID, a.AccountName, a.Username, a.AvatarURL,
		metrics, a.AccessToken, a.RefreshToken, a.ExpiresAt, a.Status, a.PageID, a.PageName,
		a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
}

func (r *SocialAccountRepository) GetByID(ctx context.Context, id int64) (*model.SocialAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+socialAccountColumns+` FROM social_accounts WHERE id=$1`, id)
	return scanSocialAccount(row)
}

func (r *SocialAccountRepository) ListByUser(ctx context.Context, userID string) ([]*model.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+socialAccountColumns+` FROM social_accounts WHERE user_id=$1 ORDER BY created_at ASC`, userID)
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

// UpdateTokens persists a refreshed access token without touching profile data.
func (r *SocialAccountRepository) UpdateTokens(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_accounts SET access_token=$1, expires_at=$2, status=$3, updated_at=$4 WHERE id=$5`,
		accessToken, expiresAt, model.AccountStatusActive, time.Now().UTC(), id)
	return err
}

func (r *SocialAccountRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_accounts SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now().UTC(), id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSocialAccount(row rowScanner) (*model.SocialAccount, error) {
	a := &model.SocialAccount{}
	var metrics []byte
	var exp sql.NullTime
	var refresh, pageID, pageName sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.PlatformAccountID, &a.AccountName, &a.Username, &a.AvatarURL,
		&metrics, &a.AccessToken, &refresh, &exp, &a.Status, &pageID, &pageName, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(metrics) > 0 {
		_ = json.Unmarshal(metrics, &a.Metrics)
	}
	if refresh.Valid {
		a.RefreshToken = refresh.String
	}
	if exp.Valid {
		t := exp.Time
		a.ExpiresAt = &t
	}
	if pageID.Valid {
		v := pageID.String
		a.PageID = &v
	}
	if pageName.Valid {
		v := pageName.String
		a.PageName = &v
	}
	return a, nil
}

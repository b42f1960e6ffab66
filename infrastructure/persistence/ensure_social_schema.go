package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSocialSchema creates the social tables if they are missing.
// Safe to call at startup.
func EnsureSocialSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS social_accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			platform_account_id TEXT NOT NULL,
			account_name TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			metrics JSONB,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'active',
			page_id TEXT,
			page_name TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT ux_social_accounts_identity UNIQUE (user_id, platform, platform_account_id)
		)`,
		`CREATE TABLE IF NOT EXISTS social_posts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_id BIGINT NOT NULL REFERENCES social_accounts(id),
			content TEXT NOT NULL,
			media_urls JSONB,
			scheduled_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			platform_post_id TEXT,
			platform_post_url TEXT,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			published_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS ix_social_posts_due ON social_posts (status, scheduled_at)`,
		`CREATE TABLE IF NOT EXISTS social_publish_logs (
			id BIGSERIAL PRIMARY KEY,
			post_id BIGINT NOT NULL REFERENCES social_posts(id),
			status TEXT NOT NULL,
			http_status INT,
			error_details TEXT,
			request_payload JSONB,
			response_payload JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_social_publish_logs_post ON social_publish_logs (post_id, created_at)`,
	}

	for _, ddl := range ddls {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensuring social schema failed: %w", err)
		}
	}
	return nil
}

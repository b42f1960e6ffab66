package persistence

import (
	"context"
	"database/sql"
	"time"

	"speakcraft-social/domain/model"
)

// PublishLogRepository is the append-only publish-attempt audit log. Entries
// are never updated or deleted.
type PublishLogRepository struct{ db *sql.DB }

func NewPublishLogRepository(db *sql.DB) *PublishLogRepository {
	return &PublishLogRepository{db: db}
}

func (r *PublishLogRepository) Append(ctx context.Context, l *model.PublishLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO social_publish_logs (post_id, status, http_status, error_details, request_payload, response_payload, created_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.ExecContext(ctx, q, l.PostID, l.Status, l.HTTPStatus, l.ErrorDetails,
		nullableJSON(l.RequestPayload), nullableJSON(l.ResponsePayload), l.CreatedAt)
	return err
}

func (r *PublishLogRepository) ListByPost(ctx context.Context, postID int64) ([]*model.PublishLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, status, http_status, error_details, request_payload, response_payload, created_at
		 FROM social_publish_logs WHERE post_id=$1 ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.PublishLog
	for rows.Next() {
		l := &model.PublishLog{}
		var httpStatus sql.NullInt64
		var errDetails sql.NullString
		var reqPayload, respPayload []byte
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
		l.RequestPayload = reqPayload
		l.ResponsePayload = respPayload
		list = append(list, l)
	}
	return list, rows.Err()
}

// nullableJSON maps an empty raw message to NULL so the jsonb column stays
// clean for attempts without a snapshot.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

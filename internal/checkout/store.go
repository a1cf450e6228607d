package checkout

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) SessionStore {
	return &store{db: db}
}

func (s *store) Create(ctx context.Context, sess *Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkout_sessions (id, account_id, price_id, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		sess.ID, sess.AccountID, sess.PriceID, sess.Status,
	)
	return err
}

func (s *store) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE checkout_sessions SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	return err
}

func (s *store) ListOpen(ctx context.Context, after Cursor, createdBefore time.Time, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}

	sessions := []Session{}
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT id, account_id, price_id, status, created_at, updated_at
		FROM checkout_sessions
		WHERE status = 'open' AND (created_at, id) > ($1, $2) AND created_at < $3
		ORDER BY created_at, id
		LIMIT $4
	`, after.CreatedAt, after.ID, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

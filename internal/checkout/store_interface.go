package checkout

import (
	"context"
	"time"
)

type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	UpdateStatus(ctx context.Context, id, status string) error
	// ListOpen returns open sessions created before createdBefore that sort
	// after the cursor, oldest first. A cursor with an empty ID includes
	// sessions created exactly at its CreatedAt.
	ListOpen(ctx context.Context, after Cursor, createdBefore time.Time, limit int) ([]Session, error)
}

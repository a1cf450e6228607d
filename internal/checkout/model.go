package checkout

import "time"

type CreateSessionRequest struct {
	PriceID string `json:"priceId"`
}

type SessionResponse struct {
	ID string `json:"id"`
}

// Cursor is a keyset position in the (created_at, id) order of sessions.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Session is a locally tracked Stripe checkout session.
type Session struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"accountId"`
	PriceID   string    `db:"price_id" json:"priceId"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

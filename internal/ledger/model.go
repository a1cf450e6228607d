package ledger

import "time"

type TransactionType string

const (
	TypePurchase  TransactionType = "purchase"
	TypeDeduction TransactionType = "deduction"
)

const StatusCompleted = "completed"

// Transaction is one row of an account's token history. Deductions carry
// a negative Amount.
type Transaction struct {
	ID                int64           `db:"id" json:"id"`
	AccountID         string          `db:"account_id" json:"accountId"`
	Type              TransactionType `db:"type" json:"type"`
	Amount            int64           `db:"amount" json:"amount"`
	Status            string          `db:"status" json:"status"`
	Description       string          `db:"description" json:"description"`
	ExternalSessionID *string         `db:"external_session_id" json:"externalSessionId,omitempty"`
	StripePriceID     *string         `db:"stripe_price_id" json:"stripePriceId,omitempty"`
	SeekerID          *string         `db:"seeker_id" json:"seekerId,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// Purchase is a paid checkout session to be credited exactly once.
type Purchase struct {
	AccountID   string
	SessionID   string
	PriceID     string
	Tokens      int64
	Description string
}

type CreditResult struct {
	Credited bool
	Balance  int64
	Email    string
	Name     string
}

type Deduction struct {
	AccountID string
	Tokens    int64
	SeekerID  string
}

type DeductResult struct {
	Balance int64
	Email   string
	Name    string
}

type BalanceResponse struct {
	TokenBalance int64 `json:"tokenBalance"`
}

type DeductRequest struct {
	TokensToDeduct int64  `json:"tokensToDeduct" binding:"required,gt=0"`
	SeekerID       string `json:"seekerId" binding:"required"`
}

type DeductResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TokenBalance int64  `json:"tokenBalance"`
}

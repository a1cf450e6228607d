package ledger

import (
	"context"
	"database/sql"
	"errors"

	"centreconnect/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrInvalidAmount      = errors.New("token amount must be positive")
)

const foreignKeyViolation = "23503"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreditPurchase records the purchase and increments the balance in one
// transaction. The unique external_session_id makes a replayed session a
// no-op that reports Credited=false.
func (r *repository) CreditPurchase(ctx context.Context, p Purchase) (*CreditResult, error) {
	if p.Tokens <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var txID int64
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO token_transactions (account_id, type, amount, status, description, external_session_id, stripe_price_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (external_session_id) DO NOTHING
		 RETURNING id`,
		p.AccountID, TypePurchase, p.Tokens, StatusCompleted, p.Description, p.SessionID, nullable(p.PriceID),
	).Scan(&txID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &CreditResult{Credited: false}, nil
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	res := &CreditResult{Credited: true}
	err = tx.QueryRowxContext(ctx,
		`UPDATE accounts
		 SET token_balance = token_balance + $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING token_balance, email, name`,
		p.Tokens, p.AccountID,
	).Scan(&res.Balance, &res.Email, &res.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// Deduct spends tokens only if the balance covers them.
func (r *repository) Deduct(ctx context.Context, d Deduction) (*DeductResult, error) {
	if d.Tokens <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var res DeductResult
	err = tx.QueryRowxContext(ctx,
		`UPDATE accounts
		 SET token_balance = token_balance - $1, updated_at = NOW()
		 WHERE id = $2 AND token_balance >= $1
		 RETURNING token_balance, email, name`,
		d.Tokens, d.AccountID,
	).Scan(&res.Balance, &res.Email, &res.Name)
	if errors.Is(err, sql.ErrNoRows) {
		exists, existsErr := db.Exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, d.AccountID)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, ErrAccountNotFound
		}
		return nil, ErrInsufficientTokens
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO token_transactions (account_id, type, amount, status, description, seeker_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.AccountID, TypeDeduction, -d.Tokens, StatusCompleted, "Profile reveal", nullable(d.SeekerID),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *repository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT token_balance FROM accounts WHERE id = $1`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return balance, err
}

func (r *repository) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, account_id, type, amount, status, description, external_session_id, stripe_price_id, seeker_id, created_at
		FROM token_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

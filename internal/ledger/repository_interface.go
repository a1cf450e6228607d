package ledger

import "context"

type Repository interface {
	CreditPurchase(ctx context.Context, p Purchase) (*CreditResult, error)
	Deduct(ctx context.Context, d Deduction) (*DeductResult, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)
	ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error)
}

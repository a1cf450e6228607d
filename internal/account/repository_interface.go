package account

import "context"

type Repository interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetRole(ctx context.Context, id string) (string, error)
}

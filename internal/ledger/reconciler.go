package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"centreconnect/internal/logger"
	"centreconnect/internal/metrics"
)

var ErrInvalidPurchase = errors.New("purchase requires an account id, a session id and a positive token amount")

// Notifier queues customer emails. Implemented by email.Service.
type Notifier interface {
	SendPurchaseReceipt(ctx context.Context, email, name string, tokens, balance int64, sessionID string) error
	SendDeductionNotice(ctx context.Context, email, name string, tokens, balance int64) error
}

// Reconciler applies paid checkout sessions to token balances. It is safe to
// call any number of times for the same session.
type Reconciler struct {
	repo     Repository
	notifier Notifier
}

func NewReconciler(repo Repository, notifier Notifier) *Reconciler {
	return &Reconciler{repo: repo, notifier: notifier}
}

func (r *Reconciler) Reconcile(ctx context.Context, p Purchase) (*CreditResult, error) {
	p.AccountID = strings.TrimSpace(p.AccountID)
	p.SessionID = strings.TrimSpace(p.SessionID)
	if p.AccountID == "" || p.SessionID == "" || p.Tokens <= 0 {
		metrics.RecordTokenCredit("failed", p.Tokens)
		return nil, ErrInvalidPurchase
	}
	if p.Description == "" {
		p.Description = fmt.Sprintf("Purchase (%d tokens)", p.Tokens)
	}

	res, err := r.repo.CreditPurchase(ctx, p)
	if err != nil {
		metrics.RecordTokenCredit("failed", p.Tokens)
		logger.WithError(err).Error("token credit failed",
			"account_id", p.AccountID, "session_id", p.SessionID, "tokens", p.Tokens)
		return nil, fmt.Errorf("credit session %s: %w", p.SessionID, err)
	}

	if !res.Credited {
		metrics.RecordTokenCredit("duplicate", p.Tokens)
		logger.Info("checkout session already credited",
			"account_id", p.AccountID, "session_id", p.SessionID)
		return res, nil
	}

	metrics.RecordTokenCredit("credited", p.Tokens)
	logger.Info("tokens credited",
		"account_id", p.AccountID, "session_id", p.SessionID, "tokens", p.Tokens, "balance", res.Balance)

	if r.notifier != nil && res.Email != "" {
		if err := r.notifier.SendPurchaseReceipt(ctx, res.Email, res.Name, p.Tokens, res.Balance, p.SessionID); err != nil {
			logger.WithError(err).Warn("failed to queue purchase receipt", "session_id", p.SessionID)
		}
	}

	return res, nil
}

// Deduct spends tokens from a business account.
func (r *Reconciler) Deduct(ctx context.Context, d Deduction) (*DeductResult, error) {
	if d.Tokens <= 0 {
		return nil, ErrInvalidAmount
	}

	res, err := r.repo.Deduct(ctx, d)
	if err != nil {
		if errors.Is(err, ErrInsufficientTokens) {
			logger.Warn("insufficient tokens", "account_id", d.AccountID, "needed", d.Tokens)
		}
		return nil, err
	}

	metrics.RecordTokenDeduction(d.Tokens)
	logger.Info("tokens deducted",
		"account_id", d.AccountID, "seeker_id", d.SeekerID, "tokens", d.Tokens, "balance", res.Balance)

	if r.notifier != nil && res.Email != "" {
		if err := r.notifier.SendDeductionNotice(ctx, res.Email, res.Name, d.Tokens, res.Balance); err != nil {
			logger.WithError(err).Warn("failed to queue deduction notice", "account_id", d.AccountID)
		}
	}

	return res, nil
}

// Package payment wraps the Stripe API calls used by the token purchase flow.
package payment

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("payment: stripe credentials are not configured")
	ErrNoLineItems   = errors.New("payment: checkout session has no priced line items")
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"

	PaymentStatusPaid = "paid"

	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// CheckoutRequest describes a single-price token purchase.
type CheckoutRequest struct {
	UserID     string
	Email      string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID                string
	URL               string
	Status            string
	PaymentStatus     string
	ClientReferenceID string
	CustomerEmail     string
	Metadata          map[string]string
}

// Price is a Stripe price with its product expanded.
type Price struct {
	ID              string
	ProductName     string
	Metadata        map[string]string
	ProductMetadata map[string]string
}

// Event is a signature-verified webhook event. Session is set only for
// checkout session events.
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

type Gateway interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	SessionPrice(ctx context.Context, sessionID string) (*Price, error)
	ConstructEvent(payload []byte, sigHeader string) (*Event, error)
}

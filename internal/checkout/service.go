package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"centreconnect/internal/account"
	"centreconnect/internal/api"
	"centreconnect/internal/auth"
	"centreconnect/internal/logger"
	"centreconnect/internal/metrics"
	"centreconnect/internal/payment"
)

const (
	msgConfiguration   = "Server configuration error. Please try again later."
	msgUnauthenticated = "Authentication required. You must be logged in to make a purchase."
	msgInvalidPrice    = "Invalid request: A valid 'priceId' string must be provided."
	msgBusinessOnly    = "Only business users are permitted to purchase tokens."
	msgProcessorAuth   = "Payment processor is unavailable. Please try again later."
	msgCheckoutFailed  = "Failed to create checkout session."
	tokensPagePath     = "/business/tokens"
)

type AccountLookup interface {
	FindByID(ctx context.Context, id string) (*account.Account, error)
}

type Service struct {
	gateway  payment.Gateway
	accounts AccountLookup
	sessions SessionStore
	appURL   string
	allowed  map[string]struct{}
}

// NewService builds the checkout service. When priceIDs is empty any price
// id is forwarded to Stripe.
func NewService(gateway payment.Gateway, accounts AccountLookup, sessions SessionStore, appURL string, priceIDs []string) *Service {
	allowed := make(map[string]struct{}, len(priceIDs))
	for _, id := range priceIDs {
		allowed[id] = struct{}{}
	}
	return &Service{
		gateway:  gateway,
		accounts: accounts,
		sessions: sessions,
		appURL:   strings.TrimRight(appURL, "/"),
		allowed:  allowed,
	}
}

func (s *Service) CreateCheckoutSession(ctx context.Context, principal *auth.Principal, priceID string) (*SessionResponse, error) {
	resp, err := s.createCheckoutSession(ctx, principal, priceID)
	if err != nil {
		metrics.RecordCheckoutSession(string(api.CodeOf(err)))
		return nil, err
	}
	metrics.RecordCheckoutSession("created")
	return resp, nil
}

func (s *Service) createCheckoutSession(ctx context.Context, principal *auth.Principal, priceID string) (*SessionResponse, error) {
	if !s.gateway.Configured() {
		logger.Error("checkout unavailable: stripe secret key or webhook secret is not set")
		return nil, api.NewError(api.CodeInternal, msgConfiguration)
	}

	if principal == nil || principal.UserID == "" {
		return nil, api.NewError(api.CodeUnauthenticated, msgUnauthenticated)
	}

	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, api.NewError(api.CodeInvalidArgument, msgInvalidPrice)
	}
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[priceID]; !ok {
			logger.Warn("checkout requested for unlisted price", "user_id", principal.UserID, "price_id", priceID)
			return nil, api.NewError(api.CodeInvalidArgument, msgInvalidPrice)
		}
	}

	acct, err := s.accounts.FindByID(ctx, principal.UserID)
	if err != nil && !errors.Is(err, account.ErrAccountNotFound) {
		return nil, api.Wrap(api.CodeInternal, msgCheckoutFailed, err)
	}
	if acct == nil || acct.Role != account.RoleBusiness {
		logger.Warn("checkout denied: caller is not a business account", "user_id", principal.UserID)
		return nil, api.NewError(api.CodePermissionDenied, msgBusinessOnly)
	}

	email := principal.Email
	if email == "" {
		email = acct.Email
	}
	returnURL := s.appURL + tokensPagePath

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		UserID:     acct.ID,
		Email:      email,
		PriceID:    priceID,
		SuccessURL: returnURL,
		CancelURL:  returnURL,
	})
	if err != nil {
		logger.WithError(err).Error("stripe checkout session creation failed", "user_id", acct.ID, "price_id", priceID)
		return nil, mapProcessorError(err, priceID)
	}

	if err := s.sessions.Create(ctx, &Session{
		ID:        session.ID,
		AccountID: acct.ID,
		PriceID:   priceID,
		Status:    payment.SessionStatusOpen,
	}); err != nil {
		logger.WithError(err).Warn("failed to record checkout session", "session_id", session.ID)
	}

	logger.Info("checkout session created", "user_id", acct.ID, "session_id", session.ID, "price_id", priceID)
	return &SessionResponse{ID: session.ID}, nil
}

func mapProcessorError(err error, priceID string) error {
	switch {
	case payment.IsNoSuchPrice(err):
		return api.Wrap(api.CodeInternal, fmt.Sprintf("Invalid package selected (Price ID: %s not found in Stripe).", priceID), err)
	case payment.IsAuthentication(err):
		return api.Wrap(api.CodeInternal, msgProcessorAuth, err)
	}
	if msg, ok := payment.ProcessorMessage(err); ok {
		return api.Wrap(api.CodeInternal, "Stripe Error: "+msg, err)
	}
	return api.Wrap(api.CodeInternal, msgCheckoutFailed, err)
}

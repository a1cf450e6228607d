// Package paymenttest provides a testify mock of payment.Gateway.
package paymenttest

import (
	"context"

	"centreconnect/internal/payment"

	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

var _ payment.Gateway = (*Gateway)(nil)

func (g *Gateway) Configured() bool {
	return g.Called().Bool(0)
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := g.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (g *Gateway) GetCheckoutSession(ctx context.Context, id string) (*payment.CheckoutSession, error) {
	args := g.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (g *Gateway) SessionPrice(ctx context.Context, sessionID string) (*payment.Price, error) {
	args := g.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Price), args.Error(1)
}

func (g *Gateway) ConstructEvent(payload []byte, sigHeader string) (*payment.Event, error) {
	args := g.Called(payload, sigHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

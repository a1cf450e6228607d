package payment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

func asStripeError(err error) (*stripe.Error, bool) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr, true
	}
	return nil, false
}

// IsNoSuchPrice reports whether Stripe rejected the request because the
// price id does not exist.
func IsNoSuchPrice(err error) bool {
	stripeErr, ok := asStripeError(err)
	if !ok {
		return false
	}
	return stripeErr.Type == stripe.ErrorTypeInvalidRequest && strings.Contains(stripeErr.Msg, "No such price")
}

func IsAuthentication(err error) bool {
	stripeErr, ok := asStripeError(err)
	return ok && stripeErr.HTTPStatusCode == http.StatusUnauthorized
}

// ProcessorMessage returns Stripe's own message for err, if err came from Stripe.
func ProcessorMessage(err error) (string, bool) {
	stripeErr, ok := asStripeError(err)
	if !ok {
		return "", false
	}
	return stripeErr.Msg, true
}

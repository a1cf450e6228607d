// Package webhook verifies Stripe deliveries and credits paid checkout
// sessions. Response statuses drive Stripe's redelivery: 5xx is retried,
// 2xx and 4xx are not.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"centreconnect/internal/ledger"
	"centreconnect/internal/logger"
	"centreconnect/internal/metrics"
	"centreconnect/internal/payment"
)

const tokenAmountKey = "tokenAmount"

var ErrInvalidTokenAmount = errors.New("tokenAmount metadata is missing or not a positive integer")

type Result struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	// Credited is set only when this call added tokens to the ledger.
	Credited bool `json:"-"`
}

func result(status int, msg string) Result {
	return Result{Status: status, Message: msg}
}

type Reconciler interface {
	Reconcile(ctx context.Context, p ledger.Purchase) (*ledger.CreditResult, error)
}

type SessionMarker interface {
	UpdateStatus(ctx context.Context, id, status string) error
}

type Service struct {
	gateway    payment.Gateway
	reconciler Reconciler
	sessions   SessionMarker
	timeout    time.Duration
}

func NewService(gateway payment.Gateway, reconciler Reconciler, sessions SessionMarker, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{
		gateway:    gateway,
		reconciler: reconciler,
		sessions:   sessions,
		timeout:    timeout,
	}
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) Result {
	eventType, res := s.handle(ctx, payload, signature)
	if eventType == "" {
		eventType = "unverified"
	}
	metrics.RecordWebhookEvent(eventType, strconv.Itoa(res.Status))
	return res
}

func (s *Service) handle(ctx context.Context, payload []byte, signature string) (string, Result) {
	if !s.gateway.Configured() {
		logger.Error("webhook rejected: stripe secret key or webhook secret is not set")
		return "", result(http.StatusInternalServerError, "Server configuration error.")
	}

	if len(payload) == 0 || strings.TrimSpace(signature) == "" {
		return "", result(http.StatusBadRequest, "Missing request body or Stripe-Signature header.")
	}

	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		logger.WithError(err).Warn("webhook signature verification failed")
		return "", result(http.StatusBadRequest, "Webhook signature verification failed.")
	}

	if event.Type != payment.EventCheckoutSessionCompleted {
		logger.Debug("ignoring webhook event", "event_id", event.ID, "type", event.Type)
		return event.Type, result(http.StatusOK, "Event ignored.")
	}
	if event.Session == nil {
		logger.Warn("completed checkout event without a session", "event_id", event.ID)
		return event.Type, result(http.StatusBadRequest, "Event has no checkout session.")
	}

	return event.Type, s.ProcessCompletedSession(ctx, event.Session)
}

// ProcessCompletedSession credits a completed checkout session. It is shared
// by the webhook endpoint and the reconciliation sweep.
func (s *Service) ProcessCompletedSession(ctx context.Context, session *payment.CheckoutSession) Result {
	if session.PaymentStatus != payment.PaymentStatusPaid {
		logger.Info("checkout session not paid, skipping",
			"session_id", session.ID, "payment_status", session.PaymentStatus)
		return result(http.StatusOK, "Session not paid.")
	}

	userID := session.ClientReferenceID
	if userID == "" {
		userID = session.Metadata[payment.MetadataUserID]
	}
	if userID == "" {
		logger.Error("paid checkout session has no client reference", "session_id", session.ID)
		return result(http.StatusBadRequest, "Session has no client reference.")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	price, err := s.gateway.SessionPrice(ctx, session.ID)
	if err != nil {
		logger.WithError(err).Error("failed to resolve session price", "session_id", session.ID)
		return result(http.StatusInternalServerError, "Failed to resolve purchased package.")
	}

	tokens, err := TokenAmount(price)
	if err != nil {
		logger.WithError(err).Error("cannot determine tokens for price",
			"session_id", session.ID, "price_id", price.ID)
		return result(http.StatusInternalServerError, "Purchased package has no valid token amount.")
	}

	res, err := s.reconciler.Reconcile(ctx, ledger.Purchase{
		AccountID:   userID,
		SessionID:   session.ID,
		PriceID:     price.ID,
		Tokens:      tokens,
		Description: price.ProductName,
	})
	if err != nil {
		return result(http.StatusInternalServerError, "Failed to update token balance.")
	}

	if s.sessions != nil {
		if err := s.sessions.UpdateStatus(ctx, session.ID, payment.SessionStatusComplete); err != nil {
			logger.WithError(err).Warn("failed to mark checkout session complete", "session_id", session.ID)
		}
	}

	if !res.Credited {
		return result(http.StatusOK, "Session already processed.")
	}
	out := result(http.StatusOK, "Tokens credited.")
	out.Credited = true
	return out
}

// TokenAmount reads tokenAmount from the price metadata, falling back to
// the product metadata.
func TokenAmount(price *payment.Price) (int64, error) {
	raw := strings.TrimSpace(price.Metadata[tokenAmountKey])
	if raw == "" {
		raw = strings.TrimSpace(price.ProductMetadata[tokenAmountKey])
	}
	if raw == "" {
		return 0, ErrInvalidTokenAmount
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTokenAmount, raw)
	}
	return n, nil
}

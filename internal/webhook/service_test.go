package webhook

import (
	"context"
	"net/http"
	"testing"
	"time"

	"centreconnect/internal/ledger"
	"centreconnect/internal/payment"
	"centreconnect/internal/payment/paymenttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, p ledger.Purchase) (*ledger.CreditResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CreditResult), args.Error(1)
}

type MockMarker struct {
	mock.Mock
}

func (m *MockMarker) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type fixture struct {
	gateway    *paymenttest.Gateway
	reconciler *MockReconciler
	marker     *MockMarker
	service    *Service
}

func newFixture() *fixture {
	f := &fixture{
		gateway:    new(paymenttest.Gateway),
		reconciler: new(MockReconciler),
		marker:     new(MockMarker),
	}
	f.service = NewService(f.gateway, f.reconciler, f.marker, time.Second)
	return f
}

var (
	payload   = []byte(`{"id":"evt_1"}`)
	signature = "t=1,v1=abc"
)

func paidSession() *payment.CheckoutSession {
	return &payment.CheckoutSession{
		ID:                "cs_test_1",
		Status:            payment.SessionStatusComplete,
		PaymentStatus:     payment.PaymentStatusPaid,
		ClientReferenceID: "acc-1",
	}
}

func completedEvent(s *payment.CheckoutSession) *payment.Event {
	return &payment.Event{ID: "evt_1", Type: payment.EventCheckoutSessionCompleted, Session: s}
}

var starterPrice = &payment.Price{
	ID:              "price_A",
	ProductName:     "Starter Package",
	ProductMetadata: map[string]string{"tokenAmount": "100"},
}

var starterPurchase = ledger.Purchase{
	AccountID:   "acc-1",
	SessionID:   "cs_test_1",
	PriceID:     "price_A",
	Tokens:      100,
	Description: "Starter Package",
}

func TestHandleWebhook_CreditsPaidSession(t *testing.T) {
	f := newFixture()
	f.gateway.On("Configured").Return(true)
	f.gateway.On("ConstructEvent", payload, signature).Return(completedEvent(paidSession()), nil)
	f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").Return(starterPrice, nil)
	f.reconciler.On("Reconcile", mock.Anything, starterPurchase).Return(&ledger.CreditResult{Credited: true, Balance: 100}, nil)
	f.marker.On("UpdateStatus", mock.Anything, "cs_test_1", "complete").Return(nil)

	res := f.service.HandleWebhook(context.Background(), payload, signature)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.Credited)
	f.reconciler.AssertExpectations(t)
	f.marker.AssertExpectations(t)
}

func TestHandleWebhook_RedeliveryAcknowledged(t *testing.T) {
	f := newFixture()
	f.gateway.On("Configured").Return(true)
	f.gateway.On("ConstructEvent", payload, signature).Return(completedEvent(paidSession()), nil)
	f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").Return(starterPrice, nil)
	f.reconciler.On("Reconcile", mock.Anything, starterPurchase).Return(&ledger.CreditResult{Credited: false}, nil)
	f.marker.On("UpdateStatus", mock.Anything, "cs_test_1", "complete").Return(nil)

	for i := 0; i < 3; i++ {
		res := f.service.HandleWebhook(context.Background(), payload, signature)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.False(t, res.Credited)
	}
	f.reconciler.AssertNumberOfCalls(t, "Reconcile", 3)
}

func TestHandleWebhook_NotConfigured(t *testing.T) {
	f := newFixture()
	f.gateway.On("Configured").Return(false)

	res := f.service.HandleWebhook(context.Background(), payload, signature)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	f.gateway.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything)
}

func TestHandleWebhook_MissingInput(t *testing.T) {
	f := newFixture()
	f.gateway.On("Configured").Return(true)

	assert.Equal(t, http.StatusBadRequest, f.service.HandleWebhook(context.Background(), nil, signature).Status)
	assert.Equal(t, http.StatusBadRequest, f.service.HandleWebhook(context.Background(), payload, " ").Status)
	f.gateway.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything)
}

func TestHandleWebhook_BadSignatureNeverTouchesLedger(t *testing.T) {
	f := newFixture()
	f.gateway.On("Configured").Return(true)
	f.gateway.On("ConstructEvent", payload, signature).Return(nil, assert.AnError)

	res := f.service.HandleWebhook(context.Background(), payload, signature)

	assert.Equal(t, http.StatusBadRequest, res.Status)
	f.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestHandleWebhook_OtherEventTypesAcknowledged(t *testing.T) {
	f := newFixture()
	f.gateway.On("Configured").Return(true)
	f.gateway.On("ConstructEvent", payload, signature).Return(&payment.Event{ID: "evt_2", Type: "customer.created"}, nil)

	res := f.service.HandleWebhook(context.Background(), payload, signature)

	assert.Equal(t, http.StatusOK, res.Status)
	f.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestHandleWebhook_UnpaidSessionIgnored(t *testing.T) {
	f := newFixture()
	session := paidSession()
	session.PaymentStatus = "unpaid"
	f.gateway.On("Configured").Return(true)
	f.gateway.On("ConstructEvent", payload, signature).Return(completedEvent(session), nil)

	res := f.service.HandleWebhook(context.Background(), payload, signature)

	assert.Equal(t, http.StatusOK, res.Status)
	f.gateway.AssertNotCalled(t, "SessionPrice", mock.Anything, mock.Anything)
	f.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestHandleWebhook_MissingClientReference(t *testing.T) {
	f := newFixture()
	session := paidSession()
	session.ClientReferenceID = ""
	f.gateway.On("Configured").Return(true)
	f.gateway.On("ConstructEvent", payload, signature).Return(completedEvent(session), nil)

	res := f.service.HandleWebhook(context.Background(), payload, signature)

	assert.Equal(t, http.StatusBadRequest, res.Status)
	f.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestProcessCompletedSession_MetadataUserFallback(t *testing.T) {
	f := newFixture()
	session := paidSession()
	session.ClientReferenceID = ""
	session.Metadata = map[string]string{"userId": "acc-1"}
	f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").Return(starterPrice, nil)
	f.reconciler.On("Reconcile", mock.Anything, starterPurchase).Return(&ledger.CreditResult{Credited: true}, nil)
	f.marker.On("UpdateStatus", mock.Anything, "cs_test_1", "complete").Return(assert.AnError)

	res := f.service.ProcessCompletedSession(context.Background(), session)

	assert.Equal(t, http.StatusOK, res.Status)
	f.reconciler.AssertExpectations(t)
}

func TestProcessCompletedSession_AmountResolutionFailures(t *testing.T) {
	tests := []struct {
		name     string
		price    *payment.Price
		priceErr error
	}{
		{"price lookup fails", nil, assert.AnError},
		{"no metadata", &payment.Price{ID: "price_A"}, nil},
		{"not a number", &payment.Price{ID: "price_A", Metadata: map[string]string{"tokenAmount": "lots"}}, nil},
		{"zero", &payment.Price{ID: "price_A", Metadata: map[string]string{"tokenAmount": "0"}}, nil},
		{"negative", &payment.Price{ID: "price_A", ProductMetadata: map[string]string{"tokenAmount": "-100"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.priceErr != nil {
				f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").Return(nil, tt.priceErr)
			} else {
				f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").Return(tt.price, nil)
			}

			res := f.service.ProcessCompletedSession(context.Background(), paidSession())

			assert.Equal(t, http.StatusInternalServerError, res.Status)
			f.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessCompletedSession_LedgerFailureIsRetryable(t *testing.T) {
	f := newFixture()
	f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").Return(starterPrice, nil)
	f.reconciler.On("Reconcile", mock.Anything, starterPurchase).Return(nil, assert.AnError)

	res := f.service.ProcessCompletedSession(context.Background(), paidSession())

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	f.marker.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessCompletedSession_SlowProcessorFailsClosed(t *testing.T) {
	f := newFixture()
	f.service.timeout = 20 * time.Millisecond
	f.gateway.On("SessionPrice", mock.Anything, "cs_test_1").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	start := time.Now()
	res := f.service.ProcessCompletedSession(context.Background(), paidSession())

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTokenAmount(t *testing.T) {
	n, err := TokenAmount(&payment.Price{
		Metadata:        map[string]string{"tokenAmount": " 250 "},
		ProductMetadata: map[string]string{"tokenAmount": "100"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), n, "price metadata wins over product metadata")

	n, err = TokenAmount(&payment.Price{ProductMetadata: map[string]string{"tokenAmount": "600"}})
	require.NoError(t, err)
	assert.Equal(t, int64(600), n)

	_, err = TokenAmount(&payment.Price{Metadata: map[string]string{"tokenAmount": "1.5"}})
	assert.ErrorIs(t, err, ErrInvalidTokenAmount)
}

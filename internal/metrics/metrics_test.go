package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/webhooks/stripe", "200", 0.1)
	RecordHTTPRequest("POST", "/webhooks/stripe", "200", 0.2)
	RecordHTTPRequest("POST", "/webhooks/stripe", "400", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/webhooks/stripe", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/webhooks/stripe", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordCheckoutSession(t *testing.T) {
	CheckoutSessionsTotal.Reset()

	RecordCheckoutSession("created")
	RecordCheckoutSession("permission-denied")
	RecordCheckoutSession("created")

	assert.Equal(t, float64(2), testutil.ToFloat64(CheckoutSessionsTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CheckoutSessionsTotal.WithLabelValues("permission-denied")))
}

func TestRecordWebhookEvent(t *testing.T) {
	WebhookEventsTotal.Reset()

	RecordWebhookEvent("checkout.session.completed", "200")

	assert.Equal(t, float64(1), testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("checkout.session.completed", "200")))
}

func TestRecordTokenCredit(t *testing.T) {
	TokenCreditsTotal.Reset()
	before := testutil.ToFloat64(TokensCreditedTotal)

	RecordTokenCredit("credited", 100)
	RecordTokenCredit("duplicate", 100)
	RecordTokenCredit("failed", 250)

	assert.Equal(t, float64(1), testutil.ToFloat64(TokenCreditsTotal.WithLabelValues("credited")))
	assert.Equal(t, float64(1), testutil.ToFloat64(TokenCreditsTotal.WithLabelValues("duplicate")))
	assert.Equal(t, before+100, testutil.ToFloat64(TokensCreditedTotal))
}

func TestRecordTokenDeduction(t *testing.T) {
	before := testutil.ToFloat64(TokensDeductedTotal)
	RecordTokenDeduction(5)
	assert.Equal(t, before+5, testutil.ToFloat64(TokensDeductedTotal))
}

func TestRecordSweepSession(t *testing.T) {
	SweepSessionsTotal.Reset()

	RecordSweepSession("credited")
	RecordSweepSession("expired")

	assert.Equal(t, float64(1), testutil.ToFloat64(SweepSessionsTotal.WithLabelValues("expired")))
}

func TestRecordEmail(t *testing.T) {
	EmailsSentTotal.Reset()

	RecordEmail("purchase_receipt", "success")
	RecordEmail("purchase_receipt", "failed")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("purchase_receipt", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("purchase_receipt", "failed")))
}

func TestSetEmailQueueLength(t *testing.T) {
	SetEmailQueueLength(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(EmailQueueLength))
}

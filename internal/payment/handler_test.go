// GreatK Platform | 2026
// handler_test.go

package payment

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greatk-dev/greatk-api/internal/order"
)

func webhookBody(orderID, status, customerID string) string {
	return fmt.Sprintf(`{
		"data": {
			"order": {"order_id": %q},
			"payment": {"payment_status": %q},
			"customer_details": {"customer_id": %q}
		}
	}`, orderID, status, customerID)
}

func newWebhookHandler(orders *fakeOrders) *Handler {
	svc := NewService(
		orders,
		newFakeReferrals(),
		newFakeEntitlements(),
		&fakePayout{},
		testLogger(),
	)
	return NewHandler(nil, nil, svc, nil)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	h := newWebhookHandler(newFakeOrders())

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/payments/webhook",
		strings.NewReader("{not json"),
	)
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid webhook body")
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	h := newWebhookHandler(newFakeOrders())

	bodies := []string{
		`{}`,
		`{"data": {}}`,
		webhookBody("", "SUCCESS", "u1"),
		webhookBody("ord1", "", "u1"),
		webhookBody("ord1", "SUCCESS", ""),
	}

	for _, body := range bodies {
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/payments/webhook",
			strings.NewReader(body),
		)
		rec := httptest.NewRecorder()

		h.Webhook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestWebhookUnknownOrderReturns500(t *testing.T) {
	h := newWebhookHandler(newFakeOrders())

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/payments/webhook",
		strings.NewReader(webhookBody("missing", "SUCCESS", "u1")),
	)
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookAcksSettlement(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 100, nil))
	h := newWebhookHandler(orders)

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/payments/webhook",
		strings.NewReader(webhookBody("ord1", "SUCCESS", "u1")),
	)
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "settled")
	assert.Equal(t, order.StatusPaid, orders.get("ord1").Status)
}

func TestWebhookAcksNonSuccessStatus(t *testing.T) {
	orders := newFakeOrders(pendingOrder("ord1", "u1", "v1", 100, nil))
	h := newWebhookHandler(orders)

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/payments/webhook",
		strings.NewReader(webhookBody("ord1", "FAILED", "u1")),
	)
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skipped")
	assert.Equal(t, order.StatusPending, orders.get("ord1").Status)
}

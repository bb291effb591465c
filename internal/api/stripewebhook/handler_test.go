package stripewebhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "whsec_test_secret"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(t *testing.T, id, eventType string, object any) []byte {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-08-16",
		"created":     time.Now().Unix(),
		"data":        map[string]json.RawMessage{"object": raw},
	})
	require.NoError(t, err)
	return body
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/webhook", h.StripeWebhook)
	return r
}

func post(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestHandler(t *testing.T, f *fixture, secret string) *Handler {
	t.Helper()
	return NewHandler(f.rec, f.store, secret, prometheus.NewRegistry(), zap.NewNop().Sugar())
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t, billing.StatusPending)
	h := newTestHandler(t, f, testSecret)
	r := newTestRouter(h)
	body := eventPayload(t, "evt_1", "checkout.session.expired", map[string]any{"id": "cs_test_1", "object": "checkout.session"})

	w := post(r, body, sign(body, "whsec_wrong", time.Now()))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(r, body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, billing.StatusPending, f.storedSub().Status)
	assert.Equal(t, 2.0, testutil.ToFloat64(h.count.WithLabelValues("unknown", outcomeRejected)))
}

func TestWebhookWithoutSecret(t *testing.T) {
	f := newFixture(t, billing.StatusPending)
	r := newTestRouter(newTestHandler(t, f, ""))

	w := post(r, []byte(`{}`), "t=1,v1=00")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	f := newFixture(t, billing.StatusPending)
	r := newTestRouter(newTestHandler(t, f, testSecret))
	body := []byte(strings.Repeat("x", maxBodyBytes+1))

	w := post(r, body, sign(body, testSecret, time.Now()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookExpiresCheckoutAndRecordsEvent(t *testing.T) {
	f := newFixture(t, billing.StatusPending)
	h := newTestHandler(t, f, testSecret)
	r := newTestRouter(h)
	body := eventPayload(t, "evt_exp", "checkout.session.expired", map[string]any{
		"id": "cs_test_1", "object": "checkout.session", "status": "expired",
	})

	w := post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, billing.StatusCancelled, f.storedSub().Status)

	ev := f.store.Events["evt_exp"]
	require.NotNil(t, ev)
	assert.Equal(t, billing.EventProcessed, ev.Status)
	assert.Equal(t, "checkout.session.expired", ev.Type)

	// a replay of a processed event is acknowledged without re-running
	w = post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"duplicate":true}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.count.WithLabelValues("checkout.session.expired", outcomeDuplicate)))
}

func TestWebhookSwallowsProcessingErrors(t *testing.T) {
	f := newFixture(t, billing.StatusActive)
	r := newTestRouter(newTestHandler(t, f, testSecret))
	body := eventPayload(t, "evt_fail", "invoice.payment_failed", map[string]any{
		"id": "in_1", "object": "invoice", "subscription": "sub_unknown", "customer": "cus_unknown",
	})

	w := post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)

	ev := f.store.Events["evt_fail"]
	require.NotNil(t, ev)
	assert.Equal(t, billing.EventFailed, ev.Status)
	require.NotNil(t, ev.Error)
	assert.Contains(t, *ev.Error, "no local subscription")
}

func TestWebhookRetriesFailedEvent(t *testing.T) {
	f := activeFixture(t, billing.StatusActive)
	r := newTestRouter(newTestHandler(t, f, testSecret))
	f.store.Events["evt_retry"] = &billing.StripeEvent{ID: "evt_retry", Type: "invoice.payment_failed", Status: billing.EventFailed}
	body := eventPayload(t, "evt_retry", "invoice.payment_failed", map[string]any{
		"id": "in_9", "object": "invoice", "subscription": "sub_1", "customer": "cus_1", "amount_due": 19900, "currency": "brl",
	})

	w := post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.EventProcessed, f.store.Events["evt_retry"].Status)
	assert.Equal(t, billing.StatusPastDue, f.storedSub().Status)
	assert.Len(t, f.store.Payments, 1)
}

func TestWebhookRedeliveryFinishesPartialActivation(t *testing.T) {
	f := newFixture(t, billing.StatusPending)
	f.useFlakyStore(0, 1)
	r := newTestRouter(newTestHandler(t, f, testSecret))
	body := eventPayload(t, "evt_done", "checkout.session.completed", map[string]any{
		"id":             "cs_test_1",
		"object":         "checkout.session",
		"status":         "complete",
		"payment_status": "paid",
		"customer":       "cus_1",
		"subscription": map[string]any{
			"id":                 "sub_1",
			"object":             "subscription",
			"current_period_end": f.now.Add(30 * 24 * time.Hour).Unix(),
		},
	})

	w := post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.EventFailed, f.store.Events["evt_done"].Status)
	assert.Equal(t, billing.StatusActive, f.storedSub().Status)
	assert.Equal(t, business.StatusPending, f.store.Registrations[f.reg.ID].Status)
	assert.Empty(t, f.mail.Kinds())

	// the same event delivered again, e.g. resent from the Stripe dashboard
	w = post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.EventProcessed, f.store.Events["evt_done"].Status)
	assert.Equal(t, business.StatusActive, f.store.Registrations[f.reg.ID].Status)
	assert.Equal(t, []string{"subscription_activated", "admin_billing_event"}, f.mail.Kinds())
}

func TestWebhookIgnoresUnknownTypes(t *testing.T) {
	f := newFixture(t, billing.StatusPending)
	r := newTestRouter(newTestHandler(t, f, testSecret))
	body := eventPayload(t, "evt_other", "customer.created", map[string]any{"id": "cus_1", "object": "customer"})

	w := post(r, body, sign(body, testSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"ignored":true}`, w.Body.String())
	assert.NotContains(t, f.store.Events, "evt_other")
}

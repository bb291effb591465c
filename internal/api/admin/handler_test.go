package admin

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/store/storetest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*storetest.Fake, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := storetest.New()
	h := NewHandler(fake, zap.NewNop().Sugar())
	h.now = func() time.Time { return time.Now() }

	r := gin.New()
	g := r.Group("/api/admin")
	g.GET("/registrations", h.ListRegistrations)
	g.PATCH("/registrations/:id/status", h.UpdateRegistrationStatus)
	g.GET("/payments", h.ListPayments)
	g.GET("/stats", h.Stats)
	g.GET("/events", h.ListEvents)
	return fake, r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListRegistrations(t *testing.T) {
	fake, r := setup(t)
	plan := fake.AddPlan("Destaque", "featured", 99)
	active := fake.AddRegistration("Restaurante da Basílica", business.StatusActive, plan)
	fake.AddRegistration("Loja de Artigos Religiosos", business.StatusPending, plan)
	fake.AddSubscription(&billing.Subscription{
		BusinessID:       active.ID,
		PlanID:           plan.ID,
		Status:           billing.StatusActive,
		StripeSessionID:  "cs_1",
		StripeCustomerID: "cus_1",
	})

	w := do(r, http.MethodGet, "/api/admin/registrations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []AdminRegistration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)

	w = do(r, http.MethodGet, "/api/admin/registrations?status=active", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []AdminRegistration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, active.ID, rows[0].ID)
	require.NotNil(t, rows[0].PlanName)
	assert.Equal(t, "Destaque", *rows[0].PlanName)
	require.NotNil(t, rows[0].SubscriptionStatus)
	assert.Equal(t, billing.StatusActive, *rows[0].SubscriptionStatus)
	require.NotNil(t, rows[0].StripeCustomerID)
	assert.Equal(t, "cus_1", *rows[0].StripeCustomerID)

	w = do(r, http.MethodGet, "/api/admin/registrations?status=deleted", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRegistrationStatus(t *testing.T) {
	fake, r := setup(t)
	reg := fake.AddRegistration("Pousada Romeiros", business.StatusActive, nil)

	tests := []struct {
		name     string
		id       string
		body     string
		wantCode int
	}{
		{"suspend", reg.ID.String(), `{"status":"suspended"}`, http.StatusOK},
		{"invalid status", reg.ID.String(), `{"status":"pending"}`, http.StatusBadRequest},
		{"missing body", reg.ID.String(), `{}`, http.StatusBadRequest},
		{"bad id", "not-a-uuid", `{"status":"active"}`, http.StatusBadRequest},
		{"unknown business", uuid.NewString(), `{"status":"active"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPatch, "/api/admin/registrations/"+tt.id+"/status", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, business.StatusSuspended, fake.Registrations[reg.ID].Status)
}

func TestListPayments(t *testing.T) {
	fake, r := setup(t)
	reg := fake.AddRegistration("Hotel Santuário", business.StatusActive, nil)
	fake.Payments = append(fake.Payments,
		&billing.Payment{ID: uuid.New(), BusinessID: reg.ID, StripeEventID: "evt_1", StripeInvoiceID: "in_1", Amount: decimal.NewFromInt(99), Currency: "brl", Status: billing.PaymentApproved, CreatedAt: time.Now()},
		&billing.Payment{ID: uuid.New(), BusinessID: reg.ID, StripeEventID: "evt_2", StripeInvoiceID: "in_2", Amount: decimal.NewFromInt(99), Currency: "brl", Status: billing.PaymentFailed, CreatedAt: time.Now()},
	)

	w := do(r, http.MethodGet, "/api/admin/payments?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []AdminPayment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "in_2", rows[0].InvoiceID)
	assert.Equal(t, "Hotel Santuário", rows[0].BusinessName)
	assert.Equal(t, billing.PaymentFailed, rows[0].Status)
}

func TestStats(t *testing.T) {
	fake, r := setup(t)
	plan := fake.AddPlan("Premium", "premium", 199)
	reg := fake.AddRegistration("Café do Porto", business.StatusActive, plan)
	fake.AddRegistration("Sem Plano Ltda", business.StatusPending, nil)
	fake.AddSubscription(&billing.Subscription{BusinessID: reg.ID, PlanID: plan.ID, Status: billing.StatusActive, StripeSessionID: "cs_1"})
	fake.Payments = append(fake.Payments,
		&billing.Payment{BusinessID: reg.ID, StripeEventID: "evt_old", Amount: decimal.NewFromInt(199), Status: billing.PaymentApproved, CreatedAt: time.Now().AddDate(0, -3, 0)},
		&billing.Payment{BusinessID: reg.ID, StripeEventID: "evt_new", Amount: decimal.NewFromInt(199), Status: billing.PaymentApproved, CreatedAt: time.Now()},
	)

	w := do(r, http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st AdminStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.EqualValues(t, 2, st.TotalRegistrations)
	assert.EqualValues(t, 1, st.ActiveSubscriptions)
	assert.True(t, st.TotalRevenue.Equal(decimal.NewFromInt(398)))
	assert.True(t, st.RecentRevenue.Equal(decimal.NewFromInt(199)))
	assert.EqualValues(t, 1, st.RegistrationsPerPlan["Premium"])
	assert.EqualValues(t, 1, st.RegistrationsPerPlan["Sem plano"])

	fake.FailWith = errors.New("db down")
	w = do(r, http.MethodGet, "/api/admin/stats", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListEvents(t *testing.T) {
	fake, r := setup(t)
	msg := "unknown checkout session"
	fake.Events["evt_ok"] = &billing.StripeEvent{ID: "evt_ok", Type: "invoice.payment_succeeded", Status: billing.EventProcessed, ReceivedAt: time.Now()}
	fake.Events["evt_bad"] = &billing.StripeEvent{ID: "evt_bad", Type: "checkout.session.completed", Status: billing.EventFailed, Error: &msg, ReceivedAt: time.Now()}

	w := do(r, http.MethodGet, "/api/admin/events?status=failed", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []billing.StripeEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "evt_bad", rows[0].ID)
	require.NotNil(t, rows[0].Error)

	w = do(r, http.MethodGet, "/api/admin/events?status=weird", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fake.Events = map[string]*billing.StripeEvent{}
	w = do(r, http.MethodGet, "/api/admin/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

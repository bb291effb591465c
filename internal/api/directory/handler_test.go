package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/store/storetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*storetest.Fake, *gin.Engine, time.Time) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := storetest.New()
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	h := NewHandler(fake, zap.NewNop().Sugar())
	h.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/api/businesses", h.ListBusinesses)
	r.GET("/api/businesses/:slug", h.GetBusiness)
	return fake, r, now
}

func subscribe(fake *storetest.Fake, reg *business.Registration, status string, periodEnd time.Time) {
	fake.AddSubscription(&billing.Subscription{
		BusinessID:       reg.ID,
		PlanID:           reg.PlanID,
		Status:           status,
		StripeSessionID:  "cs_" + reg.Slug,
		CurrentPeriodEnd: &periodEnd,
	})
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListBusinesses(t *testing.T) {
	fake, r, now := setup(t)
	basic := fake.AddPlan("Básico", "basic", 49)
	premium := fake.AddPlan("Premium", "premium", 199)

	a := fake.AddRegistration("Armazém Central", business.StatusActive, basic)
	a.Website = "https://armazem.example.com"
	subscribe(fake, a, billing.StatusActive, now.Add(720*time.Hour))

	z := fake.AddRegistration("Zé Hotel", business.StatusActive, premium)
	z.Instagram = "zehotel"
	subscribe(fake, z, billing.StatusActive, now.Add(720*time.Hour))

	grace := fake.AddRegistration("Bar do Porto", business.StatusActive, basic)
	subscribe(fake, grace, billing.StatusPastDue, now.Add(-48*time.Hour))

	lapsed := fake.AddRegistration("Casa Fechada", business.StatusActive, basic)
	subscribe(fake, lapsed, billing.StatusPastDue, now.Add(-8*24*time.Hour))

	cancelled := fake.AddRegistration("Doces da Vila", business.StatusInactive, basic)
	subscribe(fake, cancelled, billing.StatusCancelled, now.Add(5*24*time.Hour))

	suspended := fake.AddRegistration("Suspensa", business.StatusSuspended, premium)
	subscribe(fake, suspended, billing.StatusActive, now.Add(720*time.Hour))

	fake.AddRegistration("Sem Assinatura", business.StatusActive, basic)

	w := get(r, "/api/businesses")
	require.Equal(t, http.StatusOK, w.Code)

	var got []Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	names := make([]string, 0, len(got))
	for _, l := range got {
		names = append(names, l.BusinessName)
	}
	assert.Equal(t, []string{"Zé Hotel", "Armazém Central", "Bar do Porto", "Doces da Vila"}, names)

	assert.True(t, got[0].Featured)
	assert.Equal(t, "zehotel", got[0].Instagram)
	assert.False(t, got[1].Featured)
	assert.Empty(t, got[1].Website, "basic listings hide socials")
}

func TestListBusinessesFilters(t *testing.T) {
	fake, r, now := setup(t)
	basic := fake.AddPlan("Básico", "basic", 49)
	a := fake.AddRegistration("Pousada Azul", business.StatusActive, basic)
	subscribe(fake, a, billing.StatusActive, now.Add(time.Hour))
	b := fake.AddRegistration("Restaurante Sol", business.StatusActive, basic)
	b.Category = "gastronomia"
	subscribe(fake, b, billing.StatusActive, now.Add(time.Hour))

	var got []Listing
	w := get(r, "/api/businesses?category=Gastronomia")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Restaurante Sol", got[0].BusinessName)

	w = get(r, "/api/businesses?q=azul")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Pousada Azul", got[0].BusinessName)
}

func TestGetBusiness(t *testing.T) {
	fake, r, now := setup(t)
	premium := fake.AddPlan("Premium", "premium", 199)
	reg := fake.AddRegistration("Hotel Romaria", business.StatusActive, premium)
	subscribe(fake, reg, billing.StatusActive, now.Add(time.Hour))
	hidden := fake.AddRegistration("Hotel Pendente", business.StatusPending, premium)

	w := get(r, "/api/businesses/"+reg.Slug)
	require.Equal(t, http.StatusOK, w.Code)
	var got Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "premium", got.Tier)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/businesses/"+hidden.Slug).Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/businesses/nao-existe").Code)
}

func TestPendingUpgradeKeepsPaidListing(t *testing.T) {
	fake, r, now := setup(t)
	basic := fake.AddPlan("Básico", "basic", 49)
	premium := fake.AddPlan("Premium", "premium", 199)
	reg := fake.AddRegistration("Café da Basílica", business.StatusActive, basic)

	end := now.Add(10 * 24 * time.Hour)
	fake.AddSubscription(&billing.Subscription{
		BusinessID:       reg.ID,
		PlanID:           basic.ID,
		Status:           billing.StatusCancelled,
		StripeSessionID:  "cs_paid",
		CurrentPeriodEnd: &end,
		CreatedAt:        now.Add(-20 * 24 * time.Hour),
	})
	// abandoned upgrade checkout, newer than the paid one
	fake.AddSubscription(&billing.Subscription{
		BusinessID:      reg.ID,
		PlanID:          premium.ID,
		Status:          billing.StatusPending,
		StripeSessionID: "cs_upgrade",
		CreatedAt:       now.Add(-time.Hour),
	})

	w := get(r, "/api/businesses/"+reg.Slug)
	require.Equal(t, http.StatusOK, w.Code)
	var got Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "basic", got.Tier)

	var all []Listing
	w = get(r, "/api/businesses")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "Café da Basílica", all[0].BusinessName)
}

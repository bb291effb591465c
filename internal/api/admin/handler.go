// Package admin serves the back-office views over registrations, payments
// and webhook deliveries.
package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	recentWindow     = 30 * 24 * time.Hour
)

type AdminRegistration struct {
	ID                 uuid.UUID  `json:"id"`
	BusinessName       string     `json:"business_name"`
	Slug               string     `json:"slug"`
	Category           string     `json:"category"`
	City               string     `json:"city"`
	OwnerName          string     `json:"owner_name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Status             string     `json:"status"`
	EmailVerified      bool       `json:"email_verified"`
	PlanName           *string    `json:"plan_name,omitempty"`
	SubscriptionStatus *string    `json:"subscription_status,omitempty"`
	StripeCustomerID   *string    `json:"stripe_customer_id,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type AdminPayment struct {
	ID            uuid.UUID       `json:"id"`
	BusinessID    uuid.UUID       `json:"business_id"`
	BusinessName  string          `json:"business_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	ReceiptURL    *string         `json:"receipt_url,omitempty"`
	FailureReason *string         `json:"failure_reason,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type AdminStats struct {
	TotalRegistrations   int64            `json:"total_registrations"`
	ActiveSubscriptions  int64            `json:"active_subscriptions"`
	TotalRevenue         decimal.Decimal  `json:"total_revenue"`
	RecentRevenue        decimal.Decimal  `json:"recent_revenue"`
	RegistrationsPerPlan map[string]int64 `json:"registrations_per_plan"`
}

type Handler struct {
	store store.Repository
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewHandler(repo store.Repository, log *zap.SugaredLogger) *Handler {
	return &Handler{store: repo, log: log, now: time.Now}
}

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func (h *Handler) ListRegistrations(c *gin.Context) {
	ctx := c.Request.Context()
	status := c.Query("status")
	if status != "" && status != business.StatusPending && !business.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	regs, err := h.store.ListRegistrations(ctx, status)
	if err != nil {
		h.log.Errorw("Failed to load registrations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registrations"})
		return
	}

	ids := make([]uuid.UUID, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ID)
	}
	subs, err := h.store.LatestSubscriptions(ctx, ids)
	if err != nil {
		h.log.Errorw("Failed to load subscriptions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registrations"})
		return
	}

	out := make([]AdminRegistration, 0, len(regs))
	for _, r := range regs {
		row := AdminRegistration{
			ID:            r.ID,
			BusinessName:  r.BusinessName,
			Slug:          r.Slug,
			Category:      r.Category,
			City:          r.City,
			OwnerName:     r.OwnerName,
			Email:         r.Email,
			Phone:         r.Phone,
			Status:        r.Status,
			EmailVerified: r.EmailVerified,
			CreatedAt:     r.CreatedAt,
		}
		if r.Plan != nil {
			row.PlanName = &r.Plan.Name
		}
		if sub, ok := subs[r.ID]; ok {
			row.SubscriptionStatus = &sub.Status
			row.CurrentPeriodEnd = sub.CurrentPeriodEnd
			if sub.StripeCustomerID != "" {
				row.StripeCustomerID = &sub.StripeCustomerID
			}
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, out)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateRegistrationStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business id"})
		return
	}
	var body statusRequest
	if err := c.ShouldBindJSON(&body); err != nil || !business.ValidStatus(body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be active, inactive or suspended"})
		return
	}

	if err := h.store.UpdateRegistrationStatus(c.Request.Context(), id, body.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
			return
		}
		h.log.Errorw("Failed to update registration status", "business_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	h.log.Infow("Registration status changed by admin", "business_id", id, "status", body.Status, "admin", c.GetString("email"))
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "status": body.Status})
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.store.ListPayments(c.Request.Context(), limitParam(c))
	if err != nil {
		h.log.Errorw("Failed to load payments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	result := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		row := AdminPayment{
			ID:            p.ID,
			BusinessID:    p.BusinessID,
			Amount:        p.Amount,
			Currency:      p.Currency,
			Status:        p.Status,
			InvoiceID:     p.StripeInvoiceID,
			ReceiptURL:    p.HostedInvoiceURL,
			FailureReason: p.FailureReason,
			CreatedAt:     p.CreatedAt.Format("2006-01-02 15:04"),
		}
		if p.Business != nil {
			row.BusinessName = p.Business.BusinessName
		}
		result = append(result, row)
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.store.Stats(c.Request.Context(), h.now().Add(-recentWindow))
	if err != nil {
		h.log.Errorw("Failed to compute stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, AdminStats{
		TotalRegistrations:   st.TotalRegistrations,
		ActiveSubscriptions:  st.ActiveSubscriptions,
		TotalRevenue:         st.TotalRevenue,
		RecentRevenue:        st.RecentRevenue,
		RegistrationsPerPlan: st.RegistrationsPerPlan,
	})
}

// ListEvents returns stored webhook deliveries, newest first.
func (h *Handler) ListEvents(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != billing.EventProcessed && status != billing.EventFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be processed or failed"})
		return
	}
	events, err := h.store.ListStripeEvents(c.Request.Context(), status, limitParam(c))
	if err != nil {
		h.log.Errorw("Failed to load stripe events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return
	}
	if events == nil {
		events = []billing.StripeEvent{}
	}
	c.JSON(http.StatusOK, events)
}

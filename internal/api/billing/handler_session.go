package billing

import (
	"errors"
	"net/http"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
)

// CheckSession reports a checkout's state for the payment-success page and
// activates the subscription when Stripe has it paid but the webhook has
// not landed yet.
func (h *Handler) CheckSession(c *gin.Context) {
	if !h.requireStripe(c) {
		return
	}
	ctx := c.Request.Context()

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	sub, err := h.store.GetSubscriptionBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	session, err := h.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		h.log.Errorw("Failed to fetch checkout session", "sessionID", sessionID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch checkout session"})
		return
	}

	if sub.Status == billing.StatusPending && stripeclient.SessionPaid(session) {
		if err := h.rec.ActivateCheckout(ctx, session); err != nil {
			h.log.Errorw("Activation from session check failed", "sessionID", sessionID, "error", err)
		} else if fresh, err := h.store.GetSubscriptionBySessionID(ctx, sessionID); err == nil {
			sub = fresh
		}
	}

	resp := gin.H{
		"session_id":          session.ID,
		"status":              session.Status,
		"payment_status":      session.PaymentStatus,
		"subscription_status": sub.Status,
		"business_id":         sub.BusinessID,
	}
	if sub.Plan != nil {
		resp["plan"] = gin.H{"id": sub.Plan.ID, "name": sub.Plan.Name, "tier": sub.Plan.Tier}
	}
	c.JSON(http.StatusOK, resp)
}

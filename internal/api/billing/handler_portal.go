package billing

import (
	"errors"
	"net/http"

	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateBillingPortal returns a Stripe billing portal link for a business.
func (h *Handler) CreateBillingPortal(c *gin.Context) {
	if !h.requireStripe(c) {
		return
	}
	ctx := c.Request.Context()

	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business id"})
		return
	}

	sub, err := h.store.GetLatestSubscription(ctx, businessID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}
	if sub == nil || sub.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	portal, err := h.stripe.CreateBillingPortalSession(ctx, sub.StripeCustomerID, h.opts.FrontendURL)
	if err != nil {
		h.log.Errorw("Failed to create billing portal session", "businessID", businessID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not create billing portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": portal.URL})
}

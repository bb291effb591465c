package billing

import (
	"errors"
	"net/http"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/plans"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
)

type createSubscriptionRequest struct {
	BusinessID string `json:"business_id" binding:"required"`
	PlanID     string `json:"plan_id"`
}

// CreateSubscription starts a Stripe Checkout session in subscription mode
// and stores a pending subscription keyed by the session id.
func (h *Handler) CreateSubscription(c *gin.Context) {
	if !h.requireStripe(c) {
		return
	}
	ctx := c.Request.Context()

	var body createSubscriptionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
		return
	}
	businessID, err := uuid.Parse(body.BusinessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business_id"})
		return
	}

	reg, err := h.store.GetRegistration(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
			return
		}
		h.log.Errorw("Failed to load business", "businessID", businessID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load business"})
		return
	}
	if reg.Status == business.StatusSuspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "Business is suspended"})
		return
	}

	latest, err := h.store.GetLatestSubscription(ctx, reg.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Errorw("Failed to load subscription", "businessID", reg.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}
	if latest != nil && latest.InGoodStanding() {
		c.JSON(http.StatusConflict, gin.H{"error": "Business already has an active subscription"})
		return
	}

	planID := reg.PlanID
	if body.PlanID != "" {
		if planID, err = uuid.Parse(body.PlanID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan_id"})
			return
		}
	}
	plan, err := h.store.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}
	if !plan.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is not available"})
		return
	}

	// reuse the customer of an earlier attempt
	customerID := ""
	if latest != nil {
		customerID = latest.StripeCustomerID
	}
	if customerID == "" {
		cus, err := h.stripe.CreateCustomer(ctx, reg.BillingAddress(), reg.BusinessName, map[string]string{
			"business_id": reg.ID.String(),
		})
		if err != nil {
			h.log.Errorw("Failed to create Stripe customer", "businessID", reg.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create Stripe customer"})
			return
		}
		customerID = cus.ID
	}

	session, err := h.stripe.CreateCheckoutSession(ctx, h.checkoutParams(reg, plan, customerID))
	if err != nil {
		h.log.Errorw("Failed to create checkout session", "businessID", reg.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
		return
	}

	sub := &billing.Subscription{
		BusinessID:       reg.ID,
		PlanID:           plan.ID,
		Status:           billing.StatusPending,
		StripeCustomerID: customerID,
		StripeSessionID:  session.ID,
	}
	if err := h.store.CreateSubscription(ctx, sub); err != nil {
		h.log.Errorw("Failed to store pending subscription", "sessionID", session.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store subscription"})
		return
	}

	h.log.Infow("Checkout session created", "businessID", reg.ID, "planID", plan.ID, "sessionID", session.ID)
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "url": session.URL})
}

func (h *Handler) checkoutParams(reg *business.Registration, plan *plans.Plan, customerID string) *stripe.CheckoutSessionParams {
	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if plan.StripePriceID != nil && *plan.StripePriceID != "" {
		item.Price = stripe.String(*plan.StripePriceID)
	} else {
		currency := plan.Currency
		if currency == "" {
			currency = h.opts.Currency
		}
		interval := plan.Interval
		if interval == "" {
			interval = "month"
		}
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(billing.ToMinorUnits(plan.Price)),
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(interval),
			},
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String("Explore Aparecida - " + plan.Name),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		SuccessURL:        stripe.String(h.opts.FrontendURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(h.opts.FrontendURL + "/payment-cancelled?business_id=" + reg.ID.String()),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{item},
		ClientReferenceID: stripe.String(reg.ID.String()),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"business_id": reg.ID.String(),
				"plan_id":     plan.ID.String(),
			},
		},
	}
	params.AddMetadata("business_id", reg.ID.String())
	params.AddMetadata("plan_id", plan.ID.String())
	return params
}

package plans

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/plans"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

type SyncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncPlansFromStripe upserts plans from active recurring Stripe prices,
// keyed by stripe_price_id. Prices flagged visible=false deactivate their plan.
func (h *Handler) SyncPlansFromStripe(c *gin.Context) {
	ctx := c.Request.Context()

	prices, err := h.stripe.ListRecurringPrices(ctx, h.productID, h.currency)
	if err != nil {
		h.log.Errorw("Failed to fetch Stripe prices", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}

	var res SyncResult
	for _, p := range prices {
		if !p.Active || p.Recurring == nil || p.Product == nil || !p.Product.Active {
			res.Skipped++
			continue
		}
		if h.productID != "" && p.Product.ID != h.productID {
			res.Skipped++
			continue
		}
		if h.currency != "" && string(p.Currency) != h.currency {
			res.Skipped++
			continue
		}

		existing, err := h.store.GetPlanByStripePriceID(ctx, p.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
			return
		}

		if meta(p, "visible") == "false" {
			if existing != nil && existing.Active {
				existing.Active = false
				if err := h.store.UpdatePlan(ctx, existing); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
					return
				}
			}
			res.Skipped++
			continue
		}

		if existing == nil {
			plan := &plans.Plan{}
			applyPrice(plan, p)
			if err := h.store.CreatePlan(ctx, plan); err != nil {
				h.log.Errorw("Failed to create plan", "priceID", p.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
				return
			}
			res.Created++
		} else {
			applyPrice(existing, p)
			if err := h.store.UpdatePlan(ctx, existing); err != nil {
				h.log.Errorw("Failed to update plan", "priceID", p.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
				return
			}
			res.Updated++
		}
		res.Synced++
	}

	h.log.Infow("Plans synced from Stripe", "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	c.JSON(http.StatusOK, res)
}

// meta reads a key from price metadata, then product metadata.
func meta(p *stripe.Price, key string) string {
	if v := strings.TrimSpace(p.Metadata[key]); v != "" {
		return v
	}
	if p.Product != nil {
		return strings.TrimSpace(p.Product.Metadata[key])
	}
	return ""
}

func applyPrice(plan *plans.Plan, p *stripe.Price) {
	id := p.ID
	plan.StripePriceID = &id
	plan.StripeProductID = p.Product.ID
	plan.Name = p.Product.Name
	if v := meta(p, "plan"); v != "" {
		plan.Name = v
	} else if p.Nickname != "" {
		plan.Name = p.Nickname
	}
	plan.Description = p.Product.Description
	plan.Price = billing.FromMinorUnits(p.UnitAmount)
	plan.Currency = string(p.Currency)
	plan.Interval = string(p.Recurring.Interval)
	plan.Active = true

	if v := meta(p, "tier"); v != "" {
		plan.Tier = strings.ToLower(v)
	}
	if v := meta(p, "features"); v != "" {
		var features []string
		for _, f := range strings.Split(v, ";") {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
		plan.Features = features
	}
	if v := meta(p, "sort_order"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			plan.SortOrder = n
		}
	}
}

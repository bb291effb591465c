// Package plans lists purchasable plans and syncs them from Stripe prices.
package plans

import (
	"net/http"

	"explore-aparecida/internal/domain/plans"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store     store.PlanStore
	stripe    stripeclient.Client
	productID string
	currency  string
	log       *zap.SugaredLogger
}

func NewHandler(repo store.PlanStore, sc stripeclient.Client, productID, currency string, log *zap.SugaredLogger) *Handler {
	return &Handler{store: repo, stripe: sc, productID: productID, currency: currency, log: log}
}

// ListPlans returns active plans with their effective tier.
func (h *Handler) ListPlans(c *gin.Context) {
	list, err := h.store.ListActivePlans(c.Request.Context())
	if err != nil {
		h.log.Errorw("Failed to load plans", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	out := make([]plans.Plan, 0, len(list))
	for _, p := range list {
		p.Tier = plans.PlanTier(&p)
		if p.Features == nil {
			p.Features = []string{}
		}
		out = append(out, p)
	}
	c.JSON(http.StatusOK, out)
}

// Package billing serves checkout creation, session checks and the
// billing portal.
package billing

import (
	"net/http"

	stripewebhooks "explore-aparecida/internal/api/stripewebhook"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Enabled     bool
	FrontendURL string
	Currency    string
}

type Handler struct {
	store  store.Repository
	stripe stripeclient.Client
	rec    *stripewebhooks.Reconciler
	opts   Options
	log    *zap.SugaredLogger
}

func NewHandler(repo store.Repository, sc stripeclient.Client, rec *stripewebhooks.Reconciler, opts Options, log *zap.SugaredLogger) *Handler {
	if opts.Currency == "" {
		opts.Currency = "brl"
	}
	return &Handler{store: repo, stripe: sc, rec: rec, opts: opts, log: log}
}

func (h *Handler) requireStripe(c *gin.Context) bool {
	if !h.opts.Enabled {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return false
	}
	return true
}

// Package directory serves the public business listings.
package directory

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/listing"
	"explore-aparecida/internal/domain/plans"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Listing struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Phone        string    `json:"phone"`
	WhatsApp     string    `json:"whatsapp"`
	Website      string    `json:"website,omitempty"`
	Instagram    string    `json:"instagram,omitempty"`
	Tier         string    `json:"tier"`
	Featured     bool      `json:"featured"`
}

func toListing(r business.Registration, p listing.Policy) Listing {
	out := Listing{
		ID:           r.ID,
		Slug:         r.Slug,
		BusinessName: r.BusinessName,
		Category:     r.Category,
		Description:  r.Description,
		Address:      r.Address,
		City:         r.City,
		Phone:        r.Phone,
		WhatsApp:     r.WhatsApp,
		Tier:         p.Tier,
		Featured:     p.Featured,
	}
	if p.ShowSocials {
		out.Website = r.Website
		out.Instagram = r.Instagram
	}
	return out
}

type Handler struct {
	store store.Repository
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewHandler(repo store.Repository, log *zap.SugaredLogger) *Handler {
	return &Handler{store: repo, log: log, now: time.Now}
}

// ListBusinesses returns visible listings, premium first, then by name.
func (h *Handler) ListBusinesses(c *gin.Context) {
	ctx := c.Request.Context()
	filter := business.DirectoryFilter{
		Category: strings.TrimSpace(c.Query("category")),
		City:     strings.TrimSpace(c.Query("city")),
		Query:    strings.TrimSpace(c.Query("q")),
	}

	regs, err := h.store.ListDirectory(ctx, filter)
	if err != nil {
		h.log.Errorw("Failed to list directory", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load businesses"})
		return
	}

	ids := make([]uuid.UUID, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ID)
	}
	subs, err := h.store.ListingSubscriptions(ctx, ids)
	if err != nil {
		h.log.Errorw("Failed to load subscriptions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load businesses"})
		return
	}

	now := h.now()
	out := make([]Listing, 0, len(regs))
	for _, r := range regs {
		var sub *billing.Subscription
		if s, ok := subs[r.ID]; ok {
			sub = &s
		}
		if p := listing.ComputePolicy(now, r, sub); p.Visible() {
			out = append(out, toListing(r, p))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := plans.TierRank(out[i].Tier), plans.TierRank(out[j].Tier)
		if ri != rj {
			return ri > rj
		}
		return strings.ToLower(out[i].BusinessName) < strings.ToLower(out[j].BusinessName)
	})

	c.JSON(http.StatusOK, out)
}

// GetBusiness returns one visible listing by slug.
func (h *Handler) GetBusiness(c *gin.Context) {
	ctx := c.Request.Context()

	reg, err := h.store.GetRegistrationBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load business"})
		return
	}

	subs, err := h.store.ListingSubscriptions(ctx, []uuid.UUID{reg.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load business"})
		return
	}
	var sub *billing.Subscription
	if s, ok := subs[reg.ID]; ok {
		sub = &s
	}

	p := listing.ComputePolicy(h.now(), *reg, sub)
	if !p.Visible() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		return
	}
	c.JSON(http.StatusOK, toListing(*reg, p))
}

// Package registration accepts new business sign-ups and confirms their
// contact email.
package registration

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/infra/email"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	store        store.Repository
	notify       email.Notifier
	publicAPIURL string
	frontendURL  string
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewHandler(repo store.Repository, notify email.Notifier, publicAPIURL, frontendURL string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		store:        repo,
		notify:       notify,
		publicAPIURL: publicAPIURL,
		frontendURL:  frontendURL,
		log:          log,
		now:          time.Now,
	}
}

type registerRequest struct {
	BusinessName string `json:"business_name" binding:"required,max=200"`
	Category     string `json:"category" binding:"required,max=100"`
	Description  string `json:"description" binding:"max=2000"`
	Address      string `json:"address" binding:"max=300"`
	City         string `json:"city" binding:"max=100"`
	Phone        string `json:"phone" binding:"max=40"`
	WhatsApp     string `json:"whatsapp" binding:"max=40"`
	Website      string `json:"website" binding:"max=300"`
	Instagram    string `json:"instagram" binding:"max=100"`
	OwnerName    string `json:"owner_name" binding:"required,max=200"`
	Email        string `json:"email" binding:"required,email"`
	BillingEmail string `json:"billing_email" binding:"omitempty,email"`
	PlanID       string `json:"plan_id" binding:"required,uuid"`
}

// RegisterBusiness stores a pending registration and sends the owner
// confirmation and admin notification emails.
func (h *Handler) RegisterBusiness(c *gin.Context) {
	ctx := c.Request.Context()

	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration", "details": err.Error()})
		return
	}

	planID := uuid.MustParse(body.PlanID)
	plan, err := h.store.GetPlan(ctx, planID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Errorw("Failed to load plan", "planID", planID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}
	if plan == nil || !plan.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is not available"})
		return
	}

	id := uuid.New()
	reg := &business.Registration{
		ID:           id,
		BusinessName: strings.TrimSpace(body.BusinessName),
		Slug:         business.SlugFor(body.BusinessName, id),
		Category:     strings.ToLower(strings.TrimSpace(body.Category)),
		Description:  strings.TrimSpace(body.Description),
		Address:      strings.TrimSpace(body.Address),
		City:         strings.TrimSpace(body.City),
		Phone:        strings.TrimSpace(body.Phone),
		WhatsApp:     strings.TrimSpace(body.WhatsApp),
		Website:      strings.TrimSpace(body.Website),
		Instagram:    strings.TrimPrefix(strings.TrimSpace(body.Instagram), "@"),
		OwnerName:    strings.TrimSpace(body.OwnerName),
		Email:        strings.ToLower(strings.TrimSpace(body.Email)),
		PlanID:       plan.ID,
		Status:       business.StatusPending,
	}
	if b := strings.ToLower(strings.TrimSpace(body.BillingEmail)); b != "" && b != reg.Email {
		reg.BillingEmail = &b
	}

	if err := h.store.CreateRegistration(ctx, reg); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Business already registered"})
			return
		}
		h.log.Errorw("Failed to create registration", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create registration"})
		return
	}
	reg.Plan = plan
	h.log.Infow("Business registered", "businessID", reg.ID, "slug", reg.Slug, "planID", plan.ID)

	verifyURL := ""
	token, err := business.NewVerificationToken(reg.ID, h.now())
	if err == nil {
		err = h.store.CreateVerificationToken(ctx, token)
	}
	if err != nil {
		h.log.Errorw("Failed to issue verification token", "businessID", reg.ID, "error", err)
	} else {
		verifyURL = h.publicAPIURL + "/api/verify-email?token=" + url.QueryEscape(token.Token)
	}

	if err := h.notify.RegistrationReceived(ctx, reg, verifyURL); err != nil {
		h.log.Warnw("Registration email failed", "businessID", reg.ID, "error", err)
	}
	if err := h.notify.AdminNewRegistration(ctx, reg); err != nil {
		h.log.Warnw("Admin registration email failed", "businessID", reg.ID, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"business_id": reg.ID,
		"slug":        reg.Slug,
	})
}

// VerifyEmail consumes a verification token and redirects to the frontend.
func (h *Handler) VerifyEmail(c *gin.Context) {
	ctx := c.Request.Context()

	raw := c.Query("token")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	token, err := h.store.GetVerificationToken(ctx, raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	if token.Expired(h.now()) {
		_ = h.store.DeleteVerificationToken(ctx, token.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := h.store.MarkEmailVerified(ctx, token.BusinessID); err != nil {
		h.log.Errorw("Failed to mark email verified", "businessID", token.BusinessID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	if err := h.store.DeleteVerificationToken(ctx, token.ID); err != nil {
		h.log.Warnw("Failed to delete verification token", "tokenID", token.ID, "error", err)
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/email-verified")
}

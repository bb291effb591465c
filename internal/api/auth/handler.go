// Package auth issues admin tokens from a password or Google sign-in.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminChecker reports whether an address may act as an administrator.
type AdminChecker interface {
	IsAdminEmail(email string) bool
}

type Handler struct {
	admins       AdminChecker
	passwordHash string
	jwtSecret    string
	redirectURL  string
	google       *GoogleAuth
	log          *zap.SugaredLogger
	now          func() time.Time
}

// NewHandler builds the admin auth handler. google may be nil when SSO is off.
func NewHandler(admins AdminChecker, passwordHash, jwtSecret, redirectURL string, google *GoogleAuth, log *zap.SugaredLogger) *Handler {
	return &Handler{
		admins:       admins,
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		redirectURL:  redirectURL,
		google:       google,
		log:          log,
		now:          time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	if h.passwordHash == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Password login is disabled"})
		return
	}

	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	if !h.admins.IsAdminEmail(email) ||
		bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(body.Password)) != nil {
		h.log.Warnw("Admin login rejected", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := IssueAdminToken(h.jwtSecret, email, h.now())
	if err != nil {
		h.log.Errorw("Could not sign admin token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	h.log.Infow("Admin signed in", "method", "password")
	c.JSON(http.StatusOK, gin.H{"token": token})
}

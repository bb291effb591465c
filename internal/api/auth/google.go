package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer = "https://accounts.google.com"
	stateCookie  = "admin_oauth_state"
)

// IDTokenVerifier checks a raw Google ID token and returns its claims.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*GoogleClaims, error)
}

// CodeExchanger trades an authorization code for tokens.
type CodeExchanger interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

type GoogleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type GoogleAuth struct {
	oauth    CodeExchanger
	verifier IDTokenVerifier
	secure   bool
}

func NewGoogleAuth(clientID, clientSecret, redirectURL string, secureCookie bool) *GoogleAuth {
	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		verifier: newOIDCVerifier(clientID),
		secure:   secureCookie,
	}
}

// oidcVerifier discovers Google's keys on first use. A failed discovery is
// retried on the next call.
type oidcVerifier struct {
	discover func(ctx context.Context) (*oidc.IDTokenVerifier, error)

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func newOIDCVerifier(clientID string) *oidcVerifier {
	return &oidcVerifier{
		discover: func(ctx context.Context) (*oidc.IDTokenVerifier, error) {
			provider, err := oidc.NewProvider(ctx, googleIssuer)
			if err != nil {
				return nil, err
			}
			return provider.Verifier(&oidc.Config{ClientID: clientID}), nil
		},
	}
}

func (v *oidcVerifier) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.verifier != nil {
		return v.verifier, nil
	}
	verifier, err := v.discover(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	v.verifier = verifier
	return verifier, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, raw string) (*GoogleClaims, error) {
	verifier, err := v.idTokenVerifier(ctx)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}

	idToken, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}
	var claims GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	return &claims, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleStart redirects to Google's consent screen.
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", h.google.secure, true)
	c.Redirect(http.StatusFound, h.google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GoogleCallback verifies the ID token and issues an admin token for
// addresses on the admin list.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}
	ctx := c.Request.Context()

	state, code := c.Query("state"), c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}
	if cookieState, err := c.Cookie(stateCookie); err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.google.secure, true)

	tok, err := h.google.oauth.Exchange(ctx, code)
	if err != nil {
		h.log.Warnw("Google code exchange failed", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}

	claims, err := h.google.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if !claims.EmailVerified || !h.admins.IsAdminEmail(claims.Email) {
		h.log.Warnw("Google sign-in rejected", "email", claims.Email)
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	token, err := IssueAdminToken(h.jwtSecret, claims.Email, h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}
	h.log.Infow("Admin signed in", "method", "google")

	if h.redirectURL == "" {
		c.JSON(http.StatusOK, gin.H{"token": token})
		return
	}
	c.Redirect(http.StatusFound, h.redirectURL+"?token="+url.QueryEscape(token))
}

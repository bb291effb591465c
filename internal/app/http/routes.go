package routes

import (
	"net/http"
	"time"

	adminapi "explore-aparecida/internal/api/admin"
	authapi "explore-aparecida/internal/api/auth"
	"explore-aparecida/internal/api/billing"
	"explore-aparecida/internal/api/directory"
	"explore-aparecida/internal/api/health"
	"explore-aparecida/internal/api/plans"
	"explore-aparecida/internal/api/registration"
	stripewebhooks "explore-aparecida/internal/api/stripewebhook"
	"explore-aparecida/internal/app/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps carries every handler the router mounts.
type Deps struct {
	Health       *health.Handler
	Plans        *plans.Handler
	Registration *registration.Handler
	Billing      *billing.Handler
	Directory    *directory.Handler
	Webhook      *stripewebhooks.Handler
	Admin        *adminapi.Handler
	Auth         *authapi.Handler

	RateLimiter *middleware.RateLimiter
	JWTSecret   string
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
	Log         *zap.SugaredLogger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Raw body must reach the signature check untouched.
	r.POST("/api/webhook", d.Webhook.StripeWebhook)
	// Passwords are compared byte for byte, so login skips the sanitizer too.
	r.POST("/api/admin/login", d.RateLimiter.Limit("admin-login"), d.Auth.Login)

	r.GET("/health", d.Health.Live)
	r.GET("/health/ready", d.Health.Ready)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	public := r.Group("/api")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.GET("/plans", d.Plans.ListPlans)
	public.POST("/register-business", d.RateLimiter.Limit("register"), d.Registration.RegisterBusiness)
	public.GET("/verify-email", d.Registration.VerifyEmail)
	public.POST("/create-subscription", d.RateLimiter.Limit("checkout"), d.Billing.CreateSubscription)
	public.GET("/check-session", d.Billing.CheckSession)
	public.GET("/businesses", d.Directory.ListBusinesses)
	public.GET("/businesses/:slug", d.Directory.GetBusiness)

	public.GET("/admin/auth/google", d.Auth.GoogleStart)
	public.GET("/admin/auth/google/callback", d.Auth.GoogleCallback)

	// Admin routes
	admin := public.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireRole(authapi.RoleAdmin))
	admin.GET("/registrations", d.Admin.ListRegistrations)
	admin.PATCH("/registrations/:id/status", d.Admin.UpdateRegistrationStatus)
	admin.GET("/payments", d.Admin.ListPayments)
	admin.GET("/stats", d.Admin.Stats)
	admin.GET("/events", d.Admin.ListEvents)
	admin.POST("/sync-plans", d.Plans.SyncPlansFromStripe)
	admin.POST("/businesses/:id/billing-portal", d.Billing.CreateBillingPortal)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

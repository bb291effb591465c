package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"explore-aparecida/config"
	"explore-aparecida/database"
	adminapi "explore-aparecida/internal/api/admin"
	authapi "explore-aparecida/internal/api/auth"
	"explore-aparecida/internal/api/billing"
	"explore-aparecida/internal/api/directory"
	"explore-aparecida/internal/api/health"
	"explore-aparecida/internal/api/plans"
	"explore-aparecida/internal/api/registration"
	stripewebhooks "explore-aparecida/internal/api/stripewebhook"
	routes "explore-aparecida/internal/app/http"
	"explore-aparecida/internal/app/http/middleware"
	"explore-aparecida/internal/infra/email"
	"explore-aparecida/internal/infra/logger"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/jobs"
	"explore-aparecida/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.Get()
	defer logger.Sync()

	if err := run(log); err != nil {
		log.Errorw("Server exited with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func newSender(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (email.Sender, error) {
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		return email.NewSESSender(ctx, cfg.Email.AWSRegion)
	case config.EmailProviderResend:
		return email.NewResendSender(cfg.Email.ResendAPIKey), nil
	default:
		log.Warn("EMAIL_PROVIDER is log, emails will only be written to the log")
		return email.NewLogSender(log), nil
	}
}

func newRedis(ctx context.Context, url string, log *zap.SugaredLogger) (*redis.Client, error) {
	if url == "" {
		log.Info("REDIS_URL not set, rate limiting disabled")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Rate limiting fails open, so a cold Redis is not fatal.
		log.Warnw("Redis not reachable at startup", "error", err)
	}
	return rdb, nil
}

func run(log *zap.SugaredLogger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("Connected and migrated successfully")
	repo := store.New(db)

	sender, err := newSender(ctx, cfg, log)
	if err != nil {
		return err
	}
	mailer, err := email.NewMailer(email.Config{
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		AdminEmail:  cfg.Email.AdminEmail,
		FrontendURL: cfg.FrontendURL,
	}, sender, prometheus.DefaultRegisterer, log)
	if err != nil {
		return err
	}

	if !cfg.StripeEnabled() {
		log.Warn("STRIPE_SECRET_KEY not set, billing endpoints will answer 503")
	}
	sc := stripeclient.New(cfg.Stripe.SecretKey)
	rec := stripewebhooks.NewReconciler(repo, sc, mailer, log)

	rdb, err := newRedis(ctx, cfg.RedisURL, log)
	if err != nil {
		return err
	}
	var cache redis.Cmdable
	if rdb != nil {
		cache = rdb
		defer rdb.Close()
	}

	var google *authapi.GoogleAuth
	if cfg.GoogleEnabled() {
		google = authapi.NewGoogleAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, cfg.IsProduction())
	}

	router := routes.NewRouter(routes.Deps{
		Health:       health.NewHandler(repo, cache, log),
		Plans:        plans.NewHandler(repo, sc, cfg.Stripe.ProductID, cfg.Stripe.Currency, log),
		Registration: registration.NewHandler(repo, mailer, cfg.PublicAPIURL, cfg.FrontendURL, log),
		Billing: billing.NewHandler(repo, sc, rec, billing.Options{
			Enabled:     cfg.StripeEnabled(),
			FrontendURL: cfg.FrontendURL,
			Currency:    cfg.Stripe.Currency,
		}, log),
		Directory:   directory.NewHandler(repo, log),
		Webhook:     stripewebhooks.NewHandler(rec, repo, cfg.Stripe.WebhookSecret, prometheus.DefaultRegisterer, log),
		Admin:       adminapi.NewHandler(repo, log),
		Auth:        authapi.NewHandler(cfg, cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, cfg.Admin.RedirectURL, google, log),
		RateLimiter: middleware.NewRateLimiter(cache, cfg.RateLimitPerMinute, log),
		JWTSecret:   cfg.Admin.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    prometheus.DefaultGatherer,
		Log:         log,
	})

	var scheduler *jobs.Scheduler
	if cfg.StripeEnabled() {
		scheduler = jobs.NewScheduler(rec, cfg.ReconcileCron, log)
		if err := scheduler.Start(); err != nil {
			return err
		}
	} else {
		log.Info("Stripe disabled, pending checkout reconciliation not scheduled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server stopped")
	return nil
}

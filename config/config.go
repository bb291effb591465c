package config

import (
	"errors"
	"fmt"
	"strings"

	"explore-aparecida/internal/infra/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	EmailProviderSES    = "ses"
	EmailProviderResend = "resend"
	EmailProviderLog    = "log"

	minJWTSecretLength = 32
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	ProductID     string
	Currency      string
}

type EmailConfig struct {
	Provider     string
	AWSRegion    string
	FromAddress  string
	FromName     string
	ResendAPIKey string
	AdminEmail   string
}

type AdminConfig struct {
	Emails       []string
	PasswordHash string
	JWTSecret    string
	RedirectURL  string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	Environment  string
	Port         string
	LogLevel     string
	CORSOrigins  []string
	FrontendURL  string
	PublicAPIURL string

	DatabaseURL        string
	SupabaseURL        string
	SupabaseServiceKey string

	Stripe StripeConfig
	Email  EmailConfig
	Admin  AdminConfig
	Google GoogleConfig

	RedisURL           string
	RateLimitPerMinute int
	ReconcileCron      string
}

func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

func (c *Config) StripeEnabled() bool { return c.Stripe.SecretKey != "" }

func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != "" && c.Google.RedirectURL != ""
}

// IsAdminEmail reports whether email may act as an administrator.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range c.Admin.Emails {
		if e == email {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("PUBLIC_API_URL", "http://localhost:8080")
	v.SetDefault("STRIPE_CURRENCY", "brl")
	v.SetDefault("EMAIL_FROM_NAME", "Explore Aparecida")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("RECONCILE_CRON", "*/30 * * * *")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	log := logger.Get()
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Environment:  strings.ToLower(v.GetString("ENVIRONMENT")),
		Port:         v.GetString("PORT"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		CORSOrigins:  splitList(v.GetString("CORS_ORIGINS")),
		FrontendURL:  strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		PublicAPIURL: strings.TrimRight(v.GetString("PUBLIC_API_URL"), "/"),

		DatabaseURL:        firstNonEmpty(v.GetString("DATABASE_URL"), v.GetString("DB_URL")),
		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_KEY"),

		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			ProductID:     v.GetString("STRIPE_PRODUCT_ID"),
			Currency:      strings.ToLower(v.GetString("STRIPE_CURRENCY")),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(v.GetString("EMAIL_PROVIDER")),
			AWSRegion:    v.GetString("AWS_REGION"),
			FromAddress:  v.GetString("SES_FROM_ADDRESS"),
			FromName:     v.GetString("EMAIL_FROM_NAME"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			AdminEmail:   v.GetString("ADMIN_EMAIL"),
		},
		Admin: AdminConfig{
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
			JWTSecret:    v.GetString("JWT_SECRET"),
			RedirectURL:  v.GetString("ADMIN_REDIRECT_URL"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},

		RedisURL:           v.GetString("REDIS_URL"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		ReconcileCron:      v.GetString("RECONCILE_CRON"),
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = EmailProviderLog
		if cfg.Email.AWSRegion != "" {
			cfg.Email.Provider = EmailProviderSES
		}
	}

	admins := splitList(v.GetString("ADMIN_EMAILS"))
	if cfg.Email.AdminEmail != "" {
		admins = append(admins, cfg.Email.AdminEmail)
	}
	for _, a := range admins {
		cfg.Admin.Emails = append(cfg.Admin.Emails, strings.ToLower(a))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"email_provider", cfg.Email.Provider,
		"stripe_key", logger.MaskSecret(cfg.Stripe.SecretKey),
		"admin_email", logger.MaskEmail(cfg.Email.AdminEmail),
		"redis", cfg.RedisURL != "",
	)
	return cfg, nil
}

// Validate checks required keys and cross-field consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		errs = append(errs, fmt.Errorf("ENVIRONMENT must be %q or %q", EnvDevelopment, EnvProduction))
	}
	if c.IsProduction() {
		if c.Stripe.SecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required in production"))
		}
		if c.Stripe.WebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required in production"))
		}
	}

	switch c.Email.Provider {
	case EmailProviderSES:
		if c.Email.AWSRegion == "" || c.Email.FromAddress == "" {
			errs = append(errs, errors.New("AWS_REGION and SES_FROM_ADDRESS are required for the ses email provider"))
		}
	case EmailProviderResend:
		if c.Email.ResendAPIKey == "" || c.Email.FromAddress == "" {
			errs = append(errs, errors.New("RESEND_API_KEY and SES_FROM_ADDRESS are required for the resend email provider"))
		}
	case EmailProviderLog:
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider))
	}

	if (c.Admin.PasswordHash != "" || c.GoogleEnabled()) && len(c.Admin.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters when admin sign-in is enabled", minJWTSecretLength))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

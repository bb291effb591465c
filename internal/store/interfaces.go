package store

import (
	"context"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/plans"

	"github.com/google/uuid"
)

type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]plans.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*plans.Plan, error)
	GetPlanByStripePriceID(ctx context.Context, priceID string) (*plans.Plan, error)
	CreatePlan(ctx context.Context, p *plans.Plan) error
	UpdatePlan(ctx context.Context, p *plans.Plan) error
}

type RegistrationStore interface {
	CreateRegistration(ctx context.Context, r *business.Registration) error
	GetRegistration(ctx context.Context, id uuid.UUID) (*business.Registration, error)
	GetRegistrationBySlug(ctx context.Context, slug string) (*business.Registration, error)
	ListRegistrations(ctx context.Context, status string) ([]business.Registration, error)
	ListDirectory(ctx context.Context, f business.DirectoryFilter) ([]business.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status string) error
	SetListingStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateRegistrationPlan(ctx context.Context, id, planID uuid.UUID) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	CreateVerificationToken(ctx context.Context, t *business.VerificationToken) error
	GetVerificationToken(ctx context.Context, token string) (*business.VerificationToken, error)
	DeleteVerificationToken(ctx context.Context, id uuid.UUID) error
}

type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub *billing.Subscription) error
	UpdateSubscription(ctx context.Context, sub *billing.Subscription) error
	GetSubscriptionBySessionID(ctx context.Context, sessionID string) (*billing.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error)
	GetLatestSubscriptionByCustomer(ctx context.Context, customerID string) (*billing.Subscription, error)
	GetLatestSubscription(ctx context.Context, businessID uuid.UUID) (*billing.Subscription, error)
	LatestSubscriptions(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]billing.Subscription, error)
	ListingSubscriptions(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]billing.Subscription, error)
	ListStalePendingSubscriptions(ctx context.Context, before time.Time, limit int) ([]billing.Subscription, error)
	TouchSubscription(ctx context.Context, id uuid.UUID, at time.Time) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *billing.Payment) error
	ListPayments(ctx context.Context, limit int) ([]billing.Payment, error)
}

type EventStore interface {
	GetStripeEvent(ctx context.Context, id string) (*billing.StripeEvent, error)
	SaveStripeEvent(ctx context.Context, ev *billing.StripeEvent) error
	ListStripeEvents(ctx context.Context, status string, limit int) ([]billing.StripeEvent, error)
}

// Repository is everything the HTTP layer needs from persistence.
type Repository interface {
	PlanStore
	RegistrationStore
	SubscriptionStore
	PaymentStore
	EventStore
	Stats(ctx context.Context, since time.Time) (*Stats, error)
	Ping(ctx context.Context) error
}

var _ Repository = (*Store)(nil)

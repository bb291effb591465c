package billing

import (
	"time"

	"explore-aparecida/internal/domain/plans"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription status values.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

type Subscription struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID   `gorm:"type:uuid;not null;index" json:"business_id"`
	PlanID     uuid.UUID   `gorm:"type:uuid;not null" json:"plan_id"`
	Plan       *plans.Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`

	Status               string  `gorm:"not null;default:'pending';index" json:"status"`
	StripeCustomerID     string  `gorm:"column:stripe_customer_id;index" json:"stripe_customer_id"`
	StripeSessionID      string  `gorm:"column:stripe_session_id;not null;uniqueIndex:idx_subscriptions_stripe_session_id" json:"stripe_session_id"`
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_subscriptions_stripe_subscription_id" json:"stripe_subscription_id,omitempty"`

	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `gorm:"not null" json:"cancel_at_period_end"`
	ActivatedAt       *time.Time `json:"activated_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

var transitions = map[string][]string{
	StatusPending: {StatusActive, StatusCancelled},
	StatusActive:  {StatusPastDue, StatusCancelled},
	StatusPastDue: {StatusActive, StatusCancelled},
}

// CanTransition reports whether a subscription may move from one status to
// another. Cancelled is terminal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InGoodStanding is true for subscriptions that block a new checkout.
func (s *Subscription) InGoodStanding() bool {
	return s.Status == StatusActive || s.Status == StatusPastDue
}

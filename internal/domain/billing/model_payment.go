package billing

import (
	"time"

	"explore-aparecida/internal/domain/business"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentApproved = "approved"
	PaymentFailed   = "failed"
)

// Payment is one invoice attempt. Rows are never updated.
type Payment struct {
	ID             uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID              `gorm:"type:uuid;not null;index" json:"subscription_id"`
	BusinessID     uuid.UUID              `gorm:"type:uuid;not null;index" json:"business_id"`
	Business       *business.Registration `gorm:"foreignKey:BusinessID" json:"business,omitempty"`

	StripeInvoiceID  string          `gorm:"column:stripe_invoice_id;index" json:"stripe_invoice_id"`
	StripeEventID    string          `gorm:"column:stripe_event_id;not null;uniqueIndex:idx_payments_stripe_event_id" json:"-"`
	Amount           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency         string          `gorm:"not null" json:"currency"`
	Status           string          `gorm:"not null;index" json:"status"`
	FailureReason    *string         `json:"failure_reason,omitempty"`
	HostedInvoiceURL *string         `json:"hosted_invoice_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

package plans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Plan struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	Tier            string          `gorm:"column:tier" json:"tier"` // "basic" | "featured" | "premium"
	Description     string          `json:"description"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency        string          `gorm:"not null;default:'brl'" json:"currency"`
	Interval        string          `gorm:"not null;default:'month'" json:"interval"`
	Features        []string        `gorm:"type:jsonb;serializer:json" json:"features"`
	StripePriceID   *string         `gorm:"column:stripe_price_id;uniqueIndex:idx_business_plans_stripe_price_id" json:"stripe_price_id,omitempty"`
	StripeProductID string          `gorm:"column:stripe_product_id" json:"-"`
	Active          bool            `gorm:"not null" json:"active"`
	SortOrder       int             `gorm:"not null;default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Plan) TableName() string { return "business_plans" }

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

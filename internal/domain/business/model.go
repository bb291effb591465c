package business

import (
	"strings"
	"time"

	"explore-aparecida/internal/domain/plans"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Registration status values.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Registration is a business listing in the directory.
type Registration struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessName string    `gorm:"not null" json:"business_name"`
	Slug         string    `gorm:"not null;uniqueIndex:idx_business_registrations_slug" json:"slug"`
	Category     string    `gorm:"not null;index" json:"category"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	City         string    `gorm:"index" json:"city"`
	Phone        string    `json:"phone"`
	WhatsApp     string    `gorm:"column:whatsapp" json:"whatsapp"`
	Website      string    `json:"website"`
	Instagram    string    `json:"instagram"`
	OwnerName    string    `gorm:"not null" json:"owner_name"`
	Email        string    `gorm:"not null;index" json:"email"`
	BillingEmail *string   `json:"billing_email,omitempty"`

	PlanID uuid.UUID   `gorm:"type:uuid;not null" json:"plan_id"`
	Plan   *plans.Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`

	Status        string `gorm:"not null;default:'pending';index" json:"status"`
	EmailVerified bool   `gorm:"not null" json:"email_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Registration) TableName() string { return "business_registrations" }

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ContactEmails returns the owner's address followed by the billing address
// when it differs.
func (r *Registration) ContactEmails() []string {
	out := []string{r.Email}
	if r.BillingEmail != nil {
		b := strings.TrimSpace(*r.BillingEmail)
		if b != "" && !strings.EqualFold(b, r.Email) {
			out = append(out, b)
		}
	}
	return out
}

// BillingAddress is where invoices and payment problems go.
func (r *Registration) BillingAddress() string {
	if r.BillingEmail != nil && strings.TrimSpace(*r.BillingEmail) != "" {
		return strings.TrimSpace(*r.BillingEmail)
	}
	return r.Email
}

// ValidStatus reports whether s is a registration status an admin may set.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// DirectoryFilter narrows the public listing query.
type DirectoryFilter struct {
	Category string
	City     string
	Query    string
}

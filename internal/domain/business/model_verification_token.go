package business

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const VerificationTokenTTL = 48 * time.Hour

type VerificationToken struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	BusinessID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Business   *Registration `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
	Token      string        `gorm:"not null;uniqueIndex"`
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (VerificationToken) TableName() string { return "email_verification_tokens" }

func (t *VerificationToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// NewVerificationToken returns a random 32 character hex token for businessID.
func NewVerificationToken(businessID uuid.UUID, now time.Time) (*VerificationToken, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return &VerificationToken{
		ID:         uuid.New(),
		BusinessID: businessID,
		Token:      hex.EncodeToString(b),
		ExpiresAt:  now.Add(VerificationTokenTTL),
	}, nil
}

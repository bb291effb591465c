package store

import (
	"context"
	"strings"

	"explore-aparecida/internal/domain/business"

	"github.com/google/uuid"
)

func (s *Store) CreateRegistration(ctx context.Context, r *business.Registration) error {
	return translate(s.db.WithContext(ctx).Omit("Plan").Create(r).Error, "create registration")
}

func (s *Store) GetRegistration(ctx context.Context, id uuid.UUID) (*business.Registration, error) {
	var r business.Registration
	if err := s.db.WithContext(ctx).Preload("Plan").Where("id = ?", id).First(&r).Error; err != nil {
		return nil, translate(err, "get registration")
	}
	return &r, nil
}

func (s *Store) GetRegistrationBySlug(ctx context.Context, slug string) (*business.Registration, error) {
	var r business.Registration
	if err := s.db.WithContext(ctx).Preload("Plan").Where("slug = ?", slug).First(&r).Error; err != nil {
		return nil, translate(err, "get registration by slug")
	}
	return &r, nil
}

func (s *Store) ListRegistrations(ctx context.Context, status string) ([]business.Registration, error) {
	q := s.db.WithContext(ctx).Preload("Plan").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []business.Registration
	return out, translate(q.Find(&out).Error, "list registrations")
}

// ListDirectory returns registrations that may appear publicly. Final
// visibility depends on the subscription and is decided by the caller.
func (s *Store) ListDirectory(ctx context.Context, f business.DirectoryFilter) ([]business.Registration, error) {
	q := s.db.WithContext(ctx).
		Preload("Plan").
		Where("status IN ?", []string{business.StatusActive, business.StatusInactive})
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.Query != "" {
		q = q.Where("business_name ILIKE ?", "%"+escapeLike(f.Query)+"%")
	}

	var out []business.Registration
	return out, translate(q.Order("business_name ASC").Find(&out).Error, "list directory")
}

func (s *Store) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := s.db.WithContext(ctx).
		Model(&business.Registration{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return translate(res.Error, "update registration status")
	}
	if res.RowsAffected == 0 {
		return translate(ErrNotFound, "update registration status")
	}
	return nil
}

// SetListingStatus applies a billing-driven status change. Suspended
// registrations are left alone.
func (s *Store) SetListingStatus(ctx context.Context, id uuid.UUID, status string) error {
	err := s.db.WithContext(ctx).
		Model(&business.Registration{}).
		Where("id = ? AND status <> ?", id, business.StatusSuspended).
		Update("status", status).Error
	return translate(err, "set listing status")
}

func (s *Store) UpdateRegistrationPlan(ctx context.Context, id, planID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&business.Registration{}).
		Where("id = ?", id).
		Update("plan_id", planID).Error
	return translate(err, "update registration plan")
}

func (s *Store) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&business.Registration{}).
		Where("id = ?", id).
		Update("email_verified", true).Error
	return translate(err, "mark email verified")
}

func (s *Store) CreateVerificationToken(ctx context.Context, t *business.VerificationToken) error {
	return translate(s.db.WithContext(ctx).Omit("Business").Create(t).Error, "create verification token")
}

func (s *Store) GetVerificationToken(ctx context.Context, token string) (*business.VerificationToken, error) {
	var t business.VerificationToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, translate(err, "get verification token")
	}
	return &t, nil
}

func (s *Store) DeleteVerificationToken(ctx context.Context, id uuid.UUID) error {
	return translate(s.db.WithContext(ctx).Delete(&business.VerificationToken{}, "id = ?", id).Error, "delete verification token")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

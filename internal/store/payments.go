package store

import (
	"context"

	"explore-aparecida/internal/domain/billing"
)

func (s *Store) CreatePayment(ctx context.Context, p *billing.Payment) error {
	return translate(s.db.WithContext(ctx).Omit("Business").Create(p).Error, "create payment")
}

func (s *Store) ListPayments(ctx context.Context, limit int) ([]billing.Payment, error) {
	var out []billing.Payment
	err := s.db.WithContext(ctx).
		Preload("Business").
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, translate(err, "list payments")
}

package store

import (
	"context"

	"explore-aparecida/internal/domain/plans"

	"github.com/google/uuid"
)

func (s *Store) ListActivePlans(ctx context.Context) ([]plans.Plan, error) {
	var out []plans.Plan
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC").
		Order("price ASC").
		Find(&out).Error
	return out, translate(err, "list plans")
}

func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*plans.Plan, error) {
	var p plans.Plan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "get plan")
	}
	return &p, nil
}

func (s *Store) GetPlanByStripePriceID(ctx context.Context, priceID string) (*plans.Plan, error) {
	var p plans.Plan
	if err := s.db.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&p).Error; err != nil {
		return nil, translate(err, "get plan by stripe price")
	}
	return &p, nil
}

func (s *Store) CreatePlan(ctx context.Context, p *plans.Plan) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "create plan")
}

func (s *Store) UpdatePlan(ctx context.Context, p *plans.Plan) error {
	return translate(s.db.WithContext(ctx).Save(p).Error, "update plan")
}

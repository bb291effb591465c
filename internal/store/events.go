package store

import (
	"context"

	"explore-aparecida/internal/domain/billing"

	"gorm.io/gorm/clause"
)

func (s *Store) GetStripeEvent(ctx context.Context, id string) (*billing.StripeEvent, error) {
	var ev billing.StripeEvent
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		return nil, translate(err, "get stripe event")
	}
	return &ev, nil
}

// SaveStripeEvent inserts the event or overwrites an earlier attempt.
func (s *Store) SaveStripeEvent(ctx context.Context, ev *billing.StripeEvent) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "error", "processed_at"}),
		}).
		Create(ev).Error
	return translate(err, "save stripe event")
}

func (s *Store) ListStripeEvents(ctx context.Context, status string, limit int) ([]billing.StripeEvent, error) {
	q := s.db.WithContext(ctx).Order("received_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []billing.StripeEvent
	return out, translate(q.Find(&out).Error, "list stripe events")
}

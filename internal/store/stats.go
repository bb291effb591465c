package store

import (
	"context"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"

	"github.com/shopspring/decimal"
)

type Stats struct {
	TotalRegistrations   int64            `json:"total_registrations"`
	ActiveSubscriptions  int64            `json:"active_subscriptions"`
	TotalRevenue         decimal.Decimal  `json:"total_revenue"`
	RecentRevenue        decimal.Decimal  `json:"recent_revenue"`
	RegistrationsPerPlan map[string]int64 `json:"registrations_per_plan"`
}

// Stats aggregates dashboard numbers; recent revenue counts approved
// payments created at or after since.
func (s *Store) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	db := s.db.WithContext(ctx)
	out := &Stats{RegistrationsPerPlan: map[string]int64{}}

	if err := db.Model(&business.Registration{}).Count(&out.TotalRegistrations).Error; err != nil {
		return nil, translate(err, "count registrations")
	}
	if err := db.Model(&billing.Subscription{}).
		Where("status = ?", billing.StatusActive).
		Count(&out.ActiveSubscriptions).Error; err != nil {
		return nil, translate(err, "count active subscriptions")
	}
	if err := db.Model(&billing.Payment{}).
		Where("status = ?", billing.PaymentApproved).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&out.TotalRevenue); err != nil {
		return nil, translate(err, "sum revenue")
	}
	if err := db.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", billing.PaymentApproved, since).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&out.RecentRevenue); err != nil {
		return nil, translate(err, "sum recent revenue")
	}

	type planCount struct {
		Name  *string
		Count int64
	}
	var counts []planCount
	if err := db.Table("business_registrations").
		Select("business_plans.name AS name, COUNT(business_registrations.id) AS count").
		Joins("LEFT JOIN business_plans ON business_registrations.plan_id = business_plans.id").
		Group("business_plans.name").
		Scan(&counts).Error; err != nil {
		return nil, translate(err, "registrations per plan")
	}
	for _, c := range counts {
		name := "Sem plano"
		if c.Name != nil {
			name = *c.Name
		}
		out.RegistrationsPerPlan[name] = c.Count
	}

	return out, nil
}

package store

import (
	"context"
	"time"

	"explore-aparecida/internal/domain/billing"

	"github.com/google/uuid"
)

func (s *Store) CreateSubscription(ctx context.Context, sub *billing.Subscription) error {
	return translate(s.db.WithContext(ctx).Omit("Plan").Create(sub).Error, "create subscription")
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *billing.Subscription) error {
	return translate(s.db.WithContext(ctx).Omit("Plan").Save(sub).Error, "update subscription")
}

func (s *Store) GetSubscriptionBySessionID(ctx context.Context, sessionID string) (*billing.Subscription, error) {
	var sub billing.Subscription
	if err := s.db.WithContext(ctx).Preload("Plan").Where("stripe_session_id = ?", sessionID).First(&sub).Error; err != nil {
		return nil, translate(err, "get subscription by session")
	}
	return &sub, nil
}

func (s *Store) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*billing.Subscription, error) {
	var sub billing.Subscription
	if err := s.db.WithContext(ctx).Preload("Plan").Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error; err != nil {
		return nil, translate(err, "get subscription by stripe id")
	}
	return &sub, nil
}

func (s *Store) GetLatestSubscriptionByCustomer(ctx context.Context, customerID string) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("stripe_customer_id = ?", customerID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, translate(err, "get subscription by customer")
	}
	return &sub, nil
}

func (s *Store) GetLatestSubscription(ctx context.Context, businessID uuid.UUID) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, translate(err, "get latest subscription")
	}
	return &sub, nil
}

// LatestSubscriptions maps each business to its most recent subscription.
func (s *Store) LatestSubscriptions(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]billing.Subscription, error) {
	return s.newestPerBusiness(ctx, businessIDs, false, "latest subscriptions")
}

// ListingSubscriptions maps each business to the newest subscription that
// has left pending. An abandoned upgrade checkout must not hide a listing
// that is still inside its paid period.
func (s *Store) ListingSubscriptions(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]billing.Subscription, error) {
	return s.newestPerBusiness(ctx, businessIDs, true, "listing subscriptions")
}

func (s *Store) newestPerBusiness(ctx context.Context, businessIDs []uuid.UUID, settledOnly bool, op string) (map[uuid.UUID]billing.Subscription, error) {
	out := make(map[uuid.UUID]billing.Subscription, len(businessIDs))
	if len(businessIDs) == 0 {
		return out, nil
	}

	q := s.db.WithContext(ctx).
		Preload("Plan").
		Where("business_id IN ?", businessIDs)
	if settledOnly {
		q = q.Where("status <> ?", billing.StatusPending)
	}
	var subs []billing.Subscription
	if err := q.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, translate(err, op)
	}
	for _, sub := range subs {
		if _, seen := out[sub.BusinessID]; !seen {
			out[sub.BusinessID] = sub
		}
	}
	return out, nil
}

// ListStalePendingSubscriptions returns pending rows created before the
// cutoff, least recently checked first.
func (s *Store) ListStalePendingSubscriptions(ctx context.Context, before time.Time, limit int) ([]billing.Subscription, error) {
	var subs []billing.Subscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", billing.StatusPending, before).
		Order("updated_at ASC, created_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, translate(err, "list stale pending subscriptions")
}

// TouchSubscription records that a pending row was checked without change.
func (s *Store) TouchSubscription(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&billing.Subscription{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
	return translate(err, "touch subscription")
}

package stripewebhooks

import (
	"context"
	"errors"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/store"

	"github.com/stripe/stripe-go/v75"
)

func priceID(s *stripe.Subscription) string {
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// SyncSubscription mirrors customer.subscription.updated: status, period
// end, cancel-at-period-end and the plan when the price maps to one.
func (r *Reconciler) SyncSubscription(ctx context.Context, remote *stripe.Subscription) error {
	if remote == nil || remote.ID == "" {
		return errors.New("subscription missing id")
	}
	log := r.log.With("stripeSubscriptionID", remote.ID)

	sub, err := r.findSubscription(ctx, remote.ID, customerID(remote.Customer))
	if err != nil {
		return err
	}
	if sub.StripeSubscriptionID == nil {
		id := remote.ID
		sub.StripeSubscriptionID = &id
	}

	sub.CurrentPeriodEnd = unixTime(remote.CurrentPeriodEnd)
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd

	from := sub.Status
	to, ok := stripeclient.MapSubscriptionStatus(remote.Status)
	if !ok {
		log.Warnw("Unmapped Stripe subscription status", "status", remote.Status)
	} else {
		r.transition(sub, to)
	}

	planChanged := false
	if pid := priceID(remote); pid != "" {
		plan, err := r.store.GetPlanByStripePriceID(ctx, pid)
		switch {
		case err == nil && plan.ID != sub.PlanID:
			sub.PlanID = plan.ID
			sub.Plan = plan
			planChanged = true
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	if err := r.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	if planChanged {
		if err := r.store.UpdateRegistrationPlan(ctx, sub.BusinessID, sub.PlanID); err != nil {
			return err
		}
	}

	if from != sub.Status {
		listing := ""
		switch sub.Status {
		case billing.StatusActive:
			listing = business.StatusActive
		case billing.StatusCancelled:
			listing = business.StatusInactive
		}
		if listing != "" {
			if err := r.store.SetListingStatus(ctx, sub.BusinessID, listing); err != nil {
				return err
			}
		}
	}

	log.Infow("Subscription synced", "subscriptionID", sub.ID, "from", from, "to", sub.Status, "cancelAtPeriodEnd", sub.CancelAtPeriodEnd)
	return nil
}

// CancelSubscription handles customer.subscription.deleted.
func (r *Reconciler) CancelSubscription(ctx context.Context, remote *stripe.Subscription) error {
	if remote == nil || remote.ID == "" {
		return errors.New("subscription missing id")
	}

	sub, err := r.findSubscription(ctx, remote.ID, customerID(remote.Customer))
	if err != nil {
		return err
	}
	if sub.Status == billing.StatusCancelled {
		return nil
	}
	if !r.transition(sub, billing.StatusCancelled) {
		return nil
	}
	if end := unixTime(remote.CurrentPeriodEnd); end != nil {
		sub.CurrentPeriodEnd = end
	}
	sub.CancelAtPeriodEnd = false

	if err := r.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	if err := r.store.SetListingStatus(ctx, sub.BusinessID, business.StatusInactive); err != nil {
		return err
	}
	r.log.Infow("Subscription cancelled", "subscriptionID", sub.ID, "businessID", sub.BusinessID)

	reg, err := r.registration(ctx, sub)
	if err != nil {
		r.log.Warnw("Skipping cancellation email", "error", err)
		return nil
	}
	r.sendCancelled(ctx, reg)
	return nil
}

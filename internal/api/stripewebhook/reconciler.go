package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/infra/email"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/store"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
)

// ErrUnknownSubscription means a Stripe object matched no local subscription.
var ErrUnknownSubscription = errors.New("no local subscription matches")

// Reconciler applies Stripe billing facts to local subscriptions,
// registrations and payments. The webhook, the check-session endpoint and
// the pending-checkout job all go through it.
type Reconciler struct {
	store  store.Repository
	stripe stripeclient.Client
	notify email.Notifier
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewReconciler(repo store.Repository, sc stripeclient.Client, notify email.Notifier, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		store:  repo,
		stripe: sc,
		notify: notify,
		log:    log,
		now:    time.Now,
	}
}

// findSubscription resolves a Stripe subscription id, falling back to the
// customer's latest row for invoices that arrive before checkout completes.
func (r *Reconciler) findSubscription(ctx context.Context, stripeSubID, customerID string) (*billing.Subscription, error) {
	if stripeSubID != "" {
		sub, err := r.store.GetSubscriptionByStripeID(ctx, stripeSubID)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if customerID != "" {
		sub, err := r.store.GetLatestSubscriptionByCustomer(ctx, customerID)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("stripe subscription %q customer %q: %w", stripeSubID, customerID, ErrUnknownSubscription)
}

func (r *Reconciler) registration(ctx context.Context, sub *billing.Subscription) (*business.Registration, error) {
	reg, err := r.store.GetRegistration(ctx, sub.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("load business %s: %w", sub.BusinessID, err)
	}
	if sub.Plan != nil {
		reg.Plan = sub.Plan
	}
	return reg, nil
}

// transition moves sub to status when the state machine allows it.
func (r *Reconciler) transition(sub *billing.Subscription, status string) bool {
	if sub.Status == status {
		return false
	}
	if !billing.CanTransition(sub.Status, status) {
		r.log.Warnw("Ignoring subscription transition",
			"subscriptionID", sub.ID, "from", sub.Status, "to", status)
		return false
	}

	now := r.now()
	sub.Status = status
	switch status {
	case billing.StatusActive:
		if sub.ActivatedAt == nil {
			sub.ActivatedAt = &now
		}
	case billing.StatusCancelled:
		sub.CancelledAt = &now
	}
	return true
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func subscriptionID(s *stripe.Subscription) string {
	if s == nil {
		return ""
	}
	return s.ID
}

// asyncPaymentWindow bounds how long a completed but unpaid checkout (boleto)
// may stay pending before it is treated as abandoned.
const asyncPaymentWindow = 7 * 24 * time.Hour

// ReconcileResult counts what ReconcilePending did.
type ReconcileResult struct {
	Checked   int `json:"checked"`
	Activated int `json:"activated"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
}

// ReconcilePending re-reads checkout sessions of pending subscriptions
// created before olderThan and applies whatever Stripe now reports. One
// failing session does not stop the batch. Rows left pending are touched so
// the next batch starts with the ones checked least recently.
func (r *Reconciler) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (ReconcileResult, error) {
	var res ReconcileResult
	now := r.now()
	subs, err := r.store.ListStalePendingSubscriptions(ctx, now.Add(-olderThan), limit)
	if err != nil {
		return res, err
	}

	for i := range subs {
		sub := &subs[i]
		res.Checked++
		session, err := r.stripe.GetCheckoutSession(ctx, sub.StripeSessionID)
		if err != nil {
			res.Failed++
			r.log.Errorw("Failed to fetch checkout session", "sessionID", sub.StripeSessionID, "error", err)
			r.touch(ctx, sub, now)
			continue
		}

		abandoned := session.Status == stripe.CheckoutSessionStatusComplete && now.Sub(sub.CreatedAt) > asyncPaymentWindow
		switch {
		case stripeclient.SessionPaid(session):
			if err := r.ActivateCheckout(ctx, session); err != nil {
				res.Failed++
				r.log.Errorw("Failed to activate checkout", "sessionID", session.ID, "error", err)
				r.touch(ctx, sub, now)
				continue
			}
			res.Activated++
		case session.Status == stripe.CheckoutSessionStatusExpired || abandoned:
			if err := r.ExpireCheckout(ctx, session); err != nil {
				res.Failed++
				r.log.Errorw("Failed to expire checkout", "sessionID", session.ID, "error", err)
				r.touch(ctx, sub, now)
				continue
			}
			res.Expired++
		default:
			r.touch(ctx, sub, now)
		}
	}
	return res, nil
}

func (r *Reconciler) touch(ctx context.Context, sub *billing.Subscription, at time.Time) {
	if err := r.store.TouchSubscription(ctx, sub.ID, at); err != nil {
		r.log.Warnw("Failed to touch pending subscription", "subscriptionID", sub.ID, "error", err)
	}
}

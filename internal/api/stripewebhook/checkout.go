package stripewebhooks

import (
	"context"
	"errors"
	"fmt"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/infra/stripeclient"
	"explore-aparecida/internal/store"

	"github.com/stripe/stripe-go/v75"
)

// ActivateCheckout activates the pending subscription created for a paid
// checkout session. Unpaid sessions (delayed methods such as boleto) wait
// for checkout.session.async_payment_succeeded.
func (r *Reconciler) ActivateCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	if session == nil || session.ID == "" {
		return errors.New("checkout session missing id")
	}
	log := r.log.With("sessionID", session.ID)

	if !stripeclient.SessionPaid(session) {
		log.Infow("Checkout completed without payment yet", "paymentStatus", session.PaymentStatus)
		return nil
	}

	sub, err := r.store.GetSubscriptionBySessionID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("checkout session %s: %w", session.ID, ErrUnknownSubscription)
		}
		return err
	}
	if sub.Status == billing.StatusActive {
		// A retry after a partial first attempt still has the listing,
		// plan and emails left to do.
		return r.finishActivation(ctx, sub, true)
	}
	if !r.transition(sub, billing.StatusActive) {
		return nil
	}

	if id := subscriptionID(session.Subscription); id != "" {
		sub.StripeSubscriptionID = &id

		remote := session.Subscription
		if remote.CurrentPeriodEnd == 0 {
			fetched, err := r.stripe.GetSubscription(ctx, id)
			if err != nil {
				return fmt.Errorf("fetch subscription for period end: %w", err)
			}
			remote = fetched
		}
		sub.CurrentPeriodEnd = unixTime(remote.CurrentPeriodEnd)
		sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	}
	if id := customerID(session.Customer); id != "" {
		sub.StripeCustomerID = id
	}

	if err := r.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	return r.finishActivation(ctx, sub, false)
}

// finishActivation publishes the listing of an active subscription, moves
// the registration to its plan and sends the activation emails. When resumed
// is set and the registration is already settled there is nothing left.
func (r *Reconciler) finishActivation(ctx context.Context, sub *billing.Subscription, resumed bool) error {
	log := r.log.With("sessionID", sub.StripeSessionID, "subscriptionID", sub.ID)

	reg, err := r.registration(ctx, sub)
	if err != nil {
		return err
	}
	settled := reg.Status == business.StatusActive || reg.Status == business.StatusSuspended
	if resumed && settled && reg.PlanID == sub.PlanID {
		log.Infow("Subscription already active")
		return nil
	}

	if err := r.store.SetListingStatus(ctx, sub.BusinessID, business.StatusActive); err != nil {
		return err
	}
	if reg.PlanID != sub.PlanID {
		if err := r.store.UpdateRegistrationPlan(ctx, reg.ID, sub.PlanID); err != nil {
			return err
		}
	}

	log.Infow("Subscription activated", "businessID", sub.BusinessID, "resumed", resumed)
	r.sendActivated(ctx, reg, sub)
	return nil
}

// ExpireCheckout cancels the pending subscription of an abandoned session.
func (r *Reconciler) ExpireCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	sub, err := r.store.GetSubscriptionBySessionID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.log.Infow("Expired session has no local subscription", "sessionID", session.ID)
			return nil
		}
		return err
	}
	if sub.Status != billing.StatusPending {
		return nil
	}

	r.transition(sub, billing.StatusCancelled)
	if err := r.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}
	r.log.Infow("Pending subscription cancelled", "sessionID", session.ID, "subscriptionID", sub.ID)
	return nil
}

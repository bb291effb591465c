package stripewebhooks

import (
	"context"
	"errors"
	"fmt"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/store"

	"github.com/stripe/stripe-go/v75"
)

func invoicePeriodEnd(inv *stripe.Invoice) int64 {
	if inv.Lines == nil {
		return 0
	}
	var end int64
	for _, line := range inv.Lines.Data {
		if line.Period != nil && line.Period.End > end {
			end = line.Period.End
		}
	}
	return end
}

func failureReason(inv *stripe.Invoice) *string {
	if inv.PaymentIntent != nil && inv.PaymentIntent.LastPaymentError != nil {
		if msg := inv.PaymentIntent.LastPaymentError.Msg; msg != "" {
			return &msg
		}
	}
	if inv.AttemptCount > 0 {
		msg := fmt.Sprintf("tentativa %d recusada", inv.AttemptCount)
		return &msg
	}
	return nil
}

func (r *Reconciler) paymentFromInvoice(eventID string, inv *stripe.Invoice, sub *billing.Subscription, paid bool) *billing.Payment {
	amount := inv.AmountDue
	status := billing.PaymentFailed
	if paid {
		amount = inv.AmountPaid
		status = billing.PaymentApproved
	}

	p := &billing.Payment{
		SubscriptionID:  sub.ID,
		BusinessID:      sub.BusinessID,
		StripeInvoiceID: inv.ID,
		StripeEventID:   eventID,
		Amount:          billing.FromMinorUnits(amount),
		Currency:        string(inv.Currency),
		Status:          status,
	}
	if inv.HostedInvoiceURL != "" {
		url := inv.HostedInvoiceURL
		p.HostedInvoiceURL = &url
	}
	if !paid {
		p.FailureReason = failureReason(inv)
	}
	return p
}

// RecordInvoice appends a payment row for an invoice event and moves the
// subscription between active and past_due. A replayed event id keeps the
// existing payment row and re-applies the subscription changes, so a retry
// after a failed first attempt completes it.
func (r *Reconciler) RecordInvoice(ctx context.Context, eventID string, inv *stripe.Invoice, paid bool) error {
	if inv == nil || inv.ID == "" {
		return errors.New("invoice missing id")
	}
	log := r.log.With("invoiceID", inv.ID, "eventID", eventID)

	sub, err := r.findSubscription(ctx, subscriptionID(inv.Subscription), customerID(inv.Customer))
	if err != nil {
		return err
	}

	payment := r.paymentFromInvoice(eventID, inv, sub, paid)
	if err := r.store.CreatePayment(ctx, payment); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		log.Infow("Payment already recorded, resuming")
	}

	changed := false
	if paid {
		if sub.Status == billing.StatusPastDue {
			changed = r.transition(sub, billing.StatusActive)
		}
		if end := unixTime(invoicePeriodEnd(inv)); end != nil {
			sub.CurrentPeriodEnd = end
			changed = true
		}
	} else if sub.Status == billing.StatusActive {
		changed = r.transition(sub, billing.StatusPastDue)
	}
	if sub.StripeSubscriptionID == nil {
		if id := subscriptionID(inv.Subscription); id != "" {
			sub.StripeSubscriptionID = &id
			changed = true
		}
	}

	if changed {
		if err := r.store.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
	}
	if paid && sub.Status == billing.StatusActive {
		if err := r.store.SetListingStatus(ctx, sub.BusinessID, business.StatusActive); err != nil {
			return err
		}
	}

	log.Infow("Payment recorded", "status", payment.Status, "amount", payment.Amount.String(), "subscriptionStatus", sub.Status)

	reg, err := r.registration(ctx, sub)
	if err != nil {
		log.Warnw("Skipping payment email", "error", err)
		return nil
	}
	if paid {
		r.sendReceipt(ctx, reg, payment)
	} else {
		r.sendPaymentFailed(ctx, reg, payment)
	}
	return nil
}

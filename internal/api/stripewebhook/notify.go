package stripewebhooks

import (
	"context"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
)

// Email failures never fail reconciliation.

func (r *Reconciler) sendActivated(ctx context.Context, reg *business.Registration, sub *billing.Subscription) {
	if err := r.notify.SubscriptionActivated(ctx, reg, sub); err != nil {
		r.log.Warnw("Activation email failed", "businessID", reg.ID, "error", err)
	}
	if err := r.notify.AdminBillingEvent(ctx, "Assinatura ativada", reg, nil); err != nil {
		r.log.Warnw("Admin activation email failed", "businessID", reg.ID, "error", err)
	}
}

func (r *Reconciler) sendReceipt(ctx context.Context, reg *business.Registration, p *billing.Payment) {
	if err := r.notify.PaymentReceipt(ctx, reg, p); err != nil {
		r.log.Warnw("Receipt email failed", "businessID", reg.ID, "error", err)
	}
}

func (r *Reconciler) sendPaymentFailed(ctx context.Context, reg *business.Registration, p *billing.Payment) {
	if err := r.notify.PaymentFailed(ctx, reg, p); err != nil {
		r.log.Warnw("Payment failure email failed", "businessID", reg.ID, "error", err)
	}
	if err := r.notify.AdminBillingEvent(ctx, "Pagamento recusado", reg, &p.Amount); err != nil {
		r.log.Warnw("Admin payment failure email failed", "businessID", reg.ID, "error", err)
	}
}

func (r *Reconciler) sendCancelled(ctx context.Context, reg *business.Registration) {
	if err := r.notify.SubscriptionCancelled(ctx, reg); err != nil {
		r.log.Warnw("Cancellation email failed", "businessID", reg.ID, "error", err)
	}
	if err := r.notify.AdminBillingEvent(ctx, "Assinatura cancelada", reg, nil); err != nil {
		r.log.Warnw("Admin cancellation email failed", "businessID", reg.ID, "error", err)
	}
}

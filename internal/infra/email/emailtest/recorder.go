// Package emailtest records notifications instead of sending them.
package emailtest

import (
	"context"
	"sync"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/infra/email"

	"github.com/shopspring/decimal"
)

// Sent is one recorded notification.
type Sent struct {
	Kind       string
	BusinessID string
	Detail     string
}

type Recorder struct {
	mu   sync.Mutex
	Sent []Sent
	Err  error
}

var _ email.Notifier = (*Recorder)(nil)

func (r *Recorder) record(kind string, reg *business.Registration, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, Sent{Kind: kind, BusinessID: reg.ID.String(), Detail: detail})
	return r.Err
}

// Kinds lists recorded notification kinds in order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Sent))
	for _, s := range r.Sent {
		out = append(out, s.Kind)
	}
	return out
}

func (r *Recorder) RegistrationReceived(_ context.Context, reg *business.Registration, verifyURL string) error {
	return r.record("registration_received", reg, verifyURL)
}

func (r *Recorder) AdminNewRegistration(_ context.Context, reg *business.Registration) error {
	return r.record("admin_new_registration", reg, "")
}

func (r *Recorder) SubscriptionActivated(_ context.Context, reg *business.Registration, sub *billing.Subscription) error {
	return r.record("subscription_activated", reg, sub.ID.String())
}

func (r *Recorder) PaymentReceipt(_ context.Context, reg *business.Registration, p *billing.Payment) error {
	return r.record("payment_receipt", reg, p.Amount.String())
}

func (r *Recorder) PaymentFailed(_ context.Context, reg *business.Registration, p *billing.Payment) error {
	return r.record("payment_failed", reg, p.Amount.String())
}

func (r *Recorder) SubscriptionCancelled(_ context.Context, reg *business.Registration) error {
	return r.record("subscription_cancelled", reg, "")
}

func (r *Recorder) AdminBillingEvent(_ context.Context, event string, reg *business.Registration, _ *decimal.Decimal) error {
	return r.record("admin_billing_event", reg, event)
}

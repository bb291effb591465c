package stripeclient

import (
	"strings"

	"explore-aparecida/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
)

// MapSubscriptionStatus folds a Stripe subscription status onto the local
// status set. ok is false for statuses with no local meaning (paused).
func MapSubscriptionStatus(s stripe.SubscriptionStatus) (status string, ok bool) {
	switch strings.TrimSpace(string(s)) {
	case "active", "trialing":
		return billing.StatusActive, true
	case "past_due", "unpaid":
		return billing.StatusPastDue, true
	case "canceled", "incomplete_expired":
		return billing.StatusCancelled, true
	case "incomplete":
		return billing.StatusPending, true
	default:
		return "", false
	}
}

// SessionPaid reports whether a checkout session finished with money in.
func SessionPaid(s *stripe.CheckoutSession) bool {
	if s == nil || s.Status != stripe.CheckoutSessionStatusComplete {
		return false
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

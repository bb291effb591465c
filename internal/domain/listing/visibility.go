package listing

import (
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/plans"
)

// PastDueGrace is how long a listing stays up after a missed renewal.
const PastDueGrace = 7 * 24 * time.Hour

type State string

const (
	StateVisible State = "visible"
	StateGrace   State = "grace"
	StateHidden  State = "hidden"
)

// Policy is what the public directory may show for one business.
type Policy struct {
	State       State
	Tier        string
	Featured    bool
	ShowSocials bool
}

func (p Policy) Visible() bool { return p.State != StateHidden }

// ComputeState decides whether a registration appears in the directory,
// given its latest subscription (nil when it never started checkout).
func ComputeState(now time.Time, r business.Registration, sub *billing.Subscription) State {
	if r.Status == business.StatusSuspended || r.Status == business.StatusPending {
		return StateHidden
	}
	if sub == nil {
		return StateHidden
	}

	switch sub.Status {
	case billing.StatusActive:
		return StateVisible
	case billing.StatusPastDue:
		if sub.CurrentPeriodEnd != nil && now.Before(sub.CurrentPeriodEnd.Add(PastDueGrace)) {
			return StateGrace
		}
		return StateHidden
	case billing.StatusCancelled:
		// paid-through period still honoured
		if sub.CurrentPeriodEnd != nil && now.Before(*sub.CurrentPeriodEnd) {
			return StateVisible
		}
		return StateHidden
	default:
		return StateHidden
	}
}

func ComputePolicy(now time.Time, r business.Registration, sub *billing.Subscription) Policy {
	state := ComputeState(now, r, sub)
	tier := plans.PlanTier(r.Plan)
	if sub != nil && sub.Plan != nil {
		tier = plans.PlanTier(sub.Plan)
	}

	p := Policy{State: state, Tier: tier}
	if state == StateHidden {
		return p
	}
	switch tier {
	case plans.TierPremium:
		p.Featured = true
		p.ShowSocials = true
	case plans.TierFeatured:
		p.Featured = true
	}
	return p
}

// Package storetest provides an in-memory store.Repository for handler tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/plans"
	"explore-aparecida/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Fake struct {
	mu sync.Mutex

	Plans         map[uuid.UUID]*plans.Plan
	Registrations map[uuid.UUID]*business.Registration
	Tokens        map[uuid.UUID]*business.VerificationToken
	Subscriptions map[uuid.UUID]*billing.Subscription
	Payments      []*billing.Payment
	Events        map[string]*billing.StripeEvent

	// PingErr and FailWith let tests force errors.
	PingErr  error
	FailWith error
}

var _ store.Repository = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Plans:         map[uuid.UUID]*plans.Plan{},
		Registrations: map[uuid.UUID]*business.Registration{},
		Tokens:        map[uuid.UUID]*business.VerificationToken{},
		Subscriptions: map[uuid.UUID]*billing.Subscription{},
		Events:        map[string]*billing.StripeEvent{},
	}
}

func notFound(what string) error { return fmt.Errorf("%s: %w", what, store.ErrNotFound) }

func duplicate(what string) error { return fmt.Errorf("%s: %w", what, store.ErrDuplicate) }

// AddPlan seeds an active plan and returns it.
func (f *Fake) AddPlan(name, tier string, price int64) *plans.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &plans.Plan{
		ID:       uuid.New(),
		Name:     name,
		Tier:     tier,
		Price:    decimal.NewFromInt(price),
		Currency: "brl",
		Interval: "month",
		Active:   true,
	}
	f.Plans[p.ID] = p
	return p
}

// AddRegistration seeds a registration on plan with the given status.
func (f *Fake) AddRegistration(name, status string, plan *plans.Plan) *business.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &business.Registration{
		ID:           uuid.New(),
		BusinessName: name,
		Slug:         business.MakeSlug(name),
		Category:     "hospedagem",
		City:         "Aparecida",
		OwnerName:    "Maria",
		Email:        strings.ToLower(business.MakeSlug(name)) + "@example.com",
		Status:       status,
		CreatedAt:    time.Now(),
	}
	if plan != nil {
		r.PlanID = plan.ID
	}
	f.Registrations[r.ID] = r
	return r
}

// AddSubscription seeds a subscription row.
func (f *Fake) AddSubscription(sub *billing.Subscription) *billing.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = sub.CreatedAt
	}
	f.Subscriptions[sub.ID] = sub
	return sub
}

func (f *Fake) withPlan(p *plans.Plan) *plans.Plan {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (f *Fake) regCopy(r *business.Registration) business.Registration {
	cp := *r
	cp.Plan = f.withPlan(f.Plans[r.PlanID])
	return cp
}

func (f *Fake) subCopy(s *billing.Subscription) billing.Subscription {
	cp := *s
	cp.Plan = f.withPlan(f.Plans[s.PlanID])
	return cp
}

func (f *Fake) Ping(context.Context) error { return f.PingErr }

func (f *Fake) ListActivePlans(context.Context) ([]plans.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	var out []plans.Plan
	for _, p := range f.Plans {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out, nil
}

func (f *Fake) GetPlan(_ context.Context, id uuid.UUID) (*plans.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Plans[id]
	if !ok {
		return nil, notFound("get plan")
	}
	return f.withPlan(p), nil
}

func (f *Fake) GetPlanByStripePriceID(_ context.Context, priceID string) (*plans.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Plans {
		if p.StripePriceID != nil && *p.StripePriceID == priceID {
			return f.withPlan(p), nil
		}
	}
	return nil, notFound("get plan by stripe price")
}

func (f *Fake) CreatePlan(_ context.Context, p *plans.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.Plans[p.ID] = &cp
	return nil
}

func (f *Fake) UpdatePlan(_ context.Context, p *plans.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.Plans[p.ID] = &cp
	return nil
}

func (f *Fake) CreateRegistration(_ context.Context, r *business.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	for _, existing := range f.Registrations {
		if existing.Slug == r.Slug {
			return duplicate("create registration")
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = business.StatusPending
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	cp.Plan = nil
	f.Registrations[r.ID] = &cp
	return nil
}

func (f *Fake) GetRegistration(_ context.Context, id uuid.UUID) (*business.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Registrations[id]
	if !ok {
		return nil, notFound("get registration")
	}
	cp := f.regCopy(r)
	return &cp, nil
}

func (f *Fake) GetRegistrationBySlug(_ context.Context, slug string) (*business.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Registrations {
		if r.Slug == slug {
			cp := f.regCopy(r)
			return &cp, nil
		}
	}
	return nil, notFound("get registration by slug")
}

func (f *Fake) ListRegistrations(_ context.Context, status string) ([]business.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []business.Registration
	for _, r := range f.Registrations {
		if status == "" || r.Status == status {
			out = append(out, f.regCopy(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) ListDirectory(_ context.Context, flt business.DirectoryFilter) ([]business.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []business.Registration
	for _, r := range f.Registrations {
		if r.Status != business.StatusActive && r.Status != business.StatusInactive {
			continue
		}
		if flt.Category != "" && !strings.EqualFold(r.Category, flt.Category) {
			continue
		}
		if flt.City != "" && !strings.EqualFold(r.City, flt.City) {
			continue
		}
		if flt.Query != "" && !strings.Contains(strings.ToLower(r.BusinessName), strings.ToLower(flt.Query)) {
			continue
		}
		out = append(out, f.regCopy(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessName < out[j].BusinessName })
	return out, nil
}

func (f *Fake) UpdateRegistrationStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Registrations[id]
	if !ok {
		return notFound("update registration status")
	}
	r.Status = status
	return nil
}

func (f *Fake) SetListingStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.Registrations[id]; ok && r.Status != business.StatusSuspended {
		r.Status = status
	}
	return nil
}

func (f *Fake) UpdateRegistrationPlan(_ context.Context, id, planID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.Registrations[id]; ok {
		r.PlanID = planID
	}
	return nil
}

func (f *Fake) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.Registrations[id]; ok {
		r.EmailVerified = true
	}
	return nil
}

func (f *Fake) CreateVerificationToken(_ context.Context, t *business.VerificationToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.Tokens[t.ID] = &cp
	return nil
}

func (f *Fake) GetVerificationToken(_ context.Context, token string) (*business.VerificationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.Tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, notFound("get verification token")
}

func (f *Fake) DeleteVerificationToken(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Tokens, id)
	return nil
}

func (f *Fake) CreateSubscription(_ context.Context, sub *billing.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Subscriptions {
		if existing.StripeSessionID == sub.StripeSessionID {
			return duplicate("create subscription")
		}
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Status == "" {
		sub.Status = billing.StatusPending
	}
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	cp := *sub
	cp.Plan = nil
	f.Subscriptions[sub.ID] = &cp
	return nil
}

func (f *Fake) UpdateSubscription(_ context.Context, sub *billing.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Subscriptions[sub.ID]; !ok {
		return notFound("update subscription")
	}
	cp := *sub
	cp.Plan = nil
	f.Subscriptions[sub.ID] = &cp
	return nil
}

func (f *Fake) findSub(match func(*billing.Subscription) bool) *billing.Subscription {
	var best *billing.Subscription
	for _, s := range f.Subscriptions {
		if match(s) && (best == nil || s.CreatedAt.After(best.CreatedAt)) {
			best = s
		}
	}
	return best
}

func (f *Fake) GetSubscriptionBySessionID(_ context.Context, sessionID string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findSub(func(s *billing.Subscription) bool { return s.StripeSessionID == sessionID })
	if s == nil {
		return nil, notFound("get subscription by session")
	}
	cp := f.subCopy(s)
	return &cp, nil
}

func (f *Fake) GetSubscriptionByStripeID(_ context.Context, id string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findSub(func(s *billing.Subscription) bool {
		return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID == id
	})
	if s == nil {
		return nil, notFound("get subscription by stripe id")
	}
	cp := f.subCopy(s)
	return &cp, nil
}

func (f *Fake) GetLatestSubscriptionByCustomer(_ context.Context, customerID string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findSub(func(s *billing.Subscription) bool { return s.StripeCustomerID == customerID })
	if s == nil {
		return nil, notFound("get subscription by customer")
	}
	cp := f.subCopy(s)
	return &cp, nil
}

func (f *Fake) GetLatestSubscription(_ context.Context, businessID uuid.UUID) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findSub(func(s *billing.Subscription) bool { return s.BusinessID == businessID })
	if s == nil {
		return nil, notFound("get latest subscription")
	}
	cp := f.subCopy(s)
	return &cp, nil
}

func (f *Fake) LatestSubscriptions(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]billing.Subscription{}
	for _, id := range ids {
		id := id
		if s := f.findSub(func(s *billing.Subscription) bool { return s.BusinessID == id }); s != nil {
			out[id] = f.subCopy(s)
		}
	}
	return out, nil
}

func (f *Fake) ListingSubscriptions(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]billing.Subscription{}
	for _, id := range ids {
		id := id
		match := func(s *billing.Subscription) bool {
			return s.BusinessID == id && s.Status != billing.StatusPending
		}
		if s := f.findSub(match); s != nil {
			out[id] = f.subCopy(s)
		}
	}
	return out, nil
}

func (f *Fake) TouchSubscription(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Subscriptions[id]
	if !ok {
		return notFound("touch subscription")
	}
	s.UpdatedAt = at
	return nil
}

func (f *Fake) ListStalePendingSubscriptions(_ context.Context, before time.Time, limit int) ([]billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []billing.Subscription
	for _, s := range f.Subscriptions {
		if s.Status == billing.StatusPending && s.CreatedAt.Before(before) {
			out = append(out, f.subCopy(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) CreatePayment(_ context.Context, p *billing.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Payments {
		if existing.StripeEventID == p.StripeEventID {
			return duplicate("create payment")
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	f.Payments = append(f.Payments, &cp)
	return nil
}

func (f *Fake) ListPayments(_ context.Context, limit int) ([]billing.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []billing.Payment
	for i := len(f.Payments) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		p := *f.Payments[i]
		if r, ok := f.Registrations[p.BusinessID]; ok {
			cp := *r
			p.Business = &cp
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) GetStripeEvent(_ context.Context, id string) (*billing.StripeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.Events[id]
	if !ok {
		return nil, notFound("get stripe event")
	}
	cp := *ev
	return &cp, nil
}

func (f *Fake) SaveStripeEvent(_ context.Context, ev *billing.StripeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ev
	f.Events[ev.ID] = &cp
	return nil
}

func (f *Fake) ListStripeEvents(_ context.Context, status string, limit int) ([]billing.StripeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []billing.StripeEvent
	for _, ev := range f.Events {
		if status == "" || ev.Status == status {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) Stats(_ context.Context, since time.Time) (*store.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	st := &store.Stats{
		TotalRegistrations:   int64(len(f.Registrations)),
		RegistrationsPerPlan: map[string]int64{},
	}
	for _, s := range f.Subscriptions {
		if s.Status == billing.StatusActive {
			st.ActiveSubscriptions++
		}
	}
	for _, p := range f.Payments {
		if p.Status != billing.PaymentApproved {
			continue
		}
		st.TotalRevenue = st.TotalRevenue.Add(p.Amount)
		if !p.CreatedAt.Before(since) {
			st.RecentRevenue = st.RecentRevenue.Add(p.Amount)
		}
	}
	for _, r := range f.Registrations {
		name := "Sem plano"
		if p, ok := f.Plans[r.PlanID]; ok {
			name = p.Name
		}
		st.RegistrationsPerPlan[name]++
	}
	return st, nil
}

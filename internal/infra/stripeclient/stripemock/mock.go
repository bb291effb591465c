// Package stripemock provides a testify mock of stripeclient.Client.
package stripemock

import (
	"context"

	"explore-aparecida/internal/infra/stripeclient"

	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v75"
)

// Mock is a testify mock of Client.
type Mock struct {
	mock.Mock
}

var _ stripeclient.Client = (*Mock)(nil)

func (m *Mock) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (*stripe.Customer, error) {
	args := m.Called(ctx, email, name, metadata)
	cus, _ := args.Get(0).(*stripe.Customer)
	return cus, args.Error(1)
}

func (m *Mock) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, params)
	s, _ := args.Get(0).(*stripe.CheckoutSession)
	return s, args.Error(1)
}

func (m *Mock) GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*stripe.CheckoutSession)
	return s, args.Error(1)
}

func (m *Mock) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*stripe.Subscription)
	return sub, args.Error(1)
}

func (m *Mock) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	args := m.Called(ctx, customerID, returnURL)
	p, _ := args.Get(0).(*stripe.BillingPortalSession)
	return p, args.Error(1)
}

func (m *Mock) ListRecurringPrices(ctx context.Context, productID, currency string) ([]*stripe.Price, error) {
	args := m.Called(ctx, productID, currency)
	prices, _ := args.Get(0).([]*stripe.Price)
	return prices, args.Error(1)
}

package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/plans"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSender struct {
	msgs []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func newTestMailer(t *testing.T, sender Sender) *Mailer {
	t.Helper()
	m, err := NewMailer(Config{
		FromAddress: "contato@exploreaparecida.com.br",
		FromName:    "Explore Aparecida",
		AdminEmail:  "admin@exploreaparecida.com.br",
		FrontendURL: "https://exploreaparecida.com.br",
	}, sender, prometheus.NewRegistry(), zap.NewNop().Sugar())
	require.NoError(t, err)
	return m
}

func testRegistration() *business.Registration {
	billingEmail := "financeiro@pousada.com.br"
	return &business.Registration{
		ID:           uuid.New(),
		BusinessName: "Pousada São José",
		Slug:         "pousada-sao-jose-abc123",
		OwnerName:    "Maria",
		Email:        "maria@pousada.com.br",
		BillingEmail: &billingEmail,
		Category:     "hospedagem",
		City:         "Aparecida",
		Plan:         &plans.Plan{Name: "Premium"},
	}
}

func TestRegistrationReceived(t *testing.T) {
	sender := &captureSender{}
	m := newTestMailer(t, sender)

	err := m.RegistrationReceived(context.Background(), testRegistration(), "https://api.exploreaparecida.com.br/api/verify-email?token=abc")
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "Explore Aparecida <contato@exploreaparecida.com.br>", msg.From)
	assert.Equal(t, []string{"maria@pousada.com.br"}, msg.To)
	assert.Equal(t, "Recebemos o cadastro de Pousada São José", msg.Subject)
	assert.Contains(t, msg.HTML, "verify-email?token=abc")
	assert.Contains(t, msg.Text, "Olá, Maria!")
	assert.NotContains(t, msg.Text, "<p>")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.sent.WithLabelValues(string(TemplateRegistrationReceived))))
}

func TestHTMLIsEscaped(t *testing.T) {
	sender := &captureSender{}
	m := newTestMailer(t, sender)
	reg := testRegistration()
	reg.BusinessName = `<script>alert(1)</script>`

	require.NoError(t, m.AdminNewRegistration(context.Background(), reg))
	require.Len(t, sender.msgs, 1)
	assert.NotContains(t, sender.msgs[0].HTML, "<script>")
	assert.Equal(t, []string{"admin@exploreaparecida.com.br"}, sender.msgs[0].To)
}

func TestSubscriptionActivatedGoesToBothContacts(t *testing.T) {
	sender := &captureSender{}
	m := newTestMailer(t, sender)
	end := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)

	err := m.SubscriptionActivated(context.Background(), testRegistration(), &billing.Subscription{
		ID:               uuid.New(),
		CurrentPeriodEnd: &end,
	})
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, []string{"maria@pousada.com.br", "financeiro@pousada.com.br"}, sender.msgs[0].To)
	assert.Contains(t, sender.msgs[0].HTML, "14/11/2026")
	assert.Contains(t, sender.msgs[0].HTML, "/negocios/pousada-sao-jose-abc123")
}

func TestPaymentFailedUsesBillingAddress(t *testing.T) {
	sender := &captureSender{}
	m := newTestMailer(t, sender)
	reason := "cartão recusado"
	url := "https://invoice.stripe.com/i/abc"

	err := m.PaymentFailed(context.Background(), testRegistration(), &billing.Payment{
		Amount:           decimal.RequireFromString("199.90"),
		Currency:         "brl",
		FailureReason:    &reason,
		HostedInvoiceURL: &url,
	})
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, []string{"financeiro@pousada.com.br"}, sender.msgs[0].To)
	assert.Contains(t, sender.msgs[0].HTML, "R$ 199.90")
	assert.Contains(t, sender.msgs[0].HTML, url)
}

func TestSendFailureCounts(t *testing.T) {
	sender := &captureSender{err: errors.New("throttled")}
	m := newTestMailer(t, sender)

	err := m.SubscriptionCancelled(context.Background(), testRegistration())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.failed.WithLabelValues(string(TemplateSubscriptionCancelled))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.metrics.sent.WithLabelValues(string(TemplateSubscriptionCancelled))))
}

func TestNoAdminConfigured(t *testing.T) {
	sender := &captureSender{}
	m, err := NewMailer(Config{FromAddress: "a@b.c"}, sender, prometheus.NewRegistry(), zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, m.AdminBillingEvent(context.Background(), "Assinatura ativada", testRegistration(), nil))
	assert.Empty(t, sender.msgs)
}

func TestUnknownTemplate(t *testing.T) {
	m := newTestMailer(t, &captureSender{})
	err := m.Send(context.Background(), Template("nope"), []string{"a@b.c"}, Data{})
	assert.ErrorContains(t, err, "unknown email template")
}

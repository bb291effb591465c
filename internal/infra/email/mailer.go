package email

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"explore-aparecida/internal/domain/billing"
	"explore-aparecida/internal/domain/business"
	"explore-aparecida/internal/domain/plans"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier sends the emails triggered by registration and billing events.
type Notifier interface {
	RegistrationReceived(ctx context.Context, reg *business.Registration, verifyURL string) error
	AdminNewRegistration(ctx context.Context, reg *business.Registration) error
	SubscriptionActivated(ctx context.Context, reg *business.Registration, sub *billing.Subscription) error
	PaymentReceipt(ctx context.Context, reg *business.Registration, p *billing.Payment) error
	PaymentFailed(ctx context.Context, reg *business.Registration, p *billing.Payment) error
	SubscriptionCancelled(ctx context.Context, reg *business.Registration) error
	AdminBillingEvent(ctx context.Context, event string, reg *business.Registration, amount *decimal.Decimal) error
}

type Config struct {
	FromAddress string
	FromName    string
	AdminEmail  string
	FrontendURL string
}

type metrics struct {
	sent   *prometheus.CounterVec
	failed *prometheus.CounterVec
}

type Mailer struct {
	cfg       Config
	sender    Sender
	templates map[Template]compiled
	metrics   metrics
	log       *zap.SugaredLogger
}

var _ Notifier = (*Mailer)(nil)

func NewMailer(cfg Config, sender Sender, reg prometheus.Registerer, log *zap.SugaredLogger) (*Mailer, error) {
	templates, err := compile()
	if err != nil {
		return nil, fmt.Errorf("compile email templates: %w", err)
	}

	m := metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explore_emails_sent_total",
			Help: "Transactional emails handed to the provider",
		}, []string{"template"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explore_email_errors_total",
			Help: "Transactional emails that failed to render or send",
		}, []string{"template"}),
	}
	reg.MustRegister(m.sent, m.failed)

	return &Mailer{cfg: cfg, sender: sender, templates: templates, metrics: m, log: log}, nil
}

func (m *Mailer) from() string {
	if m.cfg.FromName == "" {
		return m.cfg.FromAddress
	}
	return fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress)
}

// Send renders name with data and delivers it to every address in to.
func (m *Mailer) Send(ctx context.Context, name Template, to []string, data Data) error {
	if len(to) == 0 {
		return nil
	}
	tpl, ok := m.templates[name]
	if !ok {
		return fmt.Errorf("unknown email template %q", name)
	}
	if data.SupportEmail == "" {
		data.SupportEmail = m.cfg.AdminEmail
	}

	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		m.metrics.failed.WithLabelValues(string(name)).Inc()
		return fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tpl.html.Execute(&body, data); err != nil {
		m.metrics.failed.WithLabelValues(string(name)).Inc()
		return fmt.Errorf("render %s body: %w", name, err)
	}

	msg := Message{
		From:    m.from(),
		To:      to,
		Subject: subject.String(),
		HTML:    body.String(),
		Text:    plainText(body.String()),
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		m.metrics.failed.WithLabelValues(string(name)).Inc()
		m.log.Errorw("Failed to send email", "template", name, "subject", msg.Subject, "error", err)
		return err
	}

	m.metrics.sent.WithLabelValues(string(name)).Inc()
	m.log.Infow("Email sent", "template", name, "recipients", len(to))
	return nil
}

func planName(p *plans.Plan) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func formatBRL(amount decimal.Decimal, currency string) string {
	if currency == "" || currency == "brl" {
		return "R$ " + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

func baseData(reg *business.Registration) Data {
	return Data{
		BusinessName: reg.BusinessName,
		OwnerName:    reg.OwnerName,
		Email:        reg.Email,
		Phone:        reg.Phone,
		Category:     reg.Category,
		City:         reg.City,
		PlanName:     planName(reg.Plan),
	}
}

func (m *Mailer) adminRecipients() []string {
	if m.cfg.AdminEmail == "" {
		return nil
	}
	return []string{m.cfg.AdminEmail}
}

func (m *Mailer) RegistrationReceived(ctx context.Context, reg *business.Registration, verifyURL string) error {
	data := baseData(reg)
	data.ActionURL = verifyURL
	return m.Send(ctx, TemplateRegistrationReceived, []string{reg.Email}, data)
}

func (m *Mailer) AdminNewRegistration(ctx context.Context, reg *business.Registration) error {
	return m.Send(ctx, TemplateAdminNewRegistration, m.adminRecipients(), baseData(reg))
}

func (m *Mailer) SubscriptionActivated(ctx context.Context, reg *business.Registration, sub *billing.Subscription) error {
	data := baseData(reg)
	if sub.Plan != nil {
		data.PlanName = sub.Plan.Name
	}
	data.PeriodEnd = formatDate(sub.CurrentPeriodEnd)
	if m.cfg.FrontendURL != "" {
		data.ActionURL = m.cfg.FrontendURL + "/negocios/" + reg.Slug
	}
	return m.Send(ctx, TemplateSubscriptionActivated, reg.ContactEmails(), data)
}

func (m *Mailer) PaymentReceipt(ctx context.Context, reg *business.Registration, p *billing.Payment) error {
	data := baseData(reg)
	data.Amount = formatBRL(p.Amount, p.Currency)
	if p.HostedInvoiceURL != nil {
		data.ActionURL = *p.HostedInvoiceURL
	}
	return m.Send(ctx, TemplatePaymentReceipt, []string{reg.BillingAddress()}, data)
}

func (m *Mailer) PaymentFailed(ctx context.Context, reg *business.Registration, p *billing.Payment) error {
	data := baseData(reg)
	data.Amount = formatBRL(p.Amount, p.Currency)
	if p.FailureReason != nil {
		data.Reason = *p.FailureReason
	}
	if p.HostedInvoiceURL != nil {
		data.ActionURL = *p.HostedInvoiceURL
	}
	return m.Send(ctx, TemplatePaymentFailed, []string{reg.BillingAddress()}, data)
}

func (m *Mailer) SubscriptionCancelled(ctx context.Context, reg *business.Registration) error {
	data := baseData(reg)
	if m.cfg.FrontendURL != "" {
		data.ActionURL = m.cfg.FrontendURL + "/planos"
	}
	return m.Send(ctx, TemplateSubscriptionCancelled, reg.ContactEmails(), data)
}

func (m *Mailer) AdminBillingEvent(ctx context.Context, event string, reg *business.Registration, amount *decimal.Decimal) error {
	data := baseData(reg)
	data.Event = event
	if amount != nil {
		data.Amount = formatBRL(*amount, "brl")
	}
	return m.Send(ctx, TemplateAdminBillingEvent, m.adminRecipients(), data)
}

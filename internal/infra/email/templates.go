package email

import (
	"html"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
)

// Template identifies one transactional email.
type Template string

const (
	TemplateRegistrationReceived  Template = "registration_received"
	TemplateAdminNewRegistration  Template = "admin_new_registration"
	TemplateSubscriptionActivated Template = "subscription_activated"
	TemplatePaymentReceipt        Template = "payment_receipt"
	TemplatePaymentFailed         Template = "payment_failed"
	TemplateSubscriptionCancelled Template = "subscription_cancelled"
	TemplateAdminBillingEvent     Template = "admin_billing_event"
)

// Data feeds every template; each uses the fields it needs.
type Data struct {
	BusinessName string
	OwnerName    string
	Email        string
	Phone        string
	Category     string
	City         string
	PlanName     string
	Amount       string
	PeriodEnd    string
	Reason       string
	Event        string
	ActionURL    string
	SupportEmail string
}

type spec struct {
	subject string
	body    string
}

var catalog = map[Template]spec{
	TemplateRegistrationReceived: {
		subject: "Recebemos o cadastro de {{.BusinessName}}",
		body: `<p>Olá, {{.OwnerName}}!</p>
<p>Recebemos o cadastro de <strong>{{.BusinessName}}</strong> no Explore Aparecida{{if .PlanName}} com o plano <strong>{{.PlanName}}</strong>{{end}}.</p>
<p>Confirme seu e-mail para continuarmos:</p>
<p><a class="button" href="{{.ActionURL}}">Confirmar e-mail</a></p>
<p>Assim que o pagamento for confirmado, seu negócio aparece no guia.</p>`,
	},
	TemplateAdminNewRegistration: {
		subject: "Novo cadastro: {{.BusinessName}}",
		body: `<p>Um novo negócio se cadastrou.</p>
<ul>
<li><strong>Negócio:</strong> {{.BusinessName}}</li>
<li><strong>Categoria:</strong> {{.Category}}</li>
<li><strong>Cidade:</strong> {{.City}}</li>
<li><strong>Responsável:</strong> {{.OwnerName}} ({{.Email}})</li>
<li><strong>Telefone:</strong> {{.Phone}}</li>
<li><strong>Plano:</strong> {{.PlanName}}</li>
</ul>`,
	},
	TemplateSubscriptionActivated: {
		subject: "Assinatura ativa: {{.BusinessName}} já está no Explore Aparecida",
		body: `<p>Olá, {{.OwnerName}}!</p>
<p>O pagamento foi confirmado e a assinatura do plano <strong>{{.PlanName}}</strong> está ativa.</p>
<p><strong>{{.BusinessName}}</strong> já aparece no guia{{if .PeriodEnd}} e o período atual vai até {{.PeriodEnd}}{{end}}.</p>
{{if .ActionURL}}<p><a class="button" href="{{.ActionURL}}">Ver minha página</a></p>{{end}}`,
	},
	TemplatePaymentReceipt: {
		subject: "Pagamento recebido: {{.Amount}}",
		body: `<p>Olá, {{.OwnerName}}!</p>
<p>Recebemos o pagamento de <strong>{{.Amount}}</strong> referente ao plano {{.PlanName}} de {{.BusinessName}}.</p>
{{if .ActionURL}}<p><a class="button" href="{{.ActionURL}}">Ver fatura</a></p>{{end}}
<p>Obrigado por fazer parte do Explore Aparecida.</p>`,
	},
	TemplatePaymentFailed: {
		subject: "Não conseguimos processar o pagamento de {{.BusinessName}}",
		body: `<p>Olá, {{.OwnerName}}!</p>
<p>A cobrança de <strong>{{.Amount}}</strong> do plano {{.PlanName}} não foi aprovada{{if .Reason}} ({{.Reason}}){{end}}.</p>
<p>Atualize a forma de pagamento para manter seu negócio visível no guia.</p>
{{if .ActionURL}}<p><a class="button" href="{{.ActionURL}}">Pagar fatura</a></p>{{end}}`,
	},
	TemplateSubscriptionCancelled: {
		subject: "Assinatura cancelada: {{.BusinessName}}",
		body: `<p>Olá, {{.OwnerName}}!</p>
<p>A assinatura do plano {{.PlanName}} de <strong>{{.BusinessName}}</strong> foi cancelada.</p>
<p>Se quiser voltar ao guia, é só escolher um plano novamente.</p>
{{if .ActionURL}}<p><a class="button" href="{{.ActionURL}}">Ver planos</a></p>{{end}}`,
	},
	TemplateAdminBillingEvent: {
		subject: "[Assinaturas] {{.Event}}: {{.BusinessName}}",
		body: `<p>{{.Event}}</p>
<ul>
<li><strong>Negócio:</strong> {{.BusinessName}}</li>
<li><strong>E-mail:</strong> {{.Email}}</li>
<li><strong>Plano:</strong> {{.PlanName}}</li>
{{if .Amount}}<li><strong>Valor:</strong> {{.Amount}}</li>{{end}}
</ul>`,
	},
}

const layout = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: sans-serif; background-color: #f5f5f0; color: #333333; margin: 0; padding: 20px; }
.container { max-width: 600px; margin: 20px auto; background-color: #ffffff; padding: 30px; border-radius: 12px; }
h1 { color: #1f4e8c; font-size: 24px; }
.button { display: inline-block; padding: 12px 24px; font-weight: bold; text-decoration: none; background-color: #1f4e8c; color: #ffffff; border-radius: 8px; }
.footer { margin-top: 24px; font-size: 12px; color: #777777; }
</style>
</head>
<body>
<div class="container">
<h1>Explore Aparecida</h1>
{{template "body" .}}
<p class="footer">Dúvidas? Escreva para {{.SupportEmail}}.</p>
</div>
</body>
</html>`

type compiled struct {
	subject *texttemplate.Template
	html    *template.Template
}

func compile() (map[Template]compiled, error) {
	out := make(map[Template]compiled, len(catalog))
	for name, s := range catalog {
		subj, err := texttemplate.New(string(name) + "_subject").Parse(s.subject)
		if err != nil {
			return nil, err
		}
		page, err := template.New(string(name)).Parse(layout)
		if err != nil {
			return nil, err
		}
		if _, err := page.New("body").Parse(s.body); err != nil {
			return nil, err
		}
		out[name] = compiled{subject: subj, html: page}
	}
	return out, nil
}

var textPolicy = bluemonday.StrictPolicy()

// plainText derives the text part from rendered HTML.
func plainText(rendered string) string {
	stripped := html.UnescapeString(textPolicy.Sanitize(rendered))
	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	TemplatePaymentSuccess = "payment_success"
	TemplatePaymentFailed  = "payment_failed"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]emailTemplate{
	TemplatePaymentSuccess: {
		subject: "Payment Successful - Jobly",
		body: template.Must(template.New(TemplatePaymentSuccess).Parse(`<p>Hi {{.RecipientName}},</p>
<p>We received your payment of <strong>{{.Amount}} {{.Currency}}</strong> for transaction {{.TransactionID}}.</p>
<p>Your job "{{.JobTitle}}" is now promoted{{if .PromotedUntil}} until {{.PromotedUntil}}{{end}}.</p>
<p>Thank you for using Jobly.</p>`)),
	},
	TemplatePaymentFailed: {
		subject: "Payment Failed - Jobly",
		body: template.Must(template.New(TemplatePaymentFailed).Parse(`<p>Hi {{.RecipientName}},</p>
<p>Your payment of <strong>{{.Amount}} {{.Currency}}</strong> for transaction {{.TransactionID}} could not be completed.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>You can start a new payment from your dashboard at any time.</p>`)),
	},
}

func render(name string, data map[string]interface{}) (string, string, error) {
	t, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return t.subject, buf.String(), nil
}

package mailer

import (
	"encoding/json"
	"html/template"
	"math"
	"strconv"
	texttemplate "text/template"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
)

var invoiceFields = []string{"invoiceNumber", "totalCents", "dueDate", "contractorName", "invoiceUrl"}

// mailTemplate asunto y cuerpo de un tipo de notificación, más los campos de data obligatorios.
type mailTemplate struct {
	subject  *texttemplate.Template
	body     *template.Template
	required []string
}

// funcs eur formatea un importe en céntimos (totalCents) como "€ 1.210,00".
var funcs = template.FuncMap{
	"eur": func(v any) string {
		cents, ok := centsOf(v)
		if !ok {
			return ""
		}
		return money.FormatEUR(cents)
	},
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text))
}

// centsOf acepta los tipos con los que llega totalCents: int64 desde los casos de uso,
// float64 o json.Number desde un body JSON, o texto.
func centsOf(v any) (int64, bool) {
	switch c := v.(type) {
	case int64:
		return c, true
	case int:
		return int64(c), true
	case int32:
		return int64(c), true
	case float64:
		if c != math.Trunc(c) {
			return 0, false
		}
		return int64(c), true
	case json.Number:
		n, err := c.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(c, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// mustSubject el asunto no es HTML: text/template evita escapar "&" o comillas.
func mustSubject(name, text string) *texttemplate.Template {
	return texttemplate.Must(texttemplate.New(name).Option("missingkey=zero").Parse(text))
}

const layoutStart = `<!DOCTYPE html><html lang="nl"><body style="font-family:Arial,sans-serif;color:#222">`
const layoutEnd = `<p style="color:#888;font-size:12px">Deze e-mail is automatisch verstuurd.</p></body></html>`

var templates = map[entity.NotificationType]mailTemplate{
	entity.NotificationInvoiceSent: {
		subject: mustSubject("invoice_sent_subject", `Nieuwe factuur {{.Data.invoiceNumber}} van {{.Data.contractorName}}`),
		body: mustTemplate("invoice_sent", layoutStart+`
<p>Beste {{.Name}},</p>
<p>{{.Data.contractorName}} heeft u factuur <strong>{{.Data.invoiceNumber}}</strong> gestuurd
ter waarde van <strong>{{eur .Data.totalCents}}</strong>.</p>
<p>Vervaldatum: {{.Data.dueDate}}</p>
<p><a href="{{.Data.invoiceUrl}}">Bekijk de factuur</a></p>`+layoutEnd),
		required: invoiceFields,
	},
	entity.NotificationPaymentReminder: {
		subject: mustSubject("payment_reminder_subject", `Herinnering: factuur {{.Data.invoiceNumber}} vervalt binnenkort`),
		body: mustTemplate("payment_reminder", layoutStart+`
<p>Beste {{.Name}},</p>
<p>Factuur <strong>{{.Data.invoiceNumber}}</strong> van {{.Data.contractorName}}
({{eur .Data.totalCents}}) vervalt over {{.Data.daysUntilDue}} dag(en), op {{.Data.dueDate}}.</p>
<p><a href="{{.Data.invoiceUrl}}">Bekijk de factuur</a></p>`+layoutEnd),
		required: append(append([]string{}, invoiceFields...), "daysUntilDue"),
	},
	entity.NotificationInvoiceOverdue: {
		subject: mustSubject("invoice_overdue_subject", `Factuur {{.Data.invoiceNumber}} is vervallen`),
		body: mustTemplate("invoice_overdue", layoutStart+`
<p>Beste {{.Name}},</p>
<p>Factuur <strong>{{.Data.invoiceNumber}}</strong> van {{.Data.contractorName}}
({{eur .Data.totalCents}}) had uiterlijk {{.Data.dueDate}} betaald moeten zijn.</p>
<p>Wij verzoeken u het bedrag zo spoedig mogelijk over te maken.</p>
<p><a href="{{.Data.invoiceUrl}}">Bekijk de factuur</a></p>`+layoutEnd),
		required: invoiceFields,
	},
	entity.NotificationInvoicePaid: {
		subject: mustSubject("invoice_paid_subject", `Betaling ontvangen voor factuur {{.Data.invoiceNumber}}`),
		body: mustTemplate("invoice_paid", layoutStart+`
<p>Beste {{.Name}},</p>
<p>Bedankt! De betaling van factuur <strong>{{.Data.invoiceNumber}}</strong>
({{eur .Data.totalCents}}) is op {{.Data.paidAt}} ontvangen.</p>`+layoutEnd),
		required: append(append([]string{}, invoiceFields...), "paidAt"),
	},
	entity.NotificationTimeEntryApproved: {
		subject: mustSubject("time_entry_approved_subject", `Uren goedgekeurd voor {{.Data.projectName}}`),
		body: mustTemplate("time_entry_approved", layoutStart+`
<p>Beste {{.Name}},</p>
<p>Uw {{.Data.hours}} uur op {{.Data.date}} voor project {{.Data.projectName}} zijn goedgekeurd.</p>`+layoutEnd),
		required: []string{"projectName", "hours", "date"},
	},
	entity.NotificationTimeEntryRejected: {
		subject: mustSubject("time_entry_rejected_subject", `Uren afgekeurd voor {{.Data.projectName}}`),
		body: mustTemplate("time_entry_rejected", layoutStart+`
<p>Beste {{.Name}},</p>
<p>Uw {{.Data.hours}} uur op {{.Data.date}} voor project {{.Data.projectName}} zijn afgekeurd.</p>
{{if .Data.reason}}<p>Reden: {{.Data.reason}}</p>{{end}}`+layoutEnd),
		required: []string{"projectName", "hours", "date"},
	},
	entity.NotificationTeamInvitation: {
		subject: mustSubject("team_invitation_subject", `{{.Data.inviterName}} nodigt u uit voor {{.Data.teamName}}`),
		body: mustTemplate("team_invitation", layoutStart+`
<p>Beste {{.Name}},</p>
<p>{{.Data.inviterName}} heeft u uitgenodigd om lid te worden van {{.Data.teamName}}.</p>
<p><a href="{{.Data.inviteUrl}}">Uitnodiging accepteren</a></p>`+layoutEnd),
		required: []string{"inviterName", "teamName", "inviteUrl"},
	},
}

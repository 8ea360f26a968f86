package contract

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/spacefindr/core/internal/model"
)

var policyText = map[model.CancellationPolicy]string{
	model.CancellationFlexible: "Full refund of the rent when cancelled at least 24 hours before the start date.",
	model.CancellationModerate: "50% refund of the rent when cancelled at least 7 days before the start date.",
	model.CancellationStrict:   "No refund of the rent after confirmation.",
}

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Rental agreement {{.BookingID}}</title></head>
<body>
<h1>Short-term rental agreement</h1>
<p>Revision {{.Revision}}, generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</p>

<h2>Parties</h2>
<p>Landlord: {{.Landlord.Name}} &lt;{{.Landlord.Email}}&gt;</p>
<p>Tenant: {{.Tenant.Name}} &lt;{{.Tenant.Email}}&gt;</p>

<h2>Premises</h2>
<p>{{.SpaceTitle}}, {{.Address}}, {{.PostalCode}} {{.City}}{{if .SizeSqm}} ({{.SizeSqm}} m²){{end}}</p>

<h2>Term</h2>
<p>{{.Period}}: from {{.StartDate}} to {{.EndDate}} inclusive ({{.TotalDays}} days).</p>

<h2>Payment</h2>
<table>
<tr><td>Price per day</td><td>{{money .PricePerDay}}</td></tr>
<tr><td>Rent</td><td>{{money .RentAmount}}</td></tr>
<tr><td>Service fee</td><td>{{money .ServiceAmount}}</td></tr>
<tr><td>Total</td><td>{{money .TotalPrice}}</td></tr>
{{- if .DepositAmount}}
<tr><td>Security deposit (refundable)</td><td>{{money .DepositAmount}}</td></tr>
{{- end}}
</table>

<h2>Cancellation</h2>
<p>{{policy .CancellationPolicy}} The service fee is not refundable.</p>
</body>
</html>
`

// Renderer превращает условия в HTML-документ.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"money":  FormatMoney,
		"policy": func(p model.CancellationPolicy) string { return policyText[p] },
	}
	return &Renderer{tmpl: template.Must(template.New("contract").Funcs(funcs).Parse(documentTemplate))}
}

func (r *Renderer) Render(t Terms) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, t); err != nil {
		return nil, fmt.Errorf("render contract %s: %w", t.BookingID, err)
	}
	return buf.Bytes(), nil
}

// ContentType документа договора.
const ContentType = "text/html; charset=utf-8"

// IsDocument: грубая проверка, что в хранилище лежит наш документ.
func IsDocument(body []byte) bool {
	return strings.HasPrefix(string(body), "<!DOCTYPE html>")
}

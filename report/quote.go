package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/taller-erp/taller-erp/internal/quotes"
)

// QuoteDocument carries everything the quote PDF needs.
type QuoteDocument struct {
	AppName          string
	Quote            *quotes.Quote
	CustomerName     string
	CustomerLastName string
}

// Filename derives the deterministic document name, e.g.
// Cotizacion_COT-2025-00042_Quispe_2025-03-14.pdf.
func (d QuoteDocument) Filename() string {
	lastName := strings.ReplaceAll(strings.TrimSpace(d.CustomerLastName), " ", "_")
	return fmt.Sprintf("Cotizacion_%s_%s_%s.pdf",
		d.Quote.QuoteNumber, lastName, time.Now().Format("2006-01-02"))
}

var quoteTemplate = template.Must(template.New("quote").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 2.5rem; color: #1a1a1a; }
  h1 { font-size: 1.3rem; border-bottom: 2px solid #333; padding-bottom: .4rem; }
  table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
  th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #ddd; }
  th { background: #f4f4f4; }
  td.num, th.num { text-align: right; }
  .totals { margin-top: 1rem; width: 40%; margin-left: auto; }
  .meta { color: #555; font-size: .9rem; }
</style>
</head>
<body>
  <h1>{{.AppName}} — Cotización {{.Quote.QuoteNumber}}</h1>
  <p class="meta">
    Cliente: {{.CustomerName}}<br>
    Fecha: {{.Quote.CreatedAt.Format "02/01/2006"}}<br>
    Válida hasta: {{.Quote.ExpiryDate.Format "02/01/2006"}} ({{.Quote.ValidityDays}} días)
  </p>
  <table>
    <thead>
      <tr><th>Descripción</th><th>Tipo</th><th class="num">Cantidad</th><th class="num">P. Unit.</th><th class="num">Total</th></tr>
    </thead>
    <tbody>
    {{range .Quote.Details}}
      <tr>
        <td>{{.Description}}</td>
        <td>{{.Type}}</td>
        <td class="num">{{.Quantity.StringFixed 2}}</td>
        <td class="num">{{.UnitPrice.StringFixed 2}}</td>
        <td class="num">{{.TotalPrice.StringFixed 2}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>
  <table class="totals">
    <tr><td>Subtotal</td><td class="num">{{.Quote.Subtotal.StringFixed 2}}</td></tr>
    <tr><td>Descuento</td><td class="num">-{{.Quote.Discount.StringFixed 2}}</td></tr>
    <tr><td>Impuestos</td><td class="num">{{.Quote.Taxes.StringFixed 2}}</td></tr>
    <tr><th>Total</th><th class="num">{{.Quote.Total.StringFixed 2}}</th></tr>
  </table>
  {{if .Quote.Notes}}<p class="meta">{{.Quote.Notes}}</p>{{end}}
</body>
</html>`))

// RenderQuoteHTML builds the HTML document handed to Gotenberg.
func RenderQuoteHTML(doc QuoteDocument) (string, error) {
	var buf strings.Builder
	if err := quoteTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render quote template: %w", err)
	}
	return buf.String(), nil
}

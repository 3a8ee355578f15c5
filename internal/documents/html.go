package documents

import (
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} {{.Number}}</title>
<style>
  @page { size: {{if eq .Kind "receipt"}}80mm auto{{else}}A4{{end}}; margin: 10mm; }
  body { font-family: Arial, sans-serif; max-width: {{.WidthMM}}mm; margin: 0 auto; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 4px; border-bottom: 1px solid #ddd; }
  td.num, th.num { text-align: right; }
  .total { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Company}}</h1>
<h2>{{.Title}} <small>{{.Number}}</small></h2>
<dl>
{{range .Fields}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>
{{end}}</dl>
<table>
<tr><th>Description</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Amount</th></tr>
{{range .Lines}}<tr><td>{{.Description}}</td><td class="num">{{.Quantity}}</td><td class="num">{{$.Money .UnitPrice}}</td><td class="num">{{$.Money .Amount}}</td></tr>
{{end}}<tr class="total"><td colspan="3">Total</td><td class="num">{{.Money .Total}}</td></tr>
</table>
{{range .Footer}}<p>{{.}}</p>
{{end}}</body>
</html>
`))

// RenderHTML writes a printable page. Record values are escaped.
func RenderHTML(w io.Writer, d Document) error {
	return htmlTemplate.Execute(w, d)
}

// internal/pkg/receipt/service.go
package receipt

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service renders order receipts as PDF
type Service struct {
	config *config.Config
	tmpl   *template.Template
}

// NewService creates a new receipt service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		tmpl:   template.Must(template.New("receipt").Parse(receiptTemplate)),
	}
}

type receiptLine struct {
	Name      string
	SizeLabel string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type receiptData struct {
	StoreName    string
	PublicNumber string
	PaidAt       string
	FullName     string
	Address      string
	Lines        []receiptLine
	PromoCode    string
	Total        string
}

// Render produces a PDF receipt for a paid order
func (s *Service) Render(o *order.Order) (*bytes.Buffer, error) {
	data := receiptData{
		StoreName: s.config.App.StoreName,
		FullName:  o.FullName,
		Address:   o.Address,
		PromoCode: o.PromoCode,
		Total:     formatAmount(o.TotalAmount),
	}
	if o.PublicNumber != nil {
		data.PublicNumber = *o.PublicNumber
	}
	if o.PaidAt != nil {
		data.PaidAt = o.PaidAt.Format("January 2, 2006")
	}
	for _, item := range o.Items {
		data.Lines = append(data.Lines, receiptLine{
			Name:      item.Name,
			SizeLabel: item.SizeLabel,
			Quantity:  item.Quantity,
			UnitPrice: formatAmount(item.Price),
			LineTotal: formatAmount(item.Price * int64(item.Quantity)),
		})
	}

	var html bytes.Buffer
	if err := s.tmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render receipt template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html.Bytes()))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func formatAmount(amount int64) string {
	return fmt.Sprintf("%.2f", float64(amount)/100)
}

const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; font-size: 12px; color: #222; }
  h1 { font-size: 18px; }
  table { width: 100%; border-collapse: collapse; margin-top: 16px; }
  th, td { border-bottom: 1px solid #ddd; padding: 6px 4px; text-align: left; }
  .total { font-weight: bold; font-size: 14px; margin-top: 12px; }
</style>
</head>
<body>
  <h1>{{.StoreName}} &middot; Receipt {{.PublicNumber}}</h1>
  <p>Paid on {{.PaidAt}}</p>
  <p>{{.FullName}}<br>{{.Address}}</p>
  <table>
    <tr><th>Item</th><th>Size</th><th>Qty</th><th>Unit</th><th>Total</th></tr>
    {{range .Lines}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{.SizeLabel}}</td>
      <td>{{.Quantity}}</td>
      <td>{{.UnitPrice}}</td>
      <td>{{.LineTotal}}</td>
    </tr>
    {{end}}
  </table>
  {{if .PromoCode}}<p>Promo code applied: {{.PromoCode}}</p>{{end}}
  <p class="total">Total paid: {{.Total}}</p>
</body>
</html>
`

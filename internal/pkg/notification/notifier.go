// internal/pkg/notification/notifier.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

const orderPaidTemplate = `
<h1>Thank you for your order, {{.FullName}}!</h1>
<p>Your order <strong>{{.PublicNumber}}</strong> has been paid.</p>
<p>Total: <strong>{{.Total}}</strong></p>
<p>We will notify you when it ships.</p>
`

type orderPaidData struct {
	FullName     string
	PublicNumber string
	Total        string
}

// EmailNotifier sends order notifications through an HTTP email API
// provider. Satisfies order.Notifier.
type EmailNotifier struct {
	config *config.Config
	client *http.Client
	tmpl   *template.Template
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		tmpl:   template.Must(template.New("order_paid").Parse(orderPaidTemplate)),
	}
}

// emailRequest is the provider API payload (Resend-compatible shape)
type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// OrderPaid sends the order confirmation email
func (n *EmailNotifier) OrderPaid(ctx context.Context, o *order.Order) error {
	if n.config.Email.APIKey == "" {
		return fmt.Errorf("email API key not configured")
	}

	publicNumber := ""
	if o.PublicNumber != nil {
		publicNumber = *o.PublicNumber
	}

	var body bytes.Buffer
	err := n.tmpl.Execute(&body, orderPaidData{
		FullName:     o.FullName,
		PublicNumber: publicNumber,
		Total:        fmt.Sprintf("%.2f", float64(o.TotalAmount)/100),
	})
	if err != nil {
		return fmt.Errorf("failed to render notification template: %w", err)
	}

	payload, err := json.Marshal(emailRequest{
		From:    fmt.Sprintf("%s <%s>", n.config.Email.FromName, n.config.Email.FromEmail),
		To:      []string{o.Email},
		Subject: fmt.Sprintf("Order %s confirmed", publicNumber),
		HTML:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.Email.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.config.Email.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes order notifications to the application log. Used when no
// email provider is configured.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// OrderPaid logs the confirmation instead of sending mail
func (n *LogNotifier) OrderPaid(_ context.Context, o *order.Order) error {
	publicNumber := ""
	if o.PublicNumber != nil {
		publicNumber = *o.PublicNumber
	}
	n.log.WithFields(logrus.Fields{
		"order_id":      o.ID,
		"public_number": publicNumber,
		"email":         o.Email,
	}).Info("order confirmation (email not configured)")
	return nil
}

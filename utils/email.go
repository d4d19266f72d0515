// utils/email.go
package utils

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

// Mailer sends purchase receipts
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, toEmail string, receipt Receipt) error
}

// Receipt is what a purchase confirmation tells the customer
type Receipt struct {
	OrderID     int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// NoopMailer is used when no email provider is configured
type NoopMailer struct{}

func (NoopMailer) SendOrderConfirmation(context.Context, string, Receipt) error { return nil }

// EmailService handles sending emails using SendGrid
type EmailService struct {
	client *sendgrid.Client
	sender string
}

// NewEmailService returns a SendGrid mailer, or a NoopMailer when apiKey is empty
func NewEmailService(apiKey, sender string) Mailer {
	if apiKey == "" || sender == "" {
		return NoopMailer{}
	}
	return &EmailService{
		client: sendgrid.NewSendClient(apiKey),
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(ctx context.Context, toEmail, subject, textContent, htmlContent string) error {
	from := mail.NewEmail("CoffeeLink", es.sender)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)

	resp, err := es.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendOrderConfirmation sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmation(ctx context.Context, toEmail string, r Receipt) error {
	subject := fmt.Sprintf("Pedido Nro %d confirmado", r.OrderID)
	total := FormatCLP(r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))))
	text := fmt.Sprintf(
		"¡Gracias por tu compra!\n\nPedido Nro %d\n%d x %s\nTotal: %s\n\nEquipo CoffeeLink",
		r.OrderID, r.Quantity, r.ProductName, total,
	)
	html := fmt.Sprintf(
		"<strong>¡Gracias por tu compra!</strong><br><br>Pedido Nro %d<br>%d x %s<br>Total: <strong>%s</strong><br><br>Equipo CoffeeLink",
		r.OrderID, r.Quantity, html.EscapeString(r.ProductName), total,
	)
	return es.SendEmail(ctx, toEmail, subject, text, html)
}

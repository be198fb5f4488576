package mailer

import (
	"fmt"
	"strings"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/util"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional emails over SMTP. Every send is
// best-effort: callers log failures and move on.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer creates a new SMTP mailer
func NewMailer(host string, port int, user, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		logger: util.GetLogger(),
	}
}

// Send delivers one HTML email
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		util.EmailsFailedTotal.Inc()
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	util.EmailsSentTotal.Inc()
	m.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// SendWelcome sends the account registration welcome email
func (m *Mailer) SendWelcome(to, name string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		  <h2>Welcome to Victoria Kids Baby Shop!</h2>
		  <p>Hello %s,</p>
		  <p>Thank you for creating an account with us. We're excited to have you as a customer!</p>
		  <p>Browse our collection of high-quality baby products and enjoy your shopping experience.</p>
		  <p>Best regards,<br>The Victoria Kids Team</p>
		</div>`, name)
	return m.Send(to, "Welcome to Victoria Kids Baby Shop", body)
}

// SendNewsletterWelcome confirms a newsletter subscription
func (m *Mailer) SendNewsletterWelcome(to, name string) error {
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		  <h2>Thank You for Subscribing!</h2>
		  <p>Hello %s,</p>
		  <p>Thank you for subscribing to our newsletter. You'll now receive updates on our latest products, promotions, and more!</p>
		  <p>Best regards,<br>The Victoria Kids Team</p>
		</div>`, name)
	return m.Send(to, "Welcome to Victoria Kids Newsletter", body)
}

// SendOrderConfirmation sends the order summary email
func (m *Mailer) SendOrderConfirmation(to string, event *models.OrderCreatedEvent) error {
	var rows strings.Builder
	for _, item := range event.Items {
		fmt.Fprintf(&rows, `
		  <tr>
		    <td style="padding: 8px; border: 1px solid #ddd;">%s</td>
		    <td style="padding: 8px; border: 1px solid #ddd;">%d</td>
		    <td style="padding: 8px; text-align: right; border: 1px solid #ddd;">%.2f</td>
		  </tr>`, item.Name, item.Quantity, item.Price)
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		  <h2>Thank You for Your Order!</h2>
		  <p>Hello %s,</p>
		  <p>Your order #%s has been received and is being processed.</p>
		  <h3>Order Summary:</h3>
		  <table style="width: 100%%; border-collapse: collapse;">
		    <tr style="background-color: #f2f2f2;">
		      <th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Product</th>
		      <th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Quantity</th>
		      <th style="padding: 8px; text-align: right; border: 1px solid #ddd;">Price</th>
		    </tr>
		    %s
		    <tr><td colspan="2" style="padding: 8px; text-align: right;"><strong>Subtotal:</strong></td><td style="padding: 8px; text-align: right;">%.2f</td></tr>
		    <tr><td colspan="2" style="padding: 8px; text-align: right;"><strong>Shipping:</strong></td><td style="padding: 8px; text-align: right;">%.2f</td></tr>
		    <tr><td colspan="2" style="padding: 8px; text-align: right;"><strong>Tax:</strong></td><td style="padding: 8px; text-align: right;">%.2f</td></tr>
		    <tr><td colspan="2" style="padding: 8px; text-align: right;"><strong>Total:</strong></td><td style="padding: 8px; text-align: right;"><strong>%.2f</strong></td></tr>
		  </table>
		  <p>We'll notify you when your order ships.</p>
		  <p>Best regards,<br>The Victoria Kids Team</p>
		</div>`,
		event.Name, event.OrderNumber, rows.String(),
		event.Subtotal, event.Shipping, event.Tax, event.Total)
	return m.Send(to, fmt.Sprintf("Order Confirmation #%s", event.OrderNumber), body)
}

// SendPaymentReceipt confirms a completed payment
func (m *Mailer) SendPaymentReceipt(to, orderNumber string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		  <h2>Payment Received</h2>
		  <p>We have received your payment for order #%s.</p>
		  <p>Your order is now being prepared for shipping.</p>
		  <p>Best regards,<br>The Victoria Kids Team</p>
		</div>`, orderNumber)
	return m.Send(to, fmt.Sprintf("Payment Received for Order #%s", orderNumber), body)
}

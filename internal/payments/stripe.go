package payments

import (
	"context"
	"fmt"

	"victoria-kids-api/internal/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// LineItem is one priced line on a checkout session
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64 // cents
	Quantity    int64
}

// SessionParams describes the hosted checkout session to create
type SessionParams struct {
	LineItems         []LineItem
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
}

// Session is the created checkout session
type Session struct {
	ID  string
	URL string
}

// Gateway abstracts the payment processor so the workflow can be tested
// without network calls.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeGateway struct {
	webhookSecret string
	currency      string
}

// NewStripeGateway configures the Stripe client and returns a gateway
func NewStripeGateway(secretKey, webhookSecret, currency string) Gateway {
	stripe.Key = secretKey
	return &stripeGateway{webhookSecret: webhookSecret, currency: currency}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(g.currency),
			UnitAmount: stripe.Int64(li.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(li.Name),
			},
		}
		if li.Description != "" {
			priceData.ProductData.Description = stripe.String(li.Description)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if p.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(p.ClientReferenceID)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session: %w: %v", models.ErrUpstream, err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook checks the signature against the shared secret. Any
// verification failure fails closed.
func (g *stripeGateway) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", models.ErrInvalidSignature, err)
	}
	return event, nil
}

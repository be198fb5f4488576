package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/payments"
	"victoria-kids-api/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// PaymentService drives checkout session creation and webhook-based
// payment reconciliation.
type PaymentService struct {
	store       OrderStore
	gateway     payments.Gateway
	events      Publisher
	frontendURL string
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store OrderStore, gateway payments.Gateway, events Publisher, frontendURL string) *PaymentService {
	return &PaymentService{
		store:       store,
		gateway:     gateway,
		events:      events,
		frontendURL: frontendURL,
		logger:      util.GetLogger(),
	}
}

// PaymentSessionResponse is returned after creating a checkout session
type PaymentSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// toCents converts a currency amount to integer cents exactly.
func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreatePaymentSession builds one price line per order item at the
// snapshot price, plus separate lines for nonzero shipping and tax, and
// requests a hosted session from the gateway.
func (ps *PaymentService) CreatePaymentSession(ctx context.Context, orderID, userID int64) (*PaymentSessionResponse, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePaymentSession")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		// Ownership failures are indistinguishable from missing orders.
		return nil, fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}

	items, err := ps.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lineItems := make([]payments.LineItem, 0, len(items)+2)
	for _, item := range items {
		lineItems = append(lineItems, payments.LineItem{
			Name:       item.ProductName,
			UnitAmount: toCents(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	if order.ShippingCost > 0 {
		lineItems = append(lineItems, payments.LineItem{
			Name:       "Shipping",
			UnitAmount: toCents(order.ShippingCost),
			Quantity:   1,
		})
	}
	if order.Tax > 0 {
		lineItems = append(lineItems, payments.LineItem{
			Name:       "Tax",
			UnitAmount: toCents(order.Tax),
			Quantity:   1,
		})
	}

	var customerEmail string
	if user, err := ps.store.GetUserByID(ctx, userID); err == nil {
		customerEmail = user.Email
	}

	sess, err := ps.gateway.CreateCheckoutSession(ctx, payments.SessionParams{
		LineItems:         lineItems,
		SuccessURL:        ps.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         ps.frontendURL + "/checkout/cancel",
		CustomerEmail:     customerEmail,
		ClientReferenceID: order.OrderNumber(),
		Metadata: map[string]string{
			"order_id":     strconv.FormatInt(order.ID, 10),
			"order_number": order.OrderNumber(),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := ps.store.SetPaymentSession(ctx, orderID, sess.ID); err != nil {
		return nil, err
	}

	util.PaymentSessionsCreatedTotal.Inc()
	ps.logger.Info("Payment session created",
		zap.Int64("order_id", orderID), zap.String("session_id", sess.ID))

	return &PaymentSessionResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies and applies a gateway event. Signature
// failures are returned so the HTTP layer rejects the delivery and the
// gateway retries; every other failure is logged and swallowed so the
// delivery is acknowledged and not retried forever.
func (ps *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	event, err := ps.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		util.WebhookEventsTotal.WithLabelValues("unknown", "bad_signature").Inc()
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		if err := ps.applyCheckoutCompleted(ctx, event); err != nil {
			util.WebhookEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
			ps.logger.Error("Failed to apply checkout completed event",
				zap.String("event_id", event.ID), zap.Error(err))
			return nil
		}
		util.WebhookEventsTotal.WithLabelValues(string(event.Type), "applied").Inc()

	case "payment_intent.payment_failed":
		ps.handlePaymentFailed(ctx, event)
		util.WebhookEventsTotal.WithLabelValues(string(event.Type), "logged").Inc()

	default:
		util.WebhookEventsTotal.WithLabelValues(string(event.Type), "ignored").Inc()
		ps.logger.Debug("Unhandled webhook event type", zap.String("type", string(event.Type)))
	}

	return nil
}

// applyCheckoutCompleted marks the order paid, once. Re-delivery of an
// already-applied event is acknowledged without side effects.
func (ps *PaymentService) applyCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	processed, err := ps.store.IsEventProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if processed {
		ps.logger.Info("Webhook event already applied", zap.String("event_id", event.ID))
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to decode checkout session: %w", err)
	}

	orderIDStr, ok := sess.Metadata["order_id"]
	if !ok || orderIDStr == "" {
		ps.logger.Warn("Checkout completed event without order_id metadata",
			zap.String("event_id", event.ID))
		return nil
	}
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil {
		return fmt.Errorf("bad order_id metadata %q: %w", orderIDStr, err)
	}

	var paymentIntentID string
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}

	if err := ps.store.MarkOrderPaid(ctx, orderID, paymentIntentID); err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	// Record the event before publishing so a redelivery that lands
	// after a crash cannot duplicate the receipt email. Notifications
	// are best-effort; losing one beats sending it twice.
	if err := ps.store.MarkEventProcessed(ctx, event.ID, string(event.Type)); err != nil {
		ps.logger.Error("Failed to mark event processed",
			zap.String("event_id", event.ID), zap.Error(err))
	}

	util.PaymentsCompletedTotal.Inc()
	ps.logger.Info("Payment completed",
		zap.Int64("order_id", orderID),
		zap.String("payment_intent_id", paymentIntentID))

	if ps.events != nil {
		order, err := ps.store.GetOrderByID(ctx, orderID)
		if err == nil {
			var email string
			if user, uerr := ps.store.GetUserByID(ctx, order.UserID); uerr == nil {
				email = user.Email
			}
			completedEvent := &models.PaymentCompletedEvent{
				BaseEvent: models.BaseEvent{
					EventID:   uuid.New().String(),
					EventType: models.EventTypePaymentCompleted,
					Timestamp: time.Now(),
				},
				OrderID:         orderID,
				OrderNumber:     order.OrderNumber(),
				PaymentIntentID: paymentIntentID,
				Email:           email,
				Total:           order.Total,
			}
			if err := ps.events.PublishPaymentCompleted(ctx, completedEvent); err != nil {
				ps.logger.Error("Failed to publish payment completed event",
					zap.Int64("order_id", orderID), zap.Error(err))
			}
		}
	}

	return nil
}

// handlePaymentFailed surfaces the failure operationally. The order's
// payment_status is left untouched and stock is NOT restored; the
// decremented units require manual reconciliation.
func (ps *PaymentService) handlePaymentFailed(ctx context.Context, event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		ps.logger.Error("Failed to decode payment intent", zap.Error(err))
		return
	}

	reason := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}

	util.PaymentsFailedTotal.Inc()
	ps.logger.Warn("Payment failed",
		zap.String("payment_intent_id", intent.ID),
		zap.String("reason", reason))

	if ps.events != nil {
		var orderID int64
		if idStr, ok := intent.Metadata["order_id"]; ok {
			orderID, _ = strconv.ParseInt(idStr, 10, 64)
		}
		failedEvent := &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID: orderID,
			Reason:  reason,
		}
		if err := ps.events.PublishPaymentFailed(ctx, failedEvent); err != nil {
			ps.logger.Error("Failed to publish payment failed event", zap.Error(err))
		}
	}
}

// PaymentStatusResponse reports an order's payment state
type PaymentStatusResponse struct {
	OrderID       int64   `json:"order_id"`
	OrderNumber   string  `json:"order_number"`
	PaymentStatus string  `json:"payment_status"`
	Total         float64 `json:"total"`
}

// GetPaymentStatus looks up a caller's order by payment intent or
// session id
func (ps *PaymentService) GetPaymentStatus(ctx context.Context, paymentRef string, userID int64) (*PaymentStatusResponse, error) {
	order, err := ps.store.GetOrderByPaymentRef(ctx, paymentRef, userID)
	if err != nil {
		return nil, err
	}
	return &PaymentStatusResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber(),
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
	}, nil
}

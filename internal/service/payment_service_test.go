package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/payments"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, st *fakeStore) *models.Order {
	t.Helper()
	st.addProduct(1, "Baby Onesie", 19.99, 10)
	if _, ok := st.users[7]; !ok {
		st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	}
	svc := NewOrderService(st, &fakePublisher{})
	order, err := svc.CreateOrder(context.Background(), 7, validOrderRequest())
	require.NoError(t, err)
	return order
}

func checkoutCompletedEvent(t *testing.T, eventID string, orderID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"id":             "cs_test_1",
		"payment_intent": "pi_test_1",
		"metadata":       map[string]string{"order_id": orderID},
	})
	require.NoError(t, err)
	return stripe.Event{
		ID:   eventID,
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestCreatePaymentSession(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	gw := &fakeGateway{session: &payments.Session{ID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}}
	svc := NewPaymentService(st, gw, &fakePublisher{}, "https://shop.test")

	resp, err := svc.CreatePaymentSession(context.Background(), order.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", resp.SessionID)

	// One line per item at the snapshot price in cents, plus shipping
	// and tax lines.
	require.Len(t, gw.lastParams.LineItems, 3)
	assert.Equal(t, int64(1999), gw.lastParams.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), gw.lastParams.LineItems[0].Quantity)
	assert.Equal(t, "Shipping", gw.lastParams.LineItems[1].Name)
	assert.Equal(t, int64(999), gw.lastParams.LineItems[1].UnitAmount)
	assert.Equal(t, "Tax", gw.lastParams.LineItems[2].Name)
	assert.Equal(t, int64(320), gw.lastParams.LineItems[2].UnitAmount)

	assert.Equal(t, "test@example.com", gw.lastParams.CustomerEmail)
	assert.Contains(t, gw.lastParams.SuccessURL, "https://shop.test/checkout/success")
	assert.Equal(t, "1", gw.lastParams.Metadata["order_id"])

	// The session id is stored for status lookups.
	stored, err := st.GetOrderByPaymentRef(context.Background(), "cs_test_1", 7)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestCreatePaymentSessionNotOwner(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	gw := &fakeGateway{session: &payments.Session{ID: "cs_test_1"}}
	svc := NewPaymentService(st, gw, &fakePublisher{}, "https://shop.test")

	_, err := svc.CreatePaymentSession(context.Background(), order.ID, 99)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestHandleWebhookBadSignature(t *testing.T) {
	st := newFakeStore()
	gw := &fakeGateway{verifyErr: models.ErrInvalidSignature}
	svc := NewPaymentService(st, gw, &fakePublisher{}, "https://shop.test")

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "t=1,v1=bad")
	assert.True(t, errors.Is(err, models.ErrInvalidSignature))
}

func TestHandleWebhookCheckoutCompleted(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	pub := &fakePublisher{}
	gw := &fakeGateway{event: checkoutCompletedEvent(t, "evt_1", "1")}
	svc := NewPaymentService(st, gw, pub, "https://shop.test")

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)

	paid, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "pi_test_1", paid.PaymentIntentID.String)

	require.Len(t, pub.completed, 1)
	assert.Equal(t, order.ID, pub.completed[0].OrderID)
	assert.Equal(t, "test@example.com", pub.completed[0].Email)

	processed, err := st.IsEventProcessed(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, processed)
}

// Re-delivery of an applied event is acknowledged without a second
// application.
func TestHandleWebhookDuplicateDelivery(t *testing.T) {
	st := newFakeStore()
	newTestOrder(t, st)
	pub := &fakePublisher{}
	gw := &fakeGateway{event: checkoutCompletedEvent(t, "evt_1", "1")}
	svc := NewPaymentService(st, gw, pub, "https://shop.test")

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	assert.Len(t, pub.completed, 1)
}

// The event is recorded as processed before the notification goes out,
// so a failed publish followed by a gateway redelivery does not send
// the receipt twice.
func TestHandleWebhookPublishFailureNotRetried(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	pub := &fakePublisher{err: errors.New("broker down")}
	gw := &fakeGateway{event: checkoutCompletedEvent(t, "evt_1", "1")}
	svc := NewPaymentService(st, gw, pub, "https://shop.test")

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	paid, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

	processed, err := st.IsEventProcessed(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, processed)

	pub.err = nil
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, pub.completed)
}

func TestHandleWebhookUnknownType(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	gw := &fakeGateway{event: stripe.Event{
		ID:   "evt_2",
		Type: "customer.created",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}}
	svc := NewPaymentService(st, gw, &fakePublisher{}, "https://shop.test")

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	unchanged, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, unchanged.PaymentStatus)
}

// Payment failure never mutates the order row.
func TestHandleWebhookPaymentFailed(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	pub := &fakePublisher{}
	raw, err := json.Marshal(map[string]interface{}{
		"id":       "pi_test_1",
		"metadata": map[string]string{"order_id": "1"},
		"last_payment_error": map[string]interface{}{
			"message": "card declined",
		},
	})
	require.NoError(t, err)
	gw := &fakeGateway{event: stripe.Event{
		ID:   "evt_3",
		Type: "payment_intent.payment_failed",
		Data: &stripe.EventData{Raw: raw},
	}}
	svc := NewPaymentService(st, gw, pub, "https://shop.test")

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	unchanged, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, unchanged.PaymentStatus)

	require.Len(t, pub.failed, 1)
	assert.Equal(t, "card declined", pub.failed[0].Reason)
}

func TestGetPaymentStatus(t *testing.T) {
	st := newFakeStore()
	order := newTestOrder(t, st)
	gw := &fakeGateway{session: &payments.Session{ID: "cs_test_1", URL: "https://checkout.test"}}
	svc := NewPaymentService(st, gw, &fakePublisher{}, "https://shop.test")

	_, err := svc.CreatePaymentSession(context.Background(), order.ID, 7)
	require.NoError(t, err)

	status, err := svc.GetPaymentStatus(context.Background(), "cs_test_1", 7)
	require.NoError(t, err)
	assert.Equal(t, order.ID, status.OrderID)
	assert.Equal(t, models.PaymentStatusPending, status.PaymentStatus)

	// Another user's reference stays invisible.
	_, err = svc.GetPaymentStatus(context.Background(), "cs_test_1", 99)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

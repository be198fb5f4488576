package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"victoria-kids-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrderRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		ShippingAddress: ShippingAddressRequest{
			FullName: "Test User", AddressLine1: "1 Main St", City: "Springfield",
			State: "IL", ZipCode: "62701", Country: "US", Phone: "555-123-4567",
		},
		PaymentMethod: models.PaymentMethodCard,
		Tax:           3.20,
		ShippingCost:  9.99,
	}
}

func TestCreateOrder(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Onesie", 19.99, 10)
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	pub := &fakePublisher{}
	svc := NewOrderService(st, pub)

	order, err := svc.CreateOrder(context.Background(), 7, validOrderRequest())
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
	assert.Equal(t, 39.98, order.Subtotal)
	assert.Equal(t, 53.17, order.Total)
	assert.Equal(t, 8, st.stockOf(1))

	require.Len(t, pub.created, 1)
	assert.Equal(t, order.ID, pub.created[0].OrderID)
	assert.Equal(t, "test@example.com", pub.created[0].Email)
}

func TestCreateOrderPendingForEveryMethod(t *testing.T) {
	for _, method := range []string{
		models.PaymentMethodCard, models.PaymentMethodPaypal, models.PaymentMethodCOD,
	} {
		st := newFakeStore()
		st.addProduct(1, "Baby Onesie", 19.99, 10)
		st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
		svc := NewOrderService(st, &fakePublisher{})

		req := validOrderRequest()
		req.PaymentMethod = method

		order, err := svc.CreateOrder(context.Background(), 7, req)
		require.NoError(t, err, method)
		assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus, method)
	}
}

func TestCreateOrderNoItems(t *testing.T) {
	st := newFakeStore()
	svc := NewOrderService(st, &fakePublisher{})

	req := validOrderRequest()
	req.Items = nil

	_, err := svc.CreateOrder(context.Background(), 7, req)
	assert.True(t, errors.Is(err, models.ErrValidation))
	// Rejected before touching the store.
	assert.Zero(t, st.createCalls)
}

func TestCreateOrderBadPaymentMethod(t *testing.T) {
	st := newFakeStore()
	svc := NewOrderService(st, &fakePublisher{})

	req := validOrderRequest()
	req.PaymentMethod = "bitcoin"

	_, err := svc.CreateOrder(context.Background(), 7, req)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Zero(t, st.createCalls)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	st := newFakeStore()
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	svc := NewOrderService(st, &fakePublisher{})

	req := validOrderRequest()
	req.Items = []OrderItemRequest{{ProductID: 999, Quantity: 1}}

	_, err := svc.CreateOrder(context.Background(), 7, req)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Crib", 299.99, 1)
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	pub := &fakePublisher{}
	svc := NewOrderService(st, pub)

	req := validOrderRequest()
	req.Items = []OrderItemRequest{{ProductID: 1, Quantity: 2}}

	_, err := svc.CreateOrder(context.Background(), 7, req)
	assert.True(t, errors.Is(err, models.ErrInsufficientStock))
	assert.Equal(t, 1, st.stockOf(1))
	assert.Empty(t, pub.created)
}

// Two buyers race for the last unit; exactly one order succeeds and
// stock never goes negative.
func TestCreateOrderConcurrentLastUnit(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Mobile", 39.99, 1)
	st.addUser(1, "Buyer One", "one@example.com", models.RoleCustomer)
	st.addUser(2, "Buyer Two", "two@example.com", models.RoleCustomer)
	svc := NewOrderService(st, &fakePublisher{})

	req := validOrderRequest()
	req.Items = []OrderItemRequest{{ProductID: 1, Quantity: 1}}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = svc.CreateOrder(context.Background(), int64(n+1), req)
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range results {
		if err != nil {
			assert.True(t, errors.Is(err, models.ErrInsufficientStock))
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 0, st.stockOf(1))
}

// The item price is a point-in-time snapshot, not a reference to the
// live product price.
func TestOrderItemPriceSnapshot(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Onesie", 19.99, 10)
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	svc := NewOrderService(st, &fakePublisher{})

	order, err := svc.CreateOrder(context.Background(), 7, validOrderRequest())
	require.NoError(t, err)

	st.products[1].Price = 49.99

	items, err := st.GetOrderItems(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.99, items[0].Price)
}

func TestCreateOrderPublishFailureDoesNotAbort(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Onesie", 19.99, 10)
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewOrderService(st, pub)

	order, err := svc.CreateOrder(context.Background(), 7, validOrderRequest())
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestGetOrderOwnership(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Onesie", 19.99, 10)
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	svc := NewOrderService(st, &fakePublisher{})

	order, err := svc.CreateOrder(context.Background(), 7, validOrderRequest())
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), order.ID, 7, false)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), order.ID, 99, false)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = svc.GetOrder(context.Background(), order.ID, 99, true)
	assert.NoError(t, err)
}

func TestUpdateOrderStatus(t *testing.T) {
	st := newFakeStore()
	st.addProduct(1, "Baby Onesie", 19.99, 10)
	st.addUser(7, "Test User", "test@example.com", models.RoleCustomer)
	svc := NewOrderService(st, &fakePublisher{})

	order, err := svc.CreateOrder(context.Background(), 7, validOrderRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.OrderStatus)

	_, err = svc.UpdateOrderStatus(context.Background(), order.ID, "teleported")
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = svc.UpdateOrderStatus(context.Background(), 999, models.OrderStatusShipped)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/payments"
	"victoria-kids-api/internal/store"

	"github.com/stripe/stripe-go/v76"
)

// fakeStore is an in-memory OrderStore. Stock accounting mirrors the
// conditional decrement in the real store: the whole order either
// commits or leaves stock untouched.
type fakeStore struct {
	mu sync.Mutex

	products  map[int64]*models.Product
	users     map[int64]*models.User
	orders    map[int64]*models.Order
	items     map[int64][]models.OrderItem
	carts     map[int64][]models.CartItem
	processed map[string]bool

	nextOrderID int64
	createCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[int64]*models.Product),
		users:     make(map[int64]*models.User),
		orders:    make(map[int64]*models.Order),
		items:     make(map[int64][]models.OrderItem),
		carts:     make(map[int64][]models.CartItem),
		processed: make(map[string]bool),
	}
}

func (f *fakeStore) addProduct(id int64, name string, price float64, stock int) {
	f.products[id] = &models.Product{ID: id, Name: name, Price: price, Stock: stock}
}

func (f *fakeStore) addUser(id int64, name, email, role string) {
	f.users[id] = &models.User{ID: id, Name: name, Email: email, Role: role}
}

func (f *fakeStore) CreateOrder(ctx context.Context, params store.CreateOrderParams) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++

	orderItems := make([]models.OrderItem, 0, len(params.Items))
	for _, it := range params.Items {
		p, ok := f.products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, models.ErrNotFound)
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			Price:       p.Price,
			ProductName: p.Name,
		})
	}

	decremented := make(map[int64]int)
	for _, it := range params.Items {
		p := f.products[it.ProductID]
		if p.Stock < it.Quantity {
			for id, qty := range decremented {
				f.products[id].Stock += qty
			}
			return nil, fmt.Errorf("product %d: %w", it.ProductID, models.ErrInsufficientStock)
		}
		p.Stock -= it.Quantity
		decremented[it.ProductID] += it.Quantity
	}

	subtotal, total := store.CalcTotals(orderItems, params.Tax, params.ShippingCost)

	f.nextOrderID++
	order := &models.Order{
		ID:            f.nextOrderID,
		UserID:        params.UserID,
		PaymentMethod: params.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusProcessing,
		Subtotal:      subtotal,
		Tax:           params.Tax,
		ShippingCost:  params.ShippingCost,
		Total:         total,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	order.Items = orderItems
	order.ShippingAddress = &params.Address

	f.orders[order.ID] = order
	f.items[order.ID] = orderItems
	delete(f.carts, params.UserID)
	return order, nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	cp := *order
	return &cp, nil
}

func (f *fakeStore) GetOrderDetails(ctx context.Context, id int64) (*models.Order, error) {
	return f.GetOrderByID(ctx, id)
}

func (f *fakeStore) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeStore) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrders(ctx context.Context, page, limit int, status string) ([]store.AdminOrder, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.AdminOrder
	for _, o := range f.orders {
		if status != "" && o.OrderStatus != status {
			continue
		}
		out = append(out, store.AdminOrder{Order: *o, ItemCount: len(f.items[o.ID])})
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	order.OrderStatus = status
	return nil
}

func (f *fakeStore) SetPaymentSession(ctx context.Context, orderID int64, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	order.PaymentSessionID = sql.NullString{String: sessionID, Valid: true}
	return nil
}

func (f *fakeStore) MarkOrderPaid(ctx context.Context, orderID int64, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentIntentID = sql.NullString{String: paymentIntentID, Valid: true}
	return nil
}

func (f *fakeStore) GetOrderByPaymentRef(ctx context.Context, ref string, userID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.UserID != userID {
			continue
		}
		if (o.PaymentSessionID.Valid && o.PaymentSessionID.String == ref) ||
			(o.PaymentIntentID.Valid && o.PaymentIntentID.String == ref) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("payment %s: %w", ref, models.ErrNotFound)
}

func (f *fakeStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed[eventID], nil
}

func (f *fakeStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[eventID] = true
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (f *fakeStore) stockOf(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

// fakePublisher records published events.
type fakePublisher struct {
	mu        sync.Mutex
	created   []*models.OrderCreatedEvent
	completed []*models.PaymentCompletedEvent
	failed    []*models.PaymentFailedEvent
	err       error
}

func (f *fakePublisher) PublishOrderCreated(ctx context.Context, e *models.OrderCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, e)
	return nil
}

func (f *fakePublisher) PublishPaymentCompleted(ctx context.Context, e *models.PaymentCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, e)
	return nil
}

func (f *fakePublisher) PublishPaymentFailed(ctx context.Context, e *models.PaymentFailedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.failed = append(f.failed, e)
	return nil
}

// fakeGateway is a canned payments.Gateway.
type fakeGateway struct {
	session    *payments.Session
	sessionErr error
	lastParams payments.SessionParams

	event     stripe.Event
	verifyErr error
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, p payments.SessionParams) (*payments.Session, error) {
	f.lastParams = p
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeGateway) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	if f.verifyErr != nil {
		return stripe.Event{}, f.verifyErr
	}
	return f.event, nil
}

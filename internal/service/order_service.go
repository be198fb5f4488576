package service

import (
	"context"
	"fmt"
	"time"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/store"
	"victoria-kids-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the slice of the data store the order/payment workflow
// needs. *store.Store satisfies it; tests substitute mocks.
type OrderStore interface {
	CreateOrder(ctx context.Context, params store.CreateOrderParams) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderDetails(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, page, limit int, status string) ([]store.AdminOrder, int, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	SetPaymentSession(ctx context.Context, orderID int64, sessionID string) error
	MarkOrderPaid(ctx context.Context, orderID int64, paymentIntentID string) error
	GetOrderByPaymentRef(ctx context.Context, ref string, userID int64) (*models.Order, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Publisher is the slice of the event publisher the workflows use.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishPaymentCompleted(ctx context.Context, event *models.PaymentCompletedEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

// OrderService orchestrates order creation and fulfillment status.
type OrderService struct {
	store  OrderStore
	events Publisher
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, events Publisher) *OrderService {
	return &OrderService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// ShippingAddressRequest is the address submitted with a new order
type ShippingAddressRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	ZipCode      string `json:"zip_code" binding:"required"`
	Country      string `json:"country" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
}

// OrderItemRequest is one requested line in a new order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest is the payload for creating an order
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" binding:"required"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"required"`
	Tax             float64                `json:"tax" binding:"min=0"`
	ShippingCost    float64                `json:"shipping_cost" binding:"min=0"`
}

// CreateOrder runs the order-creation workflow: validation, then one
// atomic store transaction (address, order, items, stock decrements,
// cart clear), then a best-effort confirmation event. payment_status
// starts as pending for every method; online payments flip to paid only
// when the gateway webhook confirms.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderCreateLatency.Observe(time.Since(start).Seconds())
	}()

	if len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("no_items").Inc()
		return nil, fmt.Errorf("no order items: %w", models.ErrValidation)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			util.OrdersFailedTotal.WithLabelValues("bad_quantity").Inc()
			return nil, fmt.Errorf("quantity for product %d: %w", item.ProductID, models.ErrValidation)
		}
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		util.OrdersFailedTotal.WithLabelValues("bad_payment_method").Inc()
		return nil, fmt.Errorf("payment method %q: %w", req.PaymentMethod, models.ErrValidation)
	}
	if req.Tax < 0 || req.ShippingCost < 0 {
		util.OrdersFailedTotal.WithLabelValues("negative_amount").Inc()
		return nil, fmt.Errorf("tax and shipping must be non-negative: %w", models.ErrValidation)
	}

	items := make([]store.NewOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = store.NewOrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := s.store.CreateOrder(ctx, store.CreateOrderParams{
		UserID: userID,
		Address: models.ShippingAddress{
			FullName:     req.ShippingAddress.FullName,
			AddressLine1: req.ShippingAddress.AddressLine1,
			AddressLine2: req.ShippingAddress.AddressLine2,
			City:         req.ShippingAddress.City,
			State:        req.ShippingAddress.State,
			ZipCode:      req.ShippingAddress.ZipCode,
			Country:      req.ShippingAddress.Country,
			Phone:        req.ShippingAddress.Phone,
		},
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		Tax:           req.Tax,
		ShippingCost:  req.ShippingCost,
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Float64("total", order.Total))

	s.publishOrderCreated(ctx, order)

	return order, nil
}

// publishOrderCreated emits the confirmation event; failures are logged
// and never abort the order.
func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}

	user, err := s.store.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Failed to load user for order event",
			zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	itemData := make([]models.OrderItemData, len(order.Items))
	for i, item := range order.Items {
		itemData[i] = models.OrderItemData{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber(),
		UserID:      order.UserID,
		Email:       user.Email,
		Name:        user.Name,
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Shipping:    order.ShippingCost,
		Total:       order.Total,
		Items:       itemData,
	}

	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish order created event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// GetOrder retrieves an order with details; only the owner or an admin
// may view it.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID int64, isAdmin bool) (*models.Order, error) {
	order, err := s.store.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("order %d: %w", orderID, models.ErrForbidden)
	}
	return order, nil
}

// ListUserOrders retrieves the caller's orders, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.ListUserOrders(ctx, userID)
}

// OrderPage is a page of admin order listings
type OrderPage struct {
	Orders []store.AdminOrder `json:"orders"`
	Page   int                `json:"page"`
	Pages  int                `json:"pages"`
	Total  int                `json:"total"`
}

// ListOrders retrieves a page of all orders for the admin view
func (s *OrderService) ListOrders(ctx context.Context, page, limit int, status string) (*OrderPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("status %q: %w", status, models.ErrValidation)
	}

	orders, total, err := s.store.ListOrders(ctx, page, limit, status)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders: orders,
		Page:   page,
		Pages:  (total + limit - 1) / limit,
		Total:  total,
	}, nil
}

// UpdateOrderStatus overwrites the fulfillment status and returns the
// updated order. Transitions are not restricted: the state machine is
// advisory only.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("status %q: %w", status, models.ErrValidation)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID), zap.String("status", status))

	return s.store.GetOrderDetails(ctx, orderID)
}

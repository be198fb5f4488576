package models

import "time"

// Event types carried on the shop events topic. The notification worker
// turns them into outbound emails; failures there never feed back into
// the publishing workflow.
const (
	EventTypeUserRegistered       = "USER_REGISTERED"
	EventTypeNewsletterSubscribed = "NEWSLETTER_SUBSCRIBED"
	EventTypeOrderCreated         = "ORDER_CREATED"
	EventTypePaymentCompleted     = "PAYMENT_COMPLETED"
	EventTypePaymentFailed        = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRegisteredEvent published after a successful registration
type UserRegisteredEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// NewsletterSubscribedEvent published after a newsletter signup
type NewsletterSubscribedEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// OrderCreatedEvent published when the order transaction commits
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Subtotal    float64         `json:"subtotal"`
	Tax         float64         `json:"tax"`
	Shipping    float64         `json:"shipping_cost"`
	Total       float64         `json:"total"`
	Items       []OrderItemData `json:"items"`
}

// PaymentCompletedEvent published on first application of a
// checkout-completed webhook
type PaymentCompletedEvent struct {
	BaseEvent
	OrderID         int64   `json:"order_id"`
	OrderNumber     string  `json:"order_number"`
	PaymentIntentID string  `json:"payment_intent_id"`
	Email           string  `json:"email"`
	Total           float64 `json:"total"`
}

// PaymentFailedEvent published when the gateway reports a failed payment
type PaymentFailedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

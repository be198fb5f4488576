package models

import (
	"database/sql"
	"fmt"
	"time"
)

// User represents a shop customer or admin
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Category groups products
type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description,omitempty"`
	Image        string    `db:"image" json:"image,omitempty"`
	ProductCount int       `db:"product_count" json:"product_count,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents an item in the catalog. Stock is the only hot
// mutable column; it is decremented exclusively through the conditional
// update in the order store.
type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description,omitempty"`
	Price         float64         `db:"price" json:"price"`
	OriginalPrice sql.NullFloat64 `db:"original_price" json:"original_price,omitempty"`
	Image         string          `db:"image" json:"image,omitempty"`
	CategoryID    sql.NullInt64   `db:"category_id" json:"category_id,omitempty"`
	CategoryName  sql.NullString  `db:"category_name" json:"category_name,omitempty"`
	Stock         int             `db:"stock" json:"stock"`
	Rating        float64         `db:"rating" json:"rating"`
	Reviews       int             `db:"reviews" json:"reviews"`
	Featured      bool            `db:"featured" json:"featured"`
	IsNew         bool            `db:"is_new" json:"is_new"`
	IsBudget      bool            `db:"is_budget" json:"is_budget"`
	IsLuxury      bool            `db:"is_luxury" json:"is_luxury"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ShippingAddress is created fresh for every order, never reused.
type ShippingAddress struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	AddressLine1 string    `db:"address_line1" json:"address_line1"`
	AddressLine2 string    `db:"address_line2" json:"address_line2,omitempty"`
	City         string    `db:"city" json:"city"`
	State        string    `db:"state" json:"state"`
	ZipCode      string    `db:"zip_code" json:"zip_code"`
	Country      string    `db:"country" json:"country"`
	Phone        string    `db:"phone" json:"phone"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// Order is a persisted purchase record. Monetary fields satisfy
// Total == Subtotal + Tax + ShippingCost.
type Order struct {
	ID                int64            `db:"id" json:"id"`
	UserID            int64            `db:"user_id" json:"user_id"`
	ShippingAddressID int64            `db:"shipping_address_id" json:"-"`
	PaymentMethod     string           `db:"payment_method" json:"payment_method"`
	PaymentStatus     string           `db:"payment_status" json:"payment_status"`
	OrderStatus       string           `db:"order_status" json:"order_status"`
	Subtotal          float64          `db:"subtotal" json:"subtotal"`
	Tax               float64          `db:"tax" json:"tax"`
	ShippingCost      float64          `db:"shipping_cost" json:"shipping_cost"`
	Total             float64          `db:"total" json:"total"`
	PaymentIntentID   sql.NullString   `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	PaymentSessionID  sql.NullString   `db:"payment_session_id" json:"payment_session_id,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
	ShippingAddress   *ShippingAddress `db:"-" json:"shipping_address,omitempty"`
	Items             []OrderItem      `db:"-" json:"items,omitempty"`
}

// OrderNumber derives the human-facing reference from the row id.
func (o *Order) OrderNumber() string {
	return fmt.Sprintf("ORD-%d-%03d", o.CreatedAt.Year(), o.ID)
}

// OrderItem is an immutable snapshot of price and quantity at purchase
// time. Price never tracks the live product price.
type OrderItem struct {
	ID           int64   `db:"id" json:"-"`
	OrderID      int64   `db:"order_id" json:"-"`
	ProductID    int64   `db:"product_id" json:"product_id"`
	Quantity     int     `db:"quantity" json:"quantity"`
	Price        float64 `db:"price" json:"price"`
	ProductName  string  `db:"product_name" json:"name,omitempty"`
	ProductImage string  `db:"product_image" json:"image,omitempty"`
}

// Payment methods
const (
	PaymentMethodCard   = "credit_card"
	PaymentMethodPaypal = "paypal"
	PaymentMethodCOD    = "cash_on_delivery"
)

// Payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order statuses
const (
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is an accepted fulfillment status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPaypal, PaymentMethodCOD:
		return true
	}
	return false
}

// CartItem is keyed by (user, product); the whole set is cleared when
// an order is placed.
type CartItem struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"-"`
	ProductID    int64     `db:"product_id" json:"product_id"`
	Quantity     int       `db:"quantity" json:"quantity"`
	ProductName  string    `db:"product_name" json:"name,omitempty"`
	ProductImage string    `db:"product_image" json:"image,omitempty"`
	Price        float64   `db:"price" json:"price,omitempty"`
	Stock        int       `db:"stock" json:"stock,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Favorite links a user to a bookmarked product
type Favorite struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	ProductID int64     `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Product   *Product  `db:"-" json:"product,omitempty"`
}

// NewsletterSubscriber statuses
const (
	SubscriberStatusActive       = "active"
	SubscriberStatusUnsubscribed = "unsubscribed"
)

// NewsletterSubscriber is a newsletter signup
type NewsletterSubscriber struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name,omitempty"`
	Status    string    `db:"status" json:"status"`
	Source    string    `db:"source" json:"source,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent records externally delivered events that have already
// been applied, so webhook re-delivery is a no-op.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

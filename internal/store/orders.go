package store

import (
	"context"
	"database/sql"
	"fmt"

	"victoria-kids-api/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// NewOrderItem is a requested line in a new order, before the price
// snapshot is taken.
type NewOrderItem struct {
	ProductID int64
	Quantity  int
}

// CreateOrderParams carries everything the order transaction needs.
type CreateOrderParams struct {
	UserID        int64
	Address       models.ShippingAddress
	Items         []NewOrderItem
	PaymentMethod string
	Tax           float64
	ShippingCost  float64
}

// CalcTotals computes subtotal and total from snapshot prices using
// exact decimal arithmetic, rounded to cents.
func CalcTotals(items []models.OrderItem, tax, shipping float64) (subtotal, total float64) {
	sub := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sub = sub.Add(line)
	}
	sub = sub.Round(2)
	tot := sub.Add(decimal.NewFromFloat(tax)).Add(decimal.NewFromFloat(shipping)).Round(2)
	return sub.InexactFloat64(), tot.InexactFloat64()
}

// CreateOrder runs the whole order write as one transaction: shipping
// address, order row, item rows with snapshot prices, conditional stock
// decrements and cart clear. Any failure rolls the entire thing back.
func (s *Store) CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products, err := productsSnapshot(ctx, tx, params.Items)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(params.Items))
	for _, req := range params.Items {
		p := products[req.ProductID]
		items = append(items, models.OrderItem{
			ProductID:    req.ProductID,
			Quantity:     req.Quantity,
			Price:        p.Price,
			ProductName:  p.Name,
			ProductImage: p.Image,
		})
	}

	subtotal, total := CalcTotals(items, params.Tax, params.ShippingCost)

	addr := params.Address
	addr.UserID = params.UserID
	err = tx.GetContext(ctx, &addr.ID, `
		INSERT INTO shipping_addresses
		  (user_id, full_name, address_line1, address_line2, city, state, zip_code, country, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		addr.UserID, addr.FullName, addr.AddressLine1, addr.AddressLine2,
		addr.City, addr.State, addr.ZipCode, addr.Country, addr.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to insert shipping address: %w", err)
	}

	order := &models.Order{
		UserID:            params.UserID,
		ShippingAddressID: addr.ID,
		PaymentMethod:     params.PaymentMethod,
		PaymentStatus:     models.PaymentStatusPending,
		OrderStatus:       models.OrderStatusProcessing,
		Subtotal:          subtotal,
		Tax:               params.Tax,
		ShippingCost:      params.ShippingCost,
		Total:             total,
	}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO orders
		  (user_id, shipping_address_id, payment_method, payment_status, order_status,
		   subtotal, tax, shipping_cost, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		order.UserID, order.ShippingAddressID, order.PaymentMethod, order.PaymentStatus,
		order.OrderStatus, order.Subtotal, order.Tax, order.ShippingCost, order.Total,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].Price)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}

		// Conditional decrement is the correctness-critical primitive:
		// the WHERE clause serializes concurrent buyers of the last
		// units, so a separate read-then-write is never used.
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
			items[i].Quantity, items[i].ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			return nil, fmt.Errorf("product %d: %w", items[i].ProductID, models.ErrInsufficientStock)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", params.UserID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	order.ShippingAddress = &addr
	order.Items = items
	return order, nil
}

// productsSnapshot loads the referenced products for the price snapshot
// and verifies they all exist. No row lock is taken here; stock safety
// comes from the conditional decrement in CreateOrder.
func productsSnapshot(ctx context.Context, tx *sqlx.Tx, items []NewOrderItem) (map[int64]*models.Product, error) {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	query, args, err := sqlx.In("SELECT id, name, image, price FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]*models.Product)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Image, &p.Price); err != nil {
			return nil, err
		}
		products[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, it := range items {
		if _, ok := products[it.ProductID]; !ok {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, models.ErrNotFound)
		}
	}
	return products, nil
}

// GetOrderByID retrieves a bare order row
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderDetails retrieves an order with its shipping address and items
func (s *Store) GetOrderDetails(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var addr models.ShippingAddress
	err = s.db.GetContext(ctx, &addr,
		"SELECT * FROM shipping_addresses WHERE id = $1", order.ShippingAddressID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		order.ShippingAddress = &addr
	}

	items, err := s.GetOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// GetOrderItems retrieves an order's items joined with product name/image
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       p.name AS product_name, p.image AS product_image
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	return items, err
}

// ListUserOrders retrieves a user's orders, newest first, with details
func (s *Store) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		var addr models.ShippingAddress
		err := s.db.GetContext(ctx, &addr,
			"SELECT * FROM shipping_addresses WHERE id = $1", orders[i].ShippingAddressID)
		if err == nil {
			orders[i].ShippingAddress = &addr
		}
		items, err := s.GetOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// AdminOrder is an order row with customer info for admin listings
type AdminOrder struct {
	models.Order
	CustomerName  string `db:"customer_name" json:"customer_name"`
	CustomerEmail string `db:"customer_email" json:"customer_email"`
	ItemCount     int    `db:"item_count" json:"item_count"`
}

// ListOrders retrieves a page of all orders, optionally filtered by
// fulfillment status
func (s *Store) ListOrders(ctx context.Context, page, limit int, status string) ([]AdminOrder, int, error) {
	offset := (page - 1) * limit

	query := `
		SELECT o.*, u.name AS customer_name, u.email AS customer_email,
		       (SELECT COUNT(*) FROM order_items WHERE order_id = o.id) AS item_count
		FROM orders o
		JOIN users u ON o.user_id = u.id`
	countQuery := "SELECT COUNT(*) FROM orders o"
	args := []interface{}{}

	if status != "" {
		query += " WHERE o.order_status = $1"
		countQuery += " WHERE o.order_status = $1"
		args = append(args, status)
	}

	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT %d OFFSET %d", limit, offset)

	var orders []AdminOrder
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderStatus overwrites the fulfillment status. There is no
// state-machine enforcement; cancelled and delivered are not terminal.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET order_status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	return nil
}

// SetPaymentSession stores the checkout session id on the order
func (s *Store) SetPaymentSession(ctx context.Context, orderID int64, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_session_id = $1, updated_at = NOW() WHERE id = $2",
		sessionID, orderID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	return nil
}

// MarkOrderPaid sets payment_status to paid and records the payment
// intent. Setting absolute values keeps the update idempotent; only
// payment columns are touched so a concurrent fulfillment-status write
// cannot be clobbered.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64, paymentIntentID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = $1, payment_intent_id = $2, updated_at = NOW() WHERE id = $3",
		models.PaymentStatusPaid, paymentIntentID, orderID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	return nil
}

// GetOrderByPaymentRef finds a user's order by payment intent or
// checkout session id
func (s *Store) GetOrderByPaymentRef(ctx context.Context, ref string, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		SELECT * FROM orders
		WHERE (payment_intent_id = $1 OR payment_session_id = $1) AND user_id = $2`,
		ref, userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s: %w", ref, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

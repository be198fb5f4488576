package store

import (
	"context"

	"victoria-kids-api/internal/models"
)

// DashboardStats aggregates storefront KPIs for the admin dashboard
type DashboardStats struct {
	TotalSales     float64        `db:"-" json:"total_sales"`
	TotalOrders    int            `db:"-" json:"total_orders"`
	TotalCustomers int            `db:"-" json:"total_customers"`
	TotalProducts  int            `db:"-" json:"total_products"`
	SalesByMonth   []MonthlySales `db:"-" json:"sales_by_month"`
	TopProducts    []TopProduct   `db:"-" json:"top_products"`
}

// MonthlySales is one month's paid-order revenue
type MonthlySales struct {
	Month string  `db:"month" json:"month"`
	Sales float64 `db:"sales" json:"sales"`
}

// TopProduct is a best-selling product by paid units
type TopProduct struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	TotalSold int    `db:"total_sold" json:"total_sold"`
	Image     string `db:"image" json:"image"`
}

// GetDashboardStats aggregates sales, counts, monthly revenue and top
// sellers. Only paid orders count toward revenue figures.
func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats

	err := s.db.GetContext(ctx, &stats.TotalSales,
		"SELECT COALESCE(SUM(total), 0) FROM orders WHERE payment_status = 'paid'")
	if err != nil {
		return nil, err
	}

	if err := s.db.GetContext(ctx, &stats.TotalOrders, "SELECT COUNT(*) FROM orders"); err != nil {
		return nil, err
	}

	err = s.db.GetContext(ctx, &stats.TotalCustomers,
		"SELECT COUNT(DISTINCT user_id) FROM orders")
	if err != nil {
		return nil, err
	}

	if err := s.db.GetContext(ctx, &stats.TotalProducts, "SELECT COUNT(*) FROM products"); err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &stats.SalesByMonth, `
		SELECT TO_CHAR(created_at, 'YYYY-MM') AS month, SUM(total) AS sales
		FROM orders
		WHERE payment_status = 'paid'
		  AND created_at >= CURRENT_DATE - INTERVAL '6 months'
		GROUP BY month
		ORDER BY month DESC
		LIMIT 6`)
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &stats.TopProducts, `
		SELECT p.id, p.name, SUM(oi.quantity) AS total_sold, p.image
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN orders o ON oi.order_id = o.id
		WHERE o.payment_status = 'paid'
		GROUP BY p.id, p.name, p.image
		ORDER BY total_sold DESC
		LIMIT 3`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentOrder is an order row for the admin dashboard feed
type RecentOrder struct {
	ID            int64   `db:"id" json:"id"`
	OrderNumber   string  `db:"order_number" json:"order_number"`
	Total         float64 `db:"total" json:"total"`
	Status        string  `db:"status" json:"status"`
	PaymentStatus string  `db:"payment_status" json:"payment_status"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
	CustomerName  string  `db:"customer_name" json:"customer_name"`
	CustomerEmail string  `db:"customer_email" json:"customer_email"`
	ItemCount     int     `db:"item_count" json:"item_count"`
}

// ListRecentOrders retrieves the latest orders with customer info
func (s *Store) ListRecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	var orders []RecentOrder
	err := s.db.SelectContext(ctx, &orders, `
		SELECT o.id,
		       'ORD-' || EXTRACT(YEAR FROM o.created_at) || '-' || LPAD(o.id::text, 3, '0') AS order_number,
		       o.total, o.order_status AS status, o.payment_status, o.created_at,
		       u.name AS customer_name, u.email AS customer_email,
		       (SELECT COUNT(*) FROM order_items WHERE order_id = o.id) AS item_count
		FROM orders o
		JOIN users u ON o.user_id = u.id
		ORDER BY o.created_at DESC
		LIMIT $1`, limit)
	return orders, err
}

// CustomerSummary is a customer row with order aggregates
type CustomerSummary struct {
	models.User
	OrderCount int     `db:"order_count" json:"order_count"`
	TotalSpent float64 `db:"total_spent" json:"total_spent"`
}

// ListCustomers retrieves a page of customers with their order totals
func (s *Store) ListCustomers(ctx context.Context, page, limit int) ([]CustomerSummary, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var customers []CustomerSummary
	err := s.db.SelectContext(ctx, &customers, `
		SELECT u.*,
		       COUNT(o.id) AS order_count,
		       COALESCE(SUM(o.total) FILTER (WHERE o.payment_status = 'paid'), 0) AS total_spent
		FROM users u
		LEFT JOIN orders o ON o.user_id = u.id
		WHERE u.role = 'customer'
		GROUP BY u.id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users WHERE role = 'customer'")
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

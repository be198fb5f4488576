package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"victoria-kids-api/internal/models"
)

// ProductFilter narrows and pages catalog listings
type ProductFilter struct {
	Search   string
	Category string
	MinPrice float64
	MaxPrice float64
	Sort     string
	Page     int
	Limit    int
}

var productSortColumns = map[string]string{
	"price":      "p.price",
	"rating":     "p.rating",
	"name":       "p.name",
	"created_at": "p.created_at",
	"createdAt":  "p.created_at",
}

// ListProducts retrieves a filtered, sorted page of products
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	n := 0

	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", p, p))
	}
	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("(p.category_id::text = %s OR LOWER(c.name) = LOWER(%s))",
			arg(f.Category), arg(f.Category)))
	}
	if f.MinPrice > 0 {
		conds = append(conds, "p.price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "p.price <= "+arg(f.MaxPrice))
	}

	where := strings.Join(conds, " AND ")

	orderBy := "p.created_at DESC"
	if f.Sort != "" {
		parts := strings.SplitN(f.Sort, ",", 2)
		if col, ok := productSortColumns[parts[0]]; ok {
			dir := "ASC"
			if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
				dir = "DESC"
			}
			orderBy = col + " " + dir
		}
	}

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := fmt.Sprintf(`
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE %s
		ORDER BY %s
		LIMIT %d OFFSET %d`, where, orderBy, f.Limit, offset)

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE %s`, where)

	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetProductByID retrieves a product with its category name
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products
		  (name, description, price, original_price, image, category_id, stock,
		   featured, is_new, is_budget, is_luxury)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, rating, reviews, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.Price, p.OriginalPrice, p.Image, p.CategoryID,
		p.Stock, p.Featured, p.IsNew, p.IsBudget, p.IsLuxury,
	).Scan(&p.ID, &p.Rating, &p.Reviews, &p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct overwrites a product's editable fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
		  name = $1, description = $2, price = $3, original_price = $4, image = $5,
		  category_id = $6, stock = $7, featured = $8, is_new = $9, is_budget = $10,
		  is_luxury = $11, updated_at = NOW()
		WHERE id = $12`,
		p.Name, p.Description, p.Price, p.OriginalPrice, p.Image, p.CategoryID,
		p.Stock, p.Featured, p.IsNew, p.IsBudget, p.IsLuxury, p.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("product %d: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListFeaturedProducts retrieves featured products
func (s *Store) ListFeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.featured = TRUE
		ORDER BY p.created_at DESC
		LIMIT $1`, limit)
	return products, err
}

// ListNewArrivals retrieves products flagged as new
func (s *Store) ListNewArrivals(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.is_new = TRUE
		ORDER BY p.created_at DESC
		LIMIT $1`, limit)
	return products, err
}

// ListRelatedProducts retrieves other products from the same category
func (s *Store) ListRelatedProducts(ctx context.Context, productID int64, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.category_id = (SELECT category_id FROM products WHERE id = $1)
		  AND p.id != $1
		ORDER BY p.rating DESC
		LIMIT $2`, productID, limit)
	return products, err
}

// ListLowStockProducts retrieves products at or below the threshold
func (s *Store) ListLowStockProducts(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT p.*, c.name AS category_name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.stock <= $1
		ORDER BY p.stock ASC
		LIMIT $2`, threshold, limit)
	return products, err
}

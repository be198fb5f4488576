package store

import (
	"context"
	"database/sql"
	"fmt"

	"victoria-kids-api/internal/models"
)

// ListCategories retrieves all categories with product counts
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, `
		SELECT c.*, COUNT(p.id) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name`)
	return categories, err
}

// GetCategoryByID retrieves a single category
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a new category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, description, image)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query, c.Name, c.Description, c.Image).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// UpdateCategory overwrites a category's fields
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = $1, description = $2, image = $3, updated_at = NOW() WHERE id = $4",
		c.Name, c.Description, c.Image, c.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("category %d: %w", c.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category; products keep existing with a null
// category per the schema's ON DELETE SET NULL
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("category %d: %w", id, models.ErrNotFound)
	}
	return nil
}

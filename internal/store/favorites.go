package store

import (
	"context"
	"database/sql"
	"fmt"

	"victoria-kids-api/internal/models"
)

// ListFavorites retrieves a user's favorites with product details
func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT f.id, f.user_id, f.product_id, f.created_at,
		       p.id, p.name, p.description, p.price, p.original_price, p.image,
		       p.category_id, c.name, p.stock, p.rating, p.reviews,
		       p.featured, p.is_new, p.is_budget, p.is_luxury, p.created_at, p.updated_at
		FROM favorites f
		JOIN products p ON f.product_id = p.id
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []models.Favorite
	for rows.Next() {
		var f models.Favorite
		var p models.Product
		err := rows.Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Image,
			&p.CategoryID, &p.CategoryName, &p.Stock, &p.Rating, &p.Reviews,
			&p.Featured, &p.IsNew, &p.IsBudget, &p.IsLuxury, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		f.Product = &p
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// AddFavorite bookmarks a product; duplicates are rejected
func (s *Store) AddFavorite(ctx context.Context, userID, productID int64) (*models.Favorite, error) {
	var fav models.Favorite
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING id, user_id, product_id, created_at`,
		userID, productID).StructScan(&fav)
	if err == sql.ErrNoRows {
		// ON CONFLICT DO NOTHING returns no row on duplicate
		return nil, fmt.Errorf("favorite: %w", models.ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// RemoveFavorite deletes a bookmark
func (s *Store) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("favorite: %w", models.ErrNotFound)
	}
	return nil
}

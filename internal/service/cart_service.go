package service

import (
	"context"
	"errors"
	"fmt"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/store"
	"victoria-kids-api/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService manages per-user carts. Stock checks here are advisory
// UX only; the order transaction is the sole authority on stock.
type CartService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(st *store.Store) *CartService {
	return &CartService{store: st, logger: util.GetLogger()}
}

// CartResponse is a user's cart with live prices and a running subtotal
type CartResponse struct {
	Items    []models.CartItem `json:"items"`
	Subtotal float64           `json:"subtotal"`
	Count    int               `json:"count"`
}

// GetCart returns the user's cart joined with current product data
func (cs *CartService) GetCart(ctx context.Context, userID int64) (*CartResponse, error) {
	items, err := cs.store.GetCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(
			decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}

	sub, _ := subtotal.Round(2).Float64()
	return &CartResponse{Items: items, Subtotal: sub, Count: count}, nil
}

// AddItemRequest adds a quantity of one product to the cart
type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// AddItem puts a product in the cart, bumping quantity if it is
// already there. The resulting quantity must not exceed current stock.
func (cs *CartService) AddItem(ctx context.Context, userID int64, req *AddItemRequest) (*CartResponse, error) {
	product, err := cs.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	existing := 0
	if item, err := cs.store.GetCartItem(ctx, userID, req.ProductID); err == nil {
		existing = item.Quantity
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if existing+req.Quantity > product.Stock {
		return nil, fmt.Errorf("only %d of %q in stock: %w",
			product.Stock, product.Name, models.ErrInsufficientStock)
	}

	if err := cs.store.UpsertCartItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	cs.logger.Debug("Cart item added",
		zap.Int64("user_id", userID), zap.Int64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity))

	return cs.GetCart(ctx, userID)
}

// UpdateItemQuantity sets the quantity of a cart row. Zero removes it.
func (cs *CartService) UpdateItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartResponse, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", models.ErrValidation)
	}
	if quantity == 0 {
		if err := cs.store.RemoveCartItem(ctx, userID, productID); err != nil {
			return nil, err
		}
		return cs.GetCart(ctx, userID)
	}

	product, err := cs.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("only %d of %q in stock: %w",
			product.Stock, product.Name, models.ErrInsufficientStock)
	}

	if err := cs.store.SetCartItemQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return cs.GetCart(ctx, userID)
}

// RemoveItem deletes one product from the cart
func (cs *CartService) RemoveItem(ctx context.Context, userID, productID int64) (*CartResponse, error) {
	if err := cs.store.RemoveCartItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return cs.GetCart(ctx, userID)
}

// ClearCart removes everything from the user's cart
func (cs *CartService) ClearCart(ctx context.Context, userID int64) error {
	return cs.store.ClearCart(ctx, userID)
}

// ListFavorites returns the user's bookmarked products
func (cs *CartService) ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error) {
	return cs.store.ListFavorites(ctx, userID)
}

// AddFavorite bookmarks a product after confirming it exists
func (cs *CartService) AddFavorite(ctx context.Context, userID, productID int64) (*models.Favorite, error) {
	if _, err := cs.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return cs.store.AddFavorite(ctx, userID, productID)
}

// RemoveFavorite drops a bookmark
func (cs *CartService) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	return cs.store.RemoveFavorite(ctx, userID, productID)
}

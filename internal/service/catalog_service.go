package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/redisclient"
	"victoria-kids-api/internal/store"
	"victoria-kids-api/internal/util"

	"go.uber.org/zap"
)

const (
	catalogCacheTTL   = 5 * time.Minute
	productKeyPrefix  = "products:"
	categoryKeyPrefix = "categories:"
)

// CatalogService serves products and categories with a Redis read
// cache in front of Postgres. Stock is served straight from the
// database on every read; cached listings are short-lived and
// invalidated on any catalog write.
type CatalogService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil,
// in which case every read goes to the database.
func NewCatalogService(st *store.Store, cache *redisclient.Client) *CatalogService {
	return &CatalogService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ProductPage is a paginated product listing
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

func (cs *CatalogService) cacheGet(ctx context.Context, family, key string, dest interface{}) bool {
	if cs.cache == nil {
		return false
	}
	err := cs.cache.GetJSON(ctx, key, dest)
	if err == nil {
		util.CacheHitsTotal.WithLabelValues(family).Inc()
		return true
	}
	if err != redisclient.ErrCacheMiss {
		cs.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	util.CacheMissesTotal.WithLabelValues(family).Inc()
	return false
}

func (cs *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.SetJSON(ctx, key, value, catalogCacheTTL); err != nil {
		cs.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (cs *CatalogService) invalidateProducts(ctx context.Context) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.DeletePrefix(ctx, productKeyPrefix); err != nil {
		cs.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
}

func (cs *CatalogService) invalidateCategories(ctx context.Context) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.DeletePrefix(ctx, categoryKeyPrefix); err != nil {
		cs.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
	// Category names are denormalised into product listings.
	cs.invalidateProducts(ctx)
}

// ListProducts returns a filtered page of the catalog
func (cs *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	key := fmt.Sprintf("%slist:%s:%s:%g:%g:%s:%d:%d",
		productKeyPrefix, f.Search, f.Category, f.MinPrice, f.MaxPrice, f.Sort, f.Page, f.Limit)

	var page ProductPage
	if cs.cacheGet(ctx, "products", key, &page) {
		return &page, nil
	}

	products, total, err := cs.store.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	pageNum := f.Page
	if pageNum <= 0 {
		pageNum = 1
	}
	page = ProductPage{
		Products: products,
		Total:    total,
		Page:     pageNum,
		Pages:    (total + limit - 1) / limit,
	}
	cs.cacheSet(ctx, key, &page)
	return &page, nil
}

// GetProduct returns a single product by id
func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	key := fmt.Sprintf("%sdetail:%d", productKeyPrefix, id)

	var product models.Product
	if cs.cacheGet(ctx, "products", key, &product) {
		return &product, nil
	}

	p, err := cs.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cs.cacheSet(ctx, key, p)
	return p, nil
}

// ListFeatured returns featured products
func (cs *CatalogService) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 8
	}
	key := fmt.Sprintf("%sfeatured:%d", productKeyPrefix, limit)

	var products []models.Product
	if cs.cacheGet(ctx, "products", key, &products) {
		return products, nil
	}
	products, err := cs.store.ListFeaturedProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	cs.cacheSet(ctx, key, products)
	return products, nil
}

// ListNewArrivals returns recently added products flagged as new
func (cs *CatalogService) ListNewArrivals(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 8
	}
	key := fmt.Sprintf("%snew:%d", productKeyPrefix, limit)

	var products []models.Product
	if cs.cacheGet(ctx, "products", key, &products) {
		return products, nil
	}
	products, err := cs.store.ListNewArrivals(ctx, limit)
	if err != nil {
		return nil, err
	}
	cs.cacheSet(ctx, key, products)
	return products, nil
}

// ListRelated returns products sharing the given product's category
func (cs *CatalogService) ListRelated(ctx context.Context, productID int64, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	return cs.store.ListRelatedProducts(ctx, productID, limit)
}

// ProductRequest carries fields for creating or updating a product
type ProductRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price"`
	Image         string   `json:"image"`
	CategoryID    *int64   `json:"category_id"`
	Stock         int      `json:"stock" binding:"min=0"`
	Featured      bool     `json:"featured"`
	IsNew         bool     `json:"is_new"`
	IsBudget      bool     `json:"is_budget"`
	IsLuxury      bool     `json:"is_luxury"`
}

func (r *ProductRequest) toModel(id int64) *models.Product {
	p := &models.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Image:       r.Image,
		Stock:       r.Stock,
		Featured:    r.Featured,
		IsNew:       r.IsNew,
		IsBudget:    r.IsBudget,
		IsLuxury:    r.IsLuxury,
	}
	if r.OriginalPrice != nil {
		p.OriginalPrice = sql.NullFloat64{Float64: *r.OriginalPrice, Valid: true}
	}
	if r.CategoryID != nil {
		p.CategoryID = sql.NullInt64{Int64: *r.CategoryID, Valid: true}
	}
	return p
}

// CreateProduct adds a product to the catalog
func (cs *CatalogService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	p := req.toModel(0)
	if err := cs.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	cs.invalidateProducts(ctx)
	cs.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct overwrites a product's editable fields
func (cs *CatalogService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	p := req.toModel(id)
	if err := cs.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	cs.invalidateProducts(ctx)
	return cs.store.GetProductByID(ctx, id)
}

// DeleteProduct removes a product from the catalog
func (cs *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := cs.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	cs.invalidateProducts(ctx)
	cs.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// ListCategories returns all categories with their product counts
func (cs *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	key := categoryKeyPrefix + "all"

	var categories []models.Category
	if cs.cacheGet(ctx, "categories", key, &categories) {
		return categories, nil
	}
	categories, err := cs.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	cs.cacheSet(ctx, key, categories)
	return categories, nil
}

// GetCategory returns a category by id
func (cs *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return cs.store.GetCategoryByID(ctx, id)
}

// CategoryRequest carries fields for creating or updating a category
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CreateCategory adds a category
func (cs *CatalogService) CreateCategory(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	c := &models.Category{Name: req.Name, Description: req.Description, Image: req.Image}
	if err := cs.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	cs.invalidateCategories(ctx)
	return c, nil
}

// UpdateCategory overwrites a category's fields
func (cs *CatalogService) UpdateCategory(ctx context.Context, id int64, req *CategoryRequest) (*models.Category, error) {
	c := &models.Category{ID: id, Name: req.Name, Description: req.Description, Image: req.Image}
	if err := cs.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	cs.invalidateCategories(ctx)
	return cs.store.GetCategoryByID(ctx, id)
}

// DeleteCategory removes a category; products keep a NULL category
func (cs *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := cs.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	cs.invalidateCategories(ctx)
	return nil
}

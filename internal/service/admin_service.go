package service

import (
	"context"
	"fmt"
	"time"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/redisclient"
	"victoria-kids-api/internal/store"
	"victoria-kids-api/internal/util"

	"go.uber.org/zap"
)

const (
	dashboardCacheKey = "admin:dashboard"
	dashboardCacheTTL = time.Minute
)

// AdminService serves reporting endpoints for the admin panel.
type AdminService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewAdminService creates a new admin service. cache may be nil.
func NewAdminService(st *store.Store, cache *redisclient.Client) *AdminService {
	return &AdminService{store: st, cache: cache, logger: util.GetLogger()}
}

// GetDashboardStats returns cached storefront KPIs. The dashboard is
// refreshed at most once per minute; it never needs to be exact.
func (as *AdminService) GetDashboardStats(ctx context.Context) (*store.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "AdminService.GetDashboardStats")
	defer span.End()

	if as.cache != nil {
		var stats store.DashboardStats
		if err := as.cache.GetJSON(ctx, dashboardCacheKey, &stats); err == nil {
			util.CacheHitsTotal.WithLabelValues("dashboard").Inc()
			return &stats, nil
		}
		util.CacheMissesTotal.WithLabelValues("dashboard").Inc()
	}

	stats, err := as.store.GetDashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	if as.cache != nil {
		if err := as.cache.SetJSON(ctx, dashboardCacheKey, stats, dashboardCacheTTL); err != nil {
			as.logger.Warn("Failed to cache dashboard stats", zap.Error(err))
		}
	}
	return stats, nil
}

// ListRecentOrders returns the latest orders with customer info
func (as *AdminService) ListRecentOrders(ctx context.Context, limit int) ([]store.RecentOrder, error) {
	if limit <= 0 {
		limit = 10
	}
	return as.store.ListRecentOrders(ctx, limit)
}

// ListLowStockProducts returns products at or below the threshold
func (as *AdminService) ListLowStockProducts(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = 5
	}
	if limit <= 0 {
		limit = 10
	}
	return as.store.ListLowStockProducts(ctx, threshold, limit)
}

// CustomerPage is a paginated customer listing with order aggregates
type CustomerPage struct {
	Customers []store.CustomerSummary `json:"customers"`
	Total     int                     `json:"total"`
	Page      int                     `json:"page"`
	Pages     int                     `json:"pages"`
}

// ListCustomers returns a page of customers with their order totals
func (as *AdminService) ListCustomers(ctx context.Context, page, limit int) (*CustomerPage, error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	customers, total, err := as.store.ListCustomers(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return &CustomerPage{
		Customers: customers,
		Total:     total,
		Page:      page,
		Pages:     (total + limit - 1) / limit,
	}, nil
}

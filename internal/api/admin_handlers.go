package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getDashboard returns the cached KPI dashboard
func (h *Handler) getDashboard(c *gin.Context) {
	stats, err := h.admin.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// listRecentOrders returns the latest orders with customer info
func (h *Handler) listRecentOrders(c *gin.Context) {
	orders, err := h.admin.ListRecentOrders(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// listLowStockProducts returns products at or below the threshold
func (h *Handler) listLowStockProducts(c *gin.Context) {
	products, err := h.admin.ListLowStockProducts(c.Request.Context(),
		queryInt(c, "threshold", 5), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// listCustomers returns a page of customers with order aggregates
func (h *Handler) listCustomers(c *gin.Context) {
	page, err := h.admin.ListCustomers(c.Request.Context(),
		queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

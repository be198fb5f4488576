package api

import (
	"net/http"
	"strconv"
	"time"

	"victoria-kids-api/internal/auth"
	"victoria-kids-api/internal/service"
	"victoria-kids-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	users      *service.UserService
	catalog    *service.CatalogService
	cart       *service.CartService
	orders     *service.OrderService
	payments   *service.PaymentService
	newsletter *service.NewsletterService
	admin      *service.AdminService
	media      *service.MediaService
	tokens     *auth.TokenManager
}

// NewHandler creates a new HTTP handler
func NewHandler(
	users *service.UserService,
	catalog *service.CatalogService,
	cart *service.CartService,
	orders *service.OrderService,
	payments *service.PaymentService,
	newsletter *service.NewsletterService,
	admin *service.AdminService,
	media *service.MediaService,
	tokens *auth.TokenManager,
) *Handler {
	return &Handler{
		users:      users,
		catalog:    catalog,
		cart:       cart,
		orders:     orders,
		payments:   payments,
		newsletter: newsletter,
		admin:      admin,
		media:      media,
		tokens:     tokens,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refresh)
		authGroup.GET("/profile", h.requireAuth(), h.getProfile)
		authGroup.PUT("/profile", h.requireAuth(), h.updateProfile)
	}

	products := api.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/featured", h.listFeaturedProducts)
		products.GET("/new-arrivals", h.listNewArrivals)
		products.GET("/:id", h.getProduct)
		products.GET("/:id/related", h.listRelatedProducts)
		products.POST("", h.requireAuth(), h.requireAdmin(), h.createProduct)
		products.PUT("/:id", h.requireAuth(), h.requireAdmin(), h.updateProduct)
		products.DELETE("/:id", h.requireAuth(), h.requireAdmin(), h.deleteProduct)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.listCategories)
		categories.GET("/:id", h.getCategory)
		categories.POST("", h.requireAuth(), h.requireAdmin(), h.createCategory)
		categories.PUT("/:id", h.requireAuth(), h.requireAdmin(), h.updateCategory)
		categories.DELETE("/:id", h.requireAuth(), h.requireAdmin(), h.deleteCategory)
	}

	cart := api.Group("/cart", h.requireAuth())
	{
		cart.GET("", h.getCart)
		cart.POST("", h.addCartItem)
		cart.PUT("/:productId", h.updateCartItem)
		cart.DELETE("/:productId", h.removeCartItem)
		cart.DELETE("", h.clearCart)
	}

	favorites := api.Group("/favorites", h.requireAuth())
	{
		favorites.GET("", h.listFavorites)
		favorites.POST("/:productId", h.addFavorite)
		favorites.DELETE("/:productId", h.removeFavorite)
	}

	orders := api.Group("/orders", h.requireAuth())
	{
		orders.POST("", h.createOrder)
		orders.GET("", h.listMyOrders)
		orders.GET("/:id", h.getOrder)
		orders.PUT("/:id/status", h.requireAdmin(), h.updateOrderStatus)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/create-session", h.requireAuth(), h.createPaymentSession)
		payments.POST("/webhook", h.paymentWebhook)
		payments.GET("/status/:ref", h.requireAuth(), h.getPaymentStatus)
	}

	newsletter := api.Group("/newsletter")
	{
		newsletter.POST("/subscribe", h.subscribeNewsletter)
		newsletter.POST("/unsubscribe", h.unsubscribeNewsletter)
		newsletter.GET("/subscribers", h.requireAuth(), h.requireAdmin(), h.listSubscribers)
	}

	admin := api.Group("/admin", h.requireAuth(), h.requireAdmin())
	{
		admin.GET("/dashboard", h.getDashboard)
		admin.GET("/orders", h.listAllOrders)
		admin.GET("/orders/recent", h.listRecentOrders)
		admin.GET("/products/low-stock", h.listLowStockProducts)
		admin.GET("/customers", h.listCustomers)
	}

	media := api.Group("/media", h.requireAuth(), h.requireAdmin())
	{
		media.POST("/upload", h.uploadImage)
		media.POST("/upload-multiple", h.uploadImages)
		media.DELETE("", h.deleteImage)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

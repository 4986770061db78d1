package routes

import (
	"time"

	"patisserie-backend/handlers"
	"patisserie-backend/middleware"
	"patisserie-backend/store"
	"patisserie-backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, hub *ws.Hub, cache store.Store) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	productHandler := &handlers.ProductHandler{DB: db}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	bannerHandler := &handlers.BannerHandler{DB: db}
	cartHandler := &handlers.CartHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	notificationHandler := &handlers.NotificationHandler{DB: db, Hub: hub}
	shopStatusHandler := &handlers.ShopStatusHandler{DB: db}
	settingsHandler := &handlers.SettingsHandler{DB: db}

	limiter := middleware.NewRateLimiter(120, time.Minute, cache)

	// Public routes
	api := r.Group("/api")
	api.Use(limiter.Middleware())
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/:id", productHandler.GetProduct)

		api.GET("/categories", categoryHandler.GetCategories)
		api.GET("/categories/:id", categoryHandler.GetCategory)

		api.GET("/banners", bannerHandler.GetBanners)

		api.GET("/shop-status", shopStatusHandler.GetShopStatus)
	}

	// Realtime push channel
	if hub != nil {
		r.GET("/ws", hub.Handle)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)

		protected.GET("/cart", cartHandler.GetCart)
		protected.POST("/cart", cartHandler.AddToCart)
		protected.PUT("/cart/:productId", cartHandler.UpdateCartItem)
		protected.DELETE("/cart/:productId", cartHandler.RemoveFromCart)
		protected.DELETE("/cart", cartHandler.ClearCart)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkNotificationRead)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		admin.POST("/banners", bannerHandler.CreateBanner)
		admin.PUT("/banners/:id", bannerHandler.UpdateBanner)
		admin.DELETE("/banners/:id", bannerHandler.DeleteBanner)

		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

		admin.POST("/notifications", notificationHandler.CreateNotification)

		admin.GET("/settings/time", settingsHandler.GetTimeSettings)
		admin.PUT("/settings/time", settingsHandler.UpdateTimeSettings)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

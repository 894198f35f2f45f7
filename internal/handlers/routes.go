package handlers

import (
	"net/http"

	"pizzeria/internal/auth"
	"pizzeria/internal/middleware"
	"pizzeria/internal/models"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	User      *UserHandler
	Product   *ProductHandler
	Cart      *CartHandler
	Order     *OrderHandler
	Promo     *PromoHandler
	Payment   *PaymentHandler
	Upload    *UploadHandler
	Settings  *SettingsHandler
	WebSocket gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, h Handlers, tokens *auth.TokenManager, uploadDir string) {
	authenticated := middleware.Authenticate(tokens)
	admin := middleware.RequireRole(string(models.RoleAdmin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Static("/uploads", uploadDir)
	if h.WebSocket != nil {
		router.GET("/ws", authenticated, h.WebSocket)
	}

	api := router.Group("/api")

	user := api.Group("/user")
	{
		user.POST("/register", h.User.Register)
		user.POST("/login", h.User.Login)
		user.GET("/me", authenticated, h.User.Me)
		user.PUT("/profile", authenticated, h.User.UpdateProfile)
	}
	api.GET("/users", authenticated, admin, h.User.ListUsers)

	products := api.Group("/products")
	{
		products.GET("/published", h.Product.ListPublished)
		products.GET("/:id", middleware.OptionalAuthenticate(tokens), h.Product.GetProduct)
		products.GET("", authenticated, admin, h.Product.ListProducts)
		products.POST("", authenticated, admin, h.Product.CreateProduct)
		products.PUT("/:id", authenticated, admin, h.Product.UpdateProduct)
		products.DELETE("/:id", authenticated, admin, h.Product.DeleteProduct)
	}

	cart := api.Group("/cart", authenticated)
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddItem)
		cart.DELETE("", h.Cart.ClearCart)
		cart.PUT("/:itemId", h.Cart.UpdateItem)
		cart.DELETE("/:itemId", h.Cart.RemoveItem)
	}

	orders := api.Group("/orders", authenticated)
	{
		orders.POST("", h.Order.PlaceOrder)
		orders.GET("/my-orders", h.Order.MyOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id/cancel", h.Order.CancelOrder)

		orders.GET("", admin, h.Order.ListOrders)
		orders.PUT("/:id/status", admin, h.Order.UpdateStatus)
		orders.PUT("/:id/payment-status", admin, h.Order.UpdatePaymentStatus)
		orders.PUT("/:id/refund-status", admin, h.Order.UpdateRefundStatus)
		orders.GET("/stats/overview", admin, h.Order.Stats)
		orders.GET("/stats/sales", admin, h.Order.Sales)
	}
	api.GET("/dashboard", authenticated, admin, h.Order.Dashboard)

	promos := api.Group("/promos")
	{
		promos.POST("/validate", authenticated, h.Promo.ValidatePromo)
		promos.GET("", authenticated, admin, h.Promo.ListPromos)
		promos.POST("", authenticated, admin, h.Promo.CreatePromo)
		promos.GET("/:id", authenticated, admin, h.Promo.GetPromo)
		promos.PUT("/:id", authenticated, admin, h.Promo.UpdatePromo)
		promos.DELETE("/:id", authenticated, admin, h.Promo.DeletePromo)
	}

	payment := api.Group("/payment", authenticated)
	{
		payment.POST("/create-checkout-session", h.Payment.CreateCheckoutSession)
		payment.POST("/verify-payment", h.Payment.VerifyPayment)
	}

	api.POST("/upload", authenticated, admin, h.Upload.UploadImage)

	settings := api.Group("/settings")
	{
		settings.GET("/pricing", h.Settings.Pricing)
		settings.GET("", authenticated, admin, h.Settings.ListSettings)
		settings.PUT("/:name", authenticated, admin, h.Settings.UpdateSetting)
	}
}

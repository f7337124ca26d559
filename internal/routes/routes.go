package routes

import (
	"mandi_back_end/internal/handlers"
	"mandi_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, orders *handlers.OrderHandler, payments *handlers.PaymentHandler) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Webhook gateway : serveur-à-serveur, authentifié par signature HMAC
	api.POST("/payments/webhook", payments.Webhook)

	// Routes client
	authed := api.Group("")
	authed.Use(middleware.AuthRequired())
	{
		authed.POST("/orders", middleware.CheckoutRateLimit(), orders.PlaceOrder)
		authed.GET("/orders", orders.ListMyOrders)
		authed.GET("/orders/:id", orders.GetOrder)
		authed.GET("/orders/:id/invoice", orders.GetInvoiceURL)

		authed.POST("/payments/preauthorize", middleware.CheckoutRateLimit(), payments.PreAuthorize)
		authed.POST("/payments/finalize", middleware.CheckoutRateLimit(), payments.Finalize)
	}

	// Routes vendeur
	seller := api.Group("/seller")
	seller.Use(middleware.AuthRequired())
	{
		seller.GET("/orders/search", middleware.SearchRateLimit(), handlers.SearchSellerOrders)
	}
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grocery-backend/controllers"
	"grocery-backend/middleware"
)

// Register sets up every route. Cart routes accept guests via the
// X-Guest-Token header; checkout and orders require an account; admin
// routes additionally require the admin role.
func Register(
	r *gin.Engine,
	jwtSecret []byte,
	cartController *controllers.CartController,
	checkoutController *controllers.CheckoutController,
	orderController *controllers.OrderController,
	voucherController *controllers.VoucherController,
) {
	api := r.Group("/api")

	cart := api.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(jwtSecret))
	{
		cart.GET("", cartController.GetCart)
		cart.POST("/items", cartController.AddItem)
		cart.PUT("/items/:product_id", cartController.UpdateItem)
		cart.DELETE("/items/:product_id", cartController.RemoveItem)
		cart.DELETE("", cartController.ClearCart)
	}

	cartAuth := api.Group("/cart")
	cartAuth.Use(middleware.AuthMiddleware(jwtSecret))
	{
		cartAuth.POST("/merge", cartController.MergeCart)
		cartAuth.POST("/vouchers/apply", checkoutController.ApplyVoucher)
		cartAuth.DELETE("/vouchers", checkoutController.RemoveVoucher)
	}

	checkout := api.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(jwtSecret))
	{
		checkout.GET("", checkoutController.GetCheckout)
		checkout.POST("/address", checkoutController.SetAddress)
		checkout.POST("/shipping", checkoutController.SetShipping)
		checkout.GET("/calculate-shipping", checkoutController.QuoteShipping)
		checkout.GET("/preview", checkoutController.Preview)
		checkout.POST("/payment", checkoutController.ProcessPayment)
	}

	// Gateway callbacks carry no session; the order reference is in the
	// redirect query.
	callbacks := api.Group("/payment/callback")
	{
		callbacks.POST("/success", checkoutController.PaymentSuccess)
		callbacks.POST("/failure", checkoutController.PaymentFailure)
		callbacks.POST("/cancel", checkoutController.PaymentFailure)
	}

	orders := api.Group("/orders")
	orders.Use(middleware.AuthMiddleware(jwtSecret))
	{
		orders.GET("", orderController.ListOrders)
		orders.GET("/:order_id", orderController.GetOrder)
		orders.POST("/:order_id/cancel", orderController.CancelOrder)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.AdminOnly())
	{
		admin.GET("/orders", orderController.ListAllOrders)
		admin.GET("/orders/:order_id", orderController.GetAnyOrder)
		admin.PUT("/orders/:order_id/status", orderController.UpdateStatus)

		admin.POST("/vouchers", voucherController.CreateVoucher)
		admin.GET("/vouchers", voucherController.ListVouchers)
		admin.GET("/vouchers/:code", voucherController.GetVoucher)
		admin.DELETE("/vouchers/:code", voucherController.DeactivateVoucher)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "grocery-backend"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

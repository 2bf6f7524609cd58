package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"grocery-backend/middleware"
	"grocery-backend/models"
	"grocery-backend/services"
)

// CheckoutController handles HTTP requests for the checkout flow. Every
// route requires an authenticated account; guests must merge their cart
// first.
type CheckoutController struct {
	checkoutService services.CheckoutService
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// GetCheckout handles GET /checkout.
func (cc *CheckoutController) GetCheckout(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	details, svcErr := cc.checkoutService.GetDetails(ctx.Request.Context(), accountID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, details)
}

// SetAddress handles PUT /checkout/address.
func (cc *CheckoutController) SetAddress(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SetAddressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	details, svcErr := cc.checkoutService.SetAddress(ctx.Request.Context(), accountID, req.AddressID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, details)
}

// SetShipping handles PUT /checkout/shipping.
func (cc *CheckoutController) SetShipping(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SetShippingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	details, svcErr := cc.checkoutService.SetShipping(ctx.Request.Context(), accountID, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, details)
}

// QuoteShipping handles GET /checkout/calculate-shipping?delivery_method=...&address_id=...
// It computes a fee without staging anything; address_id overrides the
// staged address when present.
func (cc *CheckoutController) QuoteShipping(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	raw := ctx.Query("delivery_method")
	if raw == "" {
		raw = ctx.Query("method")
	}
	method := models.DeliveryMethod(raw)
	if !method.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown delivery method: " + raw})
		return
	}

	var addressID *uuid.UUID
	if v := ctx.Query("address_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address_id"})
			return
		}
		addressID = &id
	}

	quote, svcErr := cc.checkoutService.QuoteShipping(ctx.Request.Context(), accountID, method, addressID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, quote)
}

// ApplyVoucher handles POST /checkout/voucher.
func (cc *CheckoutController) ApplyVoucher(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ApplyVoucherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := cc.checkoutService.ApplyVoucher(ctx.Request.Context(), accountID, req.Code)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RemoveVoucher handles DELETE /checkout/voucher.
func (cc *CheckoutController) RemoveVoucher(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if svcErr := cc.checkoutService.RemoveVoucher(ctx.Request.Context(), accountID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Voucher removed"})
}

// Preview handles GET /checkout/preview.
func (cc *CheckoutController) Preview(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	preview, svcErr := cc.checkoutService.Preview(ctx.Request.Context(), accountID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, preview)
}

// ProcessPayment handles POST /checkout/payment. This is the commit: it
// either places the order (COD) or opens a gateway session.
func (cc *CheckoutController) ProcessPayment(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ProcessPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := cc.checkoutService.ProcessPayment(ctx.Request.Context(), accountID, &req)
	if svcErr != nil {
		middleware.RecordOrderPlaced(req.PaymentMethod, false)
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	middleware.RecordOrderPlaced(req.PaymentMethod, true)
	ctx.JSON(http.StatusCreated, result)
}

// PaymentSuccess handles POST /payment/callback/success, the gateway
// success callback. The order reference rides on the redirect query.
func (cc *CheckoutController) PaymentSuccess(ctx *gin.Context) {
	orderID, ok := callbackOrderID(ctx)
	if !ok {
		return
	}

	order, svcErr := cc.checkoutService.ConfirmPayment(ctx.Request.Context(), orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// PaymentFailure handles POST /payment/callback/failure and
// /payment/callback/cancel. Both cancel the pending order.
func (cc *CheckoutController) PaymentFailure(ctx *gin.Context) {
	orderID, ok := callbackOrderID(ctx)
	if !ok {
		return
	}

	order, svcErr := cc.checkoutService.FailPayment(ctx.Request.Context(), orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func callbackOrderID(ctx *gin.Context) (uuid.UUID, bool) {
	ref := ctx.Query("order_id")
	if ref == "" {
		var body struct {
			OrderID string `json:"order_id"`
		}
		if err := ctx.ShouldBindJSON(&body); err == nil {
			ref = body.OrderID
		}
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order_id"})
		return uuid.Nil, false
	}
	return id, true
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"grocery-backend/middleware"
	"grocery-backend/models"
	"grocery-backend/services"
)

// CartController handles HTTP requests for cart operations. The same
// routes serve authenticated accounts (Bearer token) and guests
// (X-Guest-Token header).
type CartController struct {
	cartService services.CartService
}

// NewCartController creates a new CartController.
func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart handles GET /cart.
func (cc *CartController) GetCart(ctx *gin.Context) {
	identity, ok := cc.identity(ctx)
	if !ok {
		return
	}

	view, svcErr := cc.cartService.GetCart(ctx.Request.Context(), identity)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// AddItem handles POST /cart/items.
func (cc *CartController) AddItem(ctx *gin.Context) {
	identity, ok := cc.identity(ctx)
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := cc.cartService.AddItem(ctx.Request.Context(), identity, req.ProductID, req.Quantity); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	view, svcErr := cc.cartService.GetCart(ctx.Request.Context(), identity)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// UpdateItem handles PUT /cart/items/:product_id?quantity=N. The quantity
// rides on the query string; a JSON body {quantity} is accepted as well.
func (cc *CartController) UpdateItem(ctx *gin.Context) {
	identity, ok := cc.identity(ctx)
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(ctx, "product_id")
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if raw := ctx.Query("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
			return
		}
		req.Quantity = qty
	} else if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := cc.cartService.SetQuantity(ctx.Request.Context(), identity, productID, req.Quantity); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	view, svcErr := cc.cartService.GetCart(ctx.Request.Context(), identity)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// RemoveItem handles DELETE /cart/items/:product_id.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	identity, ok := cc.identity(ctx)
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(ctx, "product_id")
	if !ok {
		return
	}

	if svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), identity, productID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

// ClearCart handles DELETE /cart.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	identity, ok := cc.identity(ctx)
	if !ok {
		return
	}

	if svcErr := cc.cartService.Clear(ctx.Request.Context(), identity); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// MergeCart handles POST /cart/merge. It requires authentication; the
// guest cart named in the payload folds into the account cart.
func (cc *CartController) MergeCart(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.MergeCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := cc.cartService.MergeGuestCart(ctx.Request.Context(), req.GuestToken, accountID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	view, svcErr := cc.cartService.GetCart(ctx.Request.Context(), models.AccountIdentity(accountID))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// identity resolves the cart owner: authenticated account first, guest
// token otherwise. Writes the error response itself when neither exists.
func (cc *CartController) identity(ctx *gin.Context) (models.CartIdentity, bool) {
	if accountID, err := middleware.GetAccountID(ctx); err == nil {
		return models.AccountIdentity(accountID), true
	}
	if token := ctx.GetHeader(middleware.GuestTokenHeader); token != "" {
		return models.GuestIdentity(token), true
	}
	ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication or guest token required"})
	return models.CartIdentity{}, false
}

func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// respondError shapes a service error for the wire, including the stable
// error code when one exists.
func respondError(svcErr *services.ServiceError) gin.H {
	resp := gin.H{"error": svcErr.Message}
	if svcErr.Code != "" {
		resp["error_code"] = svcErr.Code
	}
	return resp
}

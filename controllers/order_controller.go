package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grocery-backend/middleware"
	"grocery-backend/models"
	"grocery-backend/services"
)

// OrderController handles HTTP requests for placed orders.
type OrderController struct {
	orderService services.OrderService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// ListOrders handles GET /orders for the authenticated account.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)
	orders, total, svcErr := oc.orderService.GetUserOrders(ctx.Request.Context(), accountID, page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, paginatedResponse("orders", orders, page, limit, total))
}

// GetOrder handles GET /orders/:order_id for the authenticated account.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	orderID, ok := parseUUIDParam(ctx, "order_id")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetUserOrder(ctx.Request.Context(), orderID, accountID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder handles POST /orders/:order_id/cancel for the authenticated
// account. Only orders still in PROCESSING can be cancelled this way.
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	accountID, err := middleware.GetAccountID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	orderID, ok := parseUUIDParam(ctx, "order_id")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.CancelOrder(ctx.Request.Context(), orderID, accountID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ListAllOrders handles GET /admin/orders.
func (oc *OrderController) ListAllOrders(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	orders, total, svcErr := oc.orderService.GetAllOrders(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, paginatedResponse("orders", orders, page, limit, total))
}

// GetAnyOrder handles GET /admin/orders/:order_id.
func (oc *OrderController) GetAnyOrder(ctx *gin.Context) {
	orderID, ok := parseUUIDParam(ctx, "order_id")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrderByID(ctx.Request.Context(), orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateStatus handles PATCH /admin/orders/:order_id/status. The state
// machine decides whether the transition is legal.
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	orderID, ok := parseUUIDParam(ctx, "order_id")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.Transition(ctx.Request.Context(), orderID, req.Status, req.Notes)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	page := ctx.DefaultQuery("page", "1")
	limit := ctx.DefaultQuery("limit", "10")

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(page); err == nil && p > 0 {
		pageInt = p
	}

	if l, err := strconv.Atoi(limit); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}

func paginatedResponse(key string, items interface{}, page, limit int, total int64) gin.H {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return gin.H{
		key: items,
		"meta": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
			"has_more":    total > int64(page*limit),
		},
	}
}

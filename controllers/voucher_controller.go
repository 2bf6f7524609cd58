package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grocery-backend/models"
	"grocery-backend/services"
)

// VoucherController handles the admin voucher CRUD. Customer-facing
// voucher application lives on the checkout routes.
type VoucherController struct {
	voucherService services.VoucherService
}

// NewVoucherController creates a new VoucherController.
func NewVoucherController(voucherService services.VoucherService) *VoucherController {
	return &VoucherController{voucherService: voucherService}
}

// CreateVoucher handles POST /admin/vouchers.
func (vc *VoucherController) CreateVoucher(ctx *gin.Context) {
	var req models.CreateVoucherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	voucher, svcErr := vc.voucherService.CreateVoucher(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"voucher": voucher})
}

// GetVoucher handles GET /admin/vouchers/:code.
func (vc *VoucherController) GetVoucher(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Voucher code is required"})
		return
	}

	voucher, svcErr := vc.voucherService.GetVoucher(ctx.Request.Context(), code)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"voucher": voucher})
}

// ListVouchers handles GET /admin/vouchers.
func (vc *VoucherController) ListVouchers(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	vouchers, total, svcErr := vc.voucherService.ListVouchers(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, paginatedResponse("vouchers", vouchers, page, limit, total))
}

// DeactivateVoucher handles DELETE /admin/vouchers/:code.
func (vc *VoucherController) DeactivateVoucher(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Voucher code is required"})
		return
	}

	if svcErr := vc.voucherService.DeactivateVoucher(ctx.Request.Context(), code); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, respondError(svcErr))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Voucher deactivated"})
}

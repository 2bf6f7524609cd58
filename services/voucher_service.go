package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocery-backend/models"
	"grocery-backend/repository"
)

// VoucherService decides whether a code may be applied to a cart/account
// and computes the discount. Validation consumes nothing; redemption
// happens only inside the order-commit transaction via Consume.
type VoucherService interface {
	// Validate runs the full eligibility ladder against the current cart
	// subtotal and returns the voucher with its discount amount.
	Validate(ctx context.Context, code string, accountID uuid.UUID, cartSubtotal float64) (*models.Voucher, float64, *ServiceError)
	// Consume redeems the voucher inside the commit transaction. The
	// usage-limit check and the per-account uniqueness are enforced by
	// the storage layer, not re-checked reads.
	Consume(tx *gorm.DB, voucher *models.Voucher, accountID, orderID uuid.UUID) *ServiceError

	// Admin operations.
	CreateVoucher(ctx context.Context, req *models.CreateVoucherRequest) (*models.Voucher, *ServiceError)
	GetVoucher(ctx context.Context, code string) (*models.Voucher, *ServiceError)
	ListVouchers(ctx context.Context, page, limit int) ([]models.Voucher, int64, *ServiceError)
	DeactivateVoucher(ctx context.Context, code string) *ServiceError
}

type voucherServiceImpl struct {
	repo   repository.VoucherRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewVoucherService creates a new VoucherService.
func NewVoucherService(repo repository.VoucherRepository, logger *zap.Logger) VoucherService {
	return &voucherServiceImpl{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *voucherServiceImpl) Validate(ctx context.Context, code string, accountID uuid.UUID, cartSubtotal float64) (*models.Voucher, float64, *ServiceError) {
	voucher, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, &ServiceError{StatusCode: 404, Code: CodeVoucherNotFound, Message: "Voucher not found"}
		}
		s.logger.Error("Voucher lookup failed", zap.String("code", code), zap.Error(err))
		return nil, 0, internalError("Failed to validate voucher")
	}

	if !voucher.IsActive {
		return nil, 0, &ServiceError{StatusCode: 400, Code: CodeVoucherInactive, Message: "Voucher is no longer active"}
	}

	now := s.now()
	if now.Before(voucher.ValidFrom) || now.After(voucher.ValidUntil) {
		return nil, 0, &ServiceError{StatusCode: 400, Code: CodeVoucherExpired, Message: "Voucher is outside its validity window"}
	}

	if voucher.UsageLimit > 0 && voucher.UsedCount >= voucher.UsageLimit {
		return nil, 0, &ServiceError{StatusCode: 409, Code: CodeVoucherLimitReached, Message: "Voucher usage limit reached"}
	}

	used, err := s.repo.HasUsage(ctx, voucher.ID, accountID)
	if err != nil {
		s.logger.Error("Voucher usage lookup failed", zap.String("code", code), zap.Error(err))
		return nil, 0, internalError("Failed to validate voucher")
	}
	if used {
		return nil, 0, &ServiceError{StatusCode: 409, Code: CodeVoucherAlreadyUsed, Message: "Voucher already redeemed by this account"}
	}

	if cartSubtotal < voucher.MinPurchaseAmount {
		return nil, 0, &ServiceError{
			StatusCode: 400,
			Code:       CodeMinimumPurchaseNotMet,
			Message:    fmt.Sprintf("Minimum purchase of %.2f required", voucher.MinPurchaseAmount),
		}
	}

	return voucher, Discount(voucher, cartSubtotal), nil
}

// Discount computes the amount a voucher takes off the given subtotal.
// Percentage discounts honor the optional cap; a fixed amount never
// exceeds the subtotal, so the total cannot go negative.
func Discount(voucher *models.Voucher, cartSubtotal float64) float64 {
	switch voucher.Type {
	case models.VoucherTypePercentage:
		discount := cartSubtotal * voucher.Value / 100
		if voucher.MaxDiscountAmount != nil && discount > *voucher.MaxDiscountAmount {
			discount = *voucher.MaxDiscountAmount
		}
		return discount
	case models.VoucherTypeFixedAmount:
		if voucher.Value > cartSubtotal {
			return cartSubtotal
		}
		return voucher.Value
	}
	return 0
}

func (s *voucherServiceImpl) Consume(tx *gorm.DB, voucher *models.Voucher, accountID, orderID uuid.UUID) *ServiceError {
	err := s.repo.Consume(tx, voucher, accountID, orderID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUsageLimitReached):
		return &ServiceError{StatusCode: 409, Code: CodeVoucherLimitReached, Message: "Voucher usage limit reached"}
	case errors.Is(err, repository.ErrAlreadyUsed):
		return &ServiceError{StatusCode: 409, Code: CodeVoucherAlreadyUsed, Message: "Voucher already redeemed by this account"}
	default:
		s.logger.Error("Voucher consume failed", zap.String("code", voucher.Code), zap.Error(err))
		return internalError("Failed to redeem voucher")
	}
}

func (s *voucherServiceImpl) CreateVoucher(ctx context.Context, req *models.CreateVoucherRequest) (*models.Voucher, *ServiceError) {
	if req.ValidUntil.Before(s.now()) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be in the future"}
	}
	if req.Type == models.VoucherTypePercentage && req.Value > 100 {
		return nil, &ServiceError{StatusCode: 400, Message: "Percentage discount cannot exceed 100"}
	}
	if req.Type == models.VoucherTypeFixedAmount && req.MaxDiscountAmount != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Discount cap only applies to percentage vouchers"}
	}

	validFrom := req.ValidFrom
	if validFrom.IsZero() {
		validFrom = s.now()
	}

	voucher := &models.Voucher{
		Code:              strings.ToUpper(req.Code),
		Type:              req.Type,
		Value:             req.Value,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         validFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Message: "Voucher code already exists"}
		}
		s.logger.Error("Failed to create voucher", zap.Error(err))
		return nil, internalError("Failed to create voucher")
	}

	s.logger.Info("Voucher created", zap.String("code", voucher.Code), zap.String("type", string(voucher.Type)))
	return voucher, nil
}

func (s *voucherServiceImpl) GetVoucher(ctx context.Context, code string) (*models.Voucher, *ServiceError) {
	voucher, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Code: CodeVoucherNotFound, Message: "Voucher not found"}
	}
	return voucher, nil
}

func (s *voucherServiceImpl) ListVouchers(ctx context.Context, page, limit int) ([]models.Voucher, int64, *ServiceError) {
	vouchers, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list vouchers", zap.Error(err))
		return nil, 0, internalError("Failed to list vouchers")
	}
	return vouchers, total, nil
}

func (s *voucherServiceImpl) DeactivateVoucher(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Code: CodeVoucherNotFound, Message: "Voucher not found"}
		}
		s.logger.Error("Failed to deactivate voucher", zap.String("code", code), zap.Error(err))
		return internalError("Failed to deactivate voucher")
	}

	s.logger.Info("Voucher deactivated", zap.String("code", code))
	return nil
}

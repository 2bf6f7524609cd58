package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocery-backend/models"
	"grocery-backend/repository"
)

// PricingService composes cart subtotal, staged voucher and shipping fee
// into one preview. The checkout commit freezes exactly these numbers into
// the order, so preview and order can never drift apart.
type PricingService interface {
	Preview(ctx context.Context, accountID uuid.UUID, details *models.CheckoutDetails) (*models.CheckoutPreview, *ServiceError)
}

type pricingServiceImpl struct {
	cartService     CartService
	voucherService  VoucherService
	shippingService ShippingService
	addressRepo     repository.AddressRepository
	logger          *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(
	cartService CartService,
	voucherService VoucherService,
	shippingService ShippingService,
	addressRepo repository.AddressRepository,
	logger *zap.Logger,
) PricingService {
	return &pricingServiceImpl{
		cartService:     cartService,
		voucherService:  voucherService,
		shippingService: shippingService,
		addressRepo:     addressRepo,
		logger:          logger,
	}
}

func (s *pricingServiceImpl) Preview(ctx context.Context, accountID uuid.UUID, details *models.CheckoutDetails) (*models.CheckoutPreview, *ServiceError) {
	view, svcErr := s.cartService.GetCart(ctx, models.AccountIdentity(accountID))
	if svcErr != nil {
		return nil, svcErr
	}

	preview := &models.CheckoutPreview{
		Lines:    view.Lines,
		Subtotal: view.Subtotal,
	}

	if details.VoucherCode != "" {
		_, discount, svcErr := s.voucherService.Validate(ctx, details.VoucherCode, accountID, view.Subtotal)
		if svcErr != nil {
			return nil, svcErr
		}
		preview.VoucherCode = details.VoucherCode
		preview.VoucherDiscount = discount
	}

	if details.DeliveryMethod != "" {
		quote, svcErr := s.quote(ctx, accountID, details)
		if svcErr != nil {
			return nil, svcErr
		}
		preview.Quote = quote
		preview.ShippingFee = quote.Fee
	}

	total := preview.Subtotal - preview.VoucherDiscount + preview.ShippingFee
	if total < 0 {
		total = 0
	}
	preview.Total = total

	return preview, nil
}

func (s *pricingServiceImpl) quote(ctx context.Context, accountID uuid.UUID, details *models.CheckoutDetails) (*models.ShippingQuote, *ServiceError) {
	if details.DeliveryMethod.IsPickup() {
		return &models.ShippingQuote{DeliveryMethod: details.DeliveryMethod}, nil
	}

	if details.AddressID == nil {
		return nil, &ServiceError{StatusCode: 400, Message: "No delivery address selected"}
	}

	address, err := s.addressRepo.FindByIDAndAccount(ctx, *details.AddressID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Address not found"}
		}
		s.logger.Error("Address lookup failed", zap.Error(err))
		return nil, internalError("Failed to compute shipping fee")
	}

	return s.shippingService.Quote(ctx, details.DeliveryMethod, address)
}

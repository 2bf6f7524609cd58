package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocery-backend/models"
	"grocery-backend/payment"
	"grocery-backend/pkg/aws"
	"grocery-backend/repository"
)

// CheckoutStore is the slice of the Redis checkout repository this service
// needs.
type CheckoutStore interface {
	GetDetails(ctx context.Context, accountID uuid.UUID) (*models.CheckoutDetails, error)
	SaveDetails(ctx context.Context, accountID uuid.UUID, details *models.CheckoutDetails) error
	DeleteDetails(ctx context.Context, accountID uuid.UUID) error
}

// PaymentResult is what the commit returns. RedirectURL is set only for
// gateway payments, where the customer still has to pay.
type PaymentResult struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

// CheckoutService stages checkout selections and commits them into an
// order. Staging endpoints mutate only Redis; previews compute and persist
// nothing; the commit is the single transaction that touches stock,
// vouchers and orders.
type CheckoutService interface {
	GetDetails(ctx context.Context, accountID uuid.UUID) (*models.CheckoutDetails, *ServiceError)
	SetAddress(ctx context.Context, accountID uuid.UUID, addressID uuid.UUID) (*models.CheckoutDetails, *ServiceError)
	SetShipping(ctx context.Context, accountID uuid.UUID, req *models.SetShippingRequest) (*models.CheckoutDetails, *ServiceError)
	ApplyVoucher(ctx context.Context, accountID uuid.UUID, code string) (*models.ApplyVoucherResponse, *ServiceError)
	RemoveVoucher(ctx context.Context, accountID uuid.UUID) *ServiceError
	// QuoteShipping computes a fee without writing anything, so clients can
	// compare methods before selecting one. A non-nil addressID overrides
	// the staged address.
	QuoteShipping(ctx context.Context, accountID uuid.UUID, method models.DeliveryMethod, addressID *uuid.UUID) (*models.ShippingQuote, *ServiceError)
	Preview(ctx context.Context, accountID uuid.UUID) (*models.CheckoutPreview, *ServiceError)
	ProcessPayment(ctx context.Context, accountID uuid.UUID, req *models.ProcessPaymentRequest) (*PaymentResult, *ServiceError)
	// ConfirmPayment is driven by the gateway callback. It consumes stock
	// and voucher and marks the order paid, all inside one transaction.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError)
	// FailPayment cancels a pending gateway order. Nothing was consumed at
	// placement, so there is nothing to restore.
	FailPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError)
}

type checkoutServiceImpl struct {
	checkouts       CheckoutStore
	cartService     CartService
	pricingService  PricingService
	voucherService  VoucherService
	shippingService ShippingService
	addressRepo     repository.AddressRepository
	storeRepo       repository.StoreRepository
	productRepo     repository.ProductRepository
	cartRepo        repository.CartRepository
	orderRepo       repository.OrderRepository
	txManager       repository.TxManager
	gateway         payment.Gateway
	publisher       aws.SNSPublisher
	topicARN        string
	logger          *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	checkouts CheckoutStore,
	cartService CartService,
	pricingService PricingService,
	voucherService VoucherService,
	shippingService ShippingService,
	addressRepo repository.AddressRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	txManager repository.TxManager,
	gateway payment.Gateway,
	publisher aws.SNSPublisher,
	topicARN string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		checkouts:       checkouts,
		cartService:     cartService,
		pricingService:  pricingService,
		voucherService:  voucherService,
		shippingService: shippingService,
		addressRepo:     addressRepo,
		storeRepo:       storeRepo,
		productRepo:     productRepo,
		cartRepo:        cartRepo,
		orderRepo:       orderRepo,
		txManager:       txManager,
		gateway:         gateway,
		publisher:       publisher,
		topicARN:        topicARN,
		logger:          logger,
	}
}

func (s *checkoutServiceImpl) GetDetails(ctx context.Context, accountID uuid.UUID) (*models.CheckoutDetails, *ServiceError) {
	details, err := s.checkouts.GetDetails(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to load checkout details", zap.Error(err))
		return nil, internalError("Failed to load checkout details")
	}
	return details, nil
}

func (s *checkoutServiceImpl) SetAddress(ctx context.Context, accountID uuid.UUID, addressID uuid.UUID) (*models.CheckoutDetails, *ServiceError) {
	address, svcErr := s.loadAddress(ctx, addressID, accountID, "Failed to set delivery address")
	if svcErr != nil {
		return nil, svcErr
	}

	details, svcErr := s.GetDetails(ctx, accountID)
	if svcErr != nil {
		return nil, svcErr
	}
	details.AddressID = &address.ID

	// A previously quoted fee belongs to the old address.
	if details.DeliveryMethod != "" && !details.DeliveryMethod.IsPickup() {
		quote, svcErr := s.shippingService.Quote(ctx, details.DeliveryMethod, address)
		if svcErr != nil {
			return nil, svcErr
		}
		details.ShippingFee = quote.Fee
	}

	if err := s.checkouts.SaveDetails(ctx, accountID, details); err != nil {
		s.logger.Error("Failed to save checkout details", zap.Error(err))
		return nil, internalError("Failed to set delivery address")
	}
	return details, nil
}

func (s *checkoutServiceImpl) SetShipping(ctx context.Context, accountID uuid.UUID, req *models.SetShippingRequest) (*models.CheckoutDetails, *ServiceError) {
	if !req.DeliveryMethod.Valid() {
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown delivery method: " + string(req.DeliveryMethod)}
	}

	details, svcErr := s.GetDetails(ctx, accountID)
	if svcErr != nil {
		return nil, svcErr
	}

	if req.DeliveryMethod.IsPickup() {
		if req.StoreID == nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Pickup requires a store"}
		}
		if _, err := s.storeRepo.FindByID(ctx, *req.StoreID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ServiceError{StatusCode: 404, Message: "Store not found"}
			}
			s.logger.Error("Store lookup failed", zap.Error(err))
			return nil, internalError("Failed to set delivery method")
		}
		details.DeliveryMethod = req.DeliveryMethod
		details.StoreID = req.StoreID
		details.ShippingFee = 0
	} else {
		if details.AddressID == nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Select a delivery address first"}
		}
		// The staged address may have been deleted between steps.
		address, svcErr := s.loadAddress(ctx, *details.AddressID, accountID, "Failed to set delivery method")
		if svcErr != nil {
			return nil, svcErr
		}
		quote, svcErr := s.shippingService.Quote(ctx, req.DeliveryMethod, address)
		if svcErr != nil {
			return nil, svcErr
		}
		details.DeliveryMethod = req.DeliveryMethod
		details.StoreID = nil
		details.ShippingFee = quote.Fee
	}

	if err := s.checkouts.SaveDetails(ctx, accountID, details); err != nil {
		s.logger.Error("Failed to save checkout details", zap.Error(err))
		return nil, internalError("Failed to set delivery method")
	}
	return details, nil
}

func (s *checkoutServiceImpl) ApplyVoucher(ctx context.Context, accountID uuid.UUID, code string) (*models.ApplyVoucherResponse, *ServiceError) {
	subtotal, svcErr := s.cartService.Subtotal(ctx, models.AccountIdentity(accountID))
	if svcErr != nil {
		return nil, svcErr
	}

	voucher, discount, svcErr := s.voucherService.Validate(ctx, code, accountID, subtotal)
	if svcErr != nil {
		return nil, svcErr
	}

	details, svcErr := s.GetDetails(ctx, accountID)
	if svcErr != nil {
		return nil, svcErr
	}
	details.VoucherCode = voucher.Code
	if err := s.checkouts.SaveDetails(ctx, accountID, details); err != nil {
		s.logger.Error("Failed to save checkout details", zap.Error(err))
		return nil, internalError("Failed to apply voucher")
	}

	return &models.ApplyVoucherResponse{
		Code:           voucher.Code,
		Type:           voucher.Type,
		DiscountAmount: discount,
		CartSubtotal:   subtotal,
	}, nil
}

func (s *checkoutServiceImpl) RemoveVoucher(ctx context.Context, accountID uuid.UUID) *ServiceError {
	details, svcErr := s.GetDetails(ctx, accountID)
	if svcErr != nil {
		return svcErr
	}
	if details.VoucherCode == "" {
		return nil
	}
	details.VoucherCode = ""
	if err := s.checkouts.SaveDetails(ctx, accountID, details); err != nil {
		s.logger.Error("Failed to save checkout details", zap.Error(err))
		return internalError("Failed to remove voucher")
	}
	return nil
}

func (s *checkoutServiceImpl) QuoteShipping(ctx context.Context, accountID uuid.UUID, method models.DeliveryMethod, addressID *uuid.UUID) (*models.ShippingQuote, *ServiceError) {
	if method.IsPickup() {
		return s.shippingService.Quote(ctx, method, nil)
	}

	if addressID == nil {
		details, svcErr := s.GetDetails(ctx, accountID)
		if svcErr != nil {
			return nil, svcErr
		}
		if details.AddressID == nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Select a delivery address first"}
		}
		addressID = details.AddressID
	}
	address, svcErr := s.loadAddress(ctx, *addressID, accountID, "Failed to compute shipping fee")
	if svcErr != nil {
		return nil, svcErr
	}
	return s.shippingService.Quote(ctx, method, address)
}

// loadAddress resolves an address scoped to the account, mapping a missing
// row to 404.
func (s *checkoutServiceImpl) loadAddress(ctx context.Context, addressID, accountID uuid.UUID, failMsg string) (*models.Address, *ServiceError) {
	address, err := s.addressRepo.FindByIDAndAccount(ctx, addressID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Address not found"}
		}
		s.logger.Error("Address lookup failed", zap.Error(err))
		return nil, internalError(failMsg)
	}
	return address, nil
}

func (s *checkoutServiceImpl) Preview(ctx context.Context, accountID uuid.UUID) (*models.CheckoutPreview, *ServiceError) {
	details, svcErr := s.GetDetails(ctx, accountID)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.pricingService.Preview(ctx, accountID, details)
}

func (s *checkoutServiceImpl) ProcessPayment(ctx context.Context, accountID uuid.UUID, req *models.ProcessPaymentRequest) (*PaymentResult, *ServiceError) {
	switch req.PaymentMethod {
	case models.PaymentMethodCOD, models.PaymentMethodMaya, models.PaymentMethodCard:
	default:
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown payment method: " + req.PaymentMethod}
	}

	details, svcErr := s.GetDetails(ctx, accountID)
	if svcErr != nil {
		return nil, svcErr
	}
	if details.DeliveryMethod == "" {
		return nil, &ServiceError{StatusCode: 400, Message: "Select a delivery method first"}
	}
	if details.DeliveryMethod.IsPickup() && details.StoreID == nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Pickup requires a store"}
	}
	if !details.DeliveryMethod.IsPickup() && details.AddressID == nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Select a delivery address first"}
	}

	// Recompute everything at commit time. The preview re-runs voucher
	// validation, so a voucher that went bad since staging rejects the
	// whole commit instead of silently shrinking the discount.
	preview, svcErr := s.pricingService.Preview(ctx, accountID, details)
	if svcErr != nil {
		return nil, svcErr
	}
	if len(preview.Lines) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	var voucher *models.Voucher
	if details.VoucherCode != "" {
		voucher, _, svcErr = s.voucherService.Validate(ctx, details.VoucherCode, accountID, preview.Subtotal)
		if svcErr != nil {
			return nil, svcErr
		}
	}

	order := buildOrder(accountID, details, preview, req.PaymentMethod)

	if req.PaymentMethod == models.PaymentMethodCOD {
		return s.commitCOD(ctx, order, voucher)
	}
	return s.createGatewayOrder(ctx, order)
}

// commitCOD places a cash-on-delivery order. Payment collection happens at
// the door, so the order is PAID immediately and stock and voucher are
// consumed in the same transaction that creates it.
func (s *checkoutServiceImpl) commitCOD(ctx context.Context, order *models.Order, voucher *models.Voucher) (*PaymentResult, *ServiceError) {
	order.PaymentStatus = models.PaymentStatusPaid

	var svcErr *ServiceError
	err := s.txManager.Transaction(ctx, func(tx *gorm.DB) error {
		if svcErr = s.commitOrder(tx, order, voucher); svcErr != nil {
			return svcErr
		}
		return nil
	})
	if err != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		s.logger.Error("Order commit failed", zap.Error(err))
		return nil, internalError("Failed to place order")
	}

	s.finishCheckout(ctx, order)

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_method", order.PaymentMethod),
		zap.Float64("total", order.TotalPrice),
	)
	return &PaymentResult{Order: order}, nil
}

// createGatewayOrder places a PENDING shell and opens a gateway checkout
// session. Stock and voucher are not touched until the gateway confirms.
func (s *checkoutServiceImpl) createGatewayOrder(ctx context.Context, order *models.Order) (*PaymentResult, *ServiceError) {
	order.PaymentStatus = models.PaymentStatusPending

	err := s.txManager.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.CreateTx(tx, order); err != nil {
			return err
		}
		return s.orderRepo.AppendHistoryTx(tx, &models.OrderHistory{
			OrderID: order.ID,
			Status:  order.ShippingStatus,
			Notes:   "Awaiting payment",
		})
	})
	if err != nil {
		s.logger.Error("Failed to create pending order", zap.Error(err))
		return nil, internalError("Failed to place order")
	}

	session, err := s.gateway.CreateCheckout(ctx, order)
	if err != nil {
		// The pending shell stays cancellable; nothing was consumed.
		s.logger.Error("Gateway checkout failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 502, Message: "Payment gateway unavailable, please retry"}
	}

	if err := s.orderRepo.SetPaymentTransactionID(ctx, order.ID, session.CheckoutID); err != nil {
		s.logger.Error("Failed to record gateway transaction id",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	order.PaymentTransactionID = session.CheckoutID

	s.logger.Info("Pending order created",
		zap.String("order_id", order.ID.String()),
		zap.String("checkout_id", session.CheckoutID),
	)
	return &PaymentResult{Order: order, RedirectURL: session.RedirectURL}, nil
}

func (s *checkoutServiceImpl) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Order lookup failed", zap.Error(err))
		return nil, internalError("Failed to confirm payment")
	}

	// Gateways retry webhooks; a repeat confirmation is a no-op.
	if order.PaymentStatus == models.PaymentStatusPaid {
		return order, nil
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		return nil, &ServiceError{StatusCode: 409, Message: "Order is not awaiting payment"}
	}

	var voucher *models.Voucher
	if order.VoucherCode != "" {
		voucher, _ = s.voucherService.GetVoucher(ctx, order.VoucherCode)
		if voucher == nil {
			return nil, internalError("Failed to confirm payment")
		}
	}

	var svcErr *ServiceError
	err = s.txManager.Transaction(ctx, func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := s.productRepo.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					svcErr = &ServiceError{
						StatusCode: 409,
						Code:       CodeInsufficientStock,
						Message:    "Insufficient stock for product " + item.ProductID.String(),
					}
					return svcErr
				}
				return err
			}
		}
		if voucher != nil {
			if svcErr = s.voucherService.Consume(tx, voucher, order.AccountID, order.ID); svcErr != nil {
				return svcErr
			}
		}

		order.PaymentStatus = models.PaymentStatusPaid
		if err := s.orderRepo.UpdateStatusTx(tx, order); err != nil {
			return err
		}
		if err := s.orderRepo.AppendHistoryTx(tx, &models.OrderHistory{
			OrderID: order.ID,
			Status:  order.ShippingStatus,
			Notes:   "Payment confirmed",
		}); err != nil {
			return err
		}
		return s.cartRepo.ClearTx(tx, order.AccountID)
	})
	if err != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		s.logger.Error("Payment confirmation failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internalError("Failed to confirm payment")
	}

	if err := s.checkouts.DeleteDetails(ctx, order.AccountID); err != nil {
		s.logger.Warn("Failed to clear checkout details", zap.Error(err))
	}
	s.publishPlaced(ctx, order)

	s.logger.Info("Payment confirmed", zap.String("order_id", order.ID.String()))
	return order, nil
}

func (s *checkoutServiceImpl) FailPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Order lookup failed", zap.Error(err))
		return nil, internalError("Failed to cancel payment")
	}

	if order.PaymentStatus == models.PaymentStatusCancelled {
		return order, nil
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		return nil, &ServiceError{StatusCode: 409, Message: "Order is not awaiting payment"}
	}

	err = s.txManager.Transaction(ctx, func(tx *gorm.DB) error {
		order.PaymentStatus = models.PaymentStatusCancelled
		order.ShippingStatus = models.StatusCancelled
		if err := s.orderRepo.UpdateStatusTx(tx, order); err != nil {
			return err
		}
		return s.orderRepo.AppendHistoryTx(tx, &models.OrderHistory{
			OrderID: order.ID,
			Status:  models.StatusCancelled,
			Notes:   "Payment failed or was cancelled",
		})
	})
	if err != nil {
		s.logger.Error("Failed to cancel pending order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internalError("Failed to cancel payment")
	}

	s.logger.Info("Pending order cancelled", zap.String("order_id", order.ID.String()))
	return order, nil
}

// commitOrder runs the single-transaction commit: stock, order, history,
// voucher, cart. Any failure rolls everything back.
func (s *checkoutServiceImpl) commitOrder(tx *gorm.DB, order *models.Order, voucher *models.Voucher) *ServiceError {
	for _, item := range order.Items {
		if err := s.productRepo.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ServiceError{
					StatusCode: 409,
					Code:       CodeInsufficientStock,
					Message:    "Insufficient stock for product " + item.ProductID.String(),
				}
			}
			s.logger.Error("Stock decrement failed", zap.Error(err))
			return internalError("Failed to place order")
		}
	}

	if err := s.orderRepo.CreateTx(tx, order); err != nil {
		s.logger.Error("Order insert failed", zap.Error(err))
		return internalError("Failed to place order")
	}

	if err := s.orderRepo.AppendHistoryTx(tx, &models.OrderHistory{
		OrderID: order.ID,
		Status:  order.ShippingStatus,
		Notes:   "Order placed successfully",
	}); err != nil {
		s.logger.Error("Order history insert failed", zap.Error(err))
		return internalError("Failed to place order")
	}

	if voucher != nil {
		if svcErr := s.voucherService.Consume(tx, voucher, order.AccountID, order.ID); svcErr != nil {
			return svcErr
		}
	}

	if err := s.cartRepo.ClearTx(tx, order.AccountID); err != nil {
		s.logger.Error("Cart clear failed", zap.Error(err))
		return internalError("Failed to place order")
	}
	return nil
}

// finishCheckout clears the staged state and publishes the placed event.
// Both are best-effort; the order is already durable.
func (s *checkoutServiceImpl) finishCheckout(ctx context.Context, order *models.Order) {
	if err := s.checkouts.DeleteDetails(ctx, order.AccountID); err != nil {
		s.logger.Warn("Failed to clear checkout details", zap.Error(err))
	}
	s.publishPlaced(ctx, order)
}

func (s *checkoutServiceImpl) publishPlaced(ctx context.Context, order *models.Order) {
	if s.publisher == nil || s.topicARN == "" {
		return
	}
	event := models.OrderPlacedEvent{
		EventType:      "order.placed",
		OrderID:        order.ID.String(),
		AccountID:      order.AccountID.String(),
		DeliveryMethod: string(order.DeliveryMethod),
		PaymentMethod:  order.PaymentMethod,
		TotalPrice:     order.TotalPrice,
		Timestamp:      time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, s.topicARN, payload); err != nil {
		s.logger.Warn("Failed to publish order placed event",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

// buildOrder freezes the preview into an order shell. Unit prices and
// totals are copied, never recomputed afterwards.
func buildOrder(accountID uuid.UUID, details *models.CheckoutDetails, preview *models.CheckoutPreview, paymentMethod string) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		AccountID:       accountID,
		DeliveryMethod:  details.DeliveryMethod,
		PaymentMethod:   paymentMethod,
		ShippingStatus:  models.StatusProcessing,
		Subtotal:        preview.Subtotal,
		ShippingFee:     preview.ShippingFee,
		VoucherCode:     preview.VoucherCode,
		VoucherDiscount: preview.VoucherDiscount,
		TotalPrice:      preview.Total,
	}
	if details.DeliveryMethod.IsPickup() {
		order.StoreID = details.StoreID
	} else {
		order.AddressID = details.AddressID
	}

	order.Items = make([]models.OrderItem, 0, len(preview.Lines))
	for _, line := range preview.Lines {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return order
}

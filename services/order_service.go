package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocery-backend/models"
	"grocery-backend/pkg/aws"
	"grocery-backend/repository"
)

// OrderService drives the fulfillment lifecycle after an order is placed.
// Every transition is checked against the state machine, persisted together
// with its audit row, and announced on SNS.
type OrderService interface {
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError)
	GetUserOrder(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, *ServiceError)
	GetUserOrders(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.Order, int64, *ServiceError)
	GetAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError)
	// Transition moves the order to newStatus if the state machine allows
	// the edge for the order's fulfillment branch.
	Transition(ctx context.Context, orderID uuid.UUID, newStatus models.ShippingStatus, notes string) (*models.Order, *ServiceError)
	// CancelOrder cancels on behalf of the customer, which is only allowed
	// while the order is still in PROCESSING.
	CancelOrder(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	txManager   repository.TxManager
	publisher   aws.SNSPublisher
	topicARN    string
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	txManager repository.TxManager,
	publisher aws.SNSPublisher,
	topicARN string,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		txManager:   txManager,
		publisher:   publisher,
		topicARN:    topicARN,
		logger:      logger,
	}
}

func (s *orderServiceImpl) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Order lookup failed", zap.Error(err))
		return nil, internalError("Failed to load order")
	}
	return order, nil
}

func (s *orderServiceImpl) GetUserOrder(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByIDAndAccount(ctx, orderID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Order lookup failed", zap.Error(err))
		return nil, internalError("Failed to load order")
	}
	return order, nil
}

func (s *orderServiceImpl) GetUserOrders(ctx context.Context, accountID uuid.UUID, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.orderRepo.FindByAccount(ctx, accountID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, 0, internalError("Failed to list orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) GetAllOrders(ctx context.Context, page, limit int) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.orderRepo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, 0, internalError("Failed to list orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) Transition(ctx context.Context, orderID uuid.UUID, newStatus models.ShippingStatus, notes string) (*models.Order, *ServiceError) {
	var order *models.Order
	var svcErr *ServiceError

	err := s.txManager.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.FindByIDTx(tx, orderID)
		if err != nil {
			return err
		}

		from := order.ShippingStatus
		if !models.CanTransition(order.DeliveryMethod, from, newStatus) {
			svcErr = &ServiceError{
				StatusCode: 409,
				Code:       CodeInvalidTransition,
				Message:    fmt.Sprintf("Cannot transition from %s to %s", from, newStatus),
			}
			return svcErr
		}

		order.ShippingStatus = newStatus
		if newStatus == models.StatusCancelled {
			if svcErr = s.applyCancellation(tx, order); svcErr != nil {
				return svcErr
			}
		}

		if err := s.orderRepo.UpdateStatusTx(tx, order); err != nil {
			return err
		}
		return s.orderRepo.AppendHistoryTx(tx, &models.OrderHistory{
			OrderID: order.ID,
			Status:  newStatus,
			Notes:   notes,
		})
	})
	if err != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Status transition failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internalError("Failed to update order status")
	}

	s.publishStatusChange(ctx, order, newStatus, notes)

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(newStatus)),
	)
	return order, nil
}

func (s *orderServiceImpl) CancelOrder(ctx context.Context, orderID, accountID uuid.UUID) (*models.Order, *ServiceError) {
	var order *models.Order
	var svcErr *ServiceError

	err := s.txManager.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.FindByIDTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.AccountID != accountID {
			svcErr = &ServiceError{StatusCode: 404, Message: "Order not found"}
			return svcErr
		}

		// Customers can only back out before fulfillment starts; later
		// cancellations go through support, i.e. the admin endpoint.
		if order.ShippingStatus != models.StatusProcessing {
			svcErr = &ServiceError{
				StatusCode: 409,
				Code:       CodeInvalidTransition,
				Message:    fmt.Sprintf("Cannot cancel an order in %s", order.ShippingStatus),
			}
			return svcErr
		}

		order.ShippingStatus = models.StatusCancelled
		if svcErr = s.applyCancellation(tx, order); svcErr != nil {
			return svcErr
		}
		if err := s.orderRepo.UpdateStatusTx(tx, order); err != nil {
			return err
		}
		return s.orderRepo.AppendHistoryTx(tx, &models.OrderHistory{
			OrderID: order.ID,
			Status:  models.StatusCancelled,
			Notes:   "Cancelled by customer",
		})
	})
	if err != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Order cancellation failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internalError("Failed to cancel order")
	}

	s.publishStatusChange(ctx, order, models.StatusCancelled, "Cancelled by customer")

	s.logger.Info("Order cancelled", zap.String("order_id", order.ID.String()))
	return order, nil
}

// applyCancellation restores stock for paid orders and settles the payment
// status. Pending gateway orders never consumed stock, so there is nothing
// to put back.
func (s *orderServiceImpl) applyCancellation(tx *gorm.DB, order *models.Order) *ServiceError {
	switch order.PaymentStatus {
	case models.PaymentStatusPaid:
		for _, item := range order.Items {
			if err := s.productRepo.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
				s.logger.Error("Stock restore failed",
					zap.String("order_id", order.ID.String()),
					zap.String("product_id", item.ProductID.String()),
					zap.Error(err),
				)
				return internalError("Failed to cancel order")
			}
		}
		if order.PaymentMethod == models.PaymentMethodCOD {
			order.PaymentStatus = models.PaymentStatusCancelled
		} else {
			order.PaymentStatus = models.PaymentStatusRefunded
		}
	case models.PaymentStatusPending:
		order.PaymentStatus = models.PaymentStatusCancelled
	}
	return nil
}

func (s *orderServiceImpl) publishStatusChange(ctx context.Context, order *models.Order, to models.ShippingStatus, notes string) {
	if s.publisher == nil || s.topicARN == "" {
		return
	}

	from := ""
	if n := len(order.History); n > 0 {
		from = string(order.History[n-1].Status)
	}
	event := models.OrderStatusChangedEvent{
		EventType: "order.status_changed",
		OrderID:   order.ID.String(),
		From:      from,
		To:        string(to),
		Notes:     notes,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, s.topicARN, payload); err != nil {
		s.logger.Warn("Failed to publish status change event",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"grocery-backend/models"
	"grocery-backend/services"
)

func orderFixture(method models.DeliveryMethod, status models.ShippingStatus, items ...models.OrderItem) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		AccountID:      uuid.New(),
		DeliveryMethod: method,
		PaymentMethod:  models.PaymentMethodCOD,
		PaymentStatus:  models.PaymentStatusPaid,
		ShippingStatus: status,
		Items:          items,
	}
}

func newTestOrderService(orders *mockOrderRepo, products *mockProductRepo) (services.OrderService, *mockSNSPublisher) {
	sns := &mockSNSPublisher{}
	svc := services.NewOrderService(orders, products, &mockTxManager{}, sns,
		"arn:aws:sns:ap-southeast-1:000000000000:order-events", testLogger())
	return svc, sns
}

func TestTransitionHappyPath(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusProcessing)
	orders := newMockOrderRepo(order)
	svc, sns := newTestOrderService(orders, newMockProductRepo())

	updated, svcErr := svc.Transition(context.Background(), order.ID, models.StatusPreparingForShipment, "Packing")
	assert.Nil(t, svcErr)
	assert.Equal(t, models.StatusPreparingForShipment, updated.ShippingStatus)

	// Audit row appended, event published.
	assert.Len(t, orders.history[order.ID], 1)
	assert.Equal(t, models.StatusPreparingForShipment, orders.history[order.ID][0].Status)
	assert.Equal(t, "Packing", orders.history[order.ID][0].Notes)
	assert.Len(t, sns.published, 1)
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusProcessing)
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	_, svcErr := svc.Transition(context.Background(), order.ID, models.StatusDelivered, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)

	// Nothing persisted.
	stored, _ := orders.FindByID(context.Background(), order.ID)
	assert.Equal(t, models.StatusProcessing, stored.ShippingStatus)
	assert.Empty(t, orders.history[order.ID])
}

func TestTransitionRejectsCrossBranchStates(t *testing.T) {
	pickup := orderFixture(models.DeliveryPickup, models.StatusPreparingForShipment)
	orders := newMockOrderRepo(pickup)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	_, svcErr := svc.Transition(context.Background(), pickup.ID, models.StatusInTransit, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)

	updated, svcErr := svc.Transition(context.Background(), pickup.ID, models.StatusReadyForPickup, "")
	assert.Nil(t, svcErr)
	assert.Equal(t, models.StatusReadyForPickup, updated.ShippingStatus)
}

func TestTransitionRejectsTerminalOrders(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusDelivered)
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	for _, to := range []models.ShippingStatus{
		models.StatusInTransit,
		models.StatusCancelled,
		models.StatusDeliveryFailed,
	} {
		_, svcErr := svc.Transition(context.Background(), order.ID, to, "")
		assert.NotNil(t, svcErr, string(to))
		assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
	}
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _ := newTestOrderService(newMockOrderRepo(), newMockProductRepo())

	_, svcErr := svc.Transition(context.Background(), uuid.New(), models.StatusPreparingForShipment, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestAdminCancelRestoresStockForPaidOrder(t *testing.T) {
	product := productFixture(50, 3)
	products := newMockProductRepo(product)
	order := orderFixture(models.DeliveryStandard, models.StatusInTransit, models.OrderItem{
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: 50,
	})
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, products)

	updated, svcErr := svc.Transition(context.Background(), order.ID, models.StatusCancelled, "Customer request")
	assert.Nil(t, svcErr)
	assert.Equal(t, models.StatusCancelled, updated.ShippingStatus)
	assert.Equal(t, models.PaymentStatusCancelled, updated.PaymentStatus)
	assert.Equal(t, 5, product.StockQuantity)
}

func TestCustomerCancelOnlyFromProcessing(t *testing.T) {
	product := productFixture(50, 0)
	products := newMockProductRepo(product)
	order := orderFixture(models.DeliveryStandard, models.StatusProcessing, models.OrderItem{
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: 50,
	})
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, products)

	updated, svcErr := svc.CancelOrder(context.Background(), order.ID, order.AccountID)
	assert.Nil(t, svcErr)
	assert.Equal(t, models.StatusCancelled, updated.ShippingStatus)
	assert.Equal(t, 1, product.StockQuantity)
}

func TestCustomerCancelRejectedAfterFulfillmentStarts(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusInTransit)
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	_, svcErr := svc.CancelOrder(context.Background(), order.ID, order.AccountID)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
}

func TestCustomerCancelHidesForeignOrders(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusProcessing)
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	_, svcErr := svc.CancelOrder(context.Background(), order.ID, uuid.New())
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestGetUserOrderScopedToAccount(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusProcessing)
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	found, svcErr := svc.GetUserOrder(context.Background(), order.ID, order.AccountID)
	assert.Nil(t, svcErr)
	assert.Equal(t, order.ID, found.ID)

	_, svcErr = svc.GetUserOrder(context.Background(), order.ID, uuid.New())
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestHistoryAccumulatesAcrossTransitions(t *testing.T) {
	order := orderFixture(models.DeliveryStandard, models.StatusProcessing)
	orders := newMockOrderRepo(order)
	svc, _ := newTestOrderService(orders, newMockProductRepo())

	steps := []models.ShippingStatus{
		models.StatusPreparingForShipment,
		models.StatusInTransit,
		models.StatusDelivered,
	}
	for _, step := range steps {
		_, svcErr := svc.Transition(context.Background(), order.ID, step, "")
		assert.Nil(t, svcErr)
	}

	history := orders.history[order.ID]
	assert.Len(t, history, 3)
	for i, step := range steps {
		assert.Equal(t, step, history[i].Status)
	}
}
